package fx

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"go.uber.org/fx/fxevent"
)

// CharmLogger adapts a charmbracelet logger to fxevent.Logger. Container
// events are debug noise for a CLI; only failures are reported above debug.
type CharmLogger struct {
	logger *log.Logger
}

func NewCharmLoggerWithComponent(logger *log.Logger, component string) fxevent.Logger {
	return &CharmLogger{logger: logger.With("component", component)}
}

func (l *CharmLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.logger.Error("OnStart hook failed", "function", e.FunctionName, "caller", e.CallerName, "error", e.Err)
			return
		}
		l.logger.Debug("OnStart hook", "function", e.FunctionName, "runtime", e.Runtime)
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.logger.Error("OnStop hook failed", "function", e.FunctionName, "caller", e.CallerName, "error", e.Err)
			return
		}
		l.logger.Debug("OnStop hook", "function", e.FunctionName, "runtime", e.Runtime)
	case *fxevent.Provided:
		if e.Err != nil {
			l.logger.Error("Provide failed", "constructor", e.ConstructorName, "error", e.Err)
			return
		}
		l.logger.Debug("Provide", "constructor", e.ConstructorName, "module", e.ModuleName, "type", e.OutputTypeNames)
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error("Invoke failed", "function", e.FunctionName, "error", e.Err)
			return
		}
		l.logger.Debug("Invoke", "function", e.FunctionName, "module", e.ModuleName)
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error("Start failed", "error", e.Err)
			return
		}
		l.logger.Debug("Running")
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error("Stop failed", "error", e.Err)
			return
		}
		l.logger.Debug("Stopped")
	case *fxevent.Supplied, *fxevent.OnStartExecuting, *fxevent.OnStopExecuting:
	default:
		l.logger.Debug("Event", "type", strings.TrimPrefix(fmt.Sprintf("%T", e), "*fxevent."))
	}
}
