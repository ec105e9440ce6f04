package bootstrap

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

type customLogWriter struct {
	out io.Writer
}

func (w *customLogWriter) Write(p []byte) (n int, err error) {
	return w.out.Write(p)
}

// NewLogger builds the base logger. Logs go to stderr so stdout stays free for
// tool output and the MCP stdio transport.
func NewLogger(level string) *log.Logger {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}

	logger := log.NewWithOptions(&customLogWriter{out: os.Stderr}, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Level:           parsed,
		TimeFormat:      time.Kitchen,
	})

	logger.SetColorProfile(lipgloss.ColorProfile())

	return logger
}
