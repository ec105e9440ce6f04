package fx

import (
	"github.com/charmbracelet/log"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/EternisAI/enchanted-assistant/pkg/config"
)

// AppModule combines the modules every command needs. Constructors run only
// for the types a command actually populates.
var AppModule = fx.Options(
	InfrastructureModule,
	DatabaseModule,
	MemoryModule,
	ToolsModule,
)

// NewApp builds an fx application around an already loaded config and logger.
func NewApp(conf *config.Config, logger *log.Logger, opts ...fx.Option) *fx.App {
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return NewCharmLoggerWithComponent(logger, "fx")
		}),
		fx.Supply(conf, logger),
		AppModule,
		fx.Options(opts...),
	)
}
