package fx

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/fx"

	"github.com/EternisAI/enchanted-assistant/pkg/agent/memory"
	"github.com/EternisAI/enchanted-assistant/pkg/bootstrap"
	"github.com/EternisAI/enchanted-assistant/pkg/config"
	"github.com/EternisAI/enchanted-assistant/pkg/factstore"
	"github.com/EternisAI/enchanted-assistant/pkg/logging"
	"github.com/EternisAI/enchanted-assistant/pkg/search"
)

// MemoryModule provides the fact store, knowledge base search and the memory
// service on top of them.
var MemoryModule = fx.Module("memory",
	fx.Provide(
		ProvideFactStore,
		ProvideSearcher,
		ProvideMemoryService,
	),
)

func ProvideFactStore(backend factstore.Backend, loggers *logging.Factory) *factstore.Store {
	return factstore.New(backend, loggers.ForRepository("factstore"))
}

func ProvideSearcher(envs *config.Config, awsCfg aws.Config, loggers *logging.Factory) (search.Searcher, error) {
	logger := loggers.ForClient("search")
	searcher, err := bootstrap.NewSearcher(envs, awsCfg, logger)
	if err != nil {
		logger.Error("Failed to create searcher", "backend", envs.SearchBackend, "error", err)
		return nil, err
	}
	logger.Debug("Knowledge base search ready", "backend", envs.SearchBackend)
	return searcher, nil
}

func ProvideMemoryService(store *factstore.Store, searcher search.Searcher, loggers *logging.Factory) *memory.Service {
	return memory.NewService(store, searcher, loggers.ForService("memory"))
}
