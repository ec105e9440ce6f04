package fx

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/fx"

	"github.com/EternisAI/enchanted-assistant/pkg/bootstrap"
	"github.com/EternisAI/enchanted-assistant/pkg/config"
	"github.com/EternisAI/enchanted-assistant/pkg/factstore"
	"github.com/EternisAI/enchanted-assistant/pkg/factstore/dynamostore"
	"github.com/EternisAI/enchanted-assistant/pkg/logging"
)

// DatabaseModule provides the document store backing the fact store.
var DatabaseModule = fx.Module("database",
	fx.Provide(
		ProvideDynamoStore,
		ProvideMemoryBackend,
	),
)

// ProvideDynamoStore creates the DynamoDB table client. Nothing is sent to
// AWS until it is used.
func ProvideDynamoStore(awsCfg aws.Config, envs *config.Config, loggers *logging.Factory) *dynamostore.Store {
	return dynamostore.NewFromConfig(awsCfg, envs.MemoryTable, loggers.ForRepository("dynamostore"))
}

// MemoryBackendParams holds parameters for the memory backend.
type MemoryBackendParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Loggers   *logging.Factory
	Dynamo    *dynamostore.Store
}

// ProvideMemoryBackend opens the configured backend and closes it on stop.
func ProvideMemoryBackend(params MemoryBackendParams) (factstore.Backend, error) {
	logger := params.Loggers.ForRepository("memory.backend")
	start := time.Now()

	backend, closeFn, err := bootstrap.NewMemoryBackend(context.Background(), params.Config, params.Dynamo, logger)
	if err != nil {
		logger.Error("Failed to create memory backend", "backend", params.Config.MemoryBackend, "error", err)
		return nil, err
	}
	logger.Debug("Memory backend initialized", "backend", params.Config.MemoryBackend, "elapsed", time.Since(start))

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Debug("Closing memory backend", "backend", params.Config.MemoryBackend)
			if err := closeFn(); err != nil {
				logger.Error("Error closing memory backend", "error", err)
				return err
			}
			return nil
		},
	})

	return backend, nil
}
