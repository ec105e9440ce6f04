package fx

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/charmbracelet/log"
	"go.uber.org/fx"

	"github.com/EternisAI/enchanted-assistant/pkg/bootstrap"
	"github.com/EternisAI/enchanted-assistant/pkg/config"
	"github.com/EternisAI/enchanted-assistant/pkg/logging"
)

// InfrastructureModule provides logging and cloud configuration.
var InfrastructureModule = fx.Module("infrastructure",
	fx.Provide(
		ProvideLoggerFactory,
		ProvideAWSConfig,
	),
)

func ProvideLoggerFactory(logger *log.Logger, envs *config.Config) *logging.Factory {
	return logging.NewFactoryWithConfig(logger, envs.ComponentLogLevels)
}

// ProvideAWSConfig loads the shared AWS configuration.
func ProvideAWSConfig(logger *log.Logger, envs *config.Config) (aws.Config, error) {
	cfg, err := bootstrap.NewAWSConfig(context.Background(), envs)
	if err != nil {
		logger.Error("Failed to load AWS config", "error", err)
		return aws.Config{}, err
	}
	logger.Debug("AWS config loaded", "region", cfg.Region)
	return cfg, nil
}
