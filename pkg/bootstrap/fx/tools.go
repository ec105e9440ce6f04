package fx

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/fx"

	"github.com/EternisAI/enchanted-assistant/pkg/agent/memory"
	"github.com/EternisAI/enchanted-assistant/pkg/agent/tools"
	"github.com/EternisAI/enchanted-assistant/pkg/bootstrap"
	"github.com/EternisAI/enchanted-assistant/pkg/config"
	"github.com/EternisAI/enchanted-assistant/pkg/logging"
	"github.com/EternisAI/enchanted-assistant/pkg/secrets"
	"github.com/EternisAI/enchanted-assistant/pkg/twitter"
	"github.com/EternisAI/enchanted-assistant/pkg/websearch"
)

// ToolsModule provides the external clients and the tool registry.
var ToolsModule = fx.Module("tools",
	fx.Provide(
		ProvideSecretsProvider,
		ProvideTwitterClient,
		ProvideWebSearchClient,
		ProvideToolRegistry,
	),
)

func ProvideSecretsProvider(envs *config.Config, awsCfg aws.Config, loggers *logging.Factory) (secrets.Provider, error) {
	return bootstrap.NewSecretsProvider(envs, awsCfg, loggers.ForClient("secrets"))
}

func ProvideTwitterClient(envs *config.Config, provider secrets.Provider, loggers *logging.Factory) *twitter.Client {
	return bootstrap.NewTwitterClient(envs, provider, loggers.ForClient("twitter"))
}

func ProvideWebSearchClient(envs *config.Config, loggers *logging.Factory) *websearch.Client {
	return bootstrap.NewWebSearchClient(envs, loggers.ForClient("websearch"))
}

// ToolRegistryParams holds parameters for tool registration.
type ToolRegistryParams struct {
	fx.In
	Config    *config.Config
	Loggers   *logging.Factory
	Memory    *memory.Service
	Twitter   *twitter.Client
	WebSearch *websearch.Client
}

// ProvideToolRegistry creates the registry with every assistant tool.
func ProvideToolRegistry(params ToolRegistryParams) (*tools.ToolMapRegistry, error) {
	logger := params.Loggers.ForComponent("tools.core")

	registry, err := bootstrap.NewToolRegistry(params.Config, bootstrap.ToolDeps{
		Memory:    params.Memory,
		Twitter:   params.Twitter,
		WebSearch: params.WebSearch,
	}, params.Loggers)
	if err != nil {
		logger.Error("Failed to register tools", "error", err)
		return nil, err
	}

	logger.Debug("Tools registered", "tools", registry.List())
	return registry, nil
}
