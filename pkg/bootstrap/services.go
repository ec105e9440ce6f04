package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/EternisAI/enchanted-assistant/pkg/agent/memory"
	"github.com/EternisAI/enchanted-assistant/pkg/agent/tools"
	"github.com/EternisAI/enchanted-assistant/pkg/config"
	"github.com/EternisAI/enchanted-assistant/pkg/db"
	"github.com/EternisAI/enchanted-assistant/pkg/factstore"
	"github.com/EternisAI/enchanted-assistant/pkg/factstore/dynamostore"
	"github.com/EternisAI/enchanted-assistant/pkg/logging"
	"github.com/EternisAI/enchanted-assistant/pkg/search"
	"github.com/EternisAI/enchanted-assistant/pkg/secrets"
	"github.com/EternisAI/enchanted-assistant/pkg/twitter"
	"github.com/EternisAI/enchanted-assistant/pkg/websearch"
)

// NewAWSConfig loads the shared AWS configuration for the configured region.
// Credentials are resolved lazily by the SDK on first use.
func NewAWSConfig(ctx context.Context, conf *config.Config) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(conf.AWSRegion))
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "failed to load AWS config")
	}
	return cfg, nil
}

// NewMemoryBackend opens the document store selected by MEMORY_BACKEND. The
// returned close function releases it.
func NewMemoryBackend(ctx context.Context, conf *config.Config, dynamo *dynamostore.Store, logger *log.Logger) (factstore.Backend, func() error, error) {
	switch conf.MemoryBackend {
	case config.MemoryBackendSQLite:
		store, err := db.NewStore(ctx, conf.DBPath, logger)
		if err != nil {
			return nil, nil, errors.Wrap(err, "unable to create or initialize database")
		}
		logger.Info("Using SQLite memory backend", "path", conf.DBPath)
		return store, store.Close, nil
	case config.MemoryBackendDynamoDB:
		logger.Info("Using DynamoDB memory backend", "table", conf.MemoryTable)
		return dynamo, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported memory backend: %s", conf.MemoryBackend)
	}
}

// NewSearcher builds the knowledge base client selected by SEARCH_BACKEND.
func NewSearcher(conf *config.Config, awsCfg aws.Config, logger *log.Logger) (search.Searcher, error) {
	switch conf.SearchBackend {
	case config.SearchBackendBedrock:
		if conf.KnowledgeBaseID == "" {
			logger.Warn("KNOWLEDGE_BASE_ID is not set, knowledge base search disabled")
			return search.Nop{}, nil
		}
		retriever, err := search.NewBedrockRetrieverFromConfig(awsCfg, conf.KnowledgeBaseID, conf.SearchLimit, logger)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Bedrock retriever")
		}
		return retriever, nil
	case config.SearchBackendWeaviate:
		client, err := weaviate.NewClient(weaviate.Config{
			Host:   conf.WeaviateHost,
			Scheme: conf.WeaviateScheme,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Weaviate client")
		}
		return search.NewWeaviateRetriever(client, conf.WeaviateClass, conf.SearchLimit, logger), nil
	case config.SearchBackendHTTP:
		if conf.SearchAPIURL == "" {
			return nil, errors.New("SEARCH_API_URL is required for the http search backend")
		}
		return search.NewHTTPRetriever(conf.SearchAPIURL, logger,
			search.WithAPIKey(conf.SearchAPIKey),
			search.WithLimit(conf.SearchLimit),
		), nil
	case config.SearchBackendNone:
		return search.Nop{}, nil
	default:
		return nil, fmt.Errorf("unsupported search backend: %s", conf.SearchBackend)
	}
}

// NewSecretsProvider builds the credential source, wrapped in a TTL cache when
// SECRETS_CACHE_TTL is positive.
func NewSecretsProvider(conf *config.Config, awsCfg aws.Config, logger *log.Logger) (secrets.Provider, error) {
	var provider secrets.Provider
	switch conf.SecretsBackend {
	case config.SecretsBackendAWS:
		provider = secrets.NewAWSProviderFromConfig(awsCfg, logger)
	case config.SecretsBackendEnv:
		provider = secrets.NewEnvProvider()
	default:
		return nil, fmt.Errorf("unsupported secrets backend: %s", conf.SecretsBackend)
	}

	if conf.SecretsCacheTTL > 0 {
		logger.Debug("Caching secrets", "ttl", conf.SecretsCacheTTL)
		provider = secrets.NewCachedProvider(provider, conf.SecretsCacheTTL, logger)
	}
	return provider, nil
}

func NewTwitterClient(conf *config.Config, provider secrets.Provider, logger *log.Logger) *twitter.Client {
	return twitter.New(provider, conf.XSecretName, logger,
		twitter.WithBaseURL(conf.XAPIBaseURL),
		twitter.WithTimeout(conf.XTimeout),
		twitter.WithRetryPolicy(conf.XMaxRetries, conf.XRetryDelay),
		twitter.WithRequestsPerSecond(conf.XRequestsPerSecond),
	)
}

func NewWebSearchClient(conf *config.Config, logger *log.Logger) *websearch.Client {
	return websearch.NewClient(conf.SerperAPIKey, logger,
		websearch.WithBaseURL(conf.SerperAPIURL),
	)
}

// ToolDeps are the services the assistant's tools call into.
type ToolDeps struct {
	Memory    *memory.Service
	Twitter   tools.TweetExecutor
	WebSearch tools.WebSearcher
}

// NewToolRegistry registers every assistant tool, then narrows the set to
// ENABLED_TOOLS (when given) minus DISABLED_TOOLS.
func NewToolRegistry(conf *config.Config, deps ToolDeps, loggers *logging.Factory) (*tools.ToolMapRegistry, error) {
	registry := tools.NewRegistry()
	err := registry.Register(
		memory.NewRetrieveTool(loggers.ForTool(memory.RetrieveToolName), deps.Memory, conf.DefaultIdentityKey),
		memory.NewStoreTool(loggers.ForTool(memory.StoreToolName), deps.Memory, conf.DefaultIdentityKey),
		tools.NewPostTweetTool(loggers.ForTool(tools.PostTweetToolName), deps.Twitter),
		tools.NewWebSearchTool(loggers.ForTool(tools.WebSearchToolName), deps.WebSearch),
		tools.NewCurrentTimeTool(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to register tools")
	}

	if len(conf.EnabledTools) > 0 {
		registry = registry.Selecting(conf.EnabledTools...)
	}
	if len(conf.DisabledTools) > 0 {
		registry = registry.Excluding(conf.DisabledTools...)
	}
	loggers.ForService("tools").Debug("Tool registry ready", "tools", registry.List())
	return registry, nil
}
