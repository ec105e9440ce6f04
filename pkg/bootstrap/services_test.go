package bootstrap

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EternisAI/enchanted-assistant/pkg/agent/memory"
	"github.com/EternisAI/enchanted-assistant/pkg/agent/tools"
	"github.com/EternisAI/enchanted-assistant/pkg/config"
	"github.com/EternisAI/enchanted-assistant/pkg/factstore"
	"github.com/EternisAI/enchanted-assistant/pkg/logging"
	"github.com/EternisAI/enchanted-assistant/pkg/search"
	"github.com/EternisAI/enchanted-assistant/pkg/secrets"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		MemoryBackend:      config.MemoryBackendSQLite,
		DBPath:             filepath.Join(t.TempDir(), "memory.db"),
		MemoryTable:        "strands_memory",
		SearchBackend:      config.SearchBackendNone,
		SecretsBackend:     config.SecretsBackendEnv,
		XSecretName:        "xAPICreds",
		XMaxRetries:        3,
		DefaultIdentityKey: "user",
	}
}

func TestNewSearcherSelection(t *testing.T) {
	logger := log.New(io.Discard)
	conf := testConfig(t)

	searcher, err := NewSearcher(conf, aws.Config{}, logger)
	require.NoError(t, err)
	assert.IsType(t, search.Nop{}, searcher)

	conf.SearchBackend = config.SearchBackendBedrock
	searcher, err = NewSearcher(conf, aws.Config{Region: "us-east-1"}, logger)
	require.NoError(t, err)
	assert.IsType(t, search.Nop{}, searcher, "no knowledge base id configured")

	conf.KnowledgeBaseID = "KB123"
	searcher, err = NewSearcher(conf, aws.Config{Region: "us-east-1"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &search.BedrockRetriever{}, searcher)

	conf.SearchBackend = config.SearchBackendHTTP
	_, err = NewSearcher(conf, aws.Config{}, logger)
	assert.Error(t, err)

	conf.SearchAPIURL = "http://localhost:9/search"
	searcher, err = NewSearcher(conf, aws.Config{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &search.HTTPRetriever{}, searcher)
}

func TestNewSecretsProviderCaches(t *testing.T) {
	logger := log.New(io.Discard)
	conf := testConfig(t)

	provider, err := NewSecretsProvider(conf, aws.Config{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &secrets.EnvProvider{}, provider)

	conf.SecretsCacheTTL = time.Minute
	provider, err = NewSecretsProvider(conf, aws.Config{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &secrets.CachedProvider{}, provider)
}

func TestToolRegistryOverSQLite(t *testing.T) {
	ctx := context.Background()
	logger := log.New(io.Discard)
	conf := testConfig(t)

	backend, closeFn, err := NewMemoryBackend(ctx, conf, nil, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	service := memory.NewService(factstore.New(backend, logger), search.Nop{}, logger)
	provider, err := NewSecretsProvider(conf, aws.Config{}, logger)
	require.NoError(t, err)

	registry, err := NewToolRegistry(conf, ToolDeps{
		Memory:    service,
		Twitter:   NewTwitterClient(conf, provider, logger),
		WebSearch: NewWebSearchClient(conf, logger),
	}, logging.NewFactory(logger))
	require.NoError(t, err)

	assert.Equal(t, []string{
		tools.CurrentTimeToolName,
		memory.RetrieveToolName,
		memory.StoreToolName,
		tools.PostTweetToolName,
		tools.WebSearchToolName,
	}, registry.List())

	result, err := registry.Execute(ctx, memory.StoreToolName, map[string]any{
		"content":  "green",
		"type":     "personal_fact",
		"category": "favorite_color",
	})
	require.NoError(t, err)
	assert.Equal(t, "Successfully stored personal_fact: favorite_color = green", result.Content())

	result, err = registry.Execute(ctx, memory.RetrieveToolName, map[string]any{
		"type":     "personal_fact",
		"category": "favorite_color",
	})
	require.NoError(t, err)
	assert.Contains(t, result.Content(), "green")

	result, err = registry.Execute(ctx, tools.WebSearchToolName, map[string]any{"query": "go"})
	require.NoError(t, err)
	assert.Equal(t, "Missing API key for web search.", result.Content())
}

func TestToolRegistryHonoursEnabledAndDisabledTools(t *testing.T) {
	logger := log.New(io.Discard)
	conf := testConfig(t)
	deps := ToolDeps{Memory: memory.NewService(factstore.New(factstore.NewMapBackend(), logger), nil, logger)}

	conf.EnabledTools = []string{memory.RetrieveToolName, memory.StoreToolName, tools.CurrentTimeToolName}
	conf.DisabledTools = []string{memory.StoreToolName}
	registry, err := NewToolRegistry(conf, deps, logging.NewFactory(logger))
	require.NoError(t, err)
	assert.Equal(t, []string{tools.CurrentTimeToolName, memory.RetrieveToolName}, registry.List())

	conf.EnabledTools = nil
	registry, err = NewToolRegistry(conf, deps, logging.NewFactory(logger))
	require.NoError(t, err)
	assert.NotContains(t, registry.List(), memory.StoreToolName)
	assert.Len(t, registry.List(), 4)
}

func TestNewMemoryBackendRejectsUnknown(t *testing.T) {
	conf := testConfig(t)
	conf.MemoryBackend = "postgres"
	_, _, err := NewMemoryBackend(context.Background(), conf, nil, log.New(io.Discard))
	assert.Error(t, err)
}
