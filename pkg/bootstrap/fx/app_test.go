package fx

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/fx/fxtest"

	"github.com/EternisAI/enchanted-assistant/pkg/agent/memory"
	"github.com/EternisAI/enchanted-assistant/pkg/agent/tools"
	"github.com/EternisAI/enchanted-assistant/pkg/config"
	"github.com/EternisAI/enchanted-assistant/pkg/mcpserver"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AWSRegion:          "us-east-1",
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

func TestServerGraphValidates(t *testing.T) {
	logger := log.New(io.Discard)
	err := fx.ValidateApp(
		fx.WithLogger(func() fxevent.Logger { return NewCharmLoggerWithComponent(logger, "fx") }),
		fx.Supply(testConfig(t), logger),
		AppModule,
		fx.Provide(ProvideMCPServer),
		fx.Invoke(func(*mcpserver.Server) {}),
	)
	require.NoError(t, err)
}

func TestAppProvidesWorkingServices(t *testing.T) {
	logger := log.New(io.Discard)
	var (
		registry *tools.ToolMapRegistry
		service  *memory.Service
	)

	app := fxtest.New(t,
		fx.WithLogger(func() fxevent.Logger { return NewCharmLoggerWithComponent(logger, "fx") }),
		fx.Supply(testConfig(t), logger),
		AppModule,
		fx.Populate(&registry, &service),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Len(t, registry.List(), 5)

	ctx := context.Background()
	assert.Equal(t, "Successfully stored memory", service.Store(ctx, memory.StoreRequest{
		Content:     "had coffee with Sam",
		IdentityKey: "user",
	}))
	assert.Contains(t, service.Retrieve(ctx, memory.RetrieveRequest{IdentityKey: "user"}), "had coffee with Sam")
}
