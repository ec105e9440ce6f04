package logging

import (
	"github.com/charmbracelet/log"
)

// Factory provides component-aware loggers with consistent field naming.
type Factory struct {
	baseLogger        *log.Logger
	componentRegistry *ComponentRegistry
}

// NewFactory creates a new logger factory.
func NewFactory(baseLogger *log.Logger) *Factory {
	return &Factory{
		baseLogger:        baseLogger,
		componentRegistry: NewComponentRegistry(),
	}
}

// NewFactoryWithConfig creates a new logger factory and loads component log levels from config.
func NewFactoryWithConfig(baseLogger *log.Logger, componentLogLevels map[string]string) *Factory {
	registry := NewComponentRegistry()
	registry.LoadLogLevelsFromConfig(componentLogLevels)

	return &Factory{
		baseLogger:        baseLogger,
		componentRegistry: registry,
	}
}

// Registry exposes the component registry backing this factory.
func (lf *Factory) Registry() *ComponentRegistry {
	return lf.componentRegistry
}

func (lf *Factory) forType(id string, componentType ComponentType) *log.Logger {
	// Registering twice is harmless; the first registration wins.
	_ = lf.componentRegistry.RegisterComponent(id, componentType, nil)
	return lf.componentRegistry.GetLoggerForComponent(lf.baseLogger, id)
}

// ForComponent creates a logger for a specific component.
func (lf *Factory) ForComponent(id string) *log.Logger {
	return lf.forType(id, ComponentTypeUtility)
}

// ForService creates a logger for service components.
func (lf *Factory) ForService(id string) *log.Logger {
	return lf.forType(id, ComponentTypeService)
}

// ForRepository creates a logger for repository components.
func (lf *Factory) ForRepository(id string) *log.Logger {
	return lf.forType(id, ComponentTypeRepository)
}

// ForClient creates a logger for client components.
func (lf *Factory) ForClient(id string) *log.Logger {
	return lf.forType(id, ComponentTypeClient)
}

// ForServer creates a logger for server components.
func (lf *Factory) ForServer(id string) *log.Logger {
	return lf.forType(id, ComponentTypeServer)
}

// ForTool creates a logger for agent tools.
func (lf *Factory) ForTool(id string) *log.Logger {
	return lf.forType(id, ComponentTypeTool)
}
