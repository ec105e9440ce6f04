package logging

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

type ComponentType string

const (
	ComponentTypeService    ComponentType = "service"
	ComponentTypeRepository ComponentType = "repository"
	ComponentTypeClient     ComponentType = "client"
	ComponentTypeServer     ComponentType = "server"
	ComponentTypeTool       ComponentType = "tool"
	ComponentTypeUtility    ComponentType = "utility"
)

// ComponentInfo describes a registered component.
type ComponentInfo struct {
	ID       string
	Type     ComponentType
	Level    log.Level
	HasLevel bool
	Metadata map[string]string
}

// ComponentRegistry tracks components and their log level overrides.
type ComponentRegistry struct {
	mu         sync.RWMutex
	components map[string]*ComponentInfo
	levels     map[string]log.Level
}

func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		components: make(map[string]*ComponentInfo),
		levels:     make(map[string]log.Level),
	}
}

// RegisterComponent records a component. Registering the same id twice is an error.
func (r *ComponentRegistry) RegisterComponent(id string, componentType ComponentType, metadata map[string]string) error {
	if id == "" {
		return fmt.Errorf("component id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.components[id]; exists {
		return fmt.Errorf("component %q already registered", id)
	}

	info := &ComponentInfo{ID: id, Type: componentType, Metadata: metadata}
	if level, ok := r.levelFor(id); ok {
		info.Level = level
		info.HasLevel = true
	}
	r.components[id] = info
	return nil
}

// levelFor matches the exact id first, then the id's first dotted segment.
// Caller holds r.mu.
func (r *ComponentRegistry) levelFor(id string) (log.Level, bool) {
	if level, ok := r.levels[id]; ok {
		return level, true
	}
	if root, _, found := strings.Cut(id, "."); found {
		if level, ok := r.levels[root]; ok {
			return level, true
		}
	}
	return 0, false
}

// LoadLogLevelsFromConfig applies "component -> level" pairs. Unknown level names are ignored.
func (r *ComponentRegistry) LoadLogLevelsFromConfig(levels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, raw := range levels {
		level, err := log.ParseLevel(raw)
		if err != nil {
			continue
		}
		r.levels[id] = level
		if info, ok := r.components[id]; ok {
			info.Level = level
			info.HasLevel = true
		}
	}
}

// GetComponent returns a copy of the registered component info.
func (r *ComponentRegistry) GetComponent(id string) (ComponentInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.components[id]
	if !ok {
		return ComponentInfo{}, false
	}
	return *info, true
}

// GetLoggerForComponent derives a child logger tagged with the component id and type.
func (r *ComponentRegistry) GetLoggerForComponent(base *log.Logger, id string) *log.Logger {
	r.mu.RLock()
	info, ok := r.components[id]
	r.mu.RUnlock()

	logger := base.With("component", id)
	if !ok {
		return logger
	}
	logger = logger.With("component_type", string(info.Type))
	if info.HasLevel {
		logger.SetLevel(info.Level)
	}
	return logger
}
