package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/samber/lo"

	"github.com/EternisAI/enchanted-assistant/pkg/agent/types"
)

// ToolRegistry defines the contract for tool registries.
type ToolRegistry interface {
	Register(tools ...Tool) error
	Get(name string) (Tool, bool)
	Execute(ctx context.Context, name string, params map[string]any) (types.ToolResult, error)

	// Definitions returns the tool definitions sorted by name.
	Definitions() []openai.ChatCompletionToolParam
	List() []string
	Excluding(toolNames ...string) *ToolMapRegistry
	Selecting(toolNames ...string) *ToolMapRegistry
}

// ToolMapRegistry manages the registration and retrieval of tools.
type ToolMapRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *ToolMapRegistry {
	return &ToolMapRegistry{
		tools: make(map[string]Tool),
	}
}

// Register adds tools to the registry. Names must be unique.
func (r *ToolMapRegistry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tool := range tools {
		def := tool.Definition()
		if def.Type != "function" {
			return fmt.Errorf("only function tools are supported, got %s", def.Type)
		}

		toolName := def.Function.Name
		if toolName == "" {
			return fmt.Errorf("tool name cannot be empty")
		}

		if _, exists := r.tools[toolName]; exists {
			return fmt.Errorf("tool '%s' is already registered", toolName)
		}

		r.tools[toolName] = tool
	}

	return nil
}

func (r *ToolMapRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// Execute runs a tool by name. Structured results get the tool name and a
// request id filled in when the tool left them empty.
func (r *ToolMapRegistry) Execute(ctx context.Context, name string, params map[string]any) (types.ToolResult, error) {
	tool, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("tool '%s' not found", name)
	}

	result, err := tool.Execute(ctx, params)
	if err != nil {
		return nil, err
	}

	if structResult, ok := result.(*types.StructuredToolResult); ok {
		if structResult.ToolName == "" {
			structResult.ToolName = name
		}
		if structResult.RequestID == "" {
			structResult.RequestID = uuid.NewString()
		}
	}

	return result, nil
}

func (r *ToolMapRegistry) Definitions() []openai.ChatCompletionToolParam {
	return lo.Map(r.List(), func(name string, _ int) openai.ChatCompletionToolParam {
		tool, _ := r.Get(name)
		return tool.Definition()
	})
}

// List returns the registered tool names in sorted order.
func (r *ToolMapRegistry) List() []string {
	r.mu.RLock()
	names := lo.Keys(r.tools)
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Excluding returns a new registry without the named tools.
func (r *ToolMapRegistry) Excluding(toolNames ...string) *ToolMapRegistry {
	return r.filter(func(name string) bool { return !lo.Contains(toolNames, name) })
}

// Selecting returns a new registry with only the named tools.
func (r *ToolMapRegistry) Selecting(toolNames ...string) *ToolMapRegistry {
	return r.filter(func(name string) bool { return lo.Contains(toolNames, name) })
}

func (r *ToolMapRegistry) filter(keep func(name string) bool) *ToolMapRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	newRegistry := NewRegistry()
	for name, tool := range r.tools {
		if keep(name) {
			newRegistry.tools[name] = tool
		}
	}
	return newRegistry
}

var _ ToolRegistry = (*ToolMapRegistry)(nil)
