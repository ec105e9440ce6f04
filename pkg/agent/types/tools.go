package types

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// ToolResult defines the interface for results returned by tools
type ToolResult interface {
	// Tool returns the name of the tool that was executed
	Tool() string

	// Content returns the text content result from the tool
	Content() string

	// Data returns any structured data from the tool
	Data() any

	// Error returns any error message if execution failed
	Error() string

	// Params returns the parameters used for execution
	Params() map[string]any
}

// StructuredToolResult is a standard implementation of ToolResult
type StructuredToolResult struct {
	RequestID   string         `json:"request_id,omitempty"`
	ToolName    string         `json:"tool"`
	ToolParams  map[string]any `json:"params"`
	ToolContent string         `json:"content"`
	Output      any            `json:"data,omitempty"`
	ToolError   string         `json:"error,omitempty"`
}

func (t *StructuredToolResult) Tool() string           { return t.ToolName }
func (t *StructuredToolResult) Content() string        { return t.ToolContent }
func (t *StructuredToolResult) Data() any              { return t.Output }
func (t *StructuredToolResult) Error() string          { return t.ToolError }
func (t *StructuredToolResult) Params() map[string]any { return t.ToolParams }

// SimpleToolResult creates a minimal tool result with just content
func SimpleToolResult(content string) *StructuredToolResult {
	return &StructuredToolResult{
		ToolContent: content,
		ToolParams:  make(map[string]any),
	}
}

// TextToolResult creates a result carrying the inputs it was produced from.
func TextToolResult(name, content string, params map[string]any) *StructuredToolResult {
	return &StructuredToolResult{
		ToolName:    name,
		ToolContent: content,
		ToolParams:  params,
	}
}

// Tool defines the interface for all executable tools
type Tool interface {
	// Definition returns the tool metadata
	Definition() openai.ChatCompletionToolParam

	// Execute runs the tool with given inputs
	Execute(ctx context.Context, inputs map[string]any) (ToolResult, error)
}

// StringArg reads an optional string argument. A missing or null value yields
// "", any other non-string type is an error.
func StringArg(inputs map[string]any, key string) (string, error) {
	v, ok := inputs[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return s, nil
}
