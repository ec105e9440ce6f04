package tools

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"

	"github.com/EternisAI/enchanted-assistant/pkg/agent/types"
)

const WebSearchToolName = "websearch"

type WebSearcher interface {
	Run(ctx context.Context, query string) string
}

type WebSearchTool struct {
	Logger   *log.Logger
	Searcher WebSearcher
}

func NewWebSearchTool(logger *log.Logger, searcher WebSearcher) *WebSearchTool {
	return &WebSearchTool{Logger: logger, Searcher: searcher}
}

func (t *WebSearchTool) Execute(ctx context.Context, inputs map[string]any) (types.ToolResult, error) {
	query, err := types.StringArg(inputs, "query")
	if err != nil {
		return nil, err
	}
	if query == "" {
		return nil, errors.New("query is required")
	}

	t.Logger.Debug("Web search", "query", query)
	return types.TextToolResult(WebSearchToolName, t.Searcher.Run(ctx, query), inputs), nil
}

func (t *WebSearchTool) Definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: openai.FunctionDefinitionParam{
			Name: WebSearchToolName,
			Description: param.NewOpt(
				"Search the web and return the top results with title, snippet and link",
			),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]string{
						"type":        "string",
						"description": "The search query",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

var _ Tool = &WebSearchTool{}
