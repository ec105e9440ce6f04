package memory

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"

	"github.com/EternisAI/enchanted-assistant/pkg/agent/types"
)

const (
	RetrieveToolName = "myownretrievetool"
	StoreToolName    = "myownstoretool"
)

// RetrieveTool exposes Service.Retrieve to the agent.
type RetrieveTool struct {
	Logger             *log.Logger
	Service            *Service
	DefaultIdentityKey string
}

// NewRetrieveTool creates the retrieve tool. defaultIdentityKey is used when
// the model omits "key" (single-user deployments); pass "" to require it.
func NewRetrieveTool(logger *log.Logger, service *Service, defaultIdentityKey string) *RetrieveTool {
	return &RetrieveTool{Logger: logger, Service: service, DefaultIdentityKey: defaultIdentityKey}
}

func (t *RetrieveTool) Execute(ctx context.Context, input map[string]any) (types.ToolResult, error) {
	query, err := types.StringArg(input, "query")
	if err != nil {
		return nil, err
	}
	kind, err := types.StringArg(input, "type")
	if err != nil {
		return nil, err
	}
	category, err := types.StringArg(input, "category")
	if err != nil {
		return nil, err
	}
	key, err := types.StringArg(input, "key")
	if err != nil {
		return nil, err
	}
	if key == "" {
		key = t.DefaultIdentityKey
	}

	t.Logger.Info("Memory retrieve", "type", kind, "category", category, "identity_key", key, "has_query", query != "")
	text := t.Service.Retrieve(ctx, RetrieveRequest{
		Query:       query,
		Kind:        ParseKind(kind),
		Category:    category,
		IdentityKey: key,
	})
	return types.TextToolResult(RetrieveToolName, text, input), nil
}

func (t *RetrieveTool) Definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: openai.FunctionDefinitionParam{
			Name:        RetrieveToolName,
			Description: param.NewOpt("Query the knowledge base and stored memories. Use type 'personal_fact' with a category to look up a single fact, or without one to list every fact about the user."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]string{
						"type":        "string",
						"description": "Free-text query for the knowledge base",
					},
					"type": map[string]string{
						"type":        "string",
						"description": "Type of content to retrieve: 'personal_fact', 'memory' (default), or any other value to search the knowledge base only",
					},
					"category": map[string]string{
						"type":        "string",
						"description": "Category for personal facts, e.g. 'birthday'",
					},
					"key": map[string]string{
						"type":        "string",
						"description": "Identity the data belongs to, e.g. the user's phone number",
					},
				},
			},
		},
	}
}

// StoreTool exposes Service.Store to the agent.
type StoreTool struct {
	Logger             *log.Logger
	Service            *Service
	DefaultIdentityKey string
}

func NewStoreTool(logger *log.Logger, service *Service, defaultIdentityKey string) *StoreTool {
	return &StoreTool{Logger: logger, Service: service, DefaultIdentityKey: defaultIdentityKey}
}

func (t *StoreTool) Execute(ctx context.Context, input map[string]any) (types.ToolResult, error) {
	content, err := types.StringArg(input, "content")
	if err != nil {
		return nil, err
	}
	kind, err := types.StringArg(input, "type")
	if err != nil {
		return nil, err
	}
	category, err := types.StringArg(input, "category")
	if err != nil {
		return nil, err
	}
	key, err := types.StringArg(input, "key")
	if err != nil {
		return nil, err
	}
	if key == "" {
		key = t.DefaultIdentityKey
	}

	t.Logger.Info("Memory store", "type", kind, "category", category, "identity_key", key)
	text := t.Service.Store(ctx, StoreRequest{
		Content:     content,
		Kind:        ParseKind(kind),
		Category:    category,
		IdentityKey: key,
	})
	return types.TextToolResult(StoreToolName, text, input), nil
}

func (t *StoreTool) Definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: openai.FunctionDefinitionParam{
			Name:        StoreToolName,
			Description: param.NewOpt("Store content in memory. Personal facts (type 'personal_fact') overwrite the previous value for the same category; anything else is appended to the memory log."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"content": map[string]string{
						"type":        "string",
						"description": "The content to store",
					},
					"type": map[string]string{
						"type":        "string",
						"description": "Type of content: 'personal_fact' or a memory log tag (default 'memory')",
					},
					"category": map[string]string{
						"type":        "string",
						"description": "Category for personal facts, e.g. 'birthday' or 'favorite_color'",
					},
					"key": map[string]string{
						"type":        "string",
						"description": "Identity the data belongs to, e.g. the user's phone number",
					},
				},
				"required": []string{"content"},
			},
		},
	}
}
