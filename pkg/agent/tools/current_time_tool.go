package tools

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"

	"github.com/EternisAI/enchanted-assistant/pkg/agent/types"
)

const CurrentTimeToolName = "current_time"

// CurrentTimeTool reports the current time in RFC 3339, in UTC unless an IANA
// timezone is given.
type CurrentTimeTool struct {
	Now func() time.Time
}

func NewCurrentTimeTool() *CurrentTimeTool {
	return &CurrentTimeTool{Now: time.Now}
}

func (t *CurrentTimeTool) Execute(_ context.Context, inputs map[string]any) (types.ToolResult, error) {
	timezone, err := types.StringArg(inputs, "timezone")
	if err != nil {
		return nil, err
	}

	loc := time.UTC
	if timezone != "" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return types.TextToolResult(CurrentTimeToolName, fmt.Sprintf("Error: unknown timezone %q", timezone), inputs), nil
		}
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return types.TextToolResult(CurrentTimeToolName, now().In(loc).Format(time.RFC3339), inputs), nil
}

func (t *CurrentTimeTool) Definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: openai.FunctionDefinitionParam{
			Name:        CurrentTimeToolName,
			Description: param.NewOpt("Get the current date and time"),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"timezone": map[string]string{
						"type":        "string",
						"description": "IANA timezone name, e.g. 'Europe/Paris'. Defaults to UTC.",
					},
				},
			},
		},
	}
}

var _ Tool = &CurrentTimeTool{}
