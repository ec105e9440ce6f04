// Package tools holds the tools the assistant exposes to a model and the
// registry that dispatches calls to them.
package tools

import (
	"github.com/EternisAI/enchanted-assistant/pkg/agent/types"
)

type (
	Tool       = types.Tool
	ToolResult = types.ToolResult
)
