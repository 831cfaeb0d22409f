package tools

import (
	"context"
	"encoding/json"
)

// Tool is the interface for all tools exposed to the model.
type Tool interface {
	Name() string
	Description() string
	// Parameters is the JSON schema of the arguments object.
	Parameters() json.RawMessage
	// Run executes the tool. Returned errors are turned into tool-result text
	// by the Dispatcher and never abort the conversation.
	Run(ctx context.Context, args map[string]any) (string, error)
}
