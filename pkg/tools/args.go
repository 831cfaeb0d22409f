package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseArgs decodes the model's JSON argument object. An empty string is an
// empty object.
func parseArgs(raw string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("arguments are not a JSON object: %v", err)}
	}
	return args, nil
}

// stringArg fetches a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", &ValidationError{Field: key, Msg: "missing required argument"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: key, Msg: fmt.Sprintf("expected a string, got %T", v)}
	}
	return strings.TrimSpace(s), nil
}
