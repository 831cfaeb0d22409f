package logger

import (
	"log/slog"
	"os"
	"strings"
)

var levelVar = new(slog.LevelVar)

var L = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: levelVar}))

// Common attribute keys so every package logs the same names.
const (
	KeySession = "session_id"
	KeyTool    = "tool"
	KeyCallID  = "call_id"
	KeyError   = "error"
)

// SetLevel configures the global log level (debug, info, warn, error).
func SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// UseStderr redirects the global logger to stderr. The MCP stdio server
// owns stdout, so log lines must not be interleaved with protocol frames.
func UseStderr() {
	L = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
}

// Session returns a slog attribute for the conversation session id.
func Session(id string) slog.Attr {
	return slog.String(KeySession, id)
}

// Tool returns a slog attribute for the tool name.
func Tool(name string) slog.Attr {
	return slog.String(KeyTool, name)
}

// CallID returns a slog attribute for a model tool-call id.
func CallID(id string) slog.Attr {
	return slog.String(KeyCallID, id)
}

// Err returns a slog attribute for an error. A nil error yields an empty
// group, which slog omits.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}
