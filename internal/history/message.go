package history

import (
	"time"

	"github.com/sashabaranov/go-openai"
)

// Message is one persisted transcript entry.
type Message struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	ToolName   string    `json:"tool_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromChat converts a transcript message. Assistant tool requests are logged
// by name so the audit trail shows what the model asked for.
func FromChat(sessionID string, m openai.ChatCompletionMessage, at time.Time) Message {
	msg := Message{
		SessionID:  sessionID,
		Role:       m.Role,
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
		ToolName:   m.Name,
		CreatedAt:  at,
	}
	if len(m.ToolCalls) > 0 && msg.ToolName == "" {
		msg.ToolName = m.ToolCalls[0].Function.Name
		for _, tc := range m.ToolCalls[1:] {
			msg.ToolName += "," + tc.Function.Name
		}
	}
	return msg
}
