package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/comigor/jarvis-booking/internal/config"
	"github.com/comigor/jarvis-booking/internal/logger"
)

// GeminiClient adapts the Gemini API to the chat completion Client interface.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed Client.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: cfg.Model}, nil
}

// Close releases the underlying connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// CreateChatCompletion sends the conversation to Gemini and converts the
// reply back. Gemini function calls carry no id, so one is generated per call.
func (g *GeminiClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	name := req.Model
	if name == "" {
		name = g.model
	}
	model := g.client.GenerativeModel(name)
	model.SetTemperature(req.Temperature)

	system, contents := toGeminiContents(req.Messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	tools, err := toGeminiTools(req.Tools)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	model.Tools = tools

	if len(contents) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("gemini: no messages to send")
	}
	last := contents[len(contents)-1]
	if last.Role != "user" {
		return openai.ChatCompletionResponse{}, fmt.Errorf("gemini: conversation must end with a user or tool message, got %q", last.Role)
	}

	session := model.StartChat()
	session.History = contents[:len(contents)-1]
	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("gemini generate error: %w", err)
	}
	return fromGeminiResponse(resp, name)
}

// toGeminiContents splits off system messages and maps the rest onto
// alternating user/model contents. Tool results travel as function
// responses in the user role.
func toGeminiContents(msgs []openai.ChatCompletionMessage) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content
	callNames := map[string]string{}

	appendParts := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			return
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	for _, m := range msgs {
		switch m.Role {
		case openai.ChatMessageRoleSystem:
			system = append(system, m.Content)
		case openai.ChatMessageRoleAssistant:
			var parts []genai.Part
			if m.Content != "" {
				parts = append(parts, genai.Text(m.Content))
			}
			for _, tc := range m.ToolCalls {
				callNames[tc.ID] = tc.Function.Name
				args := map[string]any{}
				if tc.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
						logger.L.Warn("gemini: tool call arguments are not a JSON object; sending empty args",
							logger.Tool(tc.Function.Name), logger.CallID(tc.ID), logger.Err(err))
						args = map[string]any{}
					}
				}
				parts = append(parts, genai.FunctionCall{Name: tc.Function.Name, Args: args})
			}
			appendParts("model", parts...)
		case openai.ChatMessageRoleTool:
			name := m.Name
			if name == "" {
				name = callNames[m.ToolCallID]
			}
			appendParts("user", genai.FunctionResponse{
				Name:     name,
				Response: map[string]any{"result": m.Content},
			})
		default:
			appendParts("user", genai.Text(m.Content))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

// jsonSchema is the subset of JSON schema used by tool parameters.
type jsonSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Enum        []string               `json:"enum"`
	Properties  map[string]*jsonSchema `json:"properties"`
	Items       *jsonSchema            `json:"items"`
	Required    []string               `json:"required"`
}

func toGeminiTools(defs []openai.Tool) ([]*genai.Tool, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, d := range defs {
		if d.Function == nil {
			continue
		}
		raw, err := json.Marshal(d.Function.Parameters)
		if err != nil {
			return nil, fmt.Errorf("gemini: encode parameters of %s: %w", d.Function.Name, err)
		}
		var s jsonSchema
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("gemini: decode parameters of %s: %w", d.Function.Name, err)
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        d.Function.Name,
			Description: d.Function.Description,
			Parameters:  toGeminiSchema(&s),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}, nil
}

func toGeminiSchema(s *jsonSchema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       toGeminiSchema(s.Items),
	}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toGeminiSchema(v)
		}
	}
	return out
}

func fromGeminiResponse(resp *genai.GenerateContentResponse, model string) (openai.ChatCompletionResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return openai.ChatCompletionResponse{}, errors.New("gemini: response has no candidates")
	}

	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil {
				return openai.ChatCompletionResponse{}, fmt.Errorf("gemini: encode arguments of %s: %w", p.Name, err)
			}
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   "call_" + uuid.NewString(),
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      p.Name,
					Arguments: string(args),
				},
			})
		}
	}
	msg.Content = text.String()

	finish := openai.FinishReasonStop
	if len(msg.ToolCalls) > 0 {
		finish = openai.FinishReasonToolCalls
	}
	return openai.ChatCompletionResponse{
		Model:   model,
		Choices: []openai.ChatCompletionChoice{{Message: msg, FinishReason: finish}},
	}, nil
}
