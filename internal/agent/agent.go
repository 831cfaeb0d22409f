package agent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/qmuntal/stateless"
	"github.com/sashabaranov/go-openai"

	"github.com/comigor/jarvis-booking/internal/config"
	"github.com/comigor/jarvis-booking/internal/instrumentation"
	"github.com/comigor/jarvis-booking/internal/llm"
	"github.com/comigor/jarvis-booking/internal/logger"
	"github.com/comigor/jarvis-booking/pkg/tools"
)

// State is a state of the turn state machine. Terminated and Failed are terminal.
type State string

const (
	StateAwaitingModel       State = "AwaitingModel"
	StateAwaitingToolResults State = "AwaitingToolResults"
	StateTerminated          State = "Terminated" // Terminal: final answer produced
	StateFailed              State = "Failed"     // Terminal: loop limit or model failure
)

// Trigger moves the turn state machine between states.
type Trigger string

const (
	TriggerStart               Trigger = "Start"
	TriggerModelAnswered       Trigger = "ModelAnswered"
	TriggerModelRequestedTools Trigger = "ModelRequestedTools"
	TriggerToolResultsAppended Trigger = "ToolResultsAppended"
	TriggerLoopLimitReached    Trigger = "LoopLimitReached"
	TriggerModelFailed         Trigger = "ModelFailed"
)

var (
	// ErrLoopLimitExceeded is returned when the model keeps requesting tools
	// after the configured number of model invocations.
	ErrLoopLimitExceeded = errors.New("loop limit exceeded")
	// ErrModelUnavailable wraps failures of the model invocation itself.
	ErrModelUnavailable = errors.New("language model call failed")
)

const todayPlaceholder = "{today}"

const defaultSystemPrompt = `You are a helpful and friendly assistant for booking appointments.
Your goal is to help the user book a 1-hour appointment in the connected calendar.

- Be conversational. Greet the user and ask how you can help.
- When a user wants to book, first check for availability using the check_availability tool. You must know the exact date (YYYY-MM-DD) to check. If the user gives a vague date like "next Tuesday", work out the exact date from today's date, which is {today}.
- After checking, present the available slots to the user.
- Once the user chooses a time, ask them for a summary or title for the appointment (e.g. "Dental Check-up", "Project Meeting").
- To book with the create_appointment tool you MUST have the exact start time in ISO 8601 format with a UTC offset (e.g. '2024-07-30T14:00:00-07:00') and the summary. Build the full timestamp from the date and the time the user chose.
- If any information is missing, ask the user for it.
- Once the appointment is booked, confirm it with the user.
- If a tool reports an error, explain it to the user clearly and politely and ask for whatever is needed to fix it.`

// Agent drives one conversational turn: it alternates between asking the
// model what to do and running the tools it asked for.
type Agent struct {
	llmClient    llm.Client
	dispatcher   *tools.Dispatcher
	model        string
	temperature  float32
	maxIter      int
	systemPrompt string
	metrics      *instrumentation.Metrics
}

// Option customises an Agent.
type Option func(*Agent)

// WithMetrics records model calls and turn outcomes.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// New creates a new agent.
func New(llmClient llm.Client, dispatcher *tools.Dispatcher, llmCfg config.LLMConfig, agentCfg config.AgentConfig, opts ...Option) *Agent {
	a := &Agent{
		llmClient:    llmClient,
		dispatcher:   dispatcher,
		model:        llmCfg.Model,
		temperature:  llmCfg.Temperature,
		maxIter:      agentCfg.MaxIterations,
		systemPrompt: defaultSystemPrompt,
	}
	if agentCfg.SystemPrompt != "" {
		a.systemPrompt = agentCfg.SystemPrompt // User-configured prompt overrides default
	}
	if a.maxIter <= 0 {
		a.maxIter = 100
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SystemPrompt renders the system instructions for the given day.
func (a *Agent) SystemPrompt(today time.Time) string {
	date := today.Format("2006-01-02") + " (" + today.Weekday().String() + ")"
	if strings.Contains(a.systemPrompt, todayPlaceholder) {
		return strings.ReplaceAll(a.systemPrompt, todayPlaceholder, date)
	}
	return a.systemPrompt + "\n\nToday's date is " + date + "."
}

// turn is the mutable state of one RunTurn invocation.
type turn struct {
	system     string
	transcript []openai.ChatCompletionMessage
	pending    []openai.ToolCall
	modelCalls int
	err        error
}

// RunTurn extends transcript until the model answers without requesting
// tools. The input slice is never modified; the returned transcript starts
// with a copy of it. On ErrLoopLimitExceeded or ErrModelUnavailable the
// partial transcript is returned together with the error.
func (a *Agent) RunTurn(ctx context.Context, transcript []openai.ChatCompletionMessage, today time.Time) ([]openai.ChatCompletionMessage, error) {
	ctx, span := instrumentation.StartTurnSpan(ctx, len(transcript))
	defer span.End()

	t := &turn{
		system:     a.SystemPrompt(today),
		transcript: append(make([]openai.ChatCompletionMessage, 0, len(transcript)+4), transcript...),
	}

	// Queued firing keeps long tool loops off the call stack.
	fsm := stateless.NewStateMachineWithMode(StateAwaitingModel, stateless.FiringQueued)

	// State: AwaitingModel
	// Action: Call the model with the transcript so far.
	// Transitions:
	//   - On ModelRequestedTools -> AwaitingToolResults
	//   - On ModelAnswered -> Terminated
	//   - On LoopLimitReached / ModelFailed -> Failed
	fsm.Configure(StateAwaitingModel).
		PermitReentry(TriggerStart).
		OnEntry(func(ctx context.Context, args ...any) error {
			if t.modelCalls >= a.maxIter {
				logger.L.Warn("max model invocations reached", "maxIterations", a.maxIter)
				t.err = fmt.Errorf("%w: model invoked %d times without a final answer", ErrLoopLimitExceeded, t.modelCalls)
				return fsm.FireCtx(ctx, TriggerLoopLimitReached)
			}
			t.modelCalls++
			logger.L.Debug("FSM: Entering AwaitingModel", "iteration", t.modelCalls)

			msg, err := a.callModel(ctx, t)
			if err != nil {
				logger.L.Error("LLM call failed", logger.Err(err))
				t.err = err
				return fsm.FireCtx(ctx, TriggerModelFailed)
			}
			t.transcript = append(t.transcript, msg)

			if len(msg.ToolCalls) > 0 {
				t.pending = msg.ToolCalls
				return fsm.FireCtx(ctx, TriggerModelRequestedTools)
			}
			return fsm.FireCtx(ctx, TriggerModelAnswered)
		}).
		Permit(TriggerModelRequestedTools, StateAwaitingToolResults).
		Permit(TriggerModelAnswered, StateTerminated).
		Permit(TriggerLoopLimitReached, StateFailed).
		Permit(TriggerModelFailed, StateFailed)

	// State: AwaitingToolResults
	// Action: Dispatch each requested call in order and append one tool
	// message per call. Tool failures become message text.
	fsm.Configure(StateAwaitingToolResults).
		OnEntry(func(ctx context.Context, args ...any) error {
			logger.L.Debug("FSM: Entering AwaitingToolResults", "calls", len(t.pending))
			for _, tc := range t.pending {
				res := a.dispatcher.Dispatch(ctx, tc.Function.Name, tc.Function.Arguments)
				if res.IsError() {
					logger.L.Info("tool call failed; reporting to model", logger.Tool(tc.Function.Name), logger.CallID(tc.ID), logger.Err(res.Err))
				}
				t.transcript = append(t.transcript, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    res.Content,
					ToolCallID: tc.ID,
					Name:       tc.Function.Name,
				})
			}
			t.pending = nil
			return fsm.FireCtx(ctx, TriggerToolResultsAppended)
		}).
		Permit(TriggerToolResultsAppended, StateAwaitingModel)

	fsm.Configure(StateTerminated).
		OnEntry(func(ctx context.Context, args ...any) error {
			logger.L.Debug("FSM: Entering Terminated", "modelCalls", t.modelCalls)
			return nil
		})

	fsm.Configure(StateFailed).
		OnEntry(func(ctx context.Context, args ...any) error {
			logger.L.Debug("FSM: Entering Failed", logger.Err(t.err))
			return nil
		})

	if err := fsm.FireCtx(ctx, TriggerStart); err != nil {
		instrumentation.RecordSpanError(span, err)
		a.metrics.RecordTurn(ctx, instrumentation.StatusError)
		return t.transcript, fmt.Errorf("FSM error: %w", err)
	}

	state, err := fsm.State(ctx)
	if err != nil {
		return t.transcript, fmt.Errorf("FSM internal error: %w", err)
	}

	switch state {
	case StateTerminated:
		a.metrics.RecordTurn(ctx, instrumentation.StatusSuccess)
		return t.transcript, nil
	case StateFailed:
		instrumentation.RecordSpanError(span, t.err)
		status := instrumentation.StatusError
		if errors.Is(t.err, ErrLoopLimitExceeded) {
			status = instrumentation.StatusLoopExceeded
		}
		a.metrics.RecordTurn(ctx, status)
		return t.transcript, t.err
	default:
		return t.transcript, fmt.Errorf("FSM ended in an unexpected state: %v", state)
	}
}

// callModel performs one model invocation and normalises the reply.
func (a *Agent) callModel(ctx context.Context, t *turn) (openai.ChatCompletionMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(t.transcript)+1)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: t.system})
	messages = append(messages, t.transcript...)

	resp, err := a.llmClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Tools:       a.dispatcher.Definitions(),
		Temperature: a.requestTemperature(),
	})
	if err != nil {
		a.metrics.RecordModelCall(ctx, instrumentation.StatusError)
		return openai.ChatCompletionMessage{}, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		a.metrics.RecordModelCall(ctx, instrumentation.StatusError)
		return openai.ChatCompletionMessage{}, fmt.Errorf("%w: response has no choices", ErrModelUnavailable)
	}
	a.metrics.RecordModelCall(ctx, instrumentation.StatusSuccess)

	msg := resp.Choices[0].Message
	msg.Role = openai.ChatMessageRoleAssistant
	for i := range msg.ToolCalls {
		// Tool messages must reference the call; some servers omit ids.
		if msg.ToolCalls[i].ID == "" {
			msg.ToolCalls[i].ID = fmt.Sprintf("call_%d_%d", t.modelCalls, i)
		}
		if msg.ToolCalls[i].Type == "" {
			msg.ToolCalls[i].Type = openai.ToolTypeFunction
		}
	}
	return msg, nil
}

// requestTemperature maps a configured 0 to the smallest positive float32.
// The request field is omitempty, so a literal 0 would be dropped and the
// API default used instead.
func (a *Agent) requestTemperature() float32 {
	if a.temperature == 0 {
		return math.SmallestNonzeroFloat32
	}
	return a.temperature
}

// FinalReply returns the content of the last assistant message.
func FinalReply(transcript []openai.ChatCompletionMessage) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == openai.ChatMessageRoleAssistant {
			return transcript[i].Content
		}
	}
	return ""
}
