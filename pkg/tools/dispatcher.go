package tools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/jarvis-booking/internal/instrumentation"
	"github.com/comigor/jarvis-booking/internal/logger"
)

// Dispatcher maps tool names to handlers. The mapping is fixed at construction.
type Dispatcher struct {
	tools   map[string]Tool
	metrics *instrumentation.Metrics
}

// NewDispatcher registers the given tools. metrics may be nil.
func NewDispatcher(metrics *instrumentation.Metrics, ts ...Tool) (*Dispatcher, error) {
	d := &Dispatcher{
		tools:   make(map[string]Tool, len(ts)),
		metrics: metrics,
	}
	for _, t := range ts {
		if _, exists := d.tools[t.Name()]; exists {
			return nil, fmt.Errorf("tool %q registered twice", t.Name())
		}
		d.tools[t.Name()] = t
	}
	return d, nil
}

// List returns all registered tools sorted by name.
func (d *Dispatcher) List() []Tool {
	ts := make([]Tool, 0, len(d.tools))
	for _, t := range d.tools {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Name() < ts[j].Name() })
	return ts
}

// Get retrieves a tool by name
func (d *Dispatcher) Get(name string) (Tool, error) {
	tool, ok := d.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool, nil
}

// Definitions describes the registered tools in the chat completion format.
func (d *Dispatcher) Definitions() []openai.Tool {
	var defs []openai.Tool
	for _, t := range d.List() {
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Dispatch runs a tool with raw JSON arguments as produced by the model.
func (d *Dispatcher) Dispatch(ctx context.Context, name, rawArgs string) Result {
	args, err := parseArgs(rawArgs)
	if err != nil {
		logger.L.Warn("tool arguments rejected", logger.Tool(name), logger.Err(err))
		d.metrics.RecordToolInvocation(ctx, name, instrumentation.StatusError, 0)
		return Failure(err)
	}
	return d.Call(ctx, name, args)
}

// Call runs a tool with decoded arguments. Failures of any kind come back as
// an error Result, never as a Go error.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) Result {
	tool, err := d.Get(name)
	if err != nil {
		logger.L.Warn("model requested unknown tool", logger.Tool(name))
		d.metrics.RecordToolInvocation(ctx, name, instrumentation.StatusError, 0)
		return Failure(err)
	}

	ctx, span := instrumentation.StartToolSpan(ctx, name)
	defer span.End()

	start := time.Now()
	out, err := tool.Run(ctx, args)
	duration := time.Since(start)

	if err != nil {
		instrumentation.RecordSpanError(span, err)
		d.metrics.RecordToolInvocation(ctx, name, instrumentation.StatusError, duration)
		logger.L.Info("tool returned error", logger.Tool(name), logger.Err(err), "duration", duration)
		return Failure(err)
	}

	d.metrics.RecordToolInvocation(ctx, name, instrumentation.StatusSuccess, duration)
	logger.L.Debug("tool succeeded", logger.Tool(name), "duration", duration)
	return Success(out)
}
