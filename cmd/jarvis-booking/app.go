package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"

	"github.com/comigor/jarvis-booking/internal/agent"
	"github.com/comigor/jarvis-booking/internal/calendar"
	"github.com/comigor/jarvis-booking/internal/config"
	"github.com/comigor/jarvis-booking/internal/instrumentation"
	"github.com/comigor/jarvis-booking/internal/llm"
	"github.com/comigor/jarvis-booking/internal/logger"
	"github.com/comigor/jarvis-booking/internal/scheduling"
	"github.com/comigor/jarvis-booking/pkg/tools"
)

// app holds the components shared by every command.
type app struct {
	cfg        *config.Config
	location   *time.Location
	provider   *instrumentation.Provider
	calculator *scheduling.Calculator
	dispatcher *tools.Dispatcher
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.SetLevel(cfg.Log.Level)

	hours, err := scheduling.NewWorkingHours(cfg.Scheduling)
	if err != nil {
		return nil, err
	}

	var providerOpts []instrumentation.Option
	if cfg.Tracing.Exporter == config.TracingStdout {
		logger.L.Warn("stdout trace exporter enabled; for development only")
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		providerOpts = append(providerOpts, instrumentation.WithTraceExporter(exp))
	}
	provider, err := instrumentation.NewProvider("jarvis-booking", cfg.Metrics.Enabled, providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	gateway, err := newGateway(ctx, cfg.GoogleCalendar)
	if err != nil {
		return nil, err
	}

	calculator := scheduling.NewCalculator(gateway, cfg.GoogleCalendar.CalendarID, hours)
	writer := scheduling.NewWriter(gateway, cfg.GoogleCalendar.CalendarID, hours)
	dispatcher, err := tools.NewDispatcher(provider.Metrics(),
		tools.NewCheckAvailabilityTool(calculator),
		tools.NewCreateAppointmentTool(writer),
	)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		location:   hours.Location,
		provider:   provider,
		calculator: calculator,
		dispatcher: dispatcher,
	}, nil
}

func newGateway(ctx context.Context, cfg config.GoogleCalendarConfig) (calendar.Gateway, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		logger.L.Warn("using in-memory calendar; bookings are not persisted")
		return calendar.NewMemoryGateway(), nil
	default:
		gw, err := calendar.NewGoogleGateway(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Calendar: %w", err)
		}
		return gw, nil
	}
}

// newAgent connects to the configured model. The returned func releases it.
func (a *app) newAgent(ctx context.Context) (*agent.Agent, func(), error) {
	client, err := llm.NewFromConfig(ctx, a.cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	release := func() {}
	if g, ok := client.(*llm.GeminiClient); ok {
		release = func() { _ = g.Close() }
	}
	ag := agent.New(client, a.dispatcher, a.cfg.LLM, a.cfg.Agent, agent.WithMetrics(a.provider.Metrics()))
	return ag, release, nil
}

// today is the current date in the scheduling timezone.
func (a *app) today() time.Time {
	return time.Now().In(a.location)
}

func (a *app) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.provider.Shutdown(ctx); err != nil {
		logger.L.Warn("instrumentation provider shutdown failed", logger.Err(err))
	}
}
