package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/comigor/jarvis-booking/internal/history"
	"github.com/comigor/jarvis-booking/internal/logger"
	"github.com/comigor/jarvis-booking/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat API",
		Long: `Serve the booking agent over HTTP.

Endpoints:
  POST /chat      run one conversational turn
  GET  /healthz   liveness check
  GET  /metrics   Prometheus metrics (when enabled)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.shutdown()

			ag, release, err := a.newAgent(ctx)
			if err != nil {
				return err
			}
			defer release()

			turnLog := history.NewStore(a.cfg.History)
			defer func() {
				if err := turnLog.Close(); err != nil {
					logger.L.Warn("closing turn log failed", logger.Err(err))
				}
			}()

			var metrics = a.provider.Handler()
			if !a.provider.Enabled() {
				metrics = nil
			}
			srv := server.New(a.cfg.Server, ag, turnLog, a.location, metrics)
			return srv.Run(ctx)
		},
	}
}
