package main

import (
	"github.com/spf13/cobra"

	"github.com/comigor/jarvis-booking/internal/logger"
	"github.com/comigor/jarvis-booking/internal/mcpserver"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the booking tools over MCP stdio",
		Long: `Expose check_availability and create_appointment to an MCP client
(for example a desktop assistant) over stdin/stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Nothing but protocol frames may reach stdout.
			logger.UseStderr()

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.shutdown()

			return mcpserver.ServeStdio(mcpserver.New(a.dispatcher, version))
		},
	}
}
