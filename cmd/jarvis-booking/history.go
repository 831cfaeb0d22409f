package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comigor/jarvis-booking/internal/config"
	"github.com/comigor/jarvis-booking/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history <session-id>",
		Short: "Print the logged messages of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			store := history.NewStore(cfg.History)
			defer store.Close()

			msgs, err := store.List(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			return printHistory(cmd, msgs, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print messages as JSON")
	return cmd
}

func printHistory(cmd *cobra.Command, msgs []history.Message, asJSON bool) error {
	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(msgs)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages logged for this session.")
		return nil
	}
	for _, m := range msgs {
		switch {
		case m.ToolCallID != "":
			fmt.Fprintf(w, "[%s] %s (%s): %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"), m.Role, m.ToolName, m.Content)
		case m.Content == "" && m.ToolName != "":
			fmt.Fprintf(w, "[%s] %s -> %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"), m.Role, m.ToolName)
		default:
			fmt.Fprintf(w, "[%s] %s: %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"), m.Role, m.Content)
		}
	}
	return nil
}
