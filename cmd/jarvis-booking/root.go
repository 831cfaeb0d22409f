package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jarvis-booking",
	Short: "Conversational agent that books 1-hour appointments on a calendar",
	Long: `jarvis-booking talks to a language model and lets it check calendar
availability and create appointments.

It can run as:
  - An HTTP chat API (default)
  - An MCP (Model Context Protocol) server exposing the booking tools
  - One-off CLI commands for inspecting availability and the turn log`,
	SilenceUsage: true,
	Version:      version,
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "jarvis-booking version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newSlotsCmd())
	rootCmd.AddCommand(newHistoryCmd())
}
