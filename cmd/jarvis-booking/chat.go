package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/comigor/jarvis-booking/internal/agent"
	"github.com/comigor/jarvis-booking/internal/history"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the booking agent in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
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
			defer turnLog.Close()

			sessionID := uuid.NewString()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s. Type 'exit' to quit.\n", sessionID)

			var transcript []openai.ChatCompletionMessage
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}

				in := append(transcript, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: line})
				next, err := ag.RunTurn(ctx, in, a.today())
				if err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					continue
				}
				turnLog.Append(ctx, sessionID, next[len(transcript):]...)
				transcript = next
				fmt.Fprintln(out, agent.FinalReply(transcript))
			}
		},
	}
}
