// ABOUTME: CLI command for an interactive terminal chat session
// ABOUTME: Runs the bubbletea interface against the same answerer as ask
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/tui"
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		Long: `Chat with the assistant in the terminal.

Opens a full-screen session with a scrolling transcript. Every question goes
through the relevance gate and retrieval exactly like "narad ask". Press Esc
or Ctrl-C to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// log lines would tear the alternate screen
			a, err := openAppWithLogger(cmd, logging.Discard())
			if err != nil {
				return err
			}
			defer a.Close()

			title := fmt.Sprintf("Naradmuni · %s", a.cfg.InstitutionName)
			return tui.Run(cmd.Context(), a.answerer, title)
		},
	}
}
