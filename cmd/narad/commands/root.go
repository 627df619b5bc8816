// ABOUTME: Root command, global flags and command registration for narad
// ABOUTME: Global flags control log verbosity and the output format of every subcommand
package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
███╗   ██╗ █████╗ ██████╗  █████╗ ██████╗
████╗  ██║██╔══██╗██╔══██╗██╔══██╗██╔══██╗
██╔██╗ ██║███████║██████╔╝███████║██║  ██║
██║╚██╗██║██╔══██║██╔══██╗██╔══██║██║  ██║
██║ ╚████║██║  ██║██║  ██║██║  ██║██████╔╝
╚═╝  ╚═══╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝╚═════╝`

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "narad",
		Short: "Question answering over university documents",
		Long: banner + `

Naradmuni answers questions about the university from its own documents.

Documents are chunked, embedded and stored in a vector index. Each question
passes a relevance gate first: off-topic questions are declined instead of
being answered from the model's general knowledge.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return errors.New("--verbose and --quiet are mutually exclusive")
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format (auto, table, json)")

	cmd.AddCommand(
		NewIngestCmd(),
		NewAskCmd(),
		NewSearchCmd(),
		NewChatCmd(),
		NewServeCmd(),
		NewMCPCmd(),
		NewStatusCmd(),
		NewEvalCmd(),
		NewExportCmd(),
		NewSyncCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
