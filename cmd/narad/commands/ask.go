// ABOUTME: CLI command to answer one question from the indexed documents
// ABOUTME: Prints the answer text, its status and the chunks it was grounded on
package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

var askShowSources bool

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the indexed documents",
		Long: `Answer a question from the indexed documents.

The question is first spell-corrected against the domain vocabulary and
checked by the relevance gate. Relevant questions are answered by the chat
model using only the closest document chunks; anything else is declined.

Examples:
  narad ask "When do B.Tech admissions open?"
  narad ask --sources "hostel fees for first year"
  narad ask --format json "Who is the registrar?"`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().BoolVar(&askShowSources, "sources", false, "List the chunks the answer was grounded on")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	asJSON, err := jsonOutput()
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ans := a.answerer.Answer(cmd.Context(), args[0])

	if asJSON {
		return printJSON(cmd.OutOrStdout(), ans)
	}
	printAnswer(cmd.OutOrStdout(), ans, askShowSources)
	return nil
}

func printAnswer(out io.Writer, ans models.Answer, showSources bool) {
	fmt.Fprintln(out, ans.Text)

	if verbose {
		fmt.Fprintf(out, "\nstatus: %s", ans.Status)
		if ans.Reason != "" {
			fmt.Fprintf(out, " (%s)", ans.Reason)
		}
		fmt.Fprintln(out)
		if ans.Verdict.CorrectedQuery != "" && ans.Verdict.CorrectedQuery != ans.Verdict.Query {
			fmt.Fprintf(out, "corrected query: %s\n", ans.Verdict.CorrectedQuery)
		}
	}

	if showSources && len(ans.Sources) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for i, s := range ans.Sources {
			fmt.Fprintf(out, "  %d. %s (distance %.3f)\n", i+1, s.Source(), s.Distance)
		}
	}
}
