// ABOUTME: CLI command to evaluate answer quality against a case set
// ABOUTME: Scores faithfulness, context recall and gate accuracy per case
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/eval"
)

var (
	evalCases  string
	evalOutput string
)

// NewEvalCmd creates the eval command
func NewEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate answers against expected outcomes",
		Long: `Evaluate answers against expected outcomes.

Runs each case through the full gate, retrieval and generation pipeline and
checks the answer status, required and forbidden answer terms and the terms
expected in the retrieved context. Without --cases a built-in campus set is
used, covering an in-domain question, a misspelled one and off-topic ones.

Case file format:
  cases:
    - question: "When does B.Tech CSE admission open?"
      expect_status: answered
      expected_in_context: ["admission"]
    - question: "What is the capital of France?"
      expect_status: rejected`,
		Example: `  narad eval
  narad eval --cases cases.yaml --output results.json
  narad eval --format json`,
		Args: cobra.NoArgs,
		RunE: runEval,
	}

	cmd.Flags().StringVar(&evalCases, "cases", "", "YAML file with evaluation cases")
	cmd.Flags().StringVarP(&evalOutput, "output", "o", "", "Also write the JSON report to this file")

	return cmd
}

func runEval(cmd *cobra.Command, args []string) error {
	asJSON, err := jsonOutput()
	if err != nil {
		return err
	}

	cases := eval.BuiltinCases()
	if evalCases != "" {
		if cases, err = eval.LoadCases(evalCases); err != nil {
			return err
		}
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := eval.NewRunner(a.answerer, a.logger).RunAll(cmd.Context(), cases)
	if err != nil {
		return err
	}

	if evalOutput != "" {
		if err := eval.ExportResults(report, evalOutput); err != nil {
			return err
		}
		if !quiet && !asJSON {
			fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n\n", evalOutput)
		}
	}

	if asJSON {
		return report.WriteJSON(cmd.OutOrStdout())
	}
	return report.WriteTable(cmd.OutOrStdout())
}
