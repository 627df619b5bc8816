// ABOUTME: CLI command to search the vector index directly
// ABOUTME: Bypasses the relevance gate and generation to show raw nearest chunks
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var searchLimit int

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed document chunks",
		Long: `Search indexed document chunks by embedding similarity.

Returns the nearest chunks in ascending cosine distance without the relevance
gate or answer generation. Useful to inspect what a question would retrieve.

Examples:
  narad search "hostel fees"
  narad search --limit 10 "CSE syllabus"
  narad search --format json "scholarship eligibility"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", 5, "Maximum results to return")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}
	asJSON, err := jsonOutput()
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	query := args[0]
	vec, err := a.providers.Embedder.Embed(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("embedding query: %w", err)
	}

	results, err := a.index.Search(cmd.Context(), vec, searchLimit)
	if err != nil {
		return fmt.Errorf("searching %s: %w", a.index.Name(), err)
	}

	if asJSON {
		return printJSON(cmd.OutOrStdout(), results)
	}

	if len(results) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No chunks found for query: %s\n", query)
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tDISTANCE\tSOURCE\tTEXT")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", i+1, r.Distance, r.Source(), truncate(oneLine(r.Text), 60))
	}
	return w.Flush()
}
