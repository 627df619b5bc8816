// ABOUTME: CLI command to describe the vector index
// ABOUTME: Shows state, entry count, dimension and whether the corpus changed since the last build
package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

type statusReport struct {
	Collection string                 `json:"collection"`
	Backend    string                 `json:"backend"`
	State      string                 `json:"state"`
	Info       *models.CollectionInfo `json:"info,omitempty"`
	DocsDir    string                 `json:"docs_dir"`
	UpToDate   *bool                  `json:"up_to_date,omitempty"`
}

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the document index",
		Long: `Show the state of the document index.

Reports the collection, its backend, entry count and embedding dimension, and
whether the documents directory still matches the fingerprint of the last build.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	asJSON, err := jsonOutput()
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	state, err := a.index.Refresh(ctx)
	if err != nil {
		return err
	}
	report := statusReport{
		Collection: a.index.Name(),
		Backend:    a.cfg.IndexBackend,
		State:      state.String(),
		DocsDir:    a.cfg.DocsDir,
	}

	info, err := a.index.Info(ctx)
	switch {
	case errors.Is(err, models.ErrCollectionNotFound):
	case err != nil:
		return fmt.Errorf("reading %s: %w", a.index.Name(), err)
	default:
		report.Info = info
	}

	// an unreadable docs dir only means freshness is unknown
	if fresh, err := a.pipeline.Fresh(ctx, a.cfg.DocsDir); err == nil {
		report.UpToDate = &fresh
	} else {
		a.logger.Debug("could not check corpus freshness", "error", err)
	}

	if asJSON {
		return printJSON(cmd.OutOrStdout(), report)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Collection:\t%s (%s)\n", report.Collection, report.Backend)
	fmt.Fprintf(w, "State:\t%s\n", report.State)
	if info := report.Info; info != nil {
		fmt.Fprintf(w, "Entries:\t%d\n", info.Entries)
		fmt.Fprintf(w, "Dimension:\t%d (%s)\n", info.Dimension, info.Distance)
		fmt.Fprintf(w, "Built:\t%s\n", formatTime(info.CreatedAt))
		fmt.Fprintf(w, "Fingerprint:\t%s\n", info.Fingerprint)
	}
	fmt.Fprintf(w, "Documents:\t%s\n", report.DocsDir)
	switch {
	case report.UpToDate == nil:
		fmt.Fprintln(w, "Up to date:\tunknown")
	case *report.UpToDate:
		fmt.Fprintln(w, "Up to date:\tyes")
	default:
		fmt.Fprintln(w, "Up to date:\tno (run narad ingest)")
	}
	return w.Flush()
}
