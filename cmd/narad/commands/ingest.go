// ABOUTME: CLI command to ingest a documents directory into the vector index
// ABOUTME: Skips unchanged corpora unless forced and can keep watching for changes
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/ingest"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

var (
	ingestForce    bool
	ingestWatch    bool
	ingestDebounce string
)

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [directory]",
		Short: "Build the vector index from a documents directory",
		Long: `Build the vector index from a documents directory.

Reads every .pdf and .txt file in the directory (default: the configured
documents directory), splits it into chunks, embeds each chunk and replaces
the collection. When the documents and chunking settings are unchanged since
the last build the rebuild is skipped; use --force to rebuild anyway.

With --watch the command keeps running and rebuilds whenever a supported file
is added, changed or removed.`,
		Example: `  narad ingest
  narad ingest ./data --force
  narad ingest --watch --debounce 5s`,
		Args: cobra.MaximumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().BoolVar(&ingestForce, "force", false, "Rebuild even when the corpus is unchanged")
	cmd.Flags().BoolVar(&ingestWatch, "watch", false, "Keep watching the directory and rebuild on changes")
	cmd.Flags().StringVar(&ingestDebounce, "debounce", ingest.DefaultDebounce.String(), "Quiet period before a watched change triggers a rebuild")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	asJSON, err := jsonOutput()
	if err != nil {
		return err
	}
	debounce, err := parseDuration(ingestDebounce, "debounce")
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	dir := a.cfg.DocsDir
	if len(args) == 1 {
		dir = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := a.pipeline.RunIfStale(ctx, dir, ingestForce)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}
	if err := printIngestStats(cmd.OutOrStdout(), stats, asJSON); err != nil {
		return err
	}

	if !ingestWatch {
		return nil
	}

	w := ingest.NewWatcher(a.pipeline, dir, debounce, a.logger)
	w.OnRun = func(stats models.IngestStats, err error) {
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Rebuild failed: %v\n", err)
			return
		}
		_ = printIngestStats(cmd.OutOrStdout(), stats, asJSON)
	}
	if err := w.Watch(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func printIngestStats(out io.Writer, stats models.IngestStats, asJSON bool) error {
	if asJSON {
		return printJSON(out, stats)
	}
	if stats.Skipped {
		if !quiet {
			fmt.Fprintf(out, "Index is up to date with %s (fingerprint %s), nothing to do\n", stats.Directory, stats.Fingerprint)
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Directory:\t%s\n", stats.Directory)
	fmt.Fprintf(w, "Files:\t%d (%d skipped)\n", stats.Files, stats.FilesSkipped)
	fmt.Fprintf(w, "Chunks:\t%d produced, %d indexed, %d failed\n", stats.ChunksProduced, stats.ChunksIndexed, stats.ChunksFailed)
	fmt.Fprintf(w, "Fingerprint:\t%s\n", stats.Fingerprint)
	fmt.Fprintf(w, "Duration:\t%s\n", stats.Duration.Round(time.Millisecond))
	return w.Flush()
}

// runBackgroundIngest rebuilds a stale index without blocking the caller
func runBackgroundIngest(ctx context.Context, a *app, dir string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		stats, err := a.pipeline.RunIfStale(ctx, dir, false)
		if err != nil {
			a.logger.Error("startup ingestion failed", "directory", dir, "error", err)
			return
		}
		a.logger.Info("startup ingestion finished", "directory", dir, "indexed", stats.ChunksIndexed, "skipped", stats.Skipped)
	}()
	return done
}
