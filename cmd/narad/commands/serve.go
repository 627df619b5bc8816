// ABOUTME: CLI command to run the HTTP API
// ABOUTME: Serves chat, ingestion, status and host telemetry until interrupted
package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/monitor"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/server"
)

var (
	serveAddr   string
	serveIngest bool
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Endpoints:
  POST /chat               {"question": "..."} -> answer with peak CPU and memory
  POST /ingest             rebuild the index from the documents directory
  GET  /status             collection description and index state
  POST /start-monitoring   open a telemetry window
  POST /stop-monitoring    close it and return the peaks
  GET  /system-stats       current CPU and memory sample
  GET  /stats-history      recent samples

With --ingest a stale index is rebuilt in the background at startup; chat
requests made before it finishes are told to retry.`,
		Example: `  narad serve
  narad serve --addr :8080 --ingest`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: NARAD_HTTP_ADDR or :5000)")
	cmd.Flags().BoolVar(&serveIngest, "ingest", false, "Rebuild a stale index in the background on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.HTTPAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveIngest {
		done := runBackgroundIngest(ctx, a, a.cfg.DocsDir)
		defer func() { <-done }()
	}

	srv := server.New(server.Deps{
		Answerer: a.answerer,
		Ingester: a.pipeline,
		Index:    a.index,
		Monitor:  monitor.New(monitor.HostSampler{}, monitor.Options{Logger: a.logger}),
		DocsDir:  a.cfg.DocsDir,
		Logger:   a.logger,
	})

	return srv.ListenAndServe(ctx, addr)
}
