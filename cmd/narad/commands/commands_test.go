// ABOUTME: Tests for subcommand structure, flags and output helpers
// ABOUTME: Runs without providers or network access

package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/config"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

func findSub(cmd *cobra.Command, use string) *cobra.Command {
	for _, sub := range cmd.Commands() {
		if sub.Use == use || strings.HasPrefix(sub.Use, use+" ") {
			return sub
		}
	}
	return nil
}

func TestCommands_Descriptions(t *testing.T) {
	tests := []struct {
		name string
		cmd  *cobra.Command
		use  string
	}{
		{"ingest", NewIngestCmd(), "ingest [directory]"},
		{"ask", NewAskCmd(), "ask <question>"},
		{"search", NewSearchCmd(), "search <query>"},
		{"chat", NewChatCmd(), "chat"},
		{"serve", NewServeCmd(), "serve"},
		{"mcp", NewMCPCmd(), "mcp"},
		{"status", NewStatusCmd(), "status"},
		{"eval", NewEvalCmd(), "eval"},
		{"export", NewExportCmd(), "export"},
		{"sync", NewSyncCmd(), "sync"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cmd.Use != tt.use {
				t.Errorf("Use = %q, want %q", tt.cmd.Use, tt.use)
			}
			if tt.cmd.Short == "" {
				t.Error("Short description should not be empty")
			}
			if tt.cmd.Long == "" {
				t.Error("Long description should not be empty")
			}
		})
	}
}

func TestCommands_Flags(t *testing.T) {
	tests := []struct {
		cmd       *cobra.Command
		flagName  string
		shorthand string
		defValue  string
	}{
		{NewIngestCmd(), "force", "", "false"},
		{NewIngestCmd(), "watch", "", "false"},
		{NewIngestCmd(), "debounce", "", "2s"},
		{NewAskCmd(), "sources", "", "false"},
		{NewSearchCmd(), "limit", "", "5"},
		{NewServeCmd(), "addr", "", ""},
		{NewServeCmd(), "ingest", "", "false"},
		{NewEvalCmd(), "cases", "", ""},
		{NewEvalCmd(), "output", "o", ""},
		{NewExportCmd(), "output", "o", ""},
		{NewExportCmd(), "format", "f", "yaml"},
		{NewExportCmd(), "vectors", "", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.Name()+"/"+tt.flagName, func(t *testing.T) {
			flag := tt.cmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("--%s flag not found", tt.flagName)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("--%s shorthand = %q, want %q", tt.flagName, flag.Shorthand, tt.shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("--%s default = %q, want %q", tt.flagName, flag.DefValue, tt.defValue)
			}
		})
	}
}

func TestCommands_ArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"ask without question", []string{"ask"}},
		{"ask with two questions", []string{"ask", "one", "two"}},
		{"search without query", []string{"search"}},
		{"ingest with two directories", []string{"ingest", "a", "b"}},
		{"status with argument", []string{"status", "extra"}},
		{"search with zero limit", []string{"search", "--limit", "0", "hostel"}},
		{"export with bad format", []string{"export", "-f", "csv"}},
		{"ingest with bad debounce", []string{"ingest", "--debounce", "later"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			var output bytes.Buffer
			cmd.SetOut(&output)
			cmd.SetErr(&output)
			cmd.SetArgs(tt.args)

			if err := cmd.Execute(); err == nil {
				t.Errorf("Execute(%v) should fail", tt.args)
			}
		})
	}
}

func TestMCPCmd_Description(t *testing.T) {
	cmd := NewMCPCmd()

	for _, want := range []string{"MCP", "LLM", "stdio", "ask_question"} {
		if !strings.Contains(cmd.Long, want) {
			t.Errorf("Long description should mention %q", want)
		}
	}
	if cmd.RunE == nil {
		t.Error("RunE should be set")
	}
	if !strings.Contains(cmd.Example, "narad mcp") || !strings.Contains(cmd.Example, "claude_desktop_config") {
		t.Errorf("Example should show how to configure the server, got:\n%s", cmd.Example)
	}
}

func TestSyncCmd_Subcommands(t *testing.T) {
	cmd := NewSyncCmd()

	for _, name := range []string{"status", "now", "repair", "wipe", "keys"} {
		t.Run(name, func(t *testing.T) {
			sub := findSub(cmd, name)
			if sub == nil {
				t.Fatalf("Subcommand %q not found", name)
			}
			if sub.Short == "" {
				t.Error("Short description should not be empty")
			}
			if sub.RunE == nil {
				t.Error("RunE should be set")
			}
		})
	}

	repair := findSub(cmd, "repair")
	if !strings.Contains(repair.Long, "orphan") && !strings.Contains(repair.Long, "no longer exists") {
		t.Error("repair Long description should explain what it removes")
	}
}

func TestSyncWipe_RequiresConfirm(t *testing.T) {
	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"sync", "wipe"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(output.String(), "--confirm") {
		t.Errorf("output should ask for --confirm, got:\n%s", output.String())
	}
}

func TestChunkSettings(t *testing.T) {
	base := config.Default()
	baseSettings := chunkSettings(base)

	mutations := map[string]func(*config.Config){
		"embedding model": func(c *config.Config) { c.EmbeddingModel = "nomic-embed-text" },
		"provider":        func(c *config.Config) { c.Provider = "hugot" },
		"strategy":        func(c *config.Config) { c.ChunkStrategy = "fixed" },
		"max words":       func(c *config.Config) { c.ChunkMaxWords = 200 },
		"section words":   func(c *config.Config) { c.SectionMaxWords = 100 },
		"overlap":         func(c *config.Config) { c.OverlapSentences = 0 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(cfg)
			if chunkSettings(cfg) == baseSettings {
				t.Errorf("changing the %s should change the settings key", name)
			}
		})
	}

	// gate tuning does not touch the index
	cfg := config.Default()
	cfg.SimilarityThreshold = 0.9
	cfg.TopK = 10
	if chunkSettings(cfg) != baseSettings {
		t.Error("gate settings should not change the settings key")
	}
}

func TestPrintIngestStats(t *testing.T) {
	original := quiet
	defer func() { quiet = original }()
	quiet = false

	stats := models.IngestStats{
		Directory:      "data",
		Files:          3,
		FilesSkipped:   1,
		ChunksProduced: 12,
		ChunksIndexed:  11,
		ChunksFailed:   1,
		Fingerprint:    "00ff00ff00ff00ff",
		Duration:       1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	if err := printIngestStats(&buf, stats, false); err != nil {
		t.Fatalf("printIngestStats() error = %v", err)
	}
	for _, want := range []string{"data", "3 (1 skipped)", "12 produced, 11 indexed, 1 failed", "00ff00ff00ff00ff", "1.5s"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output should contain %q, got:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	skipped := models.IngestStats{Directory: "data", Skipped: true, Fingerprint: "abc"}
	if err := printIngestStats(&buf, skipped, false); err != nil {
		t.Fatalf("printIngestStats() error = %v", err)
	}
	if !strings.Contains(buf.String(), "up to date") {
		t.Errorf("skipped run should say the index is up to date, got:\n%s", buf.String())
	}

	buf.Reset()
	if err := printIngestStats(&buf, stats, true); err != nil {
		t.Fatalf("printIngestStats() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"chunks_indexed": 11`) {
		t.Errorf("JSON output should carry chunks_indexed, got:\n%s", buf.String())
	}
}

func TestPrintAnswer(t *testing.T) {
	original := verbose
	defer func() { verbose = original }()

	ans := models.Answer{
		Status: models.StatusAnswered,
		Text:   "Admissions open in June.",
		Verdict: models.Verdict{
			Query:          "when do admsision open",
			CorrectedQuery: "when do admission open",
		},
		Sources: []models.SearchResult{
			{ID: "0", Distance: 0.12, Metadata: map[string]string{models.MetaSource: "admissions.txt"}},
		},
	}

	tests := []struct {
		name        string
		verbose     bool
		sources     bool
		contains    []string
		notContains []string
	}{
		{"plain", false, false, []string{"Admissions open in June."}, []string{"status:", "Sources:"}},
		{"with sources", false, true, []string{"Sources:", "1. admissions.txt (distance 0.120)"}, []string{"status:"}},
		{"verbose", true, false, []string{"status: answered", "corrected query: when do admission open"}, []string{"Sources:"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verbose = tt.verbose
			var buf bytes.Buffer
			printAnswer(&buf, ans, tt.sources)

			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output should contain %q, got:\n%s", want, buf.String())
				}
			}
			for _, unwanted := range tt.notContains {
				if strings.Contains(buf.String(), unwanted) {
					t.Errorf("output should not contain %q, got:\n%s", unwanted, buf.String())
				}
			}
		})
	}
}
