// ABOUTME: Shared bootstrap for CLI commands: config, logger, backend, index and pipeline
// ABOUTME: Every command that touches the index goes through openApp and closes it when done
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/answer"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/charm"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/chunker"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/config"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/gate"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/index"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/ingest"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/llm"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/storage/postgres"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/storage/sqlite"
)

// app is the wired service graph for one command invocation
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	backend   index.Backend
	index     *index.Index
	providers *llm.Providers
	answerer  *answer.Answerer
	pipeline  *ingest.Pipeline
}

// loadConfig reads .env and the configuration and builds the logger
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, newLogger(cmd.ErrOrStderr()), nil
}

func newLogger(w io.Writer) *slog.Logger {
	return logging.New(w, logging.LevelFor(verbose, quiet))
}

// openApp wires every component from the configuration, logging to stderr
func openApp(cmd *cobra.Command) (*app, error) {
	return openAppWithLogger(cmd, nil)
}

// openAppWithLogger is openApp with a caller-chosen logger; nil keeps the default
func openAppWithLogger(cmd *cobra.Command, logger *slog.Logger) (*app, error) {
	cfg, defaultLogger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = defaultLogger
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	idx, err := index.Open(ctx, backend, cfg.Collection, index.Options{
		Workers: cfg.EmbedWorkers,
		Logger:  logger,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	providers, err := llm.New(cfg, logger)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("initializing providers: %w", err)
	}

	ch, err := chunker.New(cfg.ChunkStrategy, cfg.ChunkMaxWords, cfg.SectionMaxWords, cfg.OverlapSentences)
	if err != nil {
		_ = providers.Close()
		_ = backend.Close()
		return nil, err
	}

	g := gate.New(providers.Embedder, idx, gate.NewCorrector(cfg.Keywords, cfg.CorrectionCutoff), gate.Options{
		SimilarityThreshold: cfg.SimilarityThreshold,
		LexicalThreshold:    cfg.LexicalThreshold,
		TopK:                cfg.TopK,
		Logger:              logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		backend:   backend,
		index:     idx,
		providers: providers,
		answerer: answer.New(g, providers.Embedder, idx, providers.Generator, answer.Options{
			InstitutionName: cfg.InstitutionName,
			TopK:            cfg.TopK,
			Logger:          logger,
		}),
		pipeline: ingest.New(ch, idx, providers.Embedder, ingest.Options{
			Settings: chunkSettings(cfg),
			Logger:   logger,
		}),
	}, nil
}

// Close releases providers and the backend
func (a *app) Close() error {
	perr := a.providers.Close()
	if err := a.backend.Close(); err != nil {
		return fmt.Errorf("closing %s backend: %w", a.cfg.IndexBackend, err)
	}
	return perr
}

// openBackend opens the store selected by cfg.IndexBackend
func openBackend(ctx context.Context, cfg *config.Config) (index.Backend, error) {
	switch cfg.IndexBackend {
	case "sqlite":
		db, err := sqlite.Open(cfg.DBPath())
		if err != nil {
			return nil, fmt.Errorf("opening sqlite index: %w", err)
		}
		return sqlite.NewStore(db), nil

	case "postgres":
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres index: %w", err)
		}
		return store, nil

	case "charm":
		client, err := openCharm(cfg)
		if err != nil {
			return nil, err
		}
		return charm.NewStore(client), nil

	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}
}

func openCharm(cfg *config.Config) (*charm.Client, error) {
	client, err := charm.NewClient(charm.Config{
		Host:     cfg.CharmHost,
		DBName:   cfg.CharmDBName,
		AutoSync: cfg.CharmAutoSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Charm: %w", err)
	}
	return client, nil
}

// chunkSettings identifies everything besides the documents that changes the index
func chunkSettings(cfg *config.Config) string {
	return fmt.Sprintf("%s|%s|%s|%d|%d|%d",
		cfg.Provider, cfg.EmbeddingModel, cfg.ChunkStrategy,
		cfg.ChunkMaxWords, cfg.SectionMaxWords, cfg.OverlapSentences)
}
