// ABOUTME: Centralized configuration for the Naradmuni question-answering service
// ABOUTME: Loads an optional YAML file, then environment variables, with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultKeywords is the domain vocabulary used for query correction
var DefaultKeywords = []string{
	"GBU", "Gautam", "Buddha", "University", "Greater", "Noida",
	"B.Tech", "M.Tech", "MBA", "BBA", "MCA", "BCA", "PhD", "CSE", "ECE", "IT",
	"admission", "admissions", "hostel", "fees", "scholarship", "placement",
	"semester", "syllabus", "examination", "department", "faculty", "campus",
	"library", "registrar", "curriculum", "eligibility", "counselling",
}

// Config holds all configuration for the service
type Config struct {
	// Storage settings
	DataDir         string `yaml:"data_dir"`
	DocsDir         string `yaml:"docs_dir"`
	Collection      string `yaml:"collection"`
	IndexBackend    string `yaml:"index_backend"`
	PostgresDSN     string `yaml:"postgres_dsn"`
	CharmHost       string `yaml:"charm_host"`
	CharmDBName     string `yaml:"charm_db"`
	CharmAutoSync   bool   `yaml:"charm_auto_sync"`
	HugotModelDir   string `yaml:"hugot_model_dir"`
	HugotModelName  string `yaml:"hugot_model_name"`
	InstitutionName string `yaml:"institution"`

	// Provider settings
	Provider       string        `yaml:"provider"`
	OllamaHost     string        `yaml:"ollama_host"`
	OpenAIKey      string        `yaml:"-"`
	OpenAIBaseURL  string        `yaml:"openai_base_url"`
	EmbeddingModel string        `yaml:"embedding_model"`
	ChatModel      string        `yaml:"chat_model"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	EmbedWorkers   int           `yaml:"embed_workers"`
	EmbedRPS       float64       `yaml:"embed_rps"`

	// Chunking settings
	ChunkStrategy    string `yaml:"chunk_strategy"`
	ChunkMaxWords    int    `yaml:"chunk_max_words"`
	SectionMaxWords  int    `yaml:"section_max_words"`
	OverlapSentences int    `yaml:"overlap_sentences"`

	// Gate settings
	SimilarityThreshold float64  `yaml:"similarity_threshold"`
	LexicalThreshold    int      `yaml:"lexical_threshold"`
	CorrectionCutoff    int      `yaml:"correction_cutoff"`
	TopK                int      `yaml:"top_k"`
	Keywords            []string `yaml:"keywords"`

	// Server settings
	HTTPAddr string `yaml:"http_addr"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		DataDir:             DefaultDataDir(),
		DocsDir:             "./data",
		Collection:          "gbu_docs",
		IndexBackend:        "sqlite",
		CharmHost:           "cloud.charm.sh",
		CharmDBName:         "naradmuni",
		CharmAutoSync:       true,
		HugotModelDir:       "./models",
		HugotModelName:      "sentence-transformers/all-MiniLM-L6-v2",
		InstitutionName:     "Gautam Buddha University",
		Provider:            "ollama",
		OllamaHost:          "http://localhost:11434",
		EmbeddingModel:      "mxbai-embed-large",
		ChatModel:           "mistral",
		Timeout:             60 * time.Second,
		MaxRetries:          3,
		RetryDelay:          time.Second,
		EmbedWorkers:        4,
		ChunkStrategy:       "structural",
		ChunkMaxWords:       500,
		SectionMaxWords:     400,
		OverlapSentences:    1,
		SimilarityThreshold: 0.35,
		LexicalThreshold:    65,
		CorrectionCutoff:    85,
		TopK:                3,
		Keywords:            append([]string(nil), DefaultKeywords...),
		HTTPAddr:            ":5000",
	}
}

// Load reads configuration from the optional YAML file and environment variables.
// Environment variables take precedence over the file.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("NARAD_CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.DataDir = getEnv("NARAD_DATA_DIR", cfg.DataDir)
	cfg.DocsDir = getEnv("NARAD_DOCS_DIR", cfg.DocsDir)
	cfg.Collection = getEnv("NARAD_COLLECTION", cfg.Collection)
	cfg.IndexBackend = getEnv("NARAD_INDEX_BACKEND", cfg.IndexBackend)
	cfg.PostgresDSN = getEnv("NARAD_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.CharmHost = getEnv("CHARM_HOST", cfg.CharmHost)
	cfg.CharmDBName = getEnv("CHARM_DB", cfg.CharmDBName)
	cfg.CharmAutoSync = getEnvBool("CHARM_AUTO_SYNC", cfg.CharmAutoSync)
	cfg.HugotModelDir = getEnv("NARAD_HUGOT_MODEL_DIR", cfg.HugotModelDir)
	cfg.HugotModelName = getEnv("NARAD_HUGOT_MODEL", cfg.HugotModelName)
	cfg.InstitutionName = getEnv("NARAD_INSTITUTION", cfg.InstitutionName)
	cfg.Provider = getEnv("NARAD_PROVIDER", cfg.Provider)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.EmbeddingModel = getEnv("NARAD_EMBEDDING_MODEL", cfg.EmbeddingModel)
	cfg.ChatModel = getEnv("NARAD_CHAT_MODEL", cfg.ChatModel)
	cfg.Timeout = getEnvDuration("NARAD_TIMEOUT", cfg.Timeout)
	cfg.MaxRetries = getEnvInt("NARAD_MAX_RETRIES", cfg.MaxRetries)
	cfg.RetryDelay = getEnvDuration("NARAD_RETRY_DELAY", cfg.RetryDelay)
	cfg.EmbedWorkers = getEnvInt("NARAD_EMBED_WORKERS", cfg.EmbedWorkers)
	cfg.EmbedRPS = getEnvFloat("NARAD_EMBED_RPS", cfg.EmbedRPS)
	cfg.ChunkStrategy = getEnv("NARAD_CHUNK_STRATEGY", cfg.ChunkStrategy)
	cfg.ChunkMaxWords = getEnvInt("NARAD_CHUNK_MAX_WORDS", cfg.ChunkMaxWords)
	cfg.SectionMaxWords = getEnvInt("NARAD_SECTION_MAX_WORDS", cfg.SectionMaxWords)
	cfg.OverlapSentences = getEnvInt("NARAD_OVERLAP_SENTENCES", cfg.OverlapSentences)
	cfg.SimilarityThreshold = getEnvFloat("NARAD_SIMILARITY_THRESHOLD", cfg.SimilarityThreshold)
	cfg.LexicalThreshold = getEnvInt("NARAD_LEXICAL_THRESHOLD", cfg.LexicalThreshold)
	cfg.CorrectionCutoff = getEnvInt("NARAD_CORRECTION_CUTOFF", cfg.CorrectionCutoff)
	cfg.TopK = getEnvInt("NARAD_TOP_K", cfg.TopK)
	cfg.Keywords = getEnvList("NARAD_KEYWORDS", cfg.Keywords)
	cfg.HTTPAddr = getEnv("NARAD_HTTP_ADDR", cfg.HTTPAddr)

	return cfg, cfg.Validate()
}

// mergeFile overlays values from a YAML file onto the config
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("NARAD_SIMILARITY_THRESHOLD must be 0-1, got %f", c.SimilarityThreshold)
	}
	if c.LexicalThreshold < 0 || c.LexicalThreshold > 100 {
		return fmt.Errorf("NARAD_LEXICAL_THRESHOLD must be 0-100, got %d", c.LexicalThreshold)
	}
	if c.CorrectionCutoff < 0 || c.CorrectionCutoff > 100 {
		return fmt.Errorf("NARAD_CORRECTION_CUTOFF must be 0-100, got %d", c.CorrectionCutoff)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("NARAD_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.EmbedWorkers < 1 || c.EmbedWorkers > 64 {
		return fmt.Errorf("NARAD_EMBED_WORKERS must be 1-64, got %d", c.EmbedWorkers)
	}
	if c.EmbedRPS < 0 {
		return fmt.Errorf("NARAD_EMBED_RPS must not be negative, got %f", c.EmbedRPS)
	}
	if c.ChunkMaxWords <= 0 || c.SectionMaxWords <= 0 {
		return fmt.Errorf("chunk word limits must be positive, got %d and %d", c.ChunkMaxWords, c.SectionMaxWords)
	}
	if c.OverlapSentences < 0 {
		return fmt.Errorf("NARAD_OVERLAP_SENTENCES must not be negative, got %d", c.OverlapSentences)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("NARAD_TOP_K must be positive, got %d", c.TopK)
	}
	if c.Collection == "" {
		return fmt.Errorf("NARAD_COLLECTION must not be empty")
	}
	switch c.ChunkStrategy {
	case "fixed", "structural":
	default:
		return fmt.Errorf("NARAD_CHUNK_STRATEGY must be fixed or structural, got %q", c.ChunkStrategy)
	}
	switch c.IndexBackend {
	case "sqlite", "charm":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("NARAD_POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("NARAD_INDEX_BACKEND must be sqlite, postgres or charm, got %q", c.IndexBackend)
	}
	switch c.Provider {
	case "ollama", "hugot":
	case "openai":
		if c.OpenAIKey == "" && c.OpenAIBaseURL == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("NARAD_PROVIDER must be ollama, openai or hugot, got %q", c.Provider)
	}
	return nil
}

// DBPath returns the SQLite database file path inside the data directory
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "index.db")
}

// DefaultDataDir returns the default data directory following the XDG spec
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".local/share/naradmuni"
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataHome, "naradmuni")
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
