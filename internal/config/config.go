// ABOUTME: Configuration management for vibematch with YAML config loading.
// ABOUTME: Handles embedding provider settings, match defaults, env overrides, and ~ expansion.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider names understood by the embeddings package.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderHash   = "hash"
)

// Defaults for the matcher and the mock fallback.
const (
	DefaultTopK           = 3
	DefaultMinScore       = 0.7
	DefaultDimension      = 768
	DefaultTaskType       = "SEMANTIC_SIMILARITY"
	DefaultFallbackDelay  = time.Second
	DefaultCatalogPath    = "data/products.json"
	DefaultReportDir      = "reports"
	DefaultLogLevel       = "info"
	DefaultEmbeddingModel = "gemini-embedding-001"
)

// Config stores vibematch configuration loaded from ~/.config/vibematch/config.yaml.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Match     MatchConfig     `yaml:"match"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Report    ReportConfig    `yaml:"report"`
	History   HistoryConfig   `yaml:"history"`
	Log       LogConfig       `yaml:"log"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	TaskType      string        `yaml:"task_type"`
	Dimension     int           `yaml:"dimension"`
	FallbackDelay time.Duration `yaml:"fallback_delay"`
	Workers       int           `yaml:"workers"`
}

// MatchConfig holds per-call matcher defaults.
type MatchConfig struct {
	TopK          int     `yaml:"top_k"`
	MinScore      float64 `yaml:"min_score"`
	GoodThreshold float64 `yaml:"good_threshold"`
}

// CatalogConfig points at the product catalog file.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// ReportConfig controls where evaluation reports are written.
type ReportConfig struct {
	Dir string `yaml:"dir"`
}

// HistoryConfig selects the run history database.
type HistoryConfig struct {
	DSN string `yaml:"dsn"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a config with every field at its default value.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:      ProviderGemini,
			Model:         DefaultEmbeddingModel,
			TaskType:      DefaultTaskType,
			Dimension:     DefaultDimension,
			FallbackDelay: DefaultFallbackDelay,
			Workers:       1,
		},
		Match: MatchConfig{
			TopK:          DefaultTopK,
			MinScore:      DefaultMinScore,
			GoodThreshold: DefaultMinScore,
		},
		Catalog: CatalogConfig{Path: DefaultCatalogPath},
		Report:  ReportConfig{Dir: DefaultReportDir},
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// DefaultModel returns the default embedding model for a provider.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "text-embedding-3-small"
	case ProviderOllama:
		return "nomic-embed-text"
	case ProviderHash:
		return "fnv-bow"
	default:
		return DefaultEmbeddingModel
	}
}

// Validate rejects settings the matcher or embedder cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Match.TopK < 1 {
		errs = append(errs, fmt.Errorf("match.top_k must be >= 1, got %d", c.Match.TopK))
	}
	if c.Match.MinScore < -1 || c.Match.MinScore > 1 {
		errs = append(errs, fmt.Errorf("match.min_score must be within [-1, 1], got %g", c.Match.MinScore))
	}
	if c.Embedding.Dimension < 1 {
		errs = append(errs, fmt.Errorf("embedding.dimension must be >= 1, got %d", c.Embedding.Dimension))
	}
	if c.Embedding.Workers < 1 {
		errs = append(errs, fmt.Errorf("embedding.workers must be >= 1, got %d", c.Embedding.Workers))
	}
	if c.Embedding.FallbackDelay < 0 {
		errs = append(errs, fmt.Errorf("embedding.fallback_delay must not be negative"))
	}
	return errors.Join(errs...)
}

// GetCatalogPath returns the catalog path with ~ expanded.
func (c *Config) GetCatalogPath() (string, error) {
	return ExpandPath(c.Catalog.Path)
}

// GetReportDir returns the report directory with ~ expanded.
func (c *Config) GetReportDir() (string, error) {
	return ExpandPath(c.Report.Dir)
}

// GetHistoryDSN returns the history DSN, defaulting to a SQLite file under the data dir.
func (c *Config) GetHistoryDSN() (string, error) {
	if c.History.DSN != "" {
		if isPostgresDSN(c.History.DSN) {
			return c.History.DSN, nil
		}
		return ExpandPath(c.History.DSN)
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// DataDir returns the default vibematch data directory.
func DataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "vibematch"), nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "vibematch", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Load reads config from the default path. Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path, fills unset fields with defaults, and applies env overrides.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("VIBEMATCH_PROVIDER"); v != "" {
		c.Embedding.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("VIBEMATCH_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("VIBEMATCH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = apiKeyFromEnv(c.Embedding.Provider)
	}
}

// apiKeyFromEnv mirrors the env vars each provider's own tooling reads.
func apiKeyFromEnv(provider string) string {
	var keys []string
	switch provider {
	case ProviderGemini:
		keys = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case ProviderOpenAI:
		keys = []string{"OPENAI_API_KEY"}
	}
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// fillDefaults covers zero values left by a partial YAML file.
func (c *Config) fillDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderGemini
	}
	if c.Embedding.Model == "" || (c.Embedding.Model == DefaultEmbeddingModel && c.Embedding.Provider != ProviderGemini) {
		c.Embedding.Model = DefaultModel(c.Embedding.Provider)
	}
	if c.Embedding.TaskType == "" {
		c.Embedding.TaskType = DefaultTaskType
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = DefaultCatalogPath
	}
	if c.Report.Dir == "" {
		c.Report.Dir = DefaultReportDir
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Save writes config to the default path.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to path with owner-only permissions, since it may hold an API key.
func (c *Config) SaveFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
