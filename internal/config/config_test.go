// ABOUTME: Tests for vibematch configuration loading and path expansion.
// ABOUTME: Covers YAML parsing, defaults, env overrides, validation, and history DSN resolution.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every env var Load consults so host settings don't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY",
		"VIBEMATCH_PROVIDER", "VIBEMATCH_MODEL", "VIBEMATCH_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"tilde only", "~", home},
		{"tilde slash", "~/foo/bar", filepath.Join(home, "foo", "bar")},
		{"absolute", "/tmp/foo", "/tmp/foo"},
		{"relative", "foo/bar", "foo/bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.input)
			if err != nil {
				t.Fatalf("ExpandPath(%q) error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadDefaultConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Embedding.Provider != ProviderGemini {
		t.Errorf("expected provider %q, got %q", ProviderGemini, cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimension != DefaultDimension {
		t.Errorf("expected dimension %d, got %d", DefaultDimension, cfg.Embedding.Dimension)
	}
	if cfg.Embedding.FallbackDelay != time.Second {
		t.Errorf("expected 1s fallback delay, got %v", cfg.Embedding.FallbackDelay)
	}
	if cfg.Match.TopK != 3 {
		t.Errorf("expected top_k 3, got %d", cfg.Match.TopK)
	}
	if cfg.Match.MinScore != 0.7 || cfg.Match.GoodThreshold != 0.7 {
		t.Errorf("expected 0.7 thresholds, got %g / %g", cfg.Match.MinScore, cfg.Match.GoodThreshold)
	}
	if cfg.Embedding.APIKey != "" {
		t.Error("expected empty api_key in default config")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "vibematch")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configData := `embedding:
  provider: openai
  api_key: "test-key"
  dimension: 256
  fallback_delay: 250ms
  workers: 4
match:
  top_k: 5
  min_score: 0.5
catalog:
  path: "~/catalog.yaml"
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configData), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Embedding.Provider != ProviderOpenAI {
		t.Errorf("expected provider openai, got %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected openai default model, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.Embedding.APIKey)
	}
	if cfg.Embedding.Dimension != 256 {
		t.Errorf("expected dimension 256, got %d", cfg.Embedding.Dimension)
	}
	if cfg.Embedding.FallbackDelay != 250*time.Millisecond {
		t.Errorf("expected 250ms delay, got %v", cfg.Embedding.FallbackDelay)
	}
	if cfg.Match.TopK != 5 || cfg.Match.MinScore != 0.5 {
		t.Errorf("expected top_k 5 / min_score 0.5, got %d / %g", cfg.Match.TopK, cfg.Match.MinScore)
	}
	// Unset keys keep their defaults.
	if cfg.Match.GoodThreshold != DefaultMinScore {
		t.Errorf("expected default good_threshold, got %g", cfg.Match.GoodThreshold)
	}

	home, _ := os.UserHomeDir()
	if got, err := cfg.GetCatalogPath(); err != nil {
		t.Fatalf("GetCatalogPath() error: %v", err)
	} else if got != filepath.Join(home, "catalog.yaml") {
		t.Errorf("GetCatalogPath() = %q", got)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("embedding: [not, a, map"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("VIBEMATCH_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Embedding.APIKey != "google-key" {
		t.Errorf("expected GOOGLE_API_KEY to fill api_key, got %q", cfg.Embedding.APIKey)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.Log.Level)
	}

	// GEMINI_API_KEY wins over GOOGLE_API_KEY.
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	cfg, _ = Load()
	if cfg.Embedding.APIKey != "gemini-key" {
		t.Errorf("expected GEMINI_API_KEY to win, got %q", cfg.Embedding.APIKey)
	}
}

func TestEnvProviderSwitch(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("VIBEMATCH_PROVIDER", "Ollama")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Embedding.Provider != ProviderOllama {
		t.Errorf("expected provider ollama, got %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Model != "nomic-embed-text" {
		t.Errorf("expected ollama default model, got %q", cfg.Embedding.Model)
	}
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg := Default()
	cfg.Embedding.Provider = ProviderOpenAI
	cfg.Embedding.Model = "text-embedding-3-large"
	cfg.Embedding.APIKey = "saved-key"

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	info, err := os.Stat(filepath.Join(tmpDir, "vibematch", "config.yaml"))
	if err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Embedding.APIKey != "saved-key" {
		t.Errorf("expected api_key 'saved-key', got %q", loaded.Embedding.APIKey)
	}
	if loaded.Embedding.Model != "text-embedding-3-large" {
		t.Errorf("expected model to round-trip, got %q", loaded.Embedding.Model)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Match.TopK = 0
	cfg.Match.MinScore = 1.5
	cfg.Embedding.Dimension = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"top_k", "min_score", "dimension"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %v", want, err)
		}
	}
}

func TestGetHistoryDSN(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataDir)

	cfg := Default()
	got, err := cfg.GetHistoryDSN()
	if err != nil {
		t.Fatalf("GetHistoryDSN() error: %v", err)
	}
	if got != filepath.Join(dataDir, "vibematch", "history.db") {
		t.Errorf("unexpected default DSN %q", got)
	}

	cfg.History.DSN = "postgres://user@localhost/vibes"
	got, _ = cfg.GetHistoryDSN()
	if got != "postgres://user@localhost/vibes" {
		t.Errorf("expected postgres DSN untouched, got %q", got)
	}
}

func TestSaveFileCustomPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "custom.yaml")

	cfg := Default()
	cfg.Embedding.Provider = ProviderHash
	cfg.Embedding.Model = "fnv-bow"
	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if loaded.Embedding.Provider != ProviderHash {
		t.Errorf("expected provider hash, got %q", loaded.Embedding.Provider)
	}
}
