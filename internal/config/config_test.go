package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderGoogle {
		t.Errorf("expected default provider %q, got %q", ProviderGoogle, cfg.Provider)
	}
	if cfg.Temperature != 0.1 {
		t.Errorf("expected default temperature 0.1, got %g", cfg.Temperature)
	}
	if cfg.MaxTokens != 1000 {
		t.Errorf("expected default max_tokens 1000, got %d", cfg.MaxTokens)
	}
	if cfg.Retrieval.DefaultK != 20 {
		t.Errorf("expected default_k 20, got %d", cfg.Retrieval.DefaultK)
	}
	if cfg.Cache.Size != 100 || cfg.Cache.TTLSeconds != 3600 {
		t.Errorf("unexpected cache defaults: %+v", cfg.Cache)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "csexpert.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Model = "gpt-4o"
	original.DatabasePath = "other/courses.db"
	original.Retrieval.DefaultK = 30
	original.Cache.Size = 50

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.DatabasePath != original.DatabasePath {
		t.Errorf("database_path: got %q, want %q", loaded.DatabasePath, original.DatabasePath)
	}
	if loaded.Retrieval.DefaultK != 30 {
		t.Errorf("retrieval.default_k: got %d, want 30", loaded.Retrieval.DefaultK)
	}
	if loaded.Cache.Size != 50 {
		t.Errorf("cache.size: got %d, want 50", loaded.Cache.Size)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderGoogle {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "csexpert.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	os.Setenv("CSEXPERT_PROVIDER", "openai")
	os.Setenv("CSEXPERT_CACHE_SIZE", "25")
	defer os.Unsetenv("CSEXPERT_PROVIDER")
	defer os.Unsetenv("CSEXPERT_CACHE_SIZE")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOpenAI {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOpenAI)
	}
	if loaded.Cache.Size != 25 {
		t.Errorf("nested env override failed: got %d, want 25", loaded.Cache.Size)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"invalid provider", func(c *Config) { c.Provider = "invalid" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }},
		{"max_tokens too low", func(c *Config) { c.MaxTokens = 50 }},
		{"max_tokens too high", func(c *Config) { c.MaxTokens = 9000 }},
		{"empty database path", func(c *Config) { c.DatabasePath = "" }},
		{"zero default_k", func(c *Config) { c.Retrieval.DefaultK = 0 }},
		{"threshold above one", func(c *Config) { c.Retrieval.SimilarityThreshold = 1.5 }},
		{"zero cache size", func(c *Config) { c.Cache.Size = 0 }},
		{"cache size too large", func(c *Config) { c.Cache.Size = 2000 }},
		{"zero ttl", func(c *Config) { c.Cache.TTLSeconds = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GEMINI_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}
