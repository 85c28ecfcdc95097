package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Searxng.BaseURL != "http://localhost:8080" {
		t.Errorf("expected default base URL http://localhost:8080, got %s", cfg.Searxng.BaseURL)
	}
	if cfg.Searxng.NumResults != 5 {
		t.Errorf("expected default num_results 5, got %d", cfg.Searxng.NumResults)
	}
	if cfg.Browse.FollowRedirects {
		t.Error("expected redirects disabled by default")
	}
	if cfg.Browse.MaxRedirects != 10 {
		t.Errorf("expected default max_redirects 10, got %d", cfg.Browse.MaxRedirects)
	}
	if cfg.Browse.MaxBytes != 2_000_000 {
		t.Errorf("expected default max_bytes 2000000, got %d", cfg.Browse.MaxBytes)
	}
	if cfg.Browse.Timeout != 20*time.Second {
		t.Errorf("expected default browse timeout 20s, got %s", cfg.Browse.Timeout)
	}
	if cfg.Browse.AllowPrivate {
		t.Error("expected private networks blocked by default")
	}
	if len(cfg.Tools) != 2 || cfg.Tools[0] != "search" || cfg.Tools[1] != "browse" {
		t.Errorf("expected default tools [search browse], got %v", cfg.Tools)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing base URL",
			modify:  func(c *Config) { c.Searxng.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "safe search out of range",
			modify:  func(c *Config) { c.Searxng.SafeSearch = 3 },
			wantErr: true,
		},
		{
			name:    "negative max redirects",
			modify:  func(c *Config) { c.Browse.MaxRedirects = -1 },
			wantErr: true,
		},
		{
			name:    "zero max bytes",
			modify:  func(c *Config) { c.Browse.MaxBytes = 0 },
			wantErr: true,
		},
		{
			name:    "zero browse timeout",
			modify:  func(c *Config) { c.Browse.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "empty tool list",
			modify:  func(c *Config) { c.Tools = nil },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
searxng:
  base_url: "http://searx.internal:8888"
  default_categories: ["general", "news"]
  safe_search: 1
  timeout: "30s"
browse:
  follow_redirects: true
  max_redirects: 3
  allowed_hosts: ["Example.COM", " docs.example.com "]
streamable_http:
  stateful: false
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(configPath); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Searxng.BaseURL != "http://searx.internal:8888" {
		t.Errorf("base URL not overridden, got %s", cfg.Searxng.BaseURL)
	}
	if len(cfg.Searxng.DefaultCategories) != 2 || cfg.Searxng.DefaultCategories[1] != "news" {
		t.Errorf("unexpected categories %v", cfg.Searxng.DefaultCategories)
	}
	if cfg.Searxng.SafeSearch != 1 {
		t.Errorf("expected safe_search 1, got %d", cfg.Searxng.SafeSearch)
	}
	if cfg.Searxng.Timeout != 30*time.Second {
		t.Errorf("expected searxng timeout 30s, got %s", cfg.Searxng.Timeout)
	}
	if !cfg.Browse.FollowRedirects {
		t.Error("expected follow_redirects true")
	}
	if cfg.Browse.MaxRedirects != 3 {
		t.Errorf("expected max_redirects 3, got %d", cfg.Browse.MaxRedirects)
	}
	// Allowlist entries are lower-cased and trimmed.
	want := []string{"example.com", "docs.example.com"}
	if len(cfg.Browse.AllowedHosts) != len(want) {
		t.Fatalf("unexpected allowed hosts %v", cfg.Browse.AllowedHosts)
	}
	for i, h := range want {
		if cfg.Browse.AllowedHosts[i] != h {
			t.Errorf("allowed host %d = %q, want %q", i, cfg.Browse.AllowedHosts[i], h)
		}
	}
	if cfg.StreamableHTTP.Stateful {
		t.Error("expected stateful false")
	}

	// Keys absent from the file keep their defaults.
	if cfg.Browse.MaxBytes != 2_000_000 {
		t.Errorf("max_bytes should keep default, got %d", cfg.Browse.MaxBytes)
	}
	if cfg.Searxng.Language != "en" {
		t.Errorf("language should keep default, got %s", cfg.Searxng.Language)
	}
}

func TestLoadFromFileExplicitFalse(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// An explicit false must override a default of true.
	content := `
metrics:
  enabled: false
streamable_http:
  stateful: false
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(configPath); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Metrics.Enabled {
		t.Error("metrics.enabled should be false")
	}
	if cfg.StreamableHTTP.Stateful {
		t.Error("streamable_http.stateful should be false")
	}
}

func TestLoadFromFileBadDuration(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
browse:
  timeout: "not-a-duration"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(configPath); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestSaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	orig := DefaultConfig()
	orig.Browse.AllowedHosts = []string{"example.com"}
	orig.Browse.Timeout = 45 * time.Second
	if err := orig.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(configPath); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if loaded.Browse.Timeout != 45*time.Second {
		t.Errorf("expected browse timeout 45s, got %s", loaded.Browse.Timeout)
	}
	if len(loaded.Browse.AllowedHosts) != 1 || loaded.Browse.AllowedHosts[0] != "example.com" {
		t.Errorf("unexpected allowed hosts %v", loaded.Browse.AllowedHosts)
	}
	if loaded.Searxng.BaseURL != orig.Searxng.BaseURL {
		t.Errorf("base URL mismatch after reload: %s", loaded.Searxng.BaseURL)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SEARXNG_BASE_URL", "http://env.example:9999")
	t.Setenv("SEARXNG_NUM_RESULTS", "12")
	t.Setenv("BROWSE_FOLLOW_REDIRECTS", "true")
	t.Setenv("BROWSE_MAX_BYTES", "500000")
	t.Setenv("BROWSE_TIMEOUT_SECS", "7")
	t.Setenv("BROWSE_ALLOWED_HOSTS", "Example.com, api.example.com")
	t.Setenv("SEARXNG_MCP_TOOLS", "search,browse,ping")
	t.Setenv("STREAMABLE_HTTP_STATEFUL", "false")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.Searxng.BaseURL != "http://env.example:9999" {
		t.Errorf("base URL not overridden, got %s", cfg.Searxng.BaseURL)
	}
	if cfg.Searxng.NumResults != 12 {
		t.Errorf("expected num_results 12, got %d", cfg.Searxng.NumResults)
	}
	if !cfg.Browse.FollowRedirects {
		t.Error("expected follow_redirects true")
	}
	if cfg.Browse.MaxBytes != 500_000 {
		t.Errorf("expected max_bytes 500000, got %d", cfg.Browse.MaxBytes)
	}
	if cfg.Browse.Timeout != 7*time.Second {
		t.Errorf("expected browse timeout 7s, got %s", cfg.Browse.Timeout)
	}
	if len(cfg.Browse.AllowedHosts) != 2 || cfg.Browse.AllowedHosts[0] != "example.com" {
		t.Errorf("unexpected allowed hosts %v", cfg.Browse.AllowedHosts)
	}
	if len(cfg.Tools) != 3 || cfg.Tools[2] != "ping" {
		t.Errorf("unexpected tools %v", cfg.Tools)
	}
	if cfg.StreamableHTTP.Stateful {
		t.Error("expected stateful false")
	}
}

func TestApplyEnvInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad int", "SEARXNG_NUM_RESULTS", "many"},
		{"bad bool", "BROWSE_ALLOW_PRIVATE", "yep"},
		{"bad seconds", "BROWSE_TIMEOUT_SECS", "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := DefaultConfig()
			if err := cfg.ApplyEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestEnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
searxng:
  base_url: "http://from-file:8080"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SEARXNG_BASE_URL", "http://from-env:8080")

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(configPath); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.Searxng.BaseURL != "http://from-env:8080" {
		t.Errorf("environment should win over file, got %s", cfg.Searxng.BaseURL)
	}
}

func TestApplyEnvSafeSearchLenient(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"none", "0", 0},
		{"strict", "2", 2},
		{"moderate", "1", 1},
		{"out of range coerces to moderate", "5", 1},
		{"garbage coerces to moderate", "loud", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SEARXNG_SAFE_SEARCH", tt.value)
			cfg := DefaultConfig()
			if err := cfg.ApplyEnv(); err != nil {
				t.Fatalf("ApplyEnv: %v", err)
			}
			if cfg.Searxng.SafeSearch != tt.want {
				t.Errorf("safe_search = %d, want %d", cfg.Searxng.SafeSearch, tt.want)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}
