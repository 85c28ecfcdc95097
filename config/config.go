// Package config provides configuration loading and management for the
// searxng-mcp server. Precedence is defaults, then config file, then
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTools is the tool allowlist applied when none is configured.
var DefaultTools = []string{"search", "browse"}

// Config is the complete merged server configuration. It is built once at
// startup (and again on reload) and treated as read-only afterwards;
// nothing in the server reads ambient environment state directly.
type Config struct {
	// Tools is the exposed tool allowlist. It must include search and browse.
	Tools []string

	Searxng        SearxngConfig
	Browse         BrowseConfig
	StreamableHTTP StreamableHTTPConfig
	Metrics        MetricsConfig
	Audit          AuditConfig
}

// SearxngConfig configures the SearXNG search client.
type SearxngConfig struct {
	// BaseURL is the SearXNG instance URL.
	BaseURL string
	// DefaultCategories is applied to searches without explicit categories.
	DefaultCategories []string
	// DefaultEngines is applied to searches without explicit engines.
	DefaultEngines []string
	// Language is the default search language code.
	Language string
	// SafeSearch is the default safe-search level (0 none, 1 moderate, 2 strict).
	SafeSearch int
	// UserAgent is sent with SearXNG API requests.
	UserAgent string
	// NumResults caps how many results a search returns.
	NumResults int
	// Timeout bounds one SearXNG API call.
	Timeout time.Duration
}

// BrowseConfig configures the secure content fetcher.
type BrowseConfig struct {
	// FollowRedirects enables walking redirect chains. When false, any
	// redirect response is an error.
	FollowRedirects bool
	// MaxRedirects bounds how many hops one browse call may follow.
	MaxRedirects int
	// MaxBytes bounds the response body size.
	MaxBytes int64
	// Timeout bounds one whole browse call, redirects included.
	Timeout time.Duration
	// UserAgent is sent with browse requests.
	UserAgent string
	// AllowedHosts, when non-empty, fully defines which hosts may be
	// browsed, bypassing private-network screening. Stored lower-cased.
	AllowedHosts []string
	// AllowPrivate disables localhost and private-network screening.
	AllowPrivate bool
	// Readability enables article extraction before markdown conversion.
	Readability bool
}

// StreamableHTTPConfig configures the streamable HTTP transport.
type StreamableHTTPConfig struct {
	// Stateful keeps per-session state on the server. Stateless mode
	// suits load-balanced deployments.
	Stateful bool
}

// MetricsConfig configures Prometheus exposition.
type MetricsConfig struct {
	// Enabled serves /metrics on the streamable HTTP listener.
	Enabled bool
}

// AuditConfig configures the optional NATS audit publisher.
type AuditConfig struct {
	// URL is the NATS server URL. Empty disables audit publishing.
	URL string
	// Subject is the NATS subject audit events are published to.
	Subject string
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Tools: append([]string(nil), DefaultTools...),
		Searxng: SearxngConfig{
			BaseURL:    "http://localhost:8080",
			Language:   "en",
			SafeSearch: 0,
			UserAgent:  "searxng-mcp/0.1.0",
			NumResults: 5,
			Timeout:    20 * time.Second,
		},
		Browse: BrowseConfig{
			FollowRedirects: false,
			MaxRedirects:    10,
			MaxBytes:        2_000_000,
			Timeout:         20 * time.Second,
			UserAgent:       "searxng-mcp/0.1.0",
			AllowPrivate:    false,
		},
		StreamableHTTP: StreamableHTTPConfig{
			Stateful: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Audit: AuditConfig{
			Subject: "searxng.mcp.audit",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Searxng.BaseURL == "" {
		return fmt.Errorf("searxng.base_url is required")
	}
	if c.Searxng.SafeSearch < 0 || c.Searxng.SafeSearch > 2 {
		return fmt.Errorf("searxng.safe_search must be 0, 1, or 2")
	}
	if c.Searxng.NumResults <= 0 {
		return fmt.Errorf("searxng.num_results must be positive")
	}
	if c.Searxng.Timeout <= 0 {
		return fmt.Errorf("searxng.timeout must be positive")
	}
	if c.Browse.MaxRedirects < 0 {
		return fmt.Errorf("browse.max_redirects must be non-negative")
	}
	if c.Browse.MaxBytes <= 0 {
		return fmt.Errorf("browse.max_bytes must be positive")
	}
	if c.Browse.Timeout <= 0 {
		return fmt.Errorf("browse.timeout must be positive")
	}
	if len(c.Tools) == 0 {
		return fmt.Errorf("tools must not be empty")
	}
	return nil
}

// fileConfig mirrors Config with optional fields so an absent key can be
// distinguished from an explicit zero value. Durations are written as
// strings ("20s") because yaml.v3 does not decode time.Duration from them.
type fileConfig struct {
	Tools          *[]string                 `yaml:"tools"`
	Searxng        *searxngFileConfig        `yaml:"searxng"`
	Browse         *browseFileConfig         `yaml:"browse"`
	StreamableHTTP *streamableHTTPFileConfig `yaml:"streamable_http"`
	Metrics        *metricsFileConfig        `yaml:"metrics"`
	Audit          *auditFileConfig          `yaml:"audit"`
}

type searxngFileConfig struct {
	BaseURL           *string   `yaml:"base_url"`
	DefaultCategories *[]string `yaml:"default_categories"`
	DefaultEngines    *[]string `yaml:"default_engines"`
	Language          *string   `yaml:"language"`
	SafeSearch        *int      `yaml:"safe_search"`
	UserAgent         *string   `yaml:"user_agent"`
	NumResults        *int      `yaml:"num_results"`
	Timeout           *string   `yaml:"timeout"`
}

type browseFileConfig struct {
	FollowRedirects *bool     `yaml:"follow_redirects"`
	MaxRedirects    *int      `yaml:"max_redirects"`
	MaxBytes        *int64    `yaml:"max_bytes"`
	Timeout         *string   `yaml:"timeout"`
	UserAgent       *string   `yaml:"user_agent"`
	AllowedHosts    *[]string `yaml:"allowed_hosts"`
	AllowPrivate    *bool     `yaml:"allow_private"`
	Readability     *bool     `yaml:"readability"`
}

type streamableHTTPFileConfig struct {
	Stateful *bool `yaml:"stateful"`
}

type metricsFileConfig struct {
	Enabled *bool `yaml:"enabled"`
}

type auditFileConfig struct {
	URL     *string `yaml:"url"`
	Subject *string `yaml:"subject"`
}

// merge overlays file values onto c. Only keys present in the file change
// anything.
func (c *Config) merge(f *fileConfig) error {
	if f == nil {
		return nil
	}
	if f.Tools != nil {
		c.Tools = normalizeList(*f.Tools)
	}
	if s := f.Searxng; s != nil {
		setString(&c.Searxng.BaseURL, s.BaseURL)
		setStrings(&c.Searxng.DefaultCategories, s.DefaultCategories)
		setStrings(&c.Searxng.DefaultEngines, s.DefaultEngines)
		setString(&c.Searxng.Language, s.Language)
		setInt(&c.Searxng.SafeSearch, s.SafeSearch)
		setString(&c.Searxng.UserAgent, s.UserAgent)
		setInt(&c.Searxng.NumResults, s.NumResults)
		if err := setDuration(&c.Searxng.Timeout, s.Timeout); err != nil {
			return fmt.Errorf("searxng.timeout: %w", err)
		}
	}
	if b := f.Browse; b != nil {
		setBool(&c.Browse.FollowRedirects, b.FollowRedirects)
		setInt(&c.Browse.MaxRedirects, b.MaxRedirects)
		if b.MaxBytes != nil {
			c.Browse.MaxBytes = *b.MaxBytes
		}
		if err := setDuration(&c.Browse.Timeout, b.Timeout); err != nil {
			return fmt.Errorf("browse.timeout: %w", err)
		}
		setString(&c.Browse.UserAgent, b.UserAgent)
		if b.AllowedHosts != nil {
			c.Browse.AllowedHosts = lowerList(*b.AllowedHosts)
		}
		setBool(&c.Browse.AllowPrivate, b.AllowPrivate)
		setBool(&c.Browse.Readability, b.Readability)
	}
	if h := f.StreamableHTTP; h != nil {
		setBool(&c.StreamableHTTP.Stateful, h.Stateful)
	}
	if m := f.Metrics; m != nil {
		setBool(&c.Metrics.Enabled, m.Enabled)
	}
	if a := f.Audit; a != nil {
		setString(&c.Audit.URL, a.URL)
		setString(&c.Audit.Subject, a.Subject)
	}
	return nil
}

// LoadFromFile overlays a YAML config file onto c.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return c.merge(&f)
}

// SaveToFile writes the configuration as YAML, creating parent
// directories as needed.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c.toFile())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// toFile converts c to its on-disk representation.
func (c *Config) toFile() *fileConfig {
	searxngTimeout := c.Searxng.Timeout.String()
	browseTimeout := c.Browse.Timeout.String()
	return &fileConfig{
		Tools: &c.Tools,
		Searxng: &searxngFileConfig{
			BaseURL:           &c.Searxng.BaseURL,
			DefaultCategories: &c.Searxng.DefaultCategories,
			DefaultEngines:    &c.Searxng.DefaultEngines,
			Language:          &c.Searxng.Language,
			SafeSearch:        &c.Searxng.SafeSearch,
			UserAgent:         &c.Searxng.UserAgent,
			NumResults:        &c.Searxng.NumResults,
			Timeout:           &searxngTimeout,
		},
		Browse: &browseFileConfig{
			FollowRedirects: &c.Browse.FollowRedirects,
			MaxRedirects:    &c.Browse.MaxRedirects,
			MaxBytes:        &c.Browse.MaxBytes,
			Timeout:         &browseTimeout,
			UserAgent:       &c.Browse.UserAgent,
			AllowedHosts:    &c.Browse.AllowedHosts,
			AllowPrivate:    &c.Browse.AllowPrivate,
			Readability:     &c.Browse.Readability,
		},
		StreamableHTTP: &streamableHTTPFileConfig{
			Stateful: &c.StreamableHTTP.Stateful,
		},
		Metrics: &metricsFileConfig{
			Enabled: &c.Metrics.Enabled,
		},
		Audit: &auditFileConfig{
			URL:     &c.Audit.URL,
			Subject: &c.Audit.Subject,
		},
	}
}

func setString(dst, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setStrings(dst, src *[]string) {
	if src != nil {
		*dst = normalizeList(*src)
	}
}

func setInt(dst, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string) error {
	if src == nil || *src == "" {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// normalizeList trims entries and drops empties.
func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// lowerList trims, lower-cases, and drops empties.
func lowerList(in []string) []string {
	out := normalizeList(in)
	for i, v := range out {
		out[i] = strings.ToLower(v)
	}
	return out
}
