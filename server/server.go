// Package server wires the search and browse tools into an MCP server
// and serves it over stdio or streamable HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/c360studio/searxng-mcp/audit"
	"github.com/c360studio/searxng-mcp/browse"
	"github.com/c360studio/searxng-mcp/config"
	"github.com/c360studio/searxng-mcp/metrics"
	"github.com/c360studio/searxng-mcp/searxng"
)

// Version is the server version reported to MCP clients.
const Version = "0.1.0"

const instructions = `Web access tools backed by a SearXNG instance.

Use search to find pages and browse to read one. browse fetches a URL,
strips scripts and styles, and returns the page as markdown. Requests to
private networks are refused unless the server is configured otherwise.`

// knownTools enumerates every tool this server can expose.
var knownTools = map[string]bool{
	"ping":    true,
	"search":  true,
	"browse":  true,
	"engines": true,
	"health":  true,
}

// requiredTools must appear in any configured allowlist.
var requiredTools = []string{"search", "browse"}

// ValidateTools checks a tool allowlist: every name must be known and the
// required tools must be present.
func ValidateTools(tools []string) error {
	enabled := make(map[string]bool, len(tools))
	for _, name := range tools {
		if !knownTools[name] {
			return fmt.Errorf("unknown tool %q", name)
		}
		enabled[name] = true
	}
	for _, name := range requiredTools {
		if !enabled[name] {
			return fmt.Errorf("tool allowlist must include %q", name)
		}
	}
	return nil
}

// Options carries the server's collaborators. Zero values are usable:
// a nil logger falls back to slog.Default, nil metrics disables
// instrumentation, nil audit disables event publishing.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Audit   *audit.Publisher
}

// Server is the MCP server for search and browse.
type Server struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Publisher

	mu      sync.RWMutex
	cfg     *config.Config
	browser *browse.Browser
	searx   *searxng.Client

	mcp *mcp.Server
}

// New builds a server from merged configuration.
func New(cfg *config.Config, opts Options) (*Server, error) {
	if err := ValidateTools(cfg.Tools); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		logger:  logger,
		metrics: opts.Metrics,
		audit:   opts.Audit,
		cfg:     cfg,
	}
	s.browser = browse.New(policyFromConfig(cfg.Browse))
	s.searx = searxng.NewClient(searxConfigFromConfig(cfg.Searxng))

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "searxng-mcp",
		Version: Version,
	}, &mcp.ServerOptions{
		Instructions: instructions,
	})
	s.registerTools(toolSet(cfg.Tools))

	return s, nil
}

// Reload swaps in a new configuration. The tool set is fixed at startup;
// a changed allowlist takes effect on restart and is logged here.
func (s *Server) Reload(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := ValidateTools(cfg.Tools); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !sameTools(s.cfg.Tools, cfg.Tools) {
		s.logger.Warn("Tool allowlist changed, restart required for it to take effect",
			"current", s.cfg.Tools,
			"new", cfg.Tools)
	}

	s.cfg = cfg
	s.browser = browse.New(policyFromConfig(cfg.Browse))
	s.searx = searxng.NewClient(searxConfigFromConfig(cfg.Searxng))

	s.logger.Info("Configuration reloaded")
	return nil
}

// Run serves MCP over stdio until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Serving MCP over stdio", "version", Version)
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) getBrowser() *browse.Browser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.browser
}

func (s *Server) getSearx() *searxng.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searx
}

func (s *Server) getConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// policyFromConfig maps browse configuration to a fetch policy.
func policyFromConfig(c config.BrowseConfig) browse.Policy {
	return browse.Policy{
		FollowRedirects: c.FollowRedirects,
		MaxRedirects:    c.MaxRedirects,
		MaxBytes:        c.MaxBytes,
		Timeout:         c.Timeout,
		UserAgent:       c.UserAgent,
		AllowedHosts:    c.AllowedHosts,
		AllowPrivate:    c.AllowPrivate,
		Readability:     c.Readability,
	}
}

// searxConfigFromConfig maps searxng configuration to the client config.
func searxConfigFromConfig(c config.SearxngConfig) searxng.Config {
	return searxng.Config{
		BaseURL:           c.BaseURL,
		DefaultCategories: c.DefaultCategories,
		DefaultEngines:    c.DefaultEngines,
		Language:          c.Language,
		SafeSearch:        searxng.SafeSearch(c.SafeSearch),
		UserAgent:         c.UserAgent,
		NumResults:        c.NumResults,
		Timeout:           c.Timeout,
	}
}

func toolSet(tools []string) map[string]bool {
	set := make(map[string]bool, len(tools))
	for _, name := range tools {
		set[name] = true
	}
	return set
}

func sameTools(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := toolSet(a)
	for _, name := range b {
		if !set[name] {
			return false
		}
	}
	return true
}
