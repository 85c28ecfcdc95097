// Package searxng is a client for the SearXNG search aggregator REST API.
package searxng

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Defaults for client configuration.
const (
	DefaultBaseURL    = "http://localhost:8080"
	DefaultLanguage   = "en"
	DefaultNumResults = 5
	DefaultTimeout    = 20 * time.Second
)

// errorSnippetLimit caps how much of an error response body is surfaced.
const errorSnippetLimit = 2048

// SafeSearch is the SearXNG safe-search level.
type SafeSearch int

// Safe-search levels as defined by SearXNG.
const (
	SafeSearchNone     SafeSearch = 0
	SafeSearchModerate SafeSearch = 1
	SafeSearchStrict   SafeSearch = 2
)

// ParseSafeSearch interprets a config or env value leniently: "0" is none,
// "2" is strict, anything else moderate.
func ParseSafeSearch(s string) SafeSearch {
	switch strings.TrimSpace(s) {
	case "0":
		return SafeSearchNone
	case "2":
		return SafeSearchStrict
	default:
		return SafeSearchModerate
	}
}

// EngineFilter selects which engines the Engines call returns.
type EngineFilter string

// Engine filter values.
const (
	EnginesEnabled  EngineFilter = "enabled"
	EnginesDisabled EngineFilter = "disabled"
	EnginesAll      EngineFilter = "all"
)

// Config holds the client configuration, already merged from defaults,
// file, and environment by the config package.
type Config struct {
	BaseURL           string
	DefaultCategories []string
	DefaultEngines    []string
	Language          string
	SafeSearch        SafeSearch
	UserAgent         string
	NumResults        int
	Timeout           time.Duration
}

// DefaultConfig returns the client defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		Language:   DefaultLanguage,
		NumResults: DefaultNumResults,
		Timeout:    DefaultTimeout,
	}
}

// Result is one search hit.
type Result struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Content  string   `json:"content,omitempty"`
	Score    float64  `json:"score,omitempty"`
	Engines  []string `json:"engines,omitempty"`
	Category string   `json:"category,omitempty"`
}

// Response is the payload of a search call: ranked results plus query
// suggestions.
type Response struct {
	Results     []Result `json:"results"`
	Suggestions []string `json:"suggestions"`
}

// Params are per-request overrides for a search. Zero values fall back to
// the client config.
type Params struct {
	Query      string
	Categories string
	Engines    string
	Language   string
	PageNo     int
	TimeRange  string
	SafeSearch *SafeSearch
	NumResults int
}

// Client talks to one SearXNG instance.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a client for the configured instance. Zero-valued
// fields fall back to DefaultConfig.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.NumResults == 0 {
		cfg.NumResults = def.NumResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Search runs a query against /search and returns results sorted by
// descending score, truncated to the effective result limit.
func (c *Client) Search(ctx context.Context, params Params) (*Response, error) {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	u, err := url.Parse(base + "/search")
	if err != nil {
		return nil, fmt.Errorf("invalid base_url: %w", err)
	}

	lang := params.Language
	if lang == "" {
		lang = c.cfg.Language
	}
	engines := params.Engines
	if engines == "" && len(c.cfg.DefaultEngines) > 0 {
		engines = strings.Join(c.cfg.DefaultEngines, ",")
	}
	categories := params.Categories
	if categories == "" && len(c.cfg.DefaultCategories) > 0 {
		categories = strings.Join(c.cfg.DefaultCategories, ",")
	}
	safeSearch := c.cfg.SafeSearch
	if params.SafeSearch != nil {
		safeSearch = *params.SafeSearch
	}

	q := u.Query()
	q.Set("q", params.Query)
	q.Set("format", "json")
	q.Set("language", lang)
	q.Set("safesearch", strconv.Itoa(int(safeSearch)))
	if categories != "" {
		q.Set("categories", categories)
	}
	if engines != "" {
		q.Set("engines", engines)
	}
	if params.PageNo > 0 {
		q.Set("pageno", strconv.Itoa(params.PageNo))
	}
	if params.TimeRange != "" {
		q.Set("time_range", params.TimeRange)
	}
	u.RawQuery = q.Encode()

	var parsed Response
	if err := c.getJSON(ctx, u.String(), &parsed); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	sort.SliceStable(parsed.Results, func(i, j int) bool {
		return parsed.Results[i].Score > parsed.Results[j].Score
	})

	limit := params.NumResults
	if limit <= 0 {
		limit = c.cfg.NumResults
	}
	if limit > 0 && len(parsed.Results) > limit {
		parsed.Results = parsed.Results[:limit]
	}

	return &parsed, nil
}

// Engines fetches the instance's engine list from /config, filtered by
// enabled state and keyed by engine name.
func (c *Client) Engines(ctx context.Context, filter EngineFilter) (map[string]map[string]any, error) {
	var cfg struct {
		Engines []map[string]any `json:"engines"`
	}
	if err := c.getJSON(ctx, c.configURL(), &cfg); err != nil {
		return nil, fmt.Errorf("engines failed: %w", err)
	}
	if cfg.Engines == nil {
		return nil, fmt.Errorf("unexpected /config response: missing engines array")
	}

	out := make(map[string]map[string]any)
	for _, engine := range cfg.Engines {
		name, _ := engine["name"].(string)
		if name == "" {
			continue
		}
		enabled, _ := engine["enabled"].(bool)

		include := false
		switch filter {
		case EnginesAll:
			include = true
		case EnginesDisabled:
			include = !enabled
		default:
			include = enabled
		}
		if include {
			out[name] = engine
		}
	}
	return out, nil
}

// TestConnection probes /config to verify the instance is reachable.
func (c *Client) TestConnection(ctx context.Context) error {
	var ignored json.RawMessage
	if err := c.getJSON(ctx, c.configURL(), &ignored); err != nil {
		return fmt.Errorf("searxng unreachable: %w", err)
	}
	return nil
}

func (c *Client) configURL() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/config"
}

// getJSON issues a GET and decodes a JSON response, surfacing non-2xx
// statuses with a body snippet.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetLimit))
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}
