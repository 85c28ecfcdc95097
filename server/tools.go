package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/c360studio/searxng-mcp/audit"
	"github.com/c360studio/searxng-mcp/browse"
	"github.com/c360studio/searxng-mcp/metrics"
	"github.com/c360studio/searxng-mcp/searxng"
)

// PingInput is the (empty) input of the ping tool.
type PingInput struct{}

// SearchInput is the input of the search tool.
type SearchInput struct {
	// Query is the search query.
	Query string `json:"query"`
	// Categories restricts the search to SearXNG categories.
	Categories []string `json:"categories,omitempty"`
	// Engines restricts the search to specific engines.
	Engines []string `json:"engines,omitempty"`
	// Language overrides the configured search language.
	Language string `json:"language,omitempty"`
	// SafeSearch overrides the configured safe-search level (0, 1, or 2).
	SafeSearch *int `json:"safe_search,omitempty"`
	// NumResults overrides how many results to return.
	NumResults int `json:"num_results,omitempty"`
	// Page selects the result page, starting at 1.
	Page int `json:"page,omitempty"`
	// TimeRange restricts results by age: day, month, or year.
	TimeRange string `json:"time_range,omitempty"`
}

// SearchPayload is the structured output of the search tool.
type SearchPayload struct {
	Query       string           `json:"query"`
	Results     []searxng.Result `json:"results"`
	Suggestions []string         `json:"suggestions,omitempty"`
}

// BrowseInput is the input of the browse tool.
type BrowseInput struct {
	// URL is the http or https URL to fetch.
	URL string `json:"url"`
	// Readability overrides the configured readability mode for this call.
	Readability *bool `json:"readability,omitempty"`
}

// BrowsePayload is the structured output of the browse tool.
type BrowsePayload struct {
	// URL is the final URL after any followed redirects.
	URL string `json:"url"`
	// Title is the extracted page title, possibly empty.
	Title string `json:"title,omitempty"`
	// Markdown is the rendered page content.
	Markdown string `json:"markdown"`
	// Bytes is the size of the raw body that was read.
	Bytes int `json:"bytes"`
}

// EnginesInput is the input of the engines tool.
type EnginesInput struct {
	// Filter selects which engines to list: enabled, disabled, or all.
	// Defaults to enabled.
	Filter string `json:"filter,omitempty"`
}

// HealthInput is the (empty) input of the health tool.
type HealthInput struct{}

// HealthPayload is the structured output of the health tool.
type HealthPayload struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Searxng string `json:"searxng"`
	Detail  string `json:"detail,omitempty"`
}

// registerTools adds the enabled tools to the MCP server.
func (s *Server) registerTools(enabled map[string]bool) {
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true}

	if enabled["ping"] {
		mcp.AddTool(s.mcp, &mcp.Tool{
			Name:        "ping",
			Description: "Liveness check. Returns pong.",
			Annotations: readOnly,
		}, s.handlePing)
	}
	if enabled["search"] {
		mcp.AddTool(s.mcp, &mcp.Tool{
			Name:        "search",
			Description: "Search the web through SearXNG. Returns ranked results with titles, URLs, and snippets.",
			Annotations: readOnly,
		}, s.handleSearch)
	}
	if enabled["browse"] {
		mcp.AddTool(s.mcp, &mcp.Tool{
			Name:        "browse",
			Description: "Fetch a web page and return its content as markdown. Scripts and styles are stripped. Requests to private networks are refused unless configured otherwise.",
			Annotations: readOnly,
		}, s.handleBrowse)
	}
	if enabled["engines"] {
		mcp.AddTool(s.mcp, &mcp.Tool{
			Name:        "engines",
			Description: "List the SearXNG instance's search engines, filtered by enabled, disabled, or all.",
			Annotations: readOnly,
		}, s.handleEngines)
	}
	if enabled["health"] {
		mcp.AddTool(s.mcp, &mcp.Tool{
			Name:        "health",
			Description: "Report server health and SearXNG connectivity.",
			Annotations: readOnly,
		}, s.handleHealth)
	}
}

func (s *Server) handlePing(ctx context.Context, req *mcp.CallToolRequest, input PingInput) (*mcp.CallToolResult, any, error) {
	return textResult("pong"), nil, nil
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchPayload, error) {
	requestID := uuid.NewString()
	start := time.Now()
	logger := s.logger.With("request_id", requestID, "tool", "search")

	query := strings.TrimSpace(input.Query)
	if query == "" {
		return errorResult("query is required"), SearchPayload{}, nil
	}

	params := searxng.Params{
		Query:      query,
		Categories: strings.Join(input.Categories, ","),
		Engines:    strings.Join(input.Engines, ","),
		Language:   input.Language,
		PageNo:     input.Page,
		TimeRange:  input.TimeRange,
		NumResults: input.NumResults,
	}
	if input.SafeSearch != nil {
		level := *input.SafeSearch
		if level < 0 || level > 2 {
			return errorResult("safe_search must be 0, 1, or 2"), SearchPayload{}, nil
		}
		ss := searxng.SafeSearch(level)
		params.SafeSearch = &ss
	}

	resp, err := s.getSearx().Search(ctx, params)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("Search failed", "query", query, "error", err)
		s.publishAudit("search", query, requestID, metrics.OutcomeError, err.Error(), elapsed)
		return errorResult(fmt.Sprintf("search failed: %v", err)), SearchPayload{}, nil
	}

	if s.metrics != nil {
		s.metrics.SearchDuration.Observe(elapsed.Seconds())
	}
	logger.Info("Search completed",
		"query", query,
		"results", len(resp.Results),
		"elapsed", elapsed)
	s.publishAudit("search", query, requestID, metrics.OutcomeOK, "", elapsed)

	payload := SearchPayload{
		Query:       query,
		Results:     resp.Results,
		Suggestions: resp.Suggestions,
	}
	return textResult(renderSearchText(payload)), payload, nil
}

func (s *Server) handleBrowse(ctx context.Context, req *mcp.CallToolRequest, input BrowseInput) (*mcp.CallToolResult, BrowsePayload, error) {
	requestID := uuid.NewString()
	start := time.Now()
	logger := s.logger.With("request_id", requestID, "tool", "browse")

	rawURL := strings.TrimSpace(input.URL)
	if rawURL == "" {
		return errorResult("url is required"), BrowsePayload{}, nil
	}

	result, err := s.getBrowser().FetchWith(ctx, rawURL, browse.FetchOptions{
		Readability: input.Readability,
	})
	elapsed := time.Since(start)
	if err != nil {
		outcome := metrics.OutcomeError
		var denied *browse.PolicyDeniedError
		if errors.As(err, &denied) {
			outcome = metrics.OutcomeDenied
			if s.metrics != nil {
				s.metrics.PolicyDenials.WithLabelValues(denied.Reason).Inc()
			}
			logger.Warn("Browse denied", "url", rawURL, "host", denied.Host, "reason", denied.Reason)
		} else {
			logger.Error("Browse failed", "url", rawURL, "error", err)
		}
		if s.metrics != nil {
			s.metrics.BrowseTotal.WithLabelValues(outcome).Inc()
		}
		s.publishAudit("browse", rawURL, requestID, outcome, err.Error(), elapsed)
		return errorResult(err.Error()), BrowsePayload{}, nil
	}

	if s.metrics != nil {
		s.metrics.BrowseTotal.WithLabelValues(metrics.OutcomeOK).Inc()
		s.metrics.BrowseBytes.Observe(float64(result.Bytes))
	}
	logger.Info("Browse completed",
		"url", rawURL,
		"final_url", result.URL,
		"bytes", result.Bytes,
		"elapsed", elapsed)
	s.publishAudit("browse", rawURL, requestID, metrics.OutcomeOK, "", elapsed)

	payload := BrowsePayload{
		URL:      result.URL,
		Title:    result.Title,
		Markdown: result.Markdown,
		Bytes:    result.Bytes,
	}
	return textResult(result.Markdown), payload, nil
}

func (s *Server) handleEngines(ctx context.Context, req *mcp.CallToolRequest, input EnginesInput) (*mcp.CallToolResult, map[string]map[string]any, error) {
	filter := searxng.EnginesEnabled
	switch strings.TrimSpace(input.Filter) {
	case "", string(searxng.EnginesEnabled):
	case string(searxng.EnginesDisabled):
		filter = searxng.EnginesDisabled
	case string(searxng.EnginesAll):
		filter = searxng.EnginesAll
	default:
		return errorResult("filter must be enabled, disabled, or all"), nil, nil
	}

	engines, err := s.getSearx().Engines(ctx, filter)
	if err != nil {
		s.logger.Error("Engine listing failed", "error", err)
		return errorResult(fmt.Sprintf("engine listing failed: %v", err)), nil, nil
	}

	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	return textResult(fmt.Sprintf("%d engines (%s): %s", len(engines), filter, strings.Join(names, ", "))), engines, nil
}

func (s *Server) handleHealth(ctx context.Context, req *mcp.CallToolRequest, input HealthInput) (*mcp.CallToolResult, HealthPayload, error) {
	payload := HealthPayload{
		Status:  "ok",
		Version: Version,
		Searxng: "reachable",
	}
	if err := s.getSearx().TestConnection(ctx); err != nil {
		payload.Status = "degraded"
		payload.Searxng = "unreachable"
		payload.Detail = err.Error()
	}
	return textResult(fmt.Sprintf("status: %s, searxng: %s", payload.Status, payload.Searxng)), payload, nil
}

// publishAudit records one tool invocation. Safe with a nil publisher.
func (s *Server) publishAudit(tool, target, requestID, outcome, detail string, elapsed time.Duration) {
	s.audit.Publish(audit.Event{
		RequestID: requestID,
		Tool:      tool,
		Target:    target,
		Outcome:   outcome,
		Detail:    detail,
		ElapsedMS: elapsed.Milliseconds(),
	})
}

// renderSearchText formats search results for the text content block.
func renderSearchText(p SearchPayload) string {
	if len(p.Results) == 0 {
		return fmt.Sprintf("No results for %q.", p.Query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d results for %q:\n", len(p.Results), p.Query)
	for i, r := range p.Results {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.Content != "" {
			fmt.Fprintf(&b, "   %s\n", r.Content)
		}
	}
	return b.String()
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
