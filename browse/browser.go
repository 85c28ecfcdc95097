package browse

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/c360studio/searxng-mcp/hostguard"
)

const (
	// snippetLimit caps the body prefix carried inside HTTPStatusError.
	snippetLimit = 2048

	dialTimeout         = 10 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
	idleConnTimeout     = 90 * time.Second
)

// Policy is the immutable fetch policy for a Browser. It is constructed
// once from merged configuration and shared read-only across concurrent
// Fetch calls.
type Policy struct {
	// FollowRedirects enables walking redirect chains. When false, any
	// redirection response is a terminal error.
	FollowRedirects bool

	// MaxRedirects bounds the number of hops a single call may follow.
	MaxRedirects int

	// MaxBytes bounds the response body size.
	MaxBytes int64

	// Timeout bounds the whole call: connection, every hop, and the body
	// read combined.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// AllowedHosts, when non-empty, fully defines which hosts may be
	// fetched. See hostguard.Rules.
	AllowedHosts []string

	// AllowPrivate disables private-network screening.
	AllowPrivate bool

	// Readability enables article extraction before markdown conversion.
	Readability bool

	// Resolver overrides DNS resolution in the policy check. Nil means
	// net.DefaultResolver. The connection itself still resolves through
	// the transport; an answer changing in between is an accepted risk.
	Resolver hostguard.Resolver
}

// Result is a successfully fetched and rendered page.
type Result struct {
	// URL is the final URL after any followed redirects.
	URL string

	// Title is the extracted page title, possibly empty.
	Title string

	// Markdown is the rendered page content.
	Markdown string

	// Bytes is the size of the raw response body that was read.
	Bytes int
}

// FetchOptions are per-call overrides of the fetch policy.
type FetchOptions struct {
	// Readability overrides Policy.Readability when non-nil.
	Readability *bool
}

// Browser fetches web pages under a fixed Policy and renders them to
// markdown. A Browser is safe for concurrent use; each Fetch call owns its
// own per-call state.
type Browser struct {
	policy Policy
	rules  hostguard.Rules
	client *http.Client

	// Both converters are built up front so a per-call readability
	// override picks one instead of constructing a pipeline per request.
	plainConv  *Converter
	readerConv *Converter
}

// New creates a Browser for the given policy.
func New(policy Policy) *Browser {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
		MaxIdleConns:        10,
		IdleConnTimeout:     idleConnTimeout,
	}

	return &Browser{
		policy: policy,
		rules: hostguard.Rules{
			AllowedHosts: policy.AllowedHosts,
			AllowPrivate: policy.AllowPrivate,
			Resolver:     policy.Resolver,
		},
		client: &http.Client{
			Transport: transport,
			// Redirects are inspected, not silently followed: every hop
			// must pass through the policy check in Fetch.
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		plainConv:  NewConverter(false),
		readerConv: NewConverter(true),
	}
}

// converterFor picks the converter matching the effective readability flag.
func (b *Browser) converterFor(readability bool) *Converter {
	if readability {
		return b.readerConv
	}
	return b.plainConv
}

// Policy returns the browser's fetch policy.
func (b *Browser) Policy() Policy { return b.policy }

// Fetch retrieves rawURL and returns its content rendered as markdown.
// The policy's host rules are evaluated for the initial target and again
// for every redirect hop before any network contact with that hop. The
// whole call is bounded by the policy timeout and by ctx.
func (b *Browser) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	return b.FetchWith(ctx, rawURL, FetchOptions{})
}

// FetchWith is Fetch with per-call policy overrides.
func (b *Browser) FetchWith(ctx context.Context, rawURL string, opts FetchOptions) (*Result, error) {
	readability := b.policy.Readability
	if opts.Readability != nil {
		readability = *opts.Readability
	}

	current, err := url.Parse(rawURL)
	if err != nil {
		return nil, &InvalidURLError{URL: rawURL, Err: err}
	}
	switch current.Scheme {
	case "http", "https":
	default:
		return nil, &UnsupportedSchemeError{Scheme: current.Scheme}
	}
	if current.Hostname() == "" {
		return nil, &InvalidURLError{URL: rawURL}
	}

	if b.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.policy.Timeout)
		defer cancel()
	}

	for hop := 0; hop <= b.policy.MaxRedirects; hop++ {
		host := current.Hostname()
		if decision := hostguard.Evaluate(ctx, host, b.rules); !decision.Allowed {
			return nil, &PolicyDeniedError{Host: host, Reason: decision.Reason}
		}

		resp, err := b.get(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}

		if b.policy.FollowRedirects && isRedirect(resp.StatusCode) {
			next, err := redirectTarget(current, resp)
			drain(resp)
			if err != nil {
				return nil, err
			}
			if hop == b.policy.MaxRedirects {
				return nil, &TooManyRedirectsError{Limit: b.policy.MaxRedirects}
			}
			current = next
			continue
		}

		result, err := b.consume(current, resp, readability)
		resp.Body.Close()
		return result, err
	}

	// Only reachable with MaxRedirects < 0; the loop above always returns.
	return nil, &TooManyRedirectsError{Limit: b.policy.MaxRedirects}
}

// get issues one GET for the current hop.
func (b *Browser) get(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", b.policy.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return b.client.Do(req)
}

// consume handles a terminal (non-followed) response: status gate,
// content-type gate, bounded read, sanitize, convert.
func (b *Browser) consume(u *url.URL, resp *http.Response, readability bool) (*Result, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Snippet:    bodySnippet(resp.Body),
		}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !textContentType(ct) {
		return nil, &UnsupportedContentTypeError{ContentType: ct}
	}

	body, err := readBounded(resp.Body, b.policy.MaxBytes)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(body) {
		return nil, ErrInvalidEncoding
	}

	doc, err := b.converterFor(readability).Convert(u, Sanitize(string(body)))
	if err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	return &Result{
		URL:      u.String(),
		Title:    doc.Title,
		Markdown: doc.Markdown,
		Bytes:    len(body),
	}, nil
}

func isRedirect(status int) bool {
	return status >= 300 && status <= 399
}

// redirectTarget resolves the Location header against the current URL.
func redirectTarget(current *url.URL, resp *http.Response) (*url.URL, error) {
	loc := resp.Header.Get("Location")
	if loc == "" {
		return nil, &BadRedirectError{}
	}
	next, err := current.Parse(loc)
	if err != nil {
		return nil, &BadRedirectError{Location: loc, Err: err}
	}
	switch next.Scheme {
	case "http", "https":
	default:
		return nil, &UnsupportedSchemeError{Scheme: next.Scheme}
	}
	return next, nil
}

// textContentType reports whether ct names a renderable text document.
func textContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/") ||
		strings.HasPrefix(ct, "application/xhtml+xml") ||
		strings.HasPrefix(ct, "application/xml")
}

// bodySnippet reads a short best-effort body prefix for error reporting
// and closes the body.
func bodySnippet(body io.ReadCloser) string {
	defer body.Close()
	buf, err := io.ReadAll(io.LimitReader(body, snippetLimit))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(buf))
}

// drain discards a redirect response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, snippetLimit))
	resp.Body.Close()
}
