package browse

import (
	"errors"
	"fmt"
)

// Sentinel errors for failures that need no extra context.
var (
	// ErrInvalidEncoding indicates the response body was not valid UTF-8.
	ErrInvalidEncoding = errors.New("response body is not valid UTF-8 text")
)

// InvalidURLError indicates the requested URL could not be parsed or is
// missing a host.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid url %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("invalid url %q", e.URL)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// UnsupportedSchemeError indicates a scheme other than http or https.
type UnsupportedSchemeError struct {
	Scheme string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported url scheme %q: only http and https are allowed", e.Scheme)
}

// PolicyDeniedError indicates the host policy refused a fetch target.
// Host is the denied hop's host, which may differ from the originally
// requested host when a redirect chain is being walked.
type PolicyDeniedError struct {
	Host   string
	Reason string
}

func (e *PolicyDeniedError) Error() string {
	return fmt.Sprintf("refusing to browse %q: %s", e.Host, e.Reason)
}

// TooManyRedirectsError indicates the redirect chain exceeded the
// configured hop limit.
type TooManyRedirectsError struct {
	Limit int
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("too many redirects (max_redirects=%d)", e.Limit)
}

// BadRedirectError indicates a redirect response whose Location header was
// missing or could not be resolved against the current URL.
type BadRedirectError struct {
	Location string
	Err      error
}

func (e *BadRedirectError) Error() string {
	if e.Location == "" {
		return "redirect missing Location header"
	}
	return fmt.Sprintf("cannot resolve redirect location %q: %v", e.Location, e.Err)
}

func (e *BadRedirectError) Unwrap() error { return e.Err }

// HTTPStatusError indicates a terminal non-success status. Snippet holds a
// best-effort prefix of the response body.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Snippet    string
}

func (e *HTTPStatusError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("http error: %s: %s", e.Status, e.Snippet)
	}
	return fmt.Sprintf("http error: %s", e.Status)
}

// UnsupportedContentTypeError indicates a response that is not a text
// document and cannot be rendered to markdown.
type UnsupportedContentTypeError struct {
	ContentType string
}

func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("unsupported content-type for browse: %s", e.ContentType)
}

// BodyTooLargeError indicates the response body exceeded the byte ceiling.
type BodyTooLargeError struct {
	Limit int64
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("response exceeded max_bytes (%d)", e.Limit)
}
