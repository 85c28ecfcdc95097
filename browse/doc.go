// Package browse fetches arbitrary user-supplied URLs safely and renders
// them to markdown.
//
// # Overview
//
// Unrestricted outbound fetch-by-URL is a classic SSRF vector, and
// redirect-following reintroduces the risk after the initial URL is
// validated because DNS and IPs can differ per hop. The Browser therefore
// walks redirects manually: every hop's host is re-evaluated against the
// host policy before any network contact, with nothing cached between
// hops.
//
// # Pipeline
//
// For a single Fetch call:
//
//   - scheme gate: only http and https
//   - per-hop policy check (hostguard.Evaluate)
//   - manual redirect walk up to Policy.MaxRedirects hops
//   - content-type gate: text/*, application/xhtml+xml, application/xml
//   - bounded body read aborting the moment Policy.MaxBytes would be
//     exceeded, never buffering the oversized payload
//   - UTF-8 validation
//   - style/script removal (Sanitize)
//   - HTML to markdown conversion, optionally via readability extraction
//
// # Failure model
//
// Every failure is a typed, terminal error (see errors.go); nothing is
// retried internally and the process never panics on bad input. A single
// wall-clock timeout bounds the entire call, not each hop.
//
// # Known limitation
//
// The policy check resolves DNS separately from the connection the
// transport later makes. An answer changing between the two (rebinding
// during the transfer window) is an accepted residual risk.
package browse
