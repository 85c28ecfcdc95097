package browse

import "regexp"

// Pre-compiled regexes; (?is) makes them case-insensitive and lets the
// element content span multiple lines. Attributes on the opening tag are
// allowed.
var (
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
)

// Sanitize removes all style and script elements from raw HTML so that
// stylesheet noise and script payloads never reach the markdown converter
// or the caller. Everything else passes through untouched.
func Sanitize(html string) string {
	html = styleRe.ReplaceAllString(html, "")
	return scriptRe.ReplaceAllString(html, "")
}
