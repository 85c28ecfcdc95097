package browse

import (
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var blankLinesRe = regexp.MustCompile(`\n{4,}`)

// chromeTags are elements stripped before conversion when no main content
// region is found. They carry navigation and page furniture, not content.
var chromeTags = map[string]bool{
	"nav": true, "header": true, "footer": true, "aside": true,
	"script": true, "style": true, "noscript": true, "iframe": true,
	"object": true, "embed": true, "form": true,
}

// Document is the rendered result of a fetched page.
type Document struct {
	Title    string
	Markdown string
}

// Converter renders sanitized HTML to markdown. Malformed HTML degrades to
// best-effort rendering rather than erroring where possible.
type Converter struct {
	md          *md.Converter
	readability bool
}

// NewConverter creates a markdown converter. When useReadability is set,
// the go-readability article extractor runs first and conversion applies
// to the extracted article body.
func NewConverter(useReadability bool) *Converter {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	return &Converter{md: conv, readability: useReadability}
}

// Convert renders htmlSrc to markdown. pageURL is used by the readability
// extractor to resolve relative references and may be nil.
func (c *Converter) Convert(pageURL *url.URL, htmlSrc string) (*Document, error) {
	title := ""
	content := htmlSrc

	if c.readability {
		if article, err := readability.FromReader(strings.NewReader(htmlSrc), pageURL); err == nil && article.Content != "" {
			title = article.Title
			content = article.Content
		}
	}

	if title == "" || content == htmlSrc {
		doc, err := html.Parse(strings.NewReader(content))
		if err == nil {
			if title == "" {
				title = pageTitle(doc)
			}
			if content == htmlSrc {
				content = contentRegion(doc)
			}
		}
	}

	markdown, err := c.md.ConvertString(content)
	if err != nil {
		return nil, err
	}
	markdown = tidyMarkdown(markdown)

	if title == "" {
		title = firstHeading(markdown)
	}

	return &Document{Title: title, Markdown: markdown}, nil
}

// walk visits n and its descendants until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// pageTitle returns the text of the first <title> element.
func pageTitle(doc *html.Node) string {
	title := ""
	walk(doc, func(n *html.Node) bool {
		if title != "" {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return false
		}
		return true
	})
	return title
}

// contentRegion renders the most content-bearing part of the document:
// the first <main>, <article>, or [role=main] element if one exists,
// otherwise the <body> with page chrome removed.
func contentRegion(doc *html.Node) string {
	for _, want := range []string{"main", "article"} {
		if n := findTag(doc, want); n != nil {
			return render(n)
		}
	}
	if n := findRoleMain(doc); n != nil {
		return render(n)
	}

	pruneChrome(doc)
	if body := findTag(doc, "body"); body != nil {
		return render(body)
	}
	return render(doc)
}

func findTag(doc *html.Node, tag string) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return false
		}
		return true
	})
	return found
}

func findRoleMain(doc *html.Node) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "role" && a.Val == "main" {
					found = n
					return false
				}
			}
		}
		return true
	})
	return found
}

// pruneChrome removes navigation and furniture elements in place.
func pruneChrome(doc *html.Node) {
	var doomed []*html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && chromeTags[n.Data] {
			doomed = append(doomed, n)
			return false
		}
		return true
	})
	for _, n := range doomed {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

func render(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

// tidyMarkdown collapses runs of blank lines and trims trailing spaces.
func tidyMarkdown(s string) string {
	s = blankLinesRe.ReplaceAllString(s, "\n\n\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// firstHeading returns the first H1 text of a markdown document.
func firstHeading(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
