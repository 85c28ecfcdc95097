package browse

import (
	"strings"
	"testing"
)

func TestConverter(t *testing.T) {
	converter := NewConverter(false)

	html := `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
<nav>Navigation</nav>
<main>
<h1>Main Heading</h1>
<p>This is a paragraph with <strong>bold</strong> text.</p>
<ul>
<li>Item 1</li>
<li>Item 2</li>
</ul>
</main>
<footer>Footer</footer>
</body>
</html>`

	doc, err := converter.Convert(nil, html)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if doc.Title != "Test Page" {
		t.Errorf("Title = %q, want %q", doc.Title, "Test Page")
	}
	if !strings.Contains(doc.Markdown, "Main Heading") {
		t.Error("Markdown should contain 'Main Heading'")
	}
	if !strings.Contains(doc.Markdown, "Item 1") {
		t.Error("Markdown should contain 'Item 1'")
	}
	// Content outside <main> is page chrome, not content.
	if strings.Contains(doc.Markdown, "Navigation") {
		t.Error("Markdown should not contain nav content when <main> exists")
	}
}

func TestConverterNoMainRegion(t *testing.T) {
	converter := NewConverter(false)

	html := `<html><head><title>Plain</title></head>
<body>
<nav>Menu</nav>
<h1>Heading</h1>
<p>Paragraph text.</p>
<footer>Legal</footer>
</body></html>`

	doc, err := converter.Convert(nil, html)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !strings.Contains(doc.Markdown, "Paragraph text.") {
		t.Error("Markdown should contain body text")
	}
	if strings.Contains(doc.Markdown, "Menu") || strings.Contains(doc.Markdown, "Legal") {
		t.Errorf("Markdown should not contain chrome, got %q", doc.Markdown)
	}
}

func TestConverterTitleFallsBackToHeading(t *testing.T) {
	converter := NewConverter(false)

	doc, err := converter.Convert(nil, "<body><h1>Only Heading</h1><p>x</p></body>")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if doc.Title != "Only Heading" {
		t.Errorf("Title = %q, want %q", doc.Title, "Only Heading")
	}
}

func TestConverterMalformedHTML(t *testing.T) {
	converter := NewConverter(false)

	doc, err := converter.Convert(nil, "<p>unclosed <b>tags<div>everywhere")
	if err != nil {
		t.Fatalf("Convert() should degrade gracefully, got error %v", err)
	}
	if !strings.Contains(doc.Markdown, "unclosed") {
		t.Errorf("Markdown = %q, want best-effort content", doc.Markdown)
	}
}

func TestTidyMarkdown(t *testing.T) {
	got := tidyMarkdown("Line 1   \n\n\n\n\n\nLine 2\t\n")
	if strings.Contains(got, "\n\n\n\n") {
		t.Error("tidyMarkdown should collapse excessive blank lines")
	}
	for _, line := range strings.Split(got, "\n") {
		if strings.HasSuffix(line, " ") || strings.HasSuffix(line, "\t") {
			t.Errorf("tidyMarkdown left trailing whitespace: %q", line)
		}
	}
}

func TestFirstHeading(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		expected string
	}{
		{"h1 at start", "# Hello World\n\nContent", "Hello World"},
		{"h1 after text", "Intro\n\n# Title Here\n\nMore", "Title Here"},
		{"no h1", "## Section\n\nContent", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstHeading(tt.markdown); got != tt.expected {
				t.Errorf("firstHeading() = %q, want %q", got, tt.expected)
			}
		})
	}
}
