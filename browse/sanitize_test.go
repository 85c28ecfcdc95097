package browse

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		keeps   []string
		removes []string
	}{
		{
			name:    "strips style and script",
			html:    "<html><head><style>body{color:red}</style><script>alert(1)</script></head><body><h1>Hi</h1></body></html>",
			keeps:   []string{"<h1>Hi</h1>"},
			removes: []string{"style", "script"},
		},
		{
			name:    "case insensitive",
			html:    "<SCRIPT>evil()</SCRIPT><p>ok</p><STYLE>p{}</STYLE>",
			keeps:   []string{"<p>ok</p>"},
			removes: []string{"evil", "SCRIPT", "STYLE"},
		},
		{
			name:    "attributes on opening tag",
			html:    `<script type="module" src="x.js">code()</script><div>kept</div>`,
			keeps:   []string{"<div>kept</div>"},
			removes: []string{"script", "code()"},
		},
		{
			name:    "content spanning multiple lines",
			html:    "<style>\nbody {\n  margin: 0;\n}\n</style><span>text</span>",
			keeps:   []string{"<span>text</span>"},
			removes: []string{"style", "margin"},
		},
		{
			name:  "plain markup untouched",
			html:  "<article><h2>Title</h2><p>Body</p></article>",
			keeps: []string{"<article><h2>Title</h2><p>Body</p></article>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.html)
			for _, want := range tt.keeps {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize() = %q, missing %q", got, want)
				}
			}
			for _, banned := range tt.removes {
				if strings.Contains(got, banned) {
					t.Errorf("Sanitize() = %q, still contains %q", got, banned)
				}
			}
		})
	}
}
