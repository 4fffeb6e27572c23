package render

import (
	"bytes"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Output is the displayable form of a document.
type Output struct {
	// Body is the content to display: converted HTML for markdown
	// documents, the raw text for everything else.
	Body string

	// HTML reports whether Body is rendered HTML rather than plain text.
	HTML bool

	// ContentType is the header value for the raw document view. It is
	// always "text/plain", rendered markdown included; the raw endpoint
	// has always been served that way and callers depend on it.
	ContentType string
}

// md is the shared converter. Unsafe rendering is deliberate: documents are
// authored by signed-in users and displayed as trusted HTML.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// Render converts a document for display. Documents with an .md extension
// are converted from markdown to HTML; all other content passes through
// unchanged.
func Render(name, content string) Output {
	if filepath.Ext(name) != ".md" {
		return Output{Body: content, ContentType: "text/plain"}
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		// Conversion failures fall back to the raw source.
		return Output{Body: content, ContentType: "text/plain"}
	}
	return Output{Body: buf.String(), HTML: true, ContentType: "text/plain"}
}
