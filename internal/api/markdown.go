package api

import (
	"bytes"
	"log"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Raw HTML in descriptions is not rendered; goldmark omits it unless WithUnsafe is set.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderMarkdown converts a plan description to HTML. Empty input renders to "".
func renderMarkdown(src string) string {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		log.Printf("WARN: Could not render markdown: %v", err)
		return ""
	}
	return buf.String()
}
