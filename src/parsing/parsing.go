// Package parsing renders the rich text that users write in posts, comments,
// replies, and bios. Sources are stored as typed and rendered on display.
package parsing

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// ContentMarkdown renders full HTML. Raw HTML in the source is dropped.
var ContentMarkdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlightExtension,
		BBCodeExtension{},
	),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// PlaintextMarkdown flattens a source down to its words, for listings.
var PlaintextMarkdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		BBCodeExtension{},
	),
	goldmark.WithRenderer(plaintextRenderer{}),
)

func ParseMarkdown(source string, md goldmark.Markdown) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		panic(err)
	}

	return buf.String()
}

// RenderContent is ParseMarkdown with ContentMarkdown, ready for a template.
func RenderContent(source string) template.HTML {
	return template.HTML(ParseMarkdown(source, ContentMarkdown))
}

var highlightExtension = highlighting.NewHighlighting(
	highlighting.WithFormatOptions(ChromaOptions...),
	highlighting.WithWrapperRenderer(func(w util.BufWriter, context highlighting.CodeBlockContext, entering bool) {
		if entering {
			w.WriteString(`<pre class="forum-code">`)
		} else {
			w.WriteString(`</pre>`)
		}
	}),
)
