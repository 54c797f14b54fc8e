package parsing

import (
	"html"
	"html/template"
	"io"
	"regexp"
	"strings"

	"git.hoosierptk.dev/forums/forums/src/utils"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"mvdan.cc/xurls/v2"
)

type plaintextRenderer struct{}

var _ renderer.Renderer = plaintextRenderer{}

var (
	reMarkdownEscape = regexp.MustCompile("\\\\([\\\\`!\"#$%&'()*+,\\-./:;<=>?@\\[\\]^_{|}~])")
	reHTMLTag        = regexp.MustCompile(`<[^>]*>`)
	reWhitespace     = regexp.MustCompile(`\s+`)
)

func (r plaintextRenderer) Render(w io.Writer, source []byte, n ast.Node) error {
	return ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		var out []byte
		status := ast.WalkContinue
		switch n := n.(type) {
		case *ast.Text:
			out = reMarkdownEscape.ReplaceAll(n.Text(source), []byte("$1"))
			if n.SoftLineBreak() || n.HardLineBreak() {
				out = append(out, ' ')
			}
		case *ast.AutoLink:
			out = n.URL(source)
		case *BBCodeNode:
			out = []byte(html.UnescapeString(reHTMLTag.ReplaceAllString(n.HTML, " ")))
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			status = ast.WalkSkipChildren
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			out = []byte(" ")
		}

		if len(out) > 0 {
			if _, err := w.Write(out); err != nil {
				return ast.WalkStop, err
			}
		}
		return status, nil
	})
}

func (r plaintextRenderer) AddOptions(...renderer.Option) {}

// Preview is the first maxChars characters of a source's text, with all
// formatting stripped and whitespace collapsed.
func Preview(source string, maxChars int) string {
	plain := ParseMarkdown(source, PlaintextMarkdown)
	plain = strings.TrimSpace(reWhitespace.ReplaceAllString(plain, " "))
	return utils.Truncate(plain, maxChars)
}

var reURL = xurls.Strict()

// LinkifyPreview escapes a plaintext preview and turns any full URLs in it
// into links. Only http and https URLs are linked.
func LinkifyPreview(text string) template.HTML {
	var b strings.Builder
	last := 0
	for _, loc := range reURL.FindAllStringIndex(text, -1) {
		match := strings.ToLower(text[loc[0]:loc[1]])
		if !strings.HasPrefix(match, "http://") && !strings.HasPrefix(match, "https://") {
			continue
		}
		b.WriteString(html.EscapeString(text[last:loc[0]]))
		url := html.EscapeString(text[loc[0]:loc[1]])
		b.WriteString(`<a href="` + url + `" rel="nofollow noopener">` + url + `</a>`)
		last = loc[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
	return template.HTML(b.String())
}
