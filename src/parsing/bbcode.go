package parsing

import (
	"html"
	"regexp"
	"strings"

	"github.com/frustra/bbcode"
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Runs ahead of goldmark's link parser, which also triggers on '['.
const bbcodePriority = 1

var reBBTag = regexp.MustCompile(`(?P<open>\[\s*(?P<opentagname>[a-zA-Z0-9]+))|(?P<close>\[\s*\/\s*(?P<closetagname>[a-zA-Z0-9]+)\s*\])`)

var bbcodeCompiler = newBBCodeCompiler()

func newBBCodeCompiler() bbcode.Compiler {
	c := bbcode.NewCompiler(false, false)

	element := func(bbName, htmlName string, dropText bool, class string) {
		c.SetTag(bbName, func(bn *bbcode.BBCodeNode) (*bbcode.HTMLTag, bool) {
			if dropText {
				// Lists and tables only hold other tags; stray newlines
				// between items would otherwise become text nodes.
				var kept []*bbcode.BBCodeNode
				for _, child := range bn.Children {
					if child.ID != bbcode.TEXT {
						kept = append(kept, child)
					}
				}
				bn.Children = kept
			}

			out := bbcode.NewHTMLTag("")
			out.Name = htmlName
			if class != "" {
				out.Attrs["class"] = class
			}
			return out, true
		})
	}

	element("h1", "h2", false, "")
	element("h2", "h3", false, "")
	element("h3", "h4", false, "")
	element("m", "span", false, "monospace")
	element("spoiler", "span", false, "spoiler")
	element("ol", "ol", true, "")
	element("ul", "ul", true, "")
	element("li", "li", false, "")
	element("table", "table", true, "")
	element("tr", "tr", true, "")
	element("th", "th", false, "")
	element("td", "td", false, "")

	c.SetTag("quote", func(bn *bbcode.BBCodeNode) (*bbcode.HTMLTag, bool) {
		out := bbcode.NewHTMLTag("")
		out.Name = "blockquote"

		if who := bn.GetOpeningTag().Value; who != "" {
			author := bbcode.NewHTMLTag("")
			author.Name = "span"
			author.Attrs["class"] = "quote-author"
			author.AppendChild(bbcode.NewHTMLTag(who + " wrote:"))

			br := bbcode.NewHTMLTag("")
			br.Name = "br"

			out.AppendChild(author)
			out.AppendChild(br)
		}
		return out, true
	})

	c.SetTag("code", func(bn *bbcode.BBCodeNode) (*bbcode.HTMLTag, bool) {
		lang := bn.GetOpeningTag().Value
		if lang == "" {
			lang = bn.GetOpeningTag().Args["language"]
		}
		source := strings.TrimPrefix(bbcode.CompileText(bn), "\n")

		out := bbcode.NewHTMLTag("")
		out.Name = "pre"
		out.Attrs["class"] = "forum-code"

		formatted, err := highlight(lang, source)
		if err != nil {
			formatted = html.EscapeString(source)
		}
		child := bbcode.NewHTMLTag(formatted)
		child.Raw = true
		out.AppendChild(child)

		return out, false
	})

	return c
}

type bbcodeParser struct{}

var _ parser.InlineParser = bbcodeParser{}

func (bbcodeParser) Trigger() []byte {
	return []byte{'['}
}

// Parse consumes a whole balanced [tag]...[/tag] run and compiles it in one
// go. Anything unbalanced is left for the other parsers.
func (bbcodeParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	_, pos := block.Position()
	rest := block.Source()[pos.Start:]

	matches := reBBTag.FindAllSubmatchIndex(rest, -1)
	if matches == nil {
		return nil
	}

	openIndex := reBBTag.SubexpIndex("opentagname")
	closeIndex := reBBTag.SubexpIndex("closetagname")

	tagName := submatchString(rest, matches[0], openIndex)
	if tagName == "" {
		return nil
	}

	depth := 0
	end := -1
	for _, m := range matches {
		if name := submatchString(rest, m, openIndex); name != "" {
			if name == tagName {
				depth++
			}
		} else if name := submatchString(rest, m, closeIndex); name == tagName {
			depth--
			if depth == 0 {
				end = m[1]
				break
			}
		}
	}
	if end < 0 {
		return nil
	}

	block.Advance(end)
	return &BBCodeNode{HTML: bbcodeCompiler.Compile(string(rest[:end]))}
}

func submatchString(src []byte, m []int, subexp int) string {
	start, end := m[2*subexp], m[2*subexp+1]
	if start < 0 {
		return ""
	}
	return string(src[start:end])
}

type BBCodeNode struct {
	gast.BaseInline
	HTML string
}

var KindBBCode = gast.NewNodeKind("BBCode")

func (n *BBCodeNode) Kind() gast.NodeKind {
	return KindBBCode
}

func (n *BBCodeNode) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"HTML": n.HTML}, nil)
}

type bbcodeHTMLRenderer struct{}

func (r bbcodeHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindBBCode, func(w util.BufWriter, source []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
		if entering {
			w.WriteString(n.(*BBCodeNode).HTML)
		}
		return gast.WalkContinue, nil
	})
}

type BBCodeExtension struct{}

func (e BBCodeExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(bbcodeParser{}, bbcodePriority),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(bbcodeHTMLRenderer{}, bbcodePriority),
	))
}
