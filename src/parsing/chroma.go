package parsing

import (
	"bytes"

	"github.com/alecthomas/chroma"
	chromahtml "github.com/alecthomas/chroma/formatters/html"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
)

// Code is colored with CSS classes; the stylesheet carries the theme.
var ChromaOptions = []chromahtml.Option{
	chromahtml.WithClasses(true),
	chromahtml.WithPreWrapper(bareWrapper{}),
}

// bareWrapper leaves out chroma's own <pre>. Callers add a forum-code one.
type bareWrapper struct{}

var _ chromahtml.PreWrapper = bareWrapper{}

func (bareWrapper) Start(code bool, styleAttr string) string { return "" }
func (bareWrapper) End(code bool) string                     { return "" }

// highlight colors code in the named language, guessing when the name is
// empty or unknown.
func highlight(lang, code string) (string, error) {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}

	var result bytes.Buffer
	err = chromahtml.New(ChromaOptions...).Format(&result, styles.Monokai, iterator)
	if err != nil {
		return "", err
	}
	return result.String(), nil
}
