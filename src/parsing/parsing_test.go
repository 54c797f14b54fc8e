package parsing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdown(t *testing.T) {
	t.Run("fenced code blocks", func(t *testing.T) {
		t.Run("multiple lines", func(t *testing.T) {
			html := ParseMarkdown("```\nmultiple lines\n\tof code\n```", ContentMarkdown)
			t.Log(html)
			assert.Equal(t, 1, strings.Count(html, "<pre"))
			assert.Contains(t, html, `class="forum-code"`)
			assert.Contains(t, html, "multiple lines\n\tof code")
		})
		t.Run("with language", func(t *testing.T) {
			html := ParseMarkdown("```go\nfunc main() {\n\tfmt.Println(\"Hello, world!\")\n}\n```", ContentMarkdown)
			t.Log(html)
			assert.Equal(t, 1, strings.Count(html, "<pre"))
			assert.Contains(t, html, "Println")
		})
	})
	t.Run("raw html is dropped", func(t *testing.T) {
		html := string(RenderContent("hi <script>alert(1)</script>"))
		assert.NotContains(t, html, "<script>")
	})
	t.Run("emphasis", func(t *testing.T) {
		html := string(RenderContent("some **bold** text"))
		assert.Contains(t, html, "<strong>bold</strong>")
	})
}

func TestBBCode(t *testing.T) {
	t.Run("[code] one line", func(t *testing.T) {
		html := ParseMarkdown("[code]Just some code, you know?[/code]", ContentMarkdown)
		t.Log(html)
		assert.Equal(t, 1, strings.Count(html, "<pre"))
		assert.Contains(t, html, `class="forum-code"`)
		assert.Contains(t, html, "Just some code, you know?")
	})
	t.Run("[code] with language", func(t *testing.T) {
		html := ParseMarkdown("[code language=go]\nfunc main() {\n\tfmt.Println(\"Hello\")\n}\n[/code]", ContentMarkdown)
		t.Log(html)
		assert.Equal(t, 1, strings.Count(html, "<pre"))
		assert.Contains(t, html, "Println")
	})
	t.Run("[quote] with author", func(t *testing.T) {
		html := ParseMarkdown("[quote=alice]first![/quote]", ContentMarkdown)
		assert.Contains(t, html, "<blockquote>")
		assert.Contains(t, html, "alice wrote:")
		assert.Contains(t, html, "first!")
	})
	t.Run("[spoiler]", func(t *testing.T) {
		html := ParseMarkdown("it was [spoiler]the butler[/spoiler]", ContentMarkdown)
		assert.Contains(t, html, `<span class="spoiler">the butler</span>`)
	})
	t.Run("unbalanced tags are left alone", func(t *testing.T) {
		html := ParseMarkdown("[b]never closed", ContentMarkdown)
		assert.Contains(t, html, "[b]never closed")
	})
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "Title Some bold text.", Preview("# Title\n\nSome **bold** text.", 200))
	assert.Equal(t, "quoted", Preview("[quote]quoted[/quote]", 200))
	assert.Equal(t, "before after", Preview("before\n\n```\ncode()\n```\n\nafter", 200))
	assert.Equal(t, "abcde…", Preview("abcdefghij", 5))
}

func TestLinkifyPreview(t *testing.T) {
	html := string(LinkifyPreview("see https://example.com/a?b=1&c=2 <now>"))
	assert.Contains(t, html, `<a href="https://example.com/a?b=1&amp;c=2" rel="nofollow noopener">`)
	assert.Contains(t, html, "&lt;now&gt;")

	html = string(LinkifyPreview("javascript://x%0aalert(1)"))
	assert.NotContains(t, html, "<a")
}
