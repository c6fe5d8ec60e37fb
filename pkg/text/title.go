// Package text holds the note helpers editors need around the core: title
// inference from content, and word, character and reading-time statistics.
package text

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var markdown = goldmark.New()

// InferTitle derives a title from note content. HTML content (as produced by
// rich-text editors) yields the text of the first h1, else the first line of
// the first paragraph. Markdown yields the first level-1 heading, else the
// first heading of any level, else the first line of the first paragraph.
// The result is "" when nothing qualifies.
func InferTitle(content string) string {
	if IsHTML(content) {
		return htmlTitle(content)
	}
	return markdownTitle([]byte(content))
}

// IsHTML reports whether content looks like an HTML fragment.
func IsHTML(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, ">")
}

func markdownTitle(src []byte) string {
	doc := markdown.Parser().Parse(gmtext.NewReader(src))

	var h1, heading, paragraph string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			t := inlineText(node, src)
			if t == "" {
				return ast.WalkSkipChildren, nil
			}
			if node.Level == 1 {
				h1 = t
				return ast.WalkStop, nil
			}
			if heading == "" {
				heading = t
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if paragraph == "" {
				paragraph = firstLine(inlineText(node, src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	switch {
	case h1 != "":
		return h1
	case heading != "":
		return heading
	default:
		return paragraph
	}
}

// inlineText concatenates the text segments below n. Soft line breaks are
// kept as newlines so callers can cut at the first line.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

func htmlTitle(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}

	if h1 := findElement(doc, atom.H1); h1 != nil {
		if t := strings.TrimSpace(textContent(h1)); t != "" {
			return t
		}
	}
	if p := findElement(doc, atom.P); p != nil {
		return firstLine(textContent(p))
	}
	return ""
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Br {
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.DataAtom] {
			sb.WriteByte('\n')
		}
	}
	walk(n)
	return sb.String()
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Blockquote: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// PlainText strips the markup of an HTML fragment, keeping one line per
// block element.
func PlainText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}
	return strings.TrimSpace(textContent(doc))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
