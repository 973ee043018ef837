package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/teascroll/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown via the goldmark AST. A leading h1 also
// becomes the document title.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	root := goldmark.New().Parser().Parse(text.NewReader(src))
	doc := newDocument(filename)
	outline := doctree.NewOutline()

	first := true
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			title := strings.TrimSpace(inlineText(h, src))
			if first && h.Level == 1 && title != "" {
				doc.Title = title
			}
			outline.Heading(h.Level, title)
		} else {
			outline.Paragraph(blockText(n, src))
		}
		first = false
	}

	doc.Sections = outline.Sections()
	return doc, nil
}

// blockText collects raw lines of a block node plus text of its inline children.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		if lines.Len() > 0 {
			return strings.TrimSpace(buf.String())
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t := blockText(c, src)
		if t == "" {
			t = inlineText(c, src)
		}
		if t == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(t)
	}
	return strings.TrimSpace(buf.String())
}

func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}
