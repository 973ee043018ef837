package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/teascroll/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser handles saved web pages. h1-h6 open sections; p, li, td and
// blockquote contribute body text. Page chrome is skipped.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := newDocument(filename)
	if title := nodeText(findElement(root, atom.Title)); title != "" {
		doc.Title = title
	}

	outline := doctree.NewOutline()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := htmlHeadingLevel(n.DataAtom); level > 0 {
				outline.Heading(level, nodeText(n))
				return
			}
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Nav, atom.Footer, atom.Header, atom.Head:
				return
			case atom.P, atom.Li, atom.Td, atom.Blockquote:
				outline.Paragraph(nodeText(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(root, atom.Body); body != nil {
		walk(body)
	} else {
		walk(root)
	}

	doc.Sections = outline.Sections()
	return doc, nil
}

func htmlHeadingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(buf.String()), " ")
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
