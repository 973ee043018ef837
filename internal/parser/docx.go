package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dgallion1/teascroll/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles Word documents. Paragraphs styled as headings open
// sections; everything else is body text.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	path, cleanup, err := spoolTemp(r, "teascroll-docx-*.docx")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat temp file: %w", err)
	}

	parsed, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := newDocument(filename)
	outline := doctree.NewOutline()
	for _, item := range parsed.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		if level := paragraphHeadingLevel(para); level > 0 {
			outline.Heading(level, text)
		} else {
			outline.Paragraph(text)
		}
	}

	doc.Sections = outline.Sections()
	return doc, nil
}

// paragraphHeadingLevel reads "Heading2" / "heading 2" style names.
func paragraphHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	level, err := strconv.Atoi(strings.TrimPrefix(style, "heading"))
	if err != nil || level < 1 || level > 6 {
		return 0
	}
	return level
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
