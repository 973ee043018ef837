package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/teascroll/internal/doctree"
)

// TextParser handles plain text. Blank lines separate paragraphs; each
// paragraph becomes an untitled section.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := newDocument(filename)
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			doc.Sections = append(doc.Sections, &doctree.Section{Text: current.String()})
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return doc, nil
}
