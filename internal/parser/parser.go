package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/teascroll/internal/doctree"
)

// Parser turns one reading-room file into a sectioned Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options tune format-specific behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

var formats = map[string]string{
	".txt":      "txt",
	".md":       "md",
	".markdown": "md",
	".html":     "html",
	".htm":      "html",
	".pdf":      "pdf",
	".docx":     "docx",
}

// ForFile returns the parser for a filename's extension.
func ForFile(filename string, opts Options) (Parser, error) {
	switch FormatOf(filename) {
	case "txt":
		return &TextParser{}, nil
	case "md":
		return &MarkdownParser{}, nil
	case "html":
		return &HTMLParser{}, nil
	case "pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case "docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(filename))
	}
}

// FormatOf names the document format for a filename, or "" if unsupported.
func FormatOf(filename string) string {
	return formats[strings.ToLower(filepath.Ext(filename))]
}

// IsSupported reports whether a reading-room file can be parsed.
func IsSupported(filename string) bool {
	return FormatOf(filename) != ""
}

func newDocument(filename string) *doctree.Document {
	base := filepath.Base(filename)
	return &doctree.Document{
		Title:  strings.TrimSuffix(base, filepath.Ext(base)),
		Source: base,
		Format: FormatOf(filename),
	}
}
