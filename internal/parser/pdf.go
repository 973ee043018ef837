package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/teascroll/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles scanned-and-OCRed classics. Each non-empty page becomes a
// section. When the Go reader fails it can fall back to pdftotext.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// ledongthuc/pdf needs a file on disk.
	path, cleanup, err := spoolTemp(r, "teascroll-pdf-*.pdf")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	pages, err := pdfPages(path)
	if err != nil && p.FallbackPdftotext {
		pages, err = pdftotextPages(path)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	doc := newDocument(filename)
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		doc.Sections = append(doc.Sections, &doctree.Section{
			Heading: fmt.Sprintf("第%d页", i+1),
			Text:    page,
			Page:    i + 1,
		})
	}
	return doc, nil
}

// pdfPages reads page text with the Go reader. The reader panics on some
// broken cross-reference tables; that is reported as an error.
func pdfPages(path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n := reader.NumPage()
	pages = make([]string, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}

func pdftotextPages(path string) ([]string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	// pdftotext separates pages with form feeds.
	return strings.Split(string(out), "\f"), nil
}

// spoolTemp copies r into a temp file for libraries that need random access.
func spoolTemp(r io.Reader, pattern string) (string, func(), error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return tmp.Name(), cleanup, nil
}
