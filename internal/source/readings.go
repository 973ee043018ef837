package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/teascroll/internal/doctree"
	"github.com/dgallion1/teascroll/internal/parser"
)

// Library reads the reading-room directory: long-form texts in any format
// the parser package understands.
type Library struct {
	dir  string
	opts parser.Options
}

func NewLibrary(dir string, opts parser.Options) *Library {
	return &Library{dir: dir, opts: opts}
}

// Dir returns the readings directory.
func (l *Library) Dir() string {
	return l.dir
}

// Read parses every supported file in name order. A missing directory is
// ErrAbsent. Files that fail to parse are skipped and returned as
// *FormatError values in problems; unsupported extensions are ignored.
func (l *Library) Read() (docs []*doctree.Document, problems []error, err error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%s: %w", Readings, ErrAbsent)
		}
		return nil, nil, &FormatError{Source: Readings, Path: l.dir, Err: err}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if e.IsDir() || !parser.IsSupported(e.Name()) {
			continue
		}
		path := filepath.Join(l.dir, e.Name())
		doc, err := l.parseFile(path)
		if err != nil {
			problems = append(problems, &FormatError{Source: Readings, Path: path, Err: err})
			continue
		}
		docs = append(docs, doc)
	}
	return docs, problems, nil
}

// parseFile parses one file. A parser panic counts as a parse failure so
// one bad file cannot take down the whole load.
func (l *Library) parseFile(path string) (doc *doctree.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("parse %s: %v", filepath.Base(path), r)
		}
	}()

	p, err := parser.ForFile(path, l.opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err = p.Parse(f, path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.PlainText()) == "" {
		return nil, errors.New("no text extracted")
	}
	return doc, nil
}
