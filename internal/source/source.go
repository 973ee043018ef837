// Package source reads the named on-disk files that feed the dataset bundle.
// A missing file is never an error of its own: readers return ErrAbsent and
// leave the fallback policy to the caller. A file that exists but cannot be
// decoded yields a *FormatError.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ID names one logical source.
type ID string

const (
	Prices        ID = "prices"
	Routes        ID = "routes"
	CultureSpread ID = "culture_spread"
	Production    ID = "production"
	TeaAreas      ID = "tea_areas"
	ProcessSteps  ID = "process_steps"
	Readings      ID = "readings"
)

// Kind is the expected encoding of a source.
type Kind string

const (
	KindTable    Kind = "table"    // CSV with a header row
	KindDocument Kind = "document" // one JSON or YAML document
	KindLibrary  Kind = "library"  // directory of reading-room texts
)

// Spec ties a source id to its file name. Document names carry no extension;
// they are looked up as .json, .yaml, then .yml.
type Spec struct {
	ID   ID
	Name string
	Kind Kind
}

// Catalog is the fixed set of files in the data directory.
var Catalog = []Spec{
	{ID: Prices, Name: "historical_prices.csv", Kind: KindTable},
	{ID: Routes, Name: "tea_routes", Kind: KindDocument},
	{ID: CultureSpread, Name: "culture_spread", Kind: KindDocument},
	{ID: Production, Name: "production_records.csv", Kind: KindTable},
	{ID: TeaAreas, Name: "historical_tea_areas", Kind: KindDocument},
	{ID: ProcessSteps, Name: "tea_process", Kind: KindDocument},
}

// Lookup returns the catalog entry for id.
func Lookup(id ID) (Spec, bool) {
	for _, s := range Catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Spec{}, false
}

var documentExts = []string{".json", ".yaml", ".yml"}

// ErrAbsent reports that a source file does not exist.
var ErrAbsent = errors.New("source absent")

// FormatError reports a source file that exists but cannot be decoded.
type FormatError struct {
	Source ID
	Path   string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("source %s (%s): %v", e.Source, e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsAbsent reports whether err means the source was missing.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrAbsent)
}

// IsFormat reports whether err is a decode failure on an existing source.
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// Raw is a successfully read source. Exactly one of Table or Document is set.
type Raw struct {
	Spec     Spec
	Path     string
	Table    *Table
	Document *Document
}

// Reader resolves source ids to files under a data directory.
type Reader struct {
	dir string
}

func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// Dir returns the data directory.
func (r *Reader) Dir() string {
	return r.dir
}

// Resolve returns the path a source would be read from, or ErrAbsent.
func (r *Reader) Resolve(spec Spec) (string, error) {
	candidates := []string{filepath.Join(r.dir, spec.Name)}
	if spec.Kind == KindDocument {
		candidates = candidates[:0]
		for _, ext := range documentExts {
			candidates = append(candidates, filepath.Join(r.dir, spec.Name+ext))
		}
	}
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", &FormatError{Source: spec.ID, Path: path, Err: err}
		}
	}
	return "", fmt.Errorf("%s: %w", spec.ID, ErrAbsent)
}

// Read loads a catalog source in its declared encoding.
func (r *Reader) Read(id ID) (*Raw, error) {
	spec, ok := Lookup(id)
	if !ok {
		return nil, fmt.Errorf("unknown source %q", id)
	}
	path, err := r.Resolve(spec)
	if err != nil {
		return nil, err
	}

	raw := &Raw{Spec: spec, Path: path}
	switch spec.Kind {
	case KindTable:
		t, err := readTable(path)
		if err != nil {
			return nil, &FormatError{Source: id, Path: path, Err: err}
		}
		raw.Table = t
	case KindDocument:
		d, err := readDocument(path)
		if err != nil {
			return nil, &FormatError{Source: id, Path: path, Err: err}
		}
		raw.Document = d
	default:
		return nil, fmt.Errorf("source %q has no file reader", id)
	}
	return raw, nil
}
