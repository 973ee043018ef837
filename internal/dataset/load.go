package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/teascroll/internal/source"
)

// Loader runs the full read-and-normalize pipeline.
type Loader struct {
	reader  *source.Reader
	library *source.Library
	log     *slog.Logger
}

// NewLoader wires a loader. library may be nil when there is no reading room.
func NewLoader(reader *source.Reader, library *source.Library, log *slog.Logger) *Loader {
	return &Loader{reader: reader, library: library, log: log}
}

// Read reads every catalog source and the reading room without interpreting
// failures.
func (l *Loader) Read(ctx context.Context) (Sources, error) {
	src := Sources{Results: make(map[source.ID]Result, len(source.Catalog))}
	for _, spec := range source.Catalog {
		if err := ctx.Err(); err != nil {
			return Sources{}, err
		}
		raw, err := l.reader.Read(spec.ID)
		src.Results[spec.ID] = Result{Raw: raw, Err: err}
	}

	if l.library == nil {
		src.Readings = LibraryResult{Err: fmt.Errorf("%s: %w", source.Readings, source.ErrAbsent)}
	} else {
		docs, problems, err := l.library.Read()
		src.Readings = LibraryResult{Docs: docs, Problems: problems, Err: err}
	}
	return src, nil
}

// Load reads and normalizes everything. If any catalog source is malformed
// the run counts as failed: the error is returned with the report and no
// bundle, so the caller can fall back and retry later.
func (l *Loader) Load(ctx context.Context) (*Bundle, Report, error) {
	start := time.Now()
	src, err := l.Read(ctx)
	if err != nil {
		return nil, Report{}, fmt.Errorf("read sources: %w", err)
	}

	b, report := Normalize(src, l.log)
	report.LoadedAt = start
	if bad := report.Malformed(); len(bad) > 0 {
		return nil, report, fmt.Errorf("%d malformed source(s), first: %s", len(bad), bad[0].Error)
	}

	l.log.Info("dataset loaded",
		"prices", len(b.PriceSeries),
		"readings", len(b.Readings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &b, report, nil
}
