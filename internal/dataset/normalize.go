package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dgallion1/teascroll/internal/doctree"
	"github.com/dgallion1/teascroll/internal/source"
)

// Result is the outcome of reading one catalog source: either Raw or Err.
type Result struct {
	Raw *source.Raw
	Err error
}

// LibraryResult is the outcome of reading the reading-room directory.
type LibraryResult struct {
	Docs     []*doctree.Document
	Problems []error
	Err      error
}

// Sources is everything the normalizer consumes. A catalog id missing from
// Results is treated as absent.
type Sources struct {
	Results  map[source.ID]Result
	Readings LibraryResult
}

// Normalize maps every source result to its bundle section. Absent and
// malformed sources fall back to that section's default; the returned
// bundle is always complete. Normalize never fails.
func Normalize(src Sources, log *slog.Logger) (Bundle, Report) {
	if log == nil {
		log = slog.Default()
	}
	n := &normalizer{log: log}

	var b Bundle
	n.section(src, source.Prices, func(raw *source.Raw) (int, error) {
		recs, unreadable, err := priceRecords(raw.Table)
		if unreadable > 0 {
			n.log.Warn("unreadable prices counted as zero", "source", source.Prices, "rows", unreadable)
		}
		b.PriceSeries = recs
		return len(recs), err
	})
	n.section(src, source.Routes, func(raw *source.Raw) (int, error) {
		var r TradeRoutes
		if err := raw.Document.Decode(&r); err != nil {
			return 0, err
		}
		b.TradeRoutes = r
		return len(r.Nodes) + len(r.Links), nil
	})
	n.section(src, source.CultureSpread, func(raw *source.Raw) (int, error) {
		var c CultureSpread
		if err := raw.Document.Decode(&c); err != nil {
			return 0, err
		}
		b.CultureSpread = c
		return len(c.Nodes) + len(c.Routes) + len(c.HistoricalEvents), nil
	})
	n.section(src, source.Production, func(raw *source.Raw) (int, error) {
		steps, err := processSteps(raw.Table)
		b.ProductionRecords = steps
		return len(steps), err
	})
	n.section(src, source.TeaAreas, func(raw *source.Raw) (int, error) {
		var h HistoricalTeaAreas
		if err := raw.Document.Decode(&h); err != nil {
			return 0, err
		}
		b.HistoricalTeaAreas = h
		return len(h.Dynasties), nil
	})
	n.section(src, source.ProcessSteps, func(raw *source.Raw) (int, error) {
		var steps []ProcessStep
		if err := raw.Document.Decode(&steps); err != nil {
			return 0, err
		}
		b.TeaProcessSteps = steps
		return len(steps), nil
	})
	b.Readings = n.readings(src.Readings)

	return Complete(b), n.report
}

type normalizer struct {
	log    *slog.Logger
	report Report
}

// section applies decode to one source and records what happened. On any
// failure the section is left zero so Complete substitutes its default.
func (n *normalizer) section(src Sources, id source.ID, decode func(*source.Raw) (int, error)) {
	res, ok := src.Results[id]
	if !ok {
		res = Result{Err: fmt.Errorf("%s: %w", id, source.ErrAbsent)}
	}
	entry := SourceReport{Source: id}
	log := n.log.With("source", id)

	switch {
	case res.Err != nil && source.IsAbsent(res.Err):
		entry.Status = StatusAbsent
		log.Info("source absent, using defaults")
	case res.Err != nil && source.IsFormat(res.Err):
		entry.Status = StatusMalformed
		entry.Error = res.Err.Error()
		log.Warn("source malformed, using defaults", "error", res.Err)
	case res.Err != nil:
		// Not a file problem: the catalog and the reader disagree.
		entry.Status = StatusMalformed
		entry.Error = res.Err.Error()
		log.Error("source could not be read, using defaults", "error", res.Err)
	case res.Raw == nil:
		entry.Status = StatusAbsent
	default:
		entry.Path = res.Raw.Path
		count, err := decodeSafely(res.Raw, decode)
		if err != nil {
			fe := &source.FormatError{Source: id, Path: res.Raw.Path, Err: err}
			entry.Status = StatusMalformed
			entry.Error = fe.Error()
			log.Warn("source has unexpected shape, using defaults", "error", fe)
			break
		}
		entry.Status = StatusLoaded
		entry.Records = count
	}
	n.report.Sources = append(n.report.Sources, entry)
}

// decodeSafely guards against a source whose Raw lacks the payload its
// kind implies.
func decodeSafely(raw *source.Raw, decode func(*source.Raw) (int, error)) (int, error) {
	switch raw.Spec.Kind {
	case source.KindTable:
		if raw.Table == nil {
			return 0, errors.New("missing table payload")
		}
	case source.KindDocument:
		if raw.Document == nil {
			return 0, errors.New("missing document payload")
		}
	}
	return decode(raw)
}

func (n *normalizer) readings(res LibraryResult) []*doctree.Document {
	entry := SourceReport{Source: source.Readings}
	switch {
	case res.Err != nil && source.IsAbsent(res.Err):
		entry.Status = StatusAbsent
	case res.Err != nil:
		entry.Status = StatusMalformed
		entry.Error = res.Err.Error()
		n.log.Warn("readings directory unreadable", "error", res.Err)
	default:
		entry.Status = StatusLoaded
		entry.Records = len(res.Docs)
		for _, p := range res.Problems {
			entry.Problems = append(entry.Problems, p.Error())
			n.log.Warn("skipping unreadable reading", "error", p)
		}
	}
	n.report.Sources = append(n.report.Sources, entry)
	if res.Err != nil {
		return nil
	}
	return res.Docs
}

// priceRecords maps the price table. unreadable counts non-empty price
// cells that did not parse.
func priceRecords(t *source.Table) (recs []PriceRecord, unreadable int, err error) {
	dynasty := t.Column("dynasty", "朝代")
	year := t.Column("year", "date", "年份")
	teaType := t.Column("tea_type", "teatype", "茶类")
	price := t.Column("price_liang", "price", "价格")
	if price < 0 {
		return nil, 0, errors.New("price table has no price_liang column")
	}

	recs = make([]PriceRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		cell := t.Cell(row, price)
		value, ok := parseNumber(cell)
		if !ok && cell != "" {
			unreadable++
		}
		recs = append(recs, PriceRecord{
			Dynasty:    t.Cell(row, dynasty),
			Year:       t.Cell(row, year),
			TeaType:    t.Cell(row, teaType),
			PriceLiang: value,
			Extra:      t.Extra(row, dynasty, year, teaType, price),
		})
	}
	return recs, unreadable, nil
}

func processSteps(t *source.Table) ([]ProcessStep, error) {
	step := t.Column("step", "序号")
	name := t.Column("name", "工序")
	duration := t.Column("duration", "时长")
	tool := t.Column("tool", "工具")
	desc := t.Column("description", "说明")
	if name < 0 {
		return nil, errors.New("production table has no name column")
	}

	steps := make([]ProcessStep, 0, len(t.Rows))
	for i, row := range t.Rows {
		n, err := strconv.Atoi(t.Cell(row, step))
		if err != nil || n <= 0 {
			n = i + 1
		}
		steps = append(steps, ProcessStep{
			Step:        n,
			Name:        t.Cell(row, name),
			Duration:    t.Cell(row, duration),
			Tool:        t.Cell(row, tool),
			Description: t.Cell(row, desc),
			Extra:       t.Extra(row, step, name, duration, tool, desc),
		})
	}
	return steps, nil
}

// parseNumber reads a price cell such as "12.5" or "1,200". Unreadable
// cells count as zero.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
