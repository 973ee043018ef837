package dataset

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/teascroll/internal/metrics"
)

// LoadFunc produces a bundle. A non-nil error means nothing may be retained.
type LoadFunc func(ctx context.Context) (*Bundle, Report, error)

// Cache is a single-slot memo for the bundle. The first Get runs the load;
// concurrent first callers wait on the same lock instead of loading again.
// A failed load is not retained, so a later Get retries.
type Cache struct {
	mu      sync.Mutex
	load    LoadFunc
	bundle  *Bundle
	report  Report
	loads   int
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewCache(load LoadFunc, log *slog.Logger, m *metrics.Metrics) *Cache {
	return &Cache{load: load, log: log, metrics: m}
}

// Get returns the retained bundle, loading it on first use. When the load
// fails it returns a fresh all-defaults bundle instead.
func (c *Cache) Get(ctx context.Context) *Bundle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bundle != nil {
		return c.bundle
	}

	start := time.Now()
	c.loads++
	b, report, err := c.load(ctx)
	c.report = report
	c.recordSources(report)
	if err != nil || b == nil {
		c.log.Warn("dataset load failed, serving defaults", "error", err, "attempt", c.loads)
		c.metrics.DatasetLoaded("failed", time.Since(start))
		return Empty()
	}

	c.bundle = b
	c.report.Cached = true
	c.metrics.DatasetLoaded("cached", time.Since(start))
	return b
}

// Cached reports whether a bundle is retained.
func (c *Cache) Cached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bundle != nil
}

// Report returns the report of the most recent load attempt.
func (c *Cache) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// Loads returns how many times the pipeline has run.
func (c *Cache) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

func (c *Cache) recordSources(r Report) {
	for _, s := range r.Sources {
		var v float64
		switch s.Status {
		case StatusLoaded:
			v = 1
		case StatusMalformed:
			v = 2
		}
		c.metrics.SetSourceStatus(string(s.Source), v)
	}
}
