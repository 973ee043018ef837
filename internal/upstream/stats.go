package upstream

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// StatsSnapshot is a point-in-time aggregate of latency samples.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Window tracks recent latencies within a rolling window.
type Window struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewWindow(maxAge time.Duration) *Window {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Window{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

func (w *Window) Record(d time.Duration) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	w.samples = append(w.samples, sample{
		timestamp:  now,
		durationMs: ms,
	})
}

func (w *Window) Snapshot() StatsSnapshot {
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	if len(w.samples) == 0 {
		return StatsSnapshot{}
	}

	values := make([]int64, 0, len(w.samples))
	var sum int64
	for _, sm := range w.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return StatsSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (w *Window) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.maxAge)
	writeIdx := 0
	for _, sm := range w.samples {
		if !sm.timestamp.Before(cutoff) {
			w.samples[writeIdx] = sm
			writeIdx++
		}
	}
	w.samples = w.samples[:writeIdx]
}

// Stats keeps separate windows for time to first delta and whole-stream
// duration. A nil *Stats records nothing.
type Stats struct {
	FirstDelta *Window
	Stream     *Window
}

func NewStats(maxAge time.Duration) *Stats {
	return &Stats{
		FirstDelta: NewWindow(maxAge),
		Stream:     NewWindow(maxAge),
	}
}

func (s *Stats) RecordFirstDelta(d time.Duration) {
	if s != nil {
		s.FirstDelta.Record(d)
	}
}

func (s *Stats) RecordStream(d time.Duration) {
	if s != nil {
		s.Stream.Record(d)
	}
}

// StatsReport is the JSON shape served by the stats endpoint.
type StatsReport struct {
	FirstDelta StatsSnapshot `json:"first_delta"`
	Stream     StatsSnapshot `json:"stream"`
}

func (s *Stats) Snapshot() StatsReport {
	if s == nil {
		return StatsReport{}
	}
	return StatsReport{
		FirstDelta: s.FirstDelta.Snapshot(),
		Stream:     s.Stream.Snapshot(),
	}
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
