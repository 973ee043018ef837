package upstream

import (
	"testing"
	"time"
)

func TestWindowSnapshotPercentiles(t *testing.T) {
	w := NewWindow(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		w.Record(time.Duration(ms) * time.Millisecond)
	}

	snap := w.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestWindowPrunesExpiredSamples(t *testing.T) {
	w := NewWindow(10 * time.Millisecond)
	w.Record(100 * time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if snap := w.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	w.Record(200 * time.Millisecond)
	snap := w.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 {
		t.Fatalf("expected one fresh sample of 200ms, got %+v", snap)
	}
}

func TestWindowClampsNegativeDuration(t *testing.T) {
	w := NewWindow(time.Hour)
	w.Record(-10 * time.Millisecond)
	snap := w.Snapshot()
	if snap.Count != 1 || snap.MaxMs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", snap)
	}
}

func TestStatsKeepsSeriesApart(t *testing.T) {
	s := NewStats(time.Hour)
	s.RecordFirstDelta(50 * time.Millisecond)
	s.RecordStream(900 * time.Millisecond)
	s.RecordStream(1100 * time.Millisecond)

	rep := s.Snapshot()
	if rep.FirstDelta.Count != 1 || rep.Stream.Count != 2 {
		t.Fatalf("unexpected counts: %+v", rep)
	}
	if rep.Stream.AvgMs != 1000 {
		t.Fatalf("expected stream avg=1000, got %f", rep.Stream.AvgMs)
	}
}

func TestNilStatsIsNoop(t *testing.T) {
	var s *Stats
	s.RecordFirstDelta(time.Second)
	s.RecordStream(time.Second)
	if rep := s.Snapshot(); rep.Stream.Count != 0 {
		t.Fatalf("expected empty report, got %+v", rep)
	}
}
