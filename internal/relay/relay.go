package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/teascroll/internal/metrics"
	"github.com/dgallion1/teascroll/internal/upstream"
)

// Outcome is how a relayed stream ended.
type Outcome string

const (
	OutcomeDone         Outcome = "done"
	OutcomeFailed       Outcome = "failed"
	OutcomeDisconnected Outcome = "disconnected"
)

// Source yields raw upstream lines. *upstream.Stream satisfies it.
type Source interface {
	Next() (string, error)
	Close() error
}

const connectionFailedMessage = "upstream connection failed"

// Relay copies one upstream stream to one emitter.
type Relay struct {
	log     *slog.Logger
	metrics *metrics.Metrics
	stats   *upstream.Stats
}

// New builds a Relay. metrics and stats may be nil.
func New(log *slog.Logger, m *metrics.Metrics, stats *upstream.Stats) *Relay {
	return &Relay{log: log, metrics: m, stats: stats}
}

// Run reads src line by line and writes each event before reading the
// next, so a slow client slows the upstream read. It returns after the
// first terminal message (done or error) and always closes src.
// If a downstream write fails, src is closed at once to abort the upstream
// request.
func (r *Relay) Run(ctx context.Context, src Source, em *Emitter) Outcome {
	start := time.Now()
	r.metrics.StreamOpened()
	defer func() {
		d := time.Since(start)
		r.metrics.StreamClosed(d)
		r.stats.RecordStream(d)
	}()
	defer src.Close()

	deltas := 0
	for {
		line, err := src.Next()
		if err != nil {
			if ctx.Err() != nil {
				return OutcomeDisconnected
			}
			if errors.Is(err, io.EOF) {
				// Upstream closed without a finish marker; the answer ended normally.
				if em.Done() != nil {
					return OutcomeDisconnected
				}
				return OutcomeDone
			}
			r.log.Warn("upstream stream failed", "error", err, "deltas", deltas)
			if em.Error(connectionFailedMessage) != nil {
				return OutcomeDisconnected
			}
			return OutcomeFailed
		}

		for _, ev := range ParseLine(line) {
			switch ev.Kind {
			case Malformed:
				r.metrics.LineDropped()
				if ev.Raw != "" {
					r.log.Debug("dropping upstream line", "line", truncate(ev.Raw, 120))
				}
			case Delta:
				if deltas == 0 {
					r.metrics.FirstDelta(time.Since(start))
					r.stats.RecordFirstDelta(time.Since(start))
				}
				if err := em.Content(ev.Content); err != nil {
					src.Close()
					r.log.Info("client went away mid-stream", "error", err, "deltas", deltas)
					return OutcomeDisconnected
				}
				deltas++
				r.metrics.DeltaRelayed()
			case Done:
				if em.Done() != nil {
					return OutcomeDisconnected
				}
				return OutcomeDone
			case Failed:
				r.log.Warn("upstream reported error", "message", ev.Content, "deltas", deltas)
				if em.Error(ev.Content) != nil {
					return OutcomeDisconnected
				}
				return OutcomeFailed
			}
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// With returns a copy of r that logs to log.
func (r *Relay) With(log *slog.Logger) *Relay {
	c := *r
	c.log = log
	return &c
}
