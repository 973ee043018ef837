package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	AsksTotal          *prometheus.CounterVec
	AsksInFlight       prometheus.Gauge
	DeltasRelayed      prometheus.Counter
	MalformedLines     prometheus.Counter
	FirstDeltaSeconds  prometheus.Histogram
	StreamSeconds      prometheus.Histogram
	DatasetLoads       *prometheus.CounterVec
	DatasetLoadSeconds prometheus.Histogram
	SourceStatus       *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		AsksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "teascroll",
				Subsystem: "ask",
				Name:      "requests_total",
				Help:      "Chat relay requests by outcome (done, failed, rejected, disconnected)",
			},
			[]string{"outcome"},
		),
		AsksInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "teascroll",
				Subsystem: "ask",
				Name:      "in_flight",
				Help:      "Upstream streams currently open",
			},
		),
		DeltasRelayed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "teascroll",
				Subsystem: "relay",
				Name:      "deltas_total",
				Help:      "Content deltas written downstream",
			},
		),
		MalformedLines: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "teascroll",
				Subsystem: "relay",
				Name:      "malformed_lines_total",
				Help:      "Upstream lines dropped as noise or undecodable",
			},
		),
		FirstDeltaSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "teascroll",
				Subsystem: "upstream",
				Name:      "first_delta_seconds",
				Help:      "Time from request to first content delta",
				Buckets:   prometheus.DefBuckets,
			},
		),
		StreamSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "teascroll",
				Subsystem: "upstream",
				Name:      "stream_seconds",
				Help:      "Total upstream stream duration",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
		),
		DatasetLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "teascroll",
				Subsystem: "dataset",
				Name:      "loads_total",
				Help:      "Dataset pipeline runs by result (cached, failed)",
			},
			[]string{"result"},
		),
		DatasetLoadSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "teascroll",
				Subsystem: "dataset",
				Name:      "load_seconds",
				Help:      "Dataset pipeline duration",
				Buckets:   prometheus.DefBuckets,
			},
		),
		SourceStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "teascroll",
				Subsystem: "dataset",
				Name:      "source_status",
				Help:      "Per-source status from the last pipeline run (0=absent, 1=loaded, 2=malformed)",
			},
			[]string{"source"},
		),
	}

	m.registry.MustRegister(
		m.AsksTotal, m.AsksInFlight, m.DeltasRelayed, m.MalformedLines,
		m.FirstDeltaSeconds, m.StreamSeconds,
		m.DatasetLoads, m.DatasetLoadSeconds, m.SourceStatus,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) AskFinished(outcome string) {
	if m == nil {
		return
	}
	m.AsksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.AsksInFlight.Inc()
}

func (m *Metrics) StreamClosed(d time.Duration) {
	if m == nil {
		return
	}
	m.AsksInFlight.Dec()
	m.StreamSeconds.Observe(d.Seconds())
}

func (m *Metrics) DeltaRelayed() {
	if m == nil {
		return
	}
	m.DeltasRelayed.Inc()
}

func (m *Metrics) LineDropped() {
	if m == nil {
		return
	}
	m.MalformedLines.Inc()
}

func (m *Metrics) FirstDelta(d time.Duration) {
	if m == nil {
		return
	}
	m.FirstDeltaSeconds.Observe(d.Seconds())
}

func (m *Metrics) DatasetLoaded(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.DatasetLoads.WithLabelValues(result).Inc()
	m.DatasetLoadSeconds.Observe(d.Seconds())
}

func (m *Metrics) SetSourceStatus(source string, status float64) {
	if m == nil {
		return
	}
	m.SourceStatus.WithLabelValues(source).Set(status)
}
