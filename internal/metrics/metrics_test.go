package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AskFinished("done")
		m.StreamOpened()
		m.StreamClosed(time.Second)
		m.DeltaRelayed()
		m.LineDropped()
		m.FirstDelta(time.Millisecond)
		m.DatasetLoaded("cached", time.Millisecond)
		m.SetSourceStatus("prices", 1)
	})
}

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.AskFinished("done")
	m.AskFinished("done")
	m.AskFinished("failed")
	m.DeltaRelayed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AsksTotal.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AsksTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeltasRelayed))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "teascroll_ask_requests_total")
}
