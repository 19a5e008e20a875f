package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBrokerMetrics(reg)

	m.ActiveSessions.Set(3)
	m.SessionsClosed.WithLabelValues("evicted").Inc()
	m.InboundDiscarded.WithLabelValues(DiscardMalformed).Add(2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsClosed.WithLabelValues("evicted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InboundDiscarded.WithLabelValues(DiscardMalformed)))
}

func TestJobMetrics_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewJobMetrics(reg)
	assert.Panics(t, func() { NewJobMetrics(reg) })
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := NewRegistry()
	m := NewJobMetrics(reg)
	m.Submitted.Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sentiment_jobs_submitted_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
