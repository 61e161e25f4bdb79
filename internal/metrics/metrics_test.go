package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersTwiceOnSameRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New("test", reg)
	require.NoError(t, err)
	second, err := New("test", reg)
	require.NoError(t, err)

	first.ObserveAssessment("ENFP")
	second.ObserveAssessment("ENFP")
	assert.Equal(t, 2.0, testutil.ToFloat64(first.assessments.WithLabelValues("ENFP")))
}

func TestObservers(t *testing.T) {
	m, err := New("test", prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveLead(false)
	m.ObserveLead(true)
	m.ObserveLead(true)
	m.ObservePDFCache(true)
	m.ObserveDelivery(DeliveryFailed)
	m.ObserveWebhook("checkout.session.completed", errors.New("boom"))
	m.ObservePDF(10*time.Millisecond, nil)
	m.ObserveHTTP("/api/plans", http.MethodGet, http.StatusOK, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.leads.WithLabelValues("new")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.leads.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pdfCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues(DeliveryFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhooks.WithLabelValues("checkout.session.completed", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.pdfDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAssessment("INTJ")
		m.ObserveLead(true)
		m.ObservePDF(time.Second, nil)
		m.ObservePDFCache(false)
		m.ObserveDelivery(DeliveryDelivered)
		m.ObserveWebhook("x", nil)
		m.ObserveHTTP("/", http.MethodGet, 200, time.Second)
	})
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New("test", reg)
	require.NoError(t, err)
	m.ObserveAssessment("ISTJ")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `test_assessments_scored_total{type_code="ISTJ"} 1`))
}
