package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCountsRequestsPerBucket(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/products", http.MethodGet, http.StatusOK, 10*time.Millisecond)
	m.RecordRequest("/products", http.MethodGet, http.StatusOK, 30*time.Millisecond)
	m.RecordRequest("/products", http.MethodGet, http.StatusNotFound, 5*time.Millisecond)

	assert.Equal(t, int64(2), m.RequestCount("/products", http.MethodGet, http.StatusOK))
	assert.Equal(t, int64(1), m.RequestCount("/products", http.MethodGet, http.StatusNotFound))
	assert.Equal(t, 40*time.Millisecond, m.TotalLatency("/products", http.MethodGet, http.StatusOK))
	assert.Zero(t, m.RequestCount("/orders", http.MethodPost, http.StatusOK))
}

func TestMetricsCountsErrorsPerCode(t *testing.T) {
	m := NewMetrics()
	m.RecordError("/orders", http.MethodPost, "INSUFFICIENT_STOCK")
	m.RecordError("/orders", http.MethodPost, "INSUFFICIENT_STOCK")
	m.RecordError("/orders", http.MethodPost, "VALIDATION_FAILED")

	assert.Equal(t, int64(2), m.ErrorCount("/orders", http.MethodPost, "INSUFFICIENT_STOCK"))
	assert.Equal(t, int64(1), m.ErrorCount("/orders", http.MethodPost, "VALIDATION_FAILED"))
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/health/live", http.MethodGet, http.StatusOK, time.Millisecond)
	m.RecordError("/health/live", http.MethodGet, "INTERNAL_ERROR")
	assert.Zero(t, m.RequestCount("/health/live", http.MethodGet, http.StatusOK))
}
