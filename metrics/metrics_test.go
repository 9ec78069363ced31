package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New("seoaudit")

	m.RecordAudit(120*time.Millisecond, 85)
	m.RecordAudit(80*time.Millisecond, 40)
	m.RecordFetchError("network")
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordHTTPRequest("/api/analyze", "200", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.auditsTotal.WithLabelValues(OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.auditsTotal.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.auditsTotal.WithLabelValues(OutcomeCached)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchErrors.WithLabelValues("network")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/analyze", "200")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAudit(time.Second, 50)
		m.RecordFetchError("status")
		m.RecordCacheHit()
		m.RecordCacheMiss()
		m.RecordHTTPRequest("/", "200", time.Second)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New("seoaudit")
	m.RecordAudit(time.Second, 95)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `seoaudit_audit_total{outcome="completed"} 1`)
	assert.Contains(t, string(body), "seoaudit_audit_score_bucket")
}
