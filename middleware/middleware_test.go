package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/seo-optimizer/llm-audit/logging"
	"github.com/seo-optimizer/llm-audit/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(ErrorHandler(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := serve(r, http.MethodGet, "/boom", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"An unexpected error occurred"}`, w.Body.String())
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Panic recovered", entry.Message)
	assert.Equal(t, "/boom", entry.ContextMap()["path"])
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"), "burst exhausted")
	assert.True(t, rl.Allow("2.2.2.2"), "buckets are per IP")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("1.1.1.1"), "one token refilled")
	assert.False(t, rl.Allow("1.1.1.1"))
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(10 * time.Minute)
	rl.Allow("new")

	rl.Cleanup(5 * time.Minute)
	assert.Equal(t, 1, rl.Len())
	assert.True(t, rl.Allow("old"), "forgotten client starts with a full bucket")
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(0.001, 1).RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)

	w := serve(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	t.Run("generated", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/", nil)
		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("propagated", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/", http.Header{RequestIDHeader: {"abc-123"}})
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("malformed replaced", func(t *testing.T) {
		for _, bad := range []string{"has space", "<script>", strings.Repeat("a", 37)} {
			w := serve(r, http.MethodGet, "/", http.Header{RequestIDHeader: {bad}})
			assert.NotEqual(t, bad, w.Header().Get(RequestIDHeader))
		}
	})
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.POST("/api/analyze", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/api/analyze", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := serve(r, http.MethodOptions, "/api/analyze", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodPost, "/api/analyze", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	serve(r, http.MethodGet, "/ok", nil)
	serve(r, http.MethodGet, "/bad", nil)
	serve(r, http.MethodGet, "/fail", nil)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, int64(http.StatusBadGateway), entries[2].ContextMap()["status"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func TestStats(t *testing.T) {
	reqStats, err := logging.NewRequestStats(filepath.Join(t.TempDir(), "requests.json"))
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry("test", reg, reg)

	r := gin.New()
	r.Use(Stats(reqStats, m, zap.NewNop()))
	r.POST("/api/analyze", func(c *gin.Context) {
		c.Set(AuditURLKey, "https://example.com/page")
		c.Status(http.StatusOK)
	})
	r.POST("/api/analyze/fail", func(c *gin.Context) {
		c.Set(AuditURLKey, "https://example.com/broken")
		c.Status(http.StatusBadGateway)
	})
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodPost, "/api/analyze", nil)
	serve(r, http.MethodPost, "/api/analyze/fail", nil)
	serve(r, http.MethodGet, "/api/health", nil)
	serve(r, http.MethodGet, "/missing", nil)

	assert.Equal(t, 2, reqStats.Requests(), "only audit requests are counted")
	assert.Equal(t, 1, reqStats.UniqueVisitorsCount())
	assert.InDelta(t, 50.0, reqStats.ErrorRate(), 0.001)

	count, err := testutil.GatherAndCount(reg, "test_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestStatsWithoutCollectors(t *testing.T) {
	r := gin.New()
	r.Use(Stats(nil, nil, zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		c.Set(AuditURLKey, "https://example.com")
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
}
