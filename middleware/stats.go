package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/llm-audit/logging"
	"github.com/seo-optimizer/llm-audit/metrics"
)

// AuditURLKey is the context key under which audit handlers store the URL
// they audited.
const AuditURLKey = "audit_url"

// saveEvery is how many audit requests pass between statistics saves.
const saveEvery = 100

// Stats tracks visitors and audit requests in stats and records every
// request in m. Either may be nil.
func Stats(stats *logging.RequestStats, m *metrics.Metrics, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		if stats != nil {
			stats.TrackVisitor(c.ClientIP())
		}

		c.Next()

		elapsed := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(route, strconv.Itoa(c.Writer.Status()), elapsed)

		if stats == nil {
			return
		}
		target := c.GetString(AuditURLKey)
		if target == "" {
			return
		}

		stats.TrackAudit(target, float64(elapsed.Milliseconds()), c.Writer.Status() >= 400)

		if stats.Requests()%saveEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					logger.Warn("Failed to save request statistics", zap.Error(err))
				}
			}()
		}
	}
}
