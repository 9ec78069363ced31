// Package api exposes the audit service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/llm-audit/audit"
	"github.com/seo-optimizer/llm-audit/fetcher"
	"github.com/seo-optimizer/llm-audit/logging"
	"github.com/seo-optimizer/llm-audit/metrics"
	"github.com/seo-optimizer/llm-audit/middleware"
	"github.com/seo-optimizer/llm-audit/stats"
)

// Auditor runs audits for the handlers.
type Auditor interface {
	Analyze(ctx context.Context, url string) (audit.Report, error)
	AnalyzeHTML(url, rawHTML string) (audit.Report, error)
}

// Server holds the handler dependencies.
type Server struct {
	Auditor      Auditor
	RequestStats *logging.RequestStats // optional
	Storage      *stats.Storage        // optional
	Metrics      *metrics.Metrics      // optional
	RateLimiter  *middleware.RateLimiter
	Logger       *zap.Logger
	DevMode      bool
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(s *Server) *gin.Engine {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.ErrorHandler(logger))
	r.Use(middleware.CORS())
	if s.RateLimiter != nil {
		r.Use(s.RateLimiter.RateLimit())
	}
	r.Use(middleware.Stats(s.RequestStats, s.Metrics, logger))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/analyze", s.analyzeURL)
		api.POST("/analyze/html", s.analyzeHTML)
		api.GET("/statistics", s.statistics)
	}

	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type analyzeHTMLRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html" binding:"required"`
}

func (s *Server) analyzeURL(c *gin.Context) {
	var request analyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}
	c.Set(middleware.AuditURLKey, strings.TrimSpace(request.URL))

	report, err := s.Auditor.Analyze(c.Request.Context(), request.URL)
	if err != nil {
		status, message := errorResponse(err)
		_ = c.Error(err)
		c.JSON(status, gin.H{
			"error": message,
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) analyzeHTML(c *gin.Context) {
	var request analyzeHTMLRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Request must include the page html",
		})
		return
	}

	url := strings.TrimSpace(request.URL)
	c.Set(middleware.AuditURLKey, url)

	report, err := s.Auditor.AnalyzeHTML(url, request.HTML)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to analyze HTML: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) statistics(c *gin.Context) {
	out := gin.H{}
	if s.RequestStats != nil {
		for k, v := range s.RequestStats.Snapshot(s.DevMode) {
			out[k] = v
		}
	}
	if s.Storage != nil {
		current := s.Storage.GetCurrentStats()
		out["currentMonth"] = gin.H{
			"audits":        current.Audits,
			"cacheHits":     current.CacheHits,
			"cacheMisses":   current.CacheMisses,
			"fetchFailures": current.FetchFailures,
			"averageScore":  current.AverageScore(),
			"lastUpdated":   current.LastUpdated,
		}
		out["months"] = s.Storage.GetAllMonths()
	}
	c.JSON(http.StatusOK, out)
}

// errorResponse maps an audit failure to a status code and client message.
func errorResponse(err error) (int, string) {
	var fe *fetcher.Error
	if !errors.As(err, &fe) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, "Analysis timed out"
		}
		return http.StatusInternalServerError, "Failed to analyze URL: " + err.Error()
	}

	switch fe.Kind {
	case fetcher.KindInvalidURL:
		if fe.Err == nil {
			return http.StatusBadRequest, "Invalid URL provided"
		}
		return http.StatusBadRequest, "Invalid URL provided: " + fe.Err.Error()
	case fetcher.KindStatus, fetcher.KindNotHTML, fetcher.KindTooLarge, fetcher.KindNetwork:
		return http.StatusBadGateway, "Failed to fetch page: " + fe.Error()
	default:
		return http.StatusInternalServerError, "Failed to analyze URL: " + fe.Error()
	}
}
