// Package analyzer fetches pages and audits them, caching encoded reports.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/seo-optimizer/llm-audit/audit"
	"github.com/seo-optimizer/llm-audit/cache"
	"github.com/seo-optimizer/llm-audit/fetcher"
	"github.com/seo-optimizer/llm-audit/htmldoc"
	"github.com/seo-optimizer/llm-audit/metrics"
	"github.com/seo-optimizer/llm-audit/stats"
)

// DefaultCacheTTL is how long reports stay cached unless WithCache says
// otherwise.
const DefaultCacheTTL = 30 * time.Minute

// PageFetcher retrieves the HTML of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
}

// Analyzer runs page audits. It is safe for concurrent use; concurrent audits
// of the same URL share a single fetch.
type Analyzer struct {
	fetcher  PageFetcher
	cache    cache.Cache
	cacheTTL time.Duration
	stats    *stats.Storage
	metrics  *metrics.Metrics
	logger   *zap.Logger
	group    singleflight.Group
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCache stores reports in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(a *Analyzer) {
		a.cache = c
		a.cacheTTL = ttl
	}
}

func WithStats(s *stats.Storage) Option {
	return func(a *Analyzer) {
		a.stats = s
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// New creates an Analyzer fetching pages with f. Without WithCache nothing is
// cached.
func New(f PageFetcher, opts ...Option) *Analyzer {
	a := &Analyzer{
		fetcher:  f,
		cache:    cache.Nop{},
		cacheTTL: DefaultCacheTTL,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// result is what a shared audit hands to every waiting caller.
type result struct {
	encoded []byte
	err     error
}

// Analyze fetches rawURL and audits it. Fetch failures are returned as
// *fetcher.Error and never produce a report.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (audit.Report, error) {
	u, err := fetcher.ValidateURL(rawURL)
	if err != nil {
		a.recordFetchError(err)
		return audit.Report{}, err
	}
	target := u.String()
	key := cache.Key(target)

	if encoded, ok := a.cached(ctx, key); ok {
		report, err := decode(encoded, target)
		if err == nil {
			a.recordCacheHit()
			a.logger.Debug("Audit served from cache", zap.String("url", target))
			return report, nil
		}
		a.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = a.cache.Delete(ctx, key)
	}
	a.recordCacheMiss()

	// The shared audit outlives a caller that gives up early so the other
	// waiters still get their report.
	sharedCtx := context.WithoutCancel(ctx)
	ch := a.group.DoChan(key, func() (any, error) {
		encoded, err := a.fetchAndAudit(sharedCtx, target)
		return result{encoded: encoded, err: err}, nil
	})

	select {
	case <-ctx.Done():
		return audit.Report{}, ctx.Err()
	case res := <-ch:
		r := res.Val.(result)
		if r.err != nil {
			return audit.Report{}, r.err
		}
		return decode(r.encoded, target)
	}
}

func (a *Analyzer) fetchAndAudit(ctx context.Context, target string) ([]byte, error) {
	start := time.Now()

	page, err := a.fetcher.Fetch(ctx, target)
	if err != nil {
		a.recordFetchError(err)
		a.logger.Info("Page fetch failed",
			zap.String("url", target),
			zap.String("kind", string(fetcher.KindOf(err))),
			zap.Error(err))
		return nil, err
	}

	report, err := a.AnalyzeHTML(target, page.HTML)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	if err := a.cache.Set(ctx, cache.Key(target), encoded, a.cacheTTL); err != nil {
		a.logger.Warn("Failed to cache report", zap.String("url", target), zap.Error(err))
	}

	duration := time.Since(start)
	a.metrics.RecordAudit(duration, report.OverallScore)
	if a.stats != nil {
		a.stats.IncrementStats(stats.Delta{Audits: 1, Score: report.OverallScore})
	}

	a.logger.Info("Audit completed",
		zap.String("url", target),
		zap.Int("bytes", page.Size),
		zap.Int("score", report.OverallScore),
		zap.Duration("duration", duration))

	return encoded, nil
}

// AnalyzeHTML audits markup that the caller already has. Nothing is fetched
// or cached.
func (a *Analyzer) AnalyzeHTML(url, rawHTML string) (audit.Report, error) {
	doc, err := htmldoc.Parse(rawHTML)
	if err != nil {
		return audit.Report{}, err
	}
	return audit.Run(url, rawHTML, doc)
}

// IsCached reports whether a report for rawURL is in the cache.
func (a *Analyzer) IsCached(ctx context.Context, rawURL string) bool {
	u, err := fetcher.ValidateURL(rawURL)
	if err != nil {
		return false
	}
	_, ok := a.cached(ctx, cache.Key(u.String()))
	return ok
}

func (a *Analyzer) cached(ctx context.Context, key string) ([]byte, bool) {
	encoded, found, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.Warn("Cache lookup failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return encoded, found
}

// decode builds a fresh report for each caller so no two callers share one.
func decode(encoded []byte, url string) (audit.Report, error) {
	var report audit.Report
	if err := json.Unmarshal(encoded, &report); err != nil {
		return audit.Report{}, fmt.Errorf("decode report: %w", err)
	}
	report.URL = url
	return report, nil
}

func (a *Analyzer) recordCacheHit() {
	a.metrics.RecordCacheHit()
	if a.stats != nil {
		a.stats.IncrementStats(stats.Delta{CacheHits: 1})
	}
}

func (a *Analyzer) recordCacheMiss() {
	a.metrics.RecordCacheMiss()
	if a.stats != nil {
		a.stats.IncrementStats(stats.Delta{CacheMisses: 1})
	}
}

func (a *Analyzer) recordFetchError(err error) {
	kind := fetcher.KindOf(err)
	if kind == "" {
		return
	}
	a.metrics.RecordFetchError(string(kind))
	if a.stats != nil {
		a.stats.IncrementStats(stats.Delta{FetchFailures: 1})
	}
}

// GetStats returns the statistics storage, or nil.
func (a *Analyzer) GetStats() *stats.Storage {
	return a.stats
}

// Shutdown closes the cache and writes statistics to disk.
func (a *Analyzer) Shutdown() error {
	if a == nil {
		return nil
	}

	if err := a.cache.Close(); err != nil {
		return fmt.Errorf("failed to close cache: %w", err)
	}

	if a.stats != nil {
		if err := a.stats.Shutdown(); err != nil {
			return fmt.Errorf("failed to shutdown stats storage: %w", err)
		}
	}

	return nil
}
