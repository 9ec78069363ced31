// Package logging builds the service logger and keeps per-request statistics
// for the HTTP API.
package logging

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// RequestStats collects visitor and audit request statistics.
type RequestStats struct {
	UniqueVisitors  map[string]time.Time `json:"uniqueVisitors"`  // IP -> Last Visit Time
	AuditRequests   int                  `json:"auditRequests"`   // Total number of audit requests
	ErrorCount      int                  `json:"errorCount"`      // Number of failed audits
	PopularURLs     map[string]int       `json:"popularUrls"`     // URL -> Count
	AverageLoadTime float64              `json:"averageLoadTime"` // Average handling time in milliseconds
	TotalLoadTime   float64              `json:"totalLoadTime"`
	LastPersisted   time.Time            `json:"lastPersisted"`

	path  string
	mutex sync.RWMutex
}

// NewRequestStats creates statistics persisted at path and loads any
// previously saved state. An empty path keeps statistics in memory only.
func NewRequestStats(path string) (*RequestStats, error) {
	s := &RequestStats{
		UniqueVisitors: make(map[string]time.Time),
		PopularURLs:    make(map[string]int),
		LastPersisted:  time.Now(),
		path:           path,
	}
	if err := s.Load(); err != nil {
		return s, err
	}
	return s, nil
}

// TrackVisitor records a visit from ip.
func (s *RequestStats) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = time.Now()
}

// cleanURL reduces an audited URL to scheme, host and path. Local and API
// URLs are dropped.
func cleanURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return ""
	}

	if strings.Contains(u.Host, "localhost") ||
		strings.Contains(u.Host, "127.0.0.1") ||
		strings.Contains(strings.ToLower(u.Path), "/api/") {
		return ""
	}

	cleaned := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		cleaned += u.Path
	}

	return strings.TrimSuffix(cleaned, "/")
}

// TrackAudit records one audit request for target, taking loadTime
// milliseconds.
func (s *RequestStats) TrackAudit(target string, loadTime float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.AuditRequests++

	if cleaned := cleanURL(target); cleaned != "" {
		s.PopularURLs[cleaned]++
	}

	if hasError {
		s.ErrorCount++
	}

	s.TotalLoadTime += loadTime
	s.AverageLoadTime = s.TotalLoadTime / float64(s.AuditRequests)
}

// UniqueVisitorsCount returns the number of visitors seen in the last 24 hours.
func (s *RequestStats) UniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.uniqueVisitors(time.Now())
}

func (s *RequestStats) uniqueVisitors(now time.Time) int {
	count := 0
	cutoff := now.Add(-24 * time.Hour)
	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

// PopularURL is an audited URL with its request count.
type PopularURL struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// PopularURLsTop returns the n most audited URLs, most frequent first. Ties
// are ordered by URL.
func (s *RequestStats) PopularURLsTop(n int) []PopularURL {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.popular(n)
}

func (s *RequestStats) popular(n int) []PopularURL {
	all := make([]PopularURL, 0, len(s.PopularURLs))
	for u, c := range s.PopularURLs {
		all = append(all, PopularURL{URL: u, Count: c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].URL < all[j].URL
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// ErrorRate returns the share of failed audits as a percentage.
func (s *RequestStats) ErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.errorRate()
}

func (s *RequestStats) errorRate() float64 {
	if s.AuditRequests == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.AuditRequests) * 100
}

// Save persists the statistics.
func (s *RequestStats) Save() error {
	if s.path == "" {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.LastPersisted = time.Now()

	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("could not create statistics file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(s); err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}
	return nil
}

// Load reads previously saved statistics. A missing file is not an error.
func (s *RequestStats) Load() error {
	if s.path == "" {
		return nil
	}

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}
	defer file.Close()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := json.NewDecoder(file).Decode(s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.PopularURLs == nil {
		s.PopularURLs = make(map[string]int)
	}
	return nil
}

// Snapshot returns the statistics for the API. Popular URLs are only
// included in development mode.
func (s *RequestStats) Snapshot(devMode bool) map[string]any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := map[string]any{
		"uniqueVisitors24h": s.uniqueVisitors(time.Now()),
		"totalRequests":     s.AuditRequests,
		"errorRate":         s.errorRate(),
		"averageLoadTime":   s.AverageLoadTime,
	}
	if devMode {
		out["popularUrls"] = s.popular(5)
	}
	return out
}

// Requests returns the number of audit requests tracked so far.
func (s *RequestStats) Requests() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.AuditRequests
}
