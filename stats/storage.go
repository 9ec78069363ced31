// Package stats persists monthly audit counters.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MonthlyStats represents statistics for a specific month
type MonthlyStats struct {
	Audits        int       `json:"audits"`
	CacheHits     int       `json:"cache_hits"`
	CacheMisses   int       `json:"cache_misses"`
	FetchFailures int       `json:"fetch_failures"`
	ScoreTotal    int       `json:"score_total"`
	LastUpdated   time.Time `json:"last_updated"`
}

// AverageScore returns the mean score of the month's completed audits.
func (m MonthlyStats) AverageScore() float64 {
	if m.Audits == 0 {
		return 0
	}
	return float64(m.ScoreTotal) / float64(m.Audits)
}

// Delta is a set of increments applied by IncrementStats.
type Delta struct {
	Audits        int
	CacheHits     int
	CacheMisses   int
	FetchFailures int
	Score         int
}

// Storage handles persistent storage of statistics
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	stop        chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Storage.
type Option func(*Storage)

// WithLogger reports failed background writes to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Storage) {
		s.logger = logger
	}
}

// NewStorage creates a new statistics storage instance
func NewStorage(dataDir string, opts ...Option) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

// load reads statistics from file
func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.stats)
}

// save writes statistics to file
func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	// Write to temporary file first, then rename into place
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// backgroundWriter handles periodic writes to disk
func (s *Storage) backgroundWriter() {
	defer close(s.done)

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
			s.saveLogged()
		case <-ticker.C:
			s.saveLogged()
		case <-s.stop:
			return
		}
	}
}

func (s *Storage) saveLogged() {
	if err := s.save(); err != nil {
		s.logger.Error("Failed to save statistics", zap.String("path", s.filePath), zap.Error(err))
	}
}

// monthKey returns the month key in YYYY-MM format
func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// requestWrite signals that a write to disk is needed
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// write already pending
	}
}

// IncrementStats adds d to the current month's counters
func (s *Storage) IncrementStats(d Delta) {
	now := s.now()
	month := monthKey(now)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats, exists := s.stats[month]
	if !exists {
		stats = &MonthlyStats{}
		s.stats[month] = stats
	}

	stats.Audits += d.Audits
	stats.CacheHits += d.CacheHits
	stats.CacheMisses += d.CacheMisses
	stats.FetchFailures += d.FetchFailures
	stats.ScoreTotal += d.Score
	stats.LastUpdated = now

	if now.Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = now
	}
}

// GetCurrentStats returns statistics for the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	stats, _ := s.GetMonthlyStats(monthKey(s.now()))
	return stats
}

// Cleanup removes statistics older than retainMonths, counting the current
// month. Values below one keep only the current month.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 1 {
		retainMonths = 1
	}

	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	keep := make(map[string]bool, retainMonths)
	for i := 0; i < retainMonths; i++ {
		keep[monthKey(first.AddDate(0, -i, 0))] = true
	}

	s.mutex.Lock()
	for key := range s.stats {
		if !keep[key] {
			delete(s.stats, key)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
}

// GetMonthlyStats returns statistics for a specific month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return *stats, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns all months that have statistics, newest first
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months
}

// Flush writes the statistics to disk immediately.
func (s *Storage) Flush() error {
	return s.save()
}

// Shutdown stops the background writer and writes a final copy to disk.
func (s *Storage) Shutdown() error {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	return s.save()
}
