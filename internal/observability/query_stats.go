// Package observability provides Prometheus metrics and filter usage
// statistics for the arrestview query core.
package observability

import (
	"sort"
	"sync"
	"time"
)

// QueryStats tracks how often each filter dimension value and each year is
// requested, so operators can see which selections are popular.
type QueryStats struct {
	mu        sync.RWMutex
	dimension map[string]*DimensionStats
	years     map[int]*YearStats
	window    time.Duration
}

// DimensionStats holds selection statistics for one filter dimension.
type DimensionStats struct {
	Dimension string         `json:"dimension"`
	Frequency int64          `json:"frequency"`
	LastSeen  time.Time      `json:"last_seen"`
	Values    map[string]int `json:"values"` // value → selection count
}

// YearStats holds request statistics for one year.
type YearStats struct {
	Year      int       `json:"year"`
	Frequency int64     `json:"frequency"`
	LastSeen  time.Time `json:"last_seen"`
}

// NewQueryStats creates a new query statistics tracker.
// window: time duration for pruning old entries (e.g., 1 hour)
func NewQueryStats(window time.Duration) *QueryStats {
	return &QueryStats{
		dimension: make(map[string]*DimensionStats),
		years:     make(map[int]*YearStats),
		window:    window,
	}
}

// RecordDimension records one request filtering on dimension with the given
// allowed values. It is safe for concurrent use.
func (q *QueryStats) RecordDimension(dimension string, values []string) {
	if q == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	stats, exists := q.dimension[dimension]
	if !exists {
		stats = &DimensionStats{
			Dimension: dimension,
			Values:    make(map[string]int),
		}
		q.dimension[dimension] = stats
	}

	stats.Frequency++
	stats.LastSeen = time.Now()
	for _, v := range values {
		stats.Values[v]++
	}
}

// RecordYears records one request for each of years.
func (q *QueryStats) RecordYears(years []int) {
	if q == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for _, y := range years {
		stats, exists := q.years[y]
		if !exists {
			stats = &YearStats{Year: y}
			q.years[y] = stats
		}
		stats.Frequency++
		stats.LastSeen = now
	}
}

// GetTopDimensions returns the top N dimensions by frequency.
// Returns a copy of the stats sorted by frequency (descending).
func (q *QueryStats) GetTopDimensions(n int) []DimensionStats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if n <= 0 || len(q.dimension) == 0 {
		return []DimensionStats{}
	}

	stats := make([]DimensionStats, 0, len(q.dimension))
	for _, s := range q.dimension {
		// Deep copy to prevent external modification
		statsCopy := DimensionStats{
			Dimension: s.Dimension,
			Frequency: s.Frequency,
			LastSeen:  s.LastSeen,
			Values:    make(map[string]int, len(s.Values)),
		}
		for v, count := range s.Values {
			statsCopy.Values[v] = count
		}
		stats = append(stats, statsCopy)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Frequency != stats[j].Frequency {
			return stats[i].Frequency > stats[j].Frequency
		}
		return stats[i].Dimension < stats[j].Dimension
	})

	if n > len(stats) {
		n = len(stats)
	}
	return stats[:n]
}

// GetTopYears returns the top N years by frequency.
func (q *QueryStats) GetTopYears(n int) []YearStats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if n <= 0 || len(q.years) == 0 {
		return []YearStats{}
	}

	stats := make([]YearStats, 0, len(q.years))
	for _, s := range q.years {
		stats = append(stats, *s)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Frequency != stats[j].Frequency {
			return stats[i].Frequency > stats[j].Frequency
		}
		return stats[i].Year > stats[j].Year
	})

	if n > len(stats) {
		n = len(stats)
	}
	return stats[:n]
}

// Snapshot is a point-in-time view of the tracked statistics.
type Snapshot struct {
	Dimensions []DimensionStats `json:"dimensions"`
	Years      []YearStats      `json:"years"`
}

// Snapshot returns the top n dimensions and years. A nil tracker yields an
// empty snapshot.
func (q *QueryStats) Snapshot(n int) Snapshot {
	if q == nil {
		return Snapshot{Dimensions: []DimensionStats{}, Years: []YearStats{}}
	}
	return Snapshot{
		Dimensions: q.GetTopDimensions(n),
		Years:      q.GetTopYears(n),
	}
}

// Prune removes entries where time.Since(LastSeen) > window.
// This should be called periodically (e.g., every 5 minutes).
func (q *QueryStats) Prune() {
	q.mu.Lock()
	defer q.mu.Unlock()

	threshold := time.Now().Add(-q.window)

	for dim, stats := range q.dimension {
		if stats.LastSeen.Before(threshold) {
			delete(q.dimension, dim)
		}
	}
	for y, stats := range q.years {
		if stats.LastSeen.Before(threshold) {
			delete(q.years, y)
		}
	}
}
