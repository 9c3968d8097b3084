package jsearch

import (
	"errors"
	"sync"
	"time"
)

// Stats tracks provider usage for the lifetime of the process.
type Stats struct {
	TotalSearches int64         `json:"total_searches"`
	TotalErrors   int64         `json:"total_errors"`
	TotalJobs     int64         `json:"total_jobs"`
	RateLimited   int64         `json:"rate_limited"`
	LastLatency   time.Duration `json:"last_latency"`
	LastSearchAt  time.Time     `json:"last_search_at"`
}

type metrics struct {
	mu    sync.RWMutex
	stats Stats
}

func (m *metrics) record(jobs int, latency time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalSearches++
	m.stats.LastLatency = latency
	m.stats.LastSearchAt = time.Now()
	if err != nil {
		m.stats.TotalErrors++
		if errors.Is(err, ErrRateLimited) {
			m.stats.RateLimited++
		}
		return
	}
	m.stats.TotalJobs += int64(jobs)
}

func (m *metrics) snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}
