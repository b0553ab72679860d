package utils

import (
	"sync"
	"time"
)

// MemoryRateLimiter is a keyed sliding-window limiter kept in process
// memory. It backs rate limiting when Redis is not configured.
type MemoryRateLimiter struct {
	limit   int
	window  time.Duration
	entries map[string][]time.Time
	mutex   sync.Mutex
	now     func() time.Time
}

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records a hit for key and reports whether it fits the window,
// plus the hits left and when the oldest hit expires.
func (m *MemoryRateLimiter) Allow(key string) (bool, int, time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()
	cutoff := now.Add(-m.window)

	hits := m.entries[key]
	valid := hits[:0]
	for _, h := range hits {
		if h.After(cutoff) {
			valid = append(valid, h)
		}
	}

	resetAt := now.Add(m.window)
	if len(valid) > 0 {
		resetAt = valid[0].Add(m.window)
	}

	if len(valid) >= m.limit {
		m.entries[key] = valid
		return false, 0, resetAt
	}

	valid = append(valid, now)
	m.entries[key] = valid
	return true, m.limit - len(valid), resetAt
}

// Prune drops keys with no hits inside the window.
func (m *MemoryRateLimiter) Prune() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	cutoff := m.now().Add(-m.window)
	for key, hits := range m.entries {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(m.entries, key)
		}
	}
}
