package domain

import (
	"sync"
	"time"
)

// Clock supplies timestamps to repositories.
type Clock interface {
	Now() time.Time
}

// MonotonicClock returns UTC timestamps truncated to microseconds that never go
// backwards within a process, even if the wall clock is adjusted.
type MonotonicClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewMonotonicClock wraps now (time.Now when nil).
func NewMonotonicClock(now func() time.Time) *MonotonicClock {
	if now == nil {
		now = time.Now
	}
	return &MonotonicClock{now: now}
}

func (c *MonotonicClock) Now() time.Time {
	t := c.now().UTC().Truncate(time.Microsecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}
