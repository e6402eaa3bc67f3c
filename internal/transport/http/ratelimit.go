package http

import (
	"sync/atomic"
	"time"
)

// frameLimiter caps inbound relay frames per connection over a fixed one
// minute window. A zero limit disables it.
type frameLimiter struct {
	limit   int64
	counter atomic.Int64
	reset   *time.Ticker
}

func newFrameLimiter(limit int) *frameLimiter {
	if limit <= 0 {
		return &frameLimiter{}
	}
	return &frameLimiter{
		limit: int64(limit),
		reset: time.NewTicker(time.Minute),
	}
}

func (l *frameLimiter) allow() bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	return l.counter.Add(1) <= l.limit
}

// startReset clears the window counter once a minute until the connection
// context ends.
func (l *frameLimiter) startReset(done <-chan struct{}) {
	if l == nil || l.reset == nil {
		return
	}
	go func() {
		for {
			select {
			case <-l.reset.C:
				l.counter.Store(0)
			case <-done:
				l.reset.Stop()
				return
			}
		}
	}()
}
