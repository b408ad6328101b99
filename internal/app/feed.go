package app

import (
	"sync"
	"time"

	"prep-progress-service/internal/domain"
)

// Feed fans progress-summary updates out to a user's live dashboard
// connections.
type Feed struct {
	userID    string
	createdAt time.Time
	now       func() time.Time

	mu          sync.RWMutex
	subscribers map[chan domain.ProgressSummary]struct{}
}

// NewFeed is exported for registry implementations that need to seed feeds.
func NewFeed(userID string) *Feed {
	return newFeedWithClock(userID, time.Now)
}

// NewFeedWithClock is test-only for deterministic timestamps.
func NewFeedWithClock(userID string, now func() time.Time) *Feed {
	return newFeedWithClock(userID, now)
}

func newFeedWithClock(userID string, now func() time.Time) *Feed {
	return &Feed{
		userID:      userID,
		createdAt:   now(),
		now:         now,
		subscribers: make(map[chan domain.ProgressSummary]struct{}),
	}
}

func (f *Feed) subscribe(initial domain.ProgressSummary) (<-chan domain.ProgressSummary, func()) {
	ch := make(chan domain.ProgressSummary, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	ch <- initial

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// publish sends the summary to every subscriber, displacing a stale update
// instead of blocking when a client falls behind.
func (f *Feed) publish(summary domain.ProgressSummary) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.subscribers {
		select {
		case ch <- summary:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- summary
		}
	}
}

func (f *Feed) isIdle() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers) == 0
}

// IsIdle reports whether the feed has no subscribers left.
func (f *Feed) IsIdle() bool {
	return f.isIdle()
}
