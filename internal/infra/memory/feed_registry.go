package memory

import (
	"sync"

	"prep-progress-service/internal/app"
)

// FeedRegistry is an in-memory implementation of app.FeedRegistry.
type FeedRegistry struct {
	mu    sync.RWMutex
	feeds map[string]*app.Feed
}

func NewFeedRegistry() *FeedRegistry {
	return &FeedRegistry{
		feeds: make(map[string]*app.Feed),
	}
}

func (r *FeedRegistry) GetOrCreate(userID string) *app.Feed {
	r.mu.Lock()
	defer r.mu.Unlock()
	if feed, ok := r.feeds[userID]; ok {
		return feed
	}
	feed := app.NewFeed(userID)
	r.feeds[userID] = feed
	return feed
}

func (r *FeedRegistry) Get(userID string) (*app.Feed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	feed, ok := r.feeds[userID]
	return feed, ok
}

func (r *FeedRegistry) DeleteIfIdle(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	feed, ok := r.feeds[userID]
	if !ok {
		return
	}
	if feed.IsIdle() {
		delete(r.feeds, userID)
	}
}
