package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"prep-progress-service/internal/app"
)

// FeedRegistry is a Redis-aware implementation of app.FeedRegistry.
// Notes:
//   - Feeds themselves stay in-process so the existing broadcast logic is
//     reused; Redis only marks feed liveness.
//   - For true multi-instance fan-out you'd pair this with a pub/sub
//     projector that routes summaries across nodes.
type FeedRegistry struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	feeds  map[string]*app.Feed
}

func NewFeedRegistry(client *redis.Client, ttl time.Duration) *FeedRegistry {
	return &FeedRegistry{
		client: client,
		ttl:    ttl,
		feeds:  make(map[string]*app.Feed),
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
	// best-effort liveness marker
	_ = r.client.Set(context.Background(), r.key(userID), "1", r.ttl).Err()
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
		_ = r.client.Del(context.Background(), r.key(userID)).Err()
	}
}

func (r *FeedRegistry) key(userID string) string {
	return "progress:feed:" + userID
}
