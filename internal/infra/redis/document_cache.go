package redis

import (
	"context"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"prep-progress-service/internal/app"
	"prep-progress-service/internal/domain"
)

// DocumentCache is a Redis read-through cache in front of a durable
// app.DocumentStore. Documents are stored as raw JSON strings under
// progress:doc:{userID}:{name}. Writes go through to the durable store first;
// cache population is best-effort.
type DocumentCache struct {
	client *redis.Client
	inner  app.DocumentStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewDocumentCache(client *redis.Client, inner app.DocumentStore, ttl time.Duration) *DocumentCache {
	return &DocumentCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *DocumentCache) Get(ctx context.Context, userID, name string) ([]byte, error) {
	key := c.key(userID, name)

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		return data, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
			return data, nil
		}

		data, err := c.inner.Get(ctx, userID, name)
		if err != nil {
			return nil, err
		}
		_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (c *DocumentCache) Set(ctx context.Context, userID, name string, data []byte) error {
	if err := c.inner.Set(ctx, userID, name, data); err != nil {
		return err
	}
	_ = c.client.Set(ctx, c.key(userID, name), data, c.ttlWithJitter()).Err()
	return nil
}

func (c *DocumentCache) Delete(ctx context.Context, userID string) error {
	if err := c.inner.Delete(ctx, userID); err != nil {
		return err
	}
	keys := make([]string, 0, 3)
	for _, name := range []string{domain.DocProfile, domain.DocStats, domain.DocActivity} {
		keys = append(keys, c.key(userID, name))
	}
	_ = c.client.Del(ctx, keys...).Err()
	return nil
}

func (c *DocumentCache) key(userID, name string) string {
	return "progress:doc:" + userID + ":" + name
}

func (c *DocumentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
