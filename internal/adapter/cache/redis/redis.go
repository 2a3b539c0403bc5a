// Package redis caches the code → link mapping used by the redirect path.
//
// Short codes and target URLs never change once created, so cached entries
// cannot go stale and nothing has to be invalidated. Click counts are not
// cached: links returned from the cache carry a zero ClickCount. Misses are
// not cached either, so a freshly created code is visible immediately.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

const (
	keyPrefix  = "link:"
	defaultTTL = time.Hour
)

type redisClient interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

type linkFinder interface {
	FindByCode(ctx context.Context, shortCode string) (*entity.Link, error)
}

type cachedLink struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// LinkCache is a read-through cache in front of a link store.
type LinkCache struct {
	client  redisClient
	backend linkFinder
	ttl     time.Duration
	logger  *slog.Logger
}

func NewLinkCache(client redisClient, backend linkFinder, ttl time.Duration, logger *slog.Logger) *LinkCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &LinkCache{
		client:  client,
		backend: backend,
		ttl:     ttl,
		logger:  logger,
	}
}

// FindByCode serves from Redis when possible. Redis failures degrade to the backend.
func (c *LinkCache) FindByCode(ctx context.Context, shortCode string) (*entity.Link, error) {
	const op = "adapter.cache.redis.LinkCache.FindByCode"

	key := keyPrefix + shortCode

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cl cachedLink
		if err := json.Unmarshal(data, &cl); err == nil {
			return &entity.Link{
				ID:          cl.ID,
				ShortCode:   cl.ShortCode,
				OriginalURL: cl.OriginalURL,
				OwnerID:     cl.OwnerID,
				CreatedAt:   cl.CreatedAt,
			}, nil
		}
		c.logger.Warn("discarding malformed cache entry", slog.String("op", op), slog.String("key", key))
	case errors.Is(err, goredis.Nil):
	default:
		c.logger.Warn("cache lookup failed", slog.String("op", op), slog.Any("err", err))
	}

	link, err := c.backend.FindByCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	data, err = json.Marshal(cachedLink{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		OwnerID:     link.OwnerID,
		CreatedAt:   link.CreatedAt,
	})
	if err != nil {
		return link, nil
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache fill failed", slog.String("op", op), slog.Any("err", err))
	}

	return link, nil
}
