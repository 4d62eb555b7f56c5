package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const banKeyPrefix = "ban:"

// BanCache mirrors active suspensions in Redis. Each key expires when the
// suspension window ends, so a present key means "suspended right now".
type BanCache struct {
	Redis *redis.Client
}

func NewBanCache(rdb *redis.Client) *BanCache {
	return &BanCache{Redis: rdb}
}

// MarkBanned records a suspension ending at until. Past windows are ignored.
func (c *BanCache) MarkBanned(ctx context.Context, userID, reason string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if reason == "" {
		reason = "suspended"
	}
	return errors.Wrap(c.Redis.Set(ctx, banKeyPrefix+userID, reason, ttl).Err(), "mark banned")
}

// IsUserBanned перевіряє статус бану в Redis
func (c *BanCache) IsUserBanned(ctx context.Context, userID string) (bool, error) {
	status, err := c.Redis.Get(ctx, banKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "check ban")
	}
	return status != "", nil
}

func (c *BanCache) Clear(ctx context.Context, userID string) error {
	return errors.Wrap(c.Redis.Del(ctx, banKeyPrefix+userID).Err(), "clear ban")
}
