package notify

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const inboxKeyPrefix = "notifications:"

// Inbox keeps the latest notifications of every user in a capped Redis list.
type Inbox struct {
	Redis *redis.Client
	Size  int64
}

func NewInbox(rdb *redis.Client, size int64) *Inbox {
	if size <= 0 {
		size = 100
	}
	return &Inbox{Redis: rdb, Size: size}
}

func inboxKey(userID string) string { return inboxKeyPrefix + userID }

func (i *Inbox) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	key := inboxKey(n.UserID)
	_, err = i.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, i.Size-1)
		return nil
	})
	return errors.Wrap(err, "inbox push")
}

// List returns up to limit notifications for userID, newest first.
func (i *Inbox) List(ctx context.Context, userID string, limit int64) ([]Notification, error) {
	if limit <= 0 || limit > i.Size {
		limit = i.Size
	}
	raw, err := i.Redis.LRange(ctx, inboxKey(userID), 0, limit-1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "inbox list")
	}
	out := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			// записи, які не читаються, пропускаємо
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
