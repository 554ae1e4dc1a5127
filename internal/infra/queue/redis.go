package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tg-channel-catalog/internal/domain"
)

// RedisModerationQueue реализует очередь событий модерации на базе Redis lists.
type RedisModerationQueue struct {
	client *redis.Client
	key    string
}

// NewRedisModerationQueue создаёт очередь по указанному ключу.
func NewRedisModerationQueue(client *redis.Client, key string) *RedisModerationQueue {
	return &RedisModerationQueue{client: client, key: key}
}

var _ domain.ModerationQueue = (*RedisModerationQueue)(nil)

// Enqueue публикует событие в очередь.
func (q *RedisModerationQueue) Enqueue(ctx context.Context, event domain.ModerationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push event: %w", err)
	}
	return nil
}

// Pop блокирующе читает событие из очереди.
func (q *RedisModerationQueue) Pop(ctx context.Context) (domain.ModerationEvent, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.ModerationEvent{}, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.ModerationEvent{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.ModerationEvent{}, err
		}
		if len(res) != 2 {
			return domain.ModerationEvent{}, errors.New("redis queue: unexpected response")
		}
		var event domain.ModerationEvent
		if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
			return domain.ModerationEvent{}, fmt.Errorf("decode event: %w", err)
		}
		return event, nil
	}
}
