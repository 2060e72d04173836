// Package notify carries operator-facing notices (save succeeded, save
// failed) from the API to whatever delivers them. The API only publishes;
// delivery is the notifier worker's job.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Level grades a notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is one message for the operator.
type Notice struct {
	ID       string    `json:"id"`
	Level    Level     `json:"level"`
	Operator string    `json:"operator"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// NewNotice builds a notice with a fresh id and timestamp.
func NewNotice(level Level, operator, text string) Notice {
	return Notice{
		ID:       uuid.NewString(),
		Level:    level,
		Operator: operator,
		Text:     text,
		At:       time.Now().UTC(),
	}
}

// Queue is the abstraction over notice transport backends.
type Queue interface {
	Publish(ctx context.Context, n Notice) error
	Consume(ctx context.Context) (<-chan Notice, error)
}

// InMemory is a channel-backed queue for dev and tests.
type InMemory struct {
	ch chan Notice
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	if size <= 0 {
		size = 1
	}
	return &InMemory{ch: make(chan Notice, size)}
}

// Publish enqueues a notice without blocking. Notices are best-effort;
// when no consumer is keeping up the oldest unread ones are dropped so a
// full buffer can never stall the publisher.
func (q *InMemory) Publish(ctx context.Context, n Notice) error {
	for {
		select {
		case q.ch <- n:
			return nil
		default:
		}
		select {
		case dropped := <-q.ch:
			log.Printf("notice queue full, dropping %s notice for %s", dropped.Level, dropped.Operator)
		default:
		}
	}
}

// Consume returns a channel for the notifier worker.
func (q *InMemory) Consume(ctx context.Context) (<-chan Notice, error) {
	out := make(chan Notice)
	go func() {
		defer close(out)
		for {
			select {
			case n := <-q.ch:
				out <- n
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue is a Redis list-backed queue using LPUSH/BRPOP semantics,
// JSON on the wire.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue on the given list key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "campus:notices"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a notice.
func (q *RedisQueue) Publish(ctx context.Context, n Notice) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Consume streams notices using BRPOP.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Notice, error) {
	out := make(chan Notice)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) == 2 {
				var n Notice
				if err := json.Unmarshal([]byte(res[1]), &n); err == nil {
					out <- n
				}
			}
		}
	}()
	return out, nil
}
