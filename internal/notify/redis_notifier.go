package notify

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

type listPusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisNotifier складывает события в список Redis (очередь FIFO: RPUSH / BLPOP на стороне шлюза).
type RedisNotifier struct {
	client listPusher
	key    string
}

func NewRedisNotifier(client listPusher, key string) *RedisNotifier {
	return &RedisNotifier{client: client, key: key}
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (n *RedisNotifier) NotifyOperator(ctx context.Context, e Event) error {
	return n.push(ctx, e)
}

func (n *RedisNotifier) NotifyClient(ctx context.Context, clientID int64, e Event) error {
	e.ClientID = clientID
	return n.push(ctx, e)
}

func (n *RedisNotifier) push(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.client.RPush(ctx, n.key, body).Err(); err != nil {
		return fmt.Errorf("redis rpush: %w", err)
	}
	return nil
}
