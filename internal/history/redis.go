package history

import (
	"context"
	"fmt"
	"sync"

	"promptcoach/models"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// RedisBroker publishes change signals over Redis pub/sub so every server
// instance can refresh its subscribers.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func (b *RedisBroker) Notify(ctx context.Context, owner models.Owner) error {
	if err := b.rdb.Publish(ctx, channelName(owner), "changed").Err(); err != nil {
		return fmt.Errorf("failed to publish history change: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, owner models.Owner) (<-chan struct{}, func(), error) {
	pubsub := b.rdb.Subscribe(ctx, channelName(owner))
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to history: %w", err)
	}

	// out is closed once the pubsub is closed and its channel drained.
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for range pubsub.Channel() {
			signal(out)
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { _ = pubsub.Close() })
	}
	return out, cancel, nil
}
