package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix for all monitored state.
	redisKeyPrefix = "riskwatch:kv:"
	// Pub/sub channel carrying change notifications, so writers in other
	// processes (the control surface) propagate to every cache.
	redisChangeChannel = "riskwatch:changes"
)

// Redis is the shared-store implementation for deployments where the control
// surface runs out of process. Change notifications ride a pub/sub channel.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client; lifecycle stays with the caller.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return r.publish(ctx, Change{Key: key, Value: value})
}

func (r *Redis) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
			return fmt.Errorf("redis del %s: %w", key, err)
		}
		if err := r.publish(ctx, Change{Key: key}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Redis) Watch(ctx context.Context) (<-chan Change, error) {
	sub := r.client.Subscribe(ctx, redisChangeChannel)
	// Force the subscription to be established before first use.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *Redis) publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := r.client.Publish(ctx, redisChangeChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
