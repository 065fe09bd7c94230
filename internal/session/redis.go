package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"resumecraft/internal/config"
	"resumecraft/internal/errors"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values in Redis and fans changes out over a pub/sub
// channel, so every process sees logins and logouts.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	channel string
	ttl     time.Duration
	logger  *errors.Logger
}

// NewRedisStore connects to Redis and checks the connection.
func NewRedisStore(ctx context.Context, rc config.RedisConfig, sc config.SessionConfig, logger *errors.Logger) (*RedisStore, error) {
	if rc.Addr == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "redis address is required", nil)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to instrument redis client", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeStoreFailed,
			fmt.Sprintf("failed to connect to redis at %s", rc.Addr), err)
	}
	return NewRedisStoreFromClient(client, rc.KeyPrefix, sc.Channel, sc.TTL, logger), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix, channel string, ttl time.Duration, logger *errors.Logger) *RedisStore {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = errors.Discard()
	}
	return &RedisStore{client: client, prefix: prefix, channel: channel, ttl: ttl, logger: logger}
}

func (r *RedisStore) key(k string) string { return r.prefix + k }

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storeError("get", key, err)
	}
	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return storeError("set", key, err)
	}
	r.publish(ctx, Change{Key: key, Value: value})
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	n, err := r.client.Del(ctx, r.key(key)).Result()
	if err != nil {
		return storeError("delete", key, err)
	}
	if n > 0 {
		r.publish(ctx, Change{Key: key, Deleted: true})
	}
	return nil
}

func (r *RedisStore) publish(ctx context.Context, c Change) {
	payload, err := json.Marshal(c)
	if err != nil {
		r.logger.LogError(err, "Failed to encode session change", "key", c.Key)
		return
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.LogError(err, "Failed to publish session change", "channel", r.channel, "key", c.Key)
	}
}

// Subscribe listens on the change channel in a background goroutine.
func (r *RedisStore) Subscribe(fn func(Change)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, r.channel)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range pubsub.Channel() {
			var c Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				r.logger.LogError(err, "Ignoring malformed session change", "channel", msg.Channel)
				continue
			}
			fn(c)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := pubsub.Close(); err != nil {
				r.logger.LogError(err, "Failed to close session subscription", "channel", r.channel)
			}
		})
		<-done
	}
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func storeError(op, key string, err error) error {
	return errors.NewNetworkError(errors.ErrCodeStoreFailed, "session store "+op+" failed", err).
		WithContext("key", key)
}
