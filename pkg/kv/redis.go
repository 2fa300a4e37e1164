package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tankboard/pkg/logging"
	"tankboard/pkg/metrics"
)

// Config holds key-value store connection configuration
type Config struct {
	URL         string
	DialTimeout time.Duration
	OpTimeout   time.Duration
}

// RedisKV wraps a Redis client with monitoring and metrics
type RedisKV struct {
	client  *redis.Client
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewRedisKV creates a new Redis-backed key-value store client
func NewRedisKV(cfg *Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*RedisKV, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.OpTimeout
	opts.WriteTimeout = cfg.OpTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info(context.Background(), "[KV_INIT] Redis connection established", logging.Fields{
		"addr": opts.Addr,
		"db":   opts.DB,
	})

	return &RedisKV{
		client:  client,
		logger:  logger,
		metrics: metricsCollector,
	}, nil
}

// Close closes the client connection
func (k *RedisKV) Close() error {
	k.logger.Info(context.Background(), "[KV_CLOSE] Closing redis connection", logging.Fields{})
	return k.client.Close()
}

// Get retrieves a string key. The second return value is false when
// the key does not exist.
func (k *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	defer k.observe("get", time.Now())

	val, err := k.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		k.fail(ctx, "get", key, err)
		return "", false, err
	}
	return val, true, nil
}

// Set stores a string key
func (k *RedisKV) Set(ctx context.Context, key, value string) error {
	defer k.observe("set", time.Now())

	if err := k.client.Set(ctx, key, value, 0).Err(); err != nil {
		k.fail(ctx, "set", key, err)
		return err
	}
	return nil
}

// HGet retrieves one hash field. The second return value is false when
// the field does not exist.
func (k *RedisKV) HGet(ctx context.Context, key, field string) (string, bool, error) {
	defer k.observe("hget", time.Now())

	val, err := k.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		k.fail(ctx, "hget", key, err)
		return "", false, err
	}
	return val, true, nil
}

// HSet stores one hash field
func (k *RedisKV) HSet(ctx context.Context, key, field, value string) error {
	defer k.observe("hset", time.Now())

	if err := k.client.HSet(ctx, key, field, value).Err(); err != nil {
		k.fail(ctx, "hset", key, err)
		return err
	}
	return nil
}

// HSetAll stores multiple hash fields in one round trip
func (k *RedisKV) HSetAll(ctx context.Context, key string, fields map[string]string) error {
	defer k.observe("hset_all", time.Now())

	if len(fields) == 0 {
		return nil
	}

	args := make([]interface{}, 0, len(fields)*2)
	for f, v := range fields {
		args = append(args, f, v)
	}

	if err := k.client.HSet(ctx, key, args...).Err(); err != nil {
		k.fail(ctx, "hset_all", key, err)
		return err
	}
	return nil
}

// Del removes keys entirely
func (k *RedisKV) Del(ctx context.Context, keys ...string) error {
	defer k.observe("del", time.Now())

	if err := k.client.Del(ctx, keys...).Err(); err != nil {
		k.fail(ctx, "del", keys[0], err)
		return err
	}
	return nil
}

// Expire sets a time-to-live on a key
func (k *RedisKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	defer k.observe("expire", time.Now())

	if err := k.client.Expire(ctx, key, ttl).Err(); err != nil {
		k.fail(ctx, "expire", key, err)
		return err
	}
	return nil
}

// HealthCheck pings the store
func (k *RedisKV) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := k.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("key-value store health check failed: %w", err)
	}
	return nil
}

func (k *RedisKV) observe(op string, start time.Time) {
	k.metrics.KVOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (k *RedisKV) fail(ctx context.Context, op, key string, err error) {
	k.metrics.RecordKVError(op)
	k.logger.Error(ctx, "[KV_ERROR] Operation failed", logging.Fields{
		"op":  op,
		"key": key,
	}, err)
}
