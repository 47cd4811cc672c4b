// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisKeyPrefix = "playguard:"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisRegistry keeps each session under its own key with a TTL and tracks
// live sessions per account in a sorted set scored by expiry.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewRedisRegistry connects and verifies the server is reachable.
func NewRedisRegistry(ctx context.Context, cfg RedisConfig, ttl time.Duration, logger zerolog.Logger) (*RedisRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to Redis session registry")

	return newRedisRegistry(client, ttl, logger), nil
}

func newRedisRegistry(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisRegistry {
	return &RedisRegistry{client: client, ttl: ttl, now: time.Now, logger: logger}
}

func sessionRecordKey(token string) string { return redisKeyPrefix + "session:" + token }
func accountSetKey(account string) string { return redisKeyPrefix + "account:" + account }

func (r *RedisRegistry) Put(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	expires := r.now().Add(r.ttl).UnixMilli()
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionRecordKey(rec.Token), data, r.ttl)
	if rec.Blocked {
		pipe.ZRem(ctx, accountSetKey(rec.Account), rec.Token)
	} else {
		pipe.ZAdd(ctx, accountSetKey(rec.Account), redis.Z{Score: float64(expires), Member: rec.Token})
		pipe.Expire(ctx, accountSetKey(rec.Account), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Get(ctx context.Context, token string) (Record, error) {
	data, err := r.client.Get(ctx, sessionRecordKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		r.logger.Warn().Err(err).Str("key", sessionRecordKey(token)).Msg("corrupt session record")
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *RedisRegistry) Delete(ctx context.Context, token string) error {
	rec, err := r.Get(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionRecordKey(token))
	pipe.ZRem(ctx, accountSetKey(rec.Account), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Live(ctx context.Context, account string) (int, error) {
	key := accountSetKey(account)
	now := strconv.FormatInt(r.now().UnixMilli(), 10)
	if err := r.client.ZRemRangeByScore(ctx, key, "-inf", now).Err(); err != nil {
		return 0, fmt.Errorf("prune live sessions: %w", err)
	}
	n, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("count live sessions: %w", err)
	}
	return int(n), nil
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

// HealthCheck checks if Redis is available.
func (r *RedisRegistry) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
