// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package devserver

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMiniRedis creates a registry backed by an in-process Redis.
func setupMiniRedis(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisRegistry, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	reg := newRedisRegistry(client, ttl, zerolog.Nop())
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }
	t.Cleanup(func() { _ = reg.Close() })
	return mr, reg, &now
}

func TestRegistries(t *testing.T) {
	const ttl = 30 * time.Second

	type harness struct {
		reg     Registry
		advance func(time.Duration)
	}
	builds := map[string]func(t *testing.T) harness{
		"memory": func(t *testing.T) harness {
			now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
			m := NewMemoryRegistry(ttl)
			m.now = func() time.Time { return now }
			return harness{reg: m, advance: func(d time.Duration) { now = now.Add(d) }}
		},
		"redis": func(t *testing.T) harness {
			mr, reg, now := setupMiniRedis(t, ttl)
			return harness{reg: reg, advance: func(d time.Duration) {
				*now = now.Add(d)
				mr.FastForward(d)
			}}
		},
	}

	for name, build := range builds {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("put get delete", func(t *testing.T) {
				h := build(t)
				rec := Record{Token: "t1", ContentID: "c1", Account: "alice"}
				require.NoError(t, h.reg.Put(ctx, rec))

				got, err := h.reg.Get(ctx, "t1")
				require.NoError(t, err)
				assert.Equal(t, "c1", got.ContentID)

				require.NoError(t, h.reg.Delete(ctx, "t1"))
				_, err = h.reg.Get(ctx, "t1")
				assert.ErrorIs(t, err, ErrNotFound)
				require.NoError(t, h.reg.Delete(ctx, "t1"), "delete is idempotent")
			})

			t.Run("live excludes blocked and other accounts", func(t *testing.T) {
				h := build(t)
				require.NoError(t, h.reg.Put(ctx, Record{Token: "a1", Account: "alice"}))
				require.NoError(t, h.reg.Put(ctx, Record{Token: "a2", Account: "alice"}))
				require.NoError(t, h.reg.Put(ctx, Record{Token: "b1", Account: "bob"}))
				require.NoError(t, h.reg.Put(ctx, Record{Token: "a2", Account: "alice", Blocked: true}))

				n, err := h.reg.Live(ctx, "alice")
				require.NoError(t, err)
				assert.Equal(t, 1, n)
			})

			t.Run("sessions expire without heartbeats", func(t *testing.T) {
				h := build(t)
				require.NoError(t, h.reg.Put(ctx, Record{Token: "a1", Account: "alice"}))
				h.advance(ttl / 2)
				require.NoError(t, h.reg.Put(ctx, Record{Token: "a2", Account: "alice"}))
				h.advance(ttl/2 + time.Second)

				_, err := h.reg.Get(ctx, "a1")
				assert.ErrorIs(t, err, ErrNotFound)
				n, err := h.reg.Live(ctx, "alice")
				require.NoError(t, err)
				assert.Equal(t, 1, n)
			})
		})
	}
}

func TestRules(t *testing.T) {
	r := NewRules([]string{"display_capture_detected", "not_an_event"}, 0)
	assert.Equal(t, 1, r.MaxViewers)
	assert.Len(t, r.BlockEvents, 1)

	assert.True(t, r.Event("display_capture_detected").IsBlock())
	assert.False(t, r.Event("tab_hidden").IsBlock())
	assert.Equal(t, ReasonMultipleViewers, r.Viewers(2).BlockedReason)
	assert.False(t, r.Viewers(1).IsBlock())
}
