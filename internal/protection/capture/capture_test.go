// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct{}

func (fakeStream) Close() error { return nil }

func withProvider(t *testing.T, fn Func) {
	t.Helper()
	SetProvider(fn)
	t.Cleanup(func() { SetProvider(nil) })
}

func TestRequestDisplayMedia_Unsupported(t *testing.T) {
	_, err := RequestDisplayMedia(context.Background(), Options{Video: true})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestInstall_NotifiesAndForwards(t *testing.T) {
	forwarded := 0
	withProvider(t, func(context.Context, Options) (Stream, error) {
		forwarded++
		return fakeStream{}, nil
	})

	var seen []Options
	i, err := Install(func(o Options) { seen = append(seen, o) })
	require.NoError(t, err)
	defer i.Restore()

	s, err := RequestDisplayMedia(context.Background(), Options{Video: true})
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.Equal(t, 1, forwarded)
	assert.Equal(t, []Options{{Video: true}}, seen)
}

func TestInstall_SingleOwner(t *testing.T) {
	first, err := Install(nil)
	require.NoError(t, err)
	defer first.Restore()

	_, err = Install(nil)
	assert.ErrorIs(t, err, ErrAlreadyInstalled)
}

func TestRestore_IdempotentAndExact(t *testing.T) {
	calls := 0
	withProvider(t, func(context.Context, Options) (Stream, error) {
		calls++
		return fakeStream{}, nil
	})

	notified := 0
	i, err := Install(func(Options) { notified++ })
	require.NoError(t, err)

	i.Restore()
	i.Restore()
	assert.False(t, Installed())

	_, _ = RequestDisplayMedia(context.Background(), Options{})
	assert.Equal(t, 1, calls, "original provider restored")
	assert.Equal(t, 0, notified, "restored interceptor no longer notified")

	// a second owner may install once the first restored
	j, err := Install(nil)
	require.NoError(t, err)
	j.Restore()

	// restoring a stale interceptor must not clobber a newer owner
	k, err := Install(nil)
	require.NoError(t, err)
	i.Restore()
	assert.True(t, Installed())
	k.Restore()
}

func TestSetProvider_WhileInstalledIsRestoredLater(t *testing.T) {
	i, err := Install(nil)
	require.NoError(t, err)

	hostCalls := 0
	SetProvider(func(context.Context, Options) (Stream, error) {
		hostCalls++
		return fakeStream{}, nil
	})
	t.Cleanup(func() { SetProvider(nil) })

	_, _ = RequestDisplayMedia(context.Background(), Options{})
	assert.Equal(t, 1, hostCalls)

	i.Restore()
	_, _ = RequestDisplayMedia(context.Background(), Options{})
	assert.Equal(t, 2, hostCalls)
}
