// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	url      string
	err      error
	token    string
	deviceID string
}

func (f *fakeSource) PlaybackURL(_ context.Context, token, deviceID string) (string, error) {
	f.token, f.deviceID = token, deviceID
	return f.url, f.err
}

type fakeDevices struct {
	id  string
	err error
}

func (f fakeDevices) Get(context.Context) (string, error) { return f.id, f.err }

const source = "https://media.example.test/raw/lesson-1.mp4"

func TestResolve_Scoped(t *testing.T) {
	src := &fakeSource{url: "https://cdn.example.test/p/abc?device=dev-1"}
	r := NewResolver(src, fakeDevices{id: "dev-1"})

	got := r.Resolve(context.Background(), "tok-1", source)
	assert.Equal(t, Resolution{URL: "https://cdn.example.test/p/abc?device=dev-1", Scoped: true}, got)
	assert.Equal(t, "tok-1", src.token)
	assert.Equal(t, "dev-1", src.deviceID)
}

func TestResolve_FallsBackOnEveryFailure(t *testing.T) {
	cases := []struct {
		name    string
		src     URLSource
		devices DeviceIDs
		token   string
	}{
		{"backend error", &fakeSource{err: errors.New("502")}, fakeDevices{id: "d"}, "tok"},
		{"empty url", &fakeSource{}, fakeDevices{id: "d"}, "tok"},
		{"device store error", &fakeSource{url: "https://cdn.example.test/x"}, fakeDevices{err: errors.New("disk")}, "tok"},
		{"no token", &fakeSource{url: "https://cdn.example.test/x"}, fakeDevices{id: "d"}, ""},
		{"no source", nil, fakeDevices{id: "d"}, "tok"},
		{"non-http url", &fakeSource{url: "file:///tmp/lesson.mp4"}, fakeDevices{id: "d"}, "tok"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver(tc.src, tc.devices)
			assert.Equal(t, Fallback(source), r.Resolve(context.Background(), tc.token, source))
		})
	}
}
