// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package viewer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/playguard/internal/protection/api"
	"github.com/ManuGH/playguard/internal/protection/playback"
	"github.com/ManuGH/playguard/internal/protection/session"
)

const (
	heartbeatEvery = 10 * time.Millisecond
	rotateEvery    = 5 * time.Millisecond
)

type backend struct {
	blockAfter int32
	startErr   error
	// holdStart, when set, blocks Start for that content until released.
	holdStart  string
	entered    chan struct{}
	release    chan struct{}
	heartbeats atomic.Int32
	ends       atomic.Int32
}

func (b *backend) Start(_ context.Context, contentID string) (api.StartResult, error) {
	if b.holdStart != "" && contentID == b.holdStart {
		close(b.entered)
		<-b.release
	}
	if b.startErr != nil {
		return api.StartResult{}, b.startErr
	}
	return api.StartResult{Token: "tok-" + contentID, Verdict: api.Allow}, nil
}

func (b *backend) Heartbeat(context.Context, api.HeartbeatRequest) (api.Verdict, error) {
	n := b.heartbeats.Add(1)
	if b.blockAfter > 0 && n >= b.blockAfter {
		return api.Verdict{Action: api.ActionBlock, BlockedReason: "Multiple simultaneous viewers detected"}, nil
	}
	return api.Allow, nil
}

func (b *backend) ReportEvent(context.Context, api.EventRequest) (api.Verdict, error) {
	return api.Allow, nil
}

func (b *backend) End(context.Context, string) error {
	b.ends.Add(1)
	return nil
}

type resolver struct{}

func (resolver) Resolve(_ context.Context, token, _ string) playback.Resolution {
	return playback.Resolution{URL: "https://cdn.example/" + token, Scoped: true}
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newViewer(b *backend, opts ...Option) (*Viewer, *session.Manager) {
	m := session.NewManager(b, resolver{}, session.WithHeartbeatInterval(heartbeatEvery))
	opts = append([]Option{
		WithIdentity("viewer@example.com"),
		WithRotationInterval(rotateEvery),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	return New(m, opts...), m
}

var protectedLesson = Lesson{ContentID: "course-1", LessonID: "l-1", SourceURL: "https://origin.example/1.m3u8", Protected: true}

func TestViewer_ActiveFrameHasVideoAndWatermark(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	v, m := newViewer(&backend{})
	defer m.Close(context.Background())
	defer v.Close(context.Background())

	require.NoError(t, v.Open(context.Background(), protectedLesson))

	f := v.Frame()
	require.NotNil(t, f.Video)
	assert.Equal(t, "https://cdn.example/tok-course-1", f.Video.URL)
	assert.True(t, f.Video.Scoped)
	require.NotNil(t, f.Watermark)
	assert.Contains(t, f.Watermark.Text, "viewer@example.com")
	assert.Empty(t, f.BlockedMessage)

	require.Eventually(t, func() bool { return v.Tick() >= 2 }, time.Second, time.Millisecond)
}

func TestViewer_BlockRemovesVideoAndWatermarkInSameFrame(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var (
		mu     sync.Mutex
		frames []Frame
	)
	v, m := newViewer(&backend{blockAfter: 2}, WithRenderer(func(f Frame) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	}))
	defer m.Close(context.Background())
	defer v.Close(context.Background())

	require.NoError(t, v.Open(context.Background(), protectedLesson))
	require.Eventually(t, func() bool { return v.Frame().Blocked() }, time.Second, time.Millisecond)

	f := v.Frame()
	assert.Nil(t, f.Video)
	assert.Nil(t, f.Watermark)
	assert.Equal(t, "Multiple simultaneous viewers detected", f.BlockedMessage)

	// The rotator stops with the transition out of Active.
	require.Eventually(t, func() bool { return !v.rotator.Running() }, time.Second, time.Millisecond)
	tick := v.Tick()
	time.Sleep(10 * rotateEvery)
	assert.Equal(t, tick, v.Tick())

	mu.Lock()
	defer mu.Unlock()
	for _, fr := range frames {
		if fr.Blocked() {
			assert.Nil(t, fr.Video)
			assert.Nil(t, fr.Watermark)
		}
	}
}

func TestViewer_UnprotectedFallbackPlaysSource(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	v, m := newViewer(&backend{startErr: &api.Error{Sentinel: api.ErrUnavailable, Op: "start"}})
	defer m.Close(context.Background())
	defer v.Close(context.Background())

	require.NoError(t, v.Open(context.Background(), protectedLesson))

	f := v.Frame()
	require.NotNil(t, f.Video)
	assert.Equal(t, protectedLesson.SourceURL, f.Video.URL)
	assert.False(t, f.Video.Scoped)
	assert.Nil(t, f.Watermark)
	assert.Empty(t, f.BlockedMessage)
}

func TestViewer_UnprotectedLessonSkipsSession(t *testing.T) {
	b := &backend{}
	v, m := newViewer(b)
	defer m.Close(context.Background())

	require.NoError(t, v.Open(context.Background(), Lesson{ContentID: "free", SourceURL: "https://origin.example/free.mp4"}))
	f := v.Frame()
	require.NotNil(t, f.Video)
	assert.Equal(t, "https://origin.example/free.mp4", f.Video.URL)
	assert.Nil(t, m.Current())
	v.Close(context.Background())
}

func TestViewer_LessonChangeEndsPreviousSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := &backend{}
	v, m := newViewer(b)

	require.NoError(t, v.Open(context.Background(), protectedLesson))
	next := protectedLesson
	next.ContentID, next.LessonID = "course-2", "l-2"
	require.NoError(t, v.Open(context.Background(), next))

	f := v.Frame()
	require.NotNil(t, f.Video)
	assert.Equal(t, "https://cdn.example/tok-course-2", f.Video.URL)

	v.Close(context.Background())
	m.Close(context.Background())
	assert.Equal(t, int32(2), b.ends.Load())
	assert.Equal(t, Frame{}, v.Frame())
}

func TestViewer_TickIsMonotonicAcrossSessions(t *testing.T) {
	v, m := newViewer(&backend{})
	defer m.Close(context.Background())
	defer v.Close(context.Background())

	require.NoError(t, v.Open(context.Background(), protectedLesson))
	require.Eventually(t, func() bool { return v.Tick() >= 2 }, time.Second, time.Millisecond)
	before := v.Tick()

	next := protectedLesson
	next.ContentID = "course-2"
	require.NoError(t, v.Open(context.Background(), next))
	assert.GreaterOrEqual(t, v.Tick(), before)
}

func TestViewer_OverlappingOpensShowLatestLesson(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := &backend{holdStart: "course-slow", entered: make(chan struct{}), release: make(chan struct{})}
	v, m := newViewer(b)
	defer m.Close(context.Background())
	defer v.Close(context.Background())

	slow := Lesson{ContentID: "course-slow", LessonID: "l-a", SourceURL: "https://origin.example/a.m3u8", Protected: true}
	done := make(chan error, 1)
	go func() { done <- v.Open(context.Background(), slow) }()
	<-b.entered

	require.NoError(t, v.Open(context.Background(), protectedLesson))
	close(b.release)
	require.NoError(t, <-done)

	f := v.Frame()
	require.NotNil(t, f.Video)
	assert.Equal(t, "https://cdn.example/tok-course-1", f.Video.URL)
	require.NotNil(t, f.Watermark)

	cur := m.Current()
	require.NotNil(t, cur)
	assert.Equal(t, session.ContentID("course-1"), cur.Content().ID)
	assert.Equal(t, session.StateActive, cur.State())
}
