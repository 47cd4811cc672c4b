// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package capture owns the process-wide display-capture entry point.
//
// The host installs the real implementation with SetProvider and every
// capture request goes through RequestDisplayMedia. A single Interceptor may
// patch the entry point at a time; Restore puts back exactly the provider it
// replaced.
package capture

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrUnsupported      = errors.New("capture: display capture not supported by host")
	ErrAlreadyInstalled = errors.New("capture: interceptor already installed")
)

// Options mirrors the constraints a caller passes to a capture request.
type Options struct {
	Video bool
	Audio bool
}

// Stream is a host capture stream handle.
type Stream interface {
	Close() error
}

// Func starts a display capture.
type Func func(ctx context.Context, opts Options) (Stream, error)

func unsupported(context.Context, Options) (Stream, error) { return nil, ErrUnsupported }

var (
	mu       sync.Mutex
	provider Func = unsupported
	owner    *Interceptor
)

// SetProvider installs the host's capture implementation. While an
// interceptor is installed the new provider is recorded as the one to
// restore and is still reached through the patch.
func SetProvider(fn Func) {
	if fn == nil {
		fn = unsupported
	}
	mu.Lock()
	defer mu.Unlock()
	if owner != nil {
		owner.original = fn
		return
	}
	provider = fn
}

// RequestDisplayMedia is the entry point hosts route capture requests through.
func RequestDisplayMedia(ctx context.Context, opts Options) (Stream, error) {
	mu.Lock()
	fn := provider
	mu.Unlock()
	return fn(ctx, opts)
}

// Installed reports whether an interceptor currently patches the entry point.
func Installed() bool {
	mu.Lock()
	defer mu.Unlock()
	return owner != nil
}

// Interceptor notifies its owner whenever display capture is requested.
type Interceptor struct {
	onCapture func(Options)
	original  Func
	restored  bool
}

// Install patches the entry point. onCapture runs before the request is
// forwarded to the original provider.
func Install(onCapture func(Options)) (*Interceptor, error) {
	mu.Lock()
	defer mu.Unlock()
	if owner != nil {
		return nil, ErrAlreadyInstalled
	}
	i := &Interceptor{onCapture: onCapture, original: provider}
	owner = i
	provider = i.intercept
	return i, nil
}

func (i *Interceptor) intercept(ctx context.Context, opts Options) (Stream, error) {
	mu.Lock()
	next := i.original
	active := owner == i
	mu.Unlock()
	if active && i.onCapture != nil {
		i.onCapture(opts)
	}
	return next(ctx, opts)
}

// Restore unpatches the entry point. Safe to call more than once.
func (i *Interceptor) Restore() {
	if i == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if i.restored {
		return
	}
	i.restored = true
	if owner == i {
		provider = i.original
		owner = nil
	}
}
