// Package timectrl paces frame emission so a sweep can be played back at a
// fixed frame interval instead of as fast as it is computed.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts wall-clock time so pacing can be driven from tests.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// After returns a channel that receives the time once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time                         { return time.Now() }
func (wallClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// WallClock returns the process clock.
func WallClock() Clock { return wallClock{} }

// Mode describes how the Pacer releases frames.
type Mode int

const (
	// RealTime releases one frame per Interval of wall-clock time.
	RealTime Mode = iota
	// Accelerated releases frames as soon as they are ready.
	Accelerated
)

// Pacer releases frames at a fixed interval and notifies registered
// listeners of every released frame. Deadlines are computed from the first
// frame, so slow consumers do not accumulate drift.
type Pacer struct {
	mu       sync.Mutex
	Interval time.Duration
	Mode     Mode

	clock     Clock
	next      time.Time
	released  int
	listeners []func(frame int, at time.Time)
}

// NewPacer constructs a pacer. A nil clock uses WallClock. A non-positive
// interval always behaves as Accelerated.
func NewPacer(interval time.Duration, mode Mode, clock Clock) *Pacer {
	if clock == nil {
		clock = WallClock()
	}
	if interval <= 0 {
		mode = Accelerated
	}
	return &Pacer{
		Interval: interval,
		Mode:     mode,
		clock:    clock,
	}
}

// AddListener registers a callback invoked after each released frame.
func (p *Pacer) AddListener(fn func(frame int, at time.Time)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Released reports how many frames have been released.
func (p *Pacer) Released() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// Wait blocks until the next frame may be released or ctx is done. The first
// frame is released immediately.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	now := p.clock.Now()
	if p.released == 0 || p.Mode == Accelerated {
		p.next = now
	}
	wait := p.next.Sub(now)
	p.mu.Unlock()

	if wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.clock.After(wait):
		}
	}

	p.mu.Lock()
	frame := p.released
	p.released++
	at := p.clock.Now()
	p.next = p.next.Add(p.Interval)
	listeners := append([]func(int, time.Time){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(frame, at)
	}
	return nil
}

// Paced wraps fn so every call first waits on p.
func Paced[T any](ctx context.Context, p *Pacer, fn func(T) error) func(T) error {
	if p == nil {
		return fn
	}
	return func(v T) error {
		if err := p.Wait(ctx); err != nil {
			return err
		}
		return fn(v)
	}
}
