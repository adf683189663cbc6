// Package timectrl drives the clock that the rolling pass tracker follows.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock is the read side of a TimeController, so consumers can be tested
// against a fixed time.
type Clock interface {
	Now() time.Time
}

// Mode describes how the TimeController advances time.
type Mode int

const (
	// RealTime advances by Tick once per wall-clock Tick.
	RealTime Mode = iota
	// Accelerated advances by Tick every Tick/Speed of wall-clock time.
	Accelerated
)

// minWallTick bounds how fast an accelerated controller spins.
const minWallTick = time.Millisecond

// TimeController drives time forward and notifies registered listeners.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode
	// Speed is the acceleration factor used in Accelerated mode.
	Speed float64

	currentTime time.Time
	listeners   []func(time.Time)
}

// NewTimeController constructs a controller positioned at start.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		Speed:       1,
		currentTime: start,
	}
}

// Now returns the controller's current time. Implements Clock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime jumps to t and notifies listeners.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	tc.currentTime = t
	listeners := append([]func(time.Time){}, tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(t)
	}
}

// Advance moves time forward by d and notifies listeners.
func (tc *TimeController) Advance(d time.Duration) time.Time {
	t := tc.Now().Add(d)
	tc.SetTime(t)
	return t
}

// AddListener registers a callback invoked on every tick.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

func (tc *TimeController) wallTick() time.Duration {
	if tc.Mode != Accelerated || tc.Speed <= 0 {
		return tc.Tick
	}
	d := time.Duration(float64(tc.Tick) / tc.Speed)
	if d < minWallTick {
		d = minWallTick
	}
	return d
}

// Start runs the controller from StartTime for the given duration of
// controller time (zero runs until ctx is cancelled). It returns a channel
// that is closed when the controller stops.
func (tc *TimeController) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.mu.Lock()
		now := tc.StartTime
		tc.currentTime = now
		tc.mu.Unlock()

		ticker := time.NewTicker(tc.wallTick())
		defer ticker.Stop()

		var elapsed time.Duration
		for duration <= 0 || elapsed < duration {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			now = now.Add(tc.Tick)
			elapsed += tc.Tick
			tc.SetTime(now)
		}
	}()
	return done
}
