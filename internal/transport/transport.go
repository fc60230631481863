// Package transport keeps the chord reel, the chord cursor and the audio
// clock consistent across play, pause, skip and end-of-track.
//
// Everything here runs on a single event loop. Timers are delivered through
// a Scheduler on that same loop, so no locking is needed, but every action
// cancels the timers it supersedes before touching the reel or the cursor.
package transport

import (
	"time"

	"github.com/olivier-w/enchordify/internal/cursor"
	"github.com/olivier-w/enchordify/internal/reel"
)

// Clock is the audio player the transport drives. Positions are seconds.
type Clock interface {
	Duration() float64
	CurrentTime() float64
	Playing() bool
	PlayPause()
	Pause()
	SeekTo(fraction float64)
	SkipForward()
	SkipBackward()
}

// Timer is a handle to scheduled work.
type Timer interface {
	Stop()
}

// Scheduler runs callbacks on the controller's event loop.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Observer receives the instructions meant for the rendering layer.
type Observer interface {
	ReelChanged(target reel.Target)
	CursorChanged(ev cursor.Event)
}

// Config holds the transport's tunables.
type Config struct {
	PixelsPerSecond float64
	InitialOffset   float64
	Skip            time.Duration
	PollInterval    time.Duration
	SettleDelay     time.Duration
	// ResumeGap separates a reposition jump from the resumed transition.
	// It only has to be long enough for the renderer to observe the jump.
	ResumeGap time.Duration
}

// DefaultConfig mirrors the browser reel: 250px per second, a 50px lead-in,
// 2s skips, 100ms polling and a 1s settle after the track ends.
func DefaultConfig() Config {
	return Config{
		PixelsPerSecond: 250,
		InitialOffset:   50,
		Skip:            2 * time.Second,
		PollInterval:    100 * time.Millisecond,
		SettleDelay:     time.Second,
		ResumeGap:       time.Millisecond,
	}
}

type nopObserver struct{}

func (nopObserver) ReelChanged(reel.Target)    {}
func (nopObserver) CursorChanged(cursor.Event) {}
