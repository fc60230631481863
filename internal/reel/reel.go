// Package reel computes the scroll instructions for the chord reel.
//
// The reel is never driven frame by frame. Each instruction names a target
// offset and how long a single linear transition toward it should take; the
// rendering layer interpolates between instructions (see Motion).
package reel

import "time"

// Target is the animation instruction currently in effect.
type Target struct {
	Offset     float64       // pixels; negative values scroll the reel left
	Transition time.Duration // zero means jump without animating
}

// Animator translates playback intents into reel targets.
type Animator struct {
	PixelsPerSecond float64
	InitialOffset   float64
}

// TrackLength is the reel length in pixels for a track of total seconds.
func (a Animator) TrackLength(total float64) float64 {
	return total * a.PixelsPerSecond
}

// Start scrolls the reel fully left over the remaining playback time.
// Once current reaches total the transition is zero and nothing moves.
func (a Animator) Start(current, total float64) Target {
	return Target{
		Offset:     -a.TrackLength(total),
		Transition: remaining(current, total),
	}
}

// Pause freezes the reel where it is currently drawn.
func (a Animator) Pause(currentOffset float64) Target {
	return Target{Offset: currentOffset}
}

// Reposition jumps the reel to the offset for current seconds without
// animating. When playback continues it must be followed, as a separate
// instruction, by ResumeAfterReposition.
func (a Animator) Reposition(current float64) Target {
	return Target{Offset: a.InitialOffset - current*a.PixelsPerSecond}
}

// ResumeAfterReposition re-arms the long transition toward the end of the reel.
func (a Animator) ResumeAfterReposition(current, total float64) Target {
	return a.Start(current, total)
}

// Reset returns the reel to its initial offset.
func (a Animator) Reset() Target {
	return Target{Offset: a.InitialOffset}
}

func remaining(current, total float64) time.Duration {
	if current >= total {
		return 0
	}
	return time.Duration((total - current) * float64(time.Second))
}
