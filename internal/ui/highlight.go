package ui

import (
	"time"

	"github.com/charmbracelet/harmonica"

	"github.com/olivier-w/enchordify/internal/cursor"
	"github.com/olivier-w/enchordify/internal/reel"
)

const (
	glowHold = 100 * time.Millisecond
	glowFPS  = 30
)

// highlight follows the transport's cursor instructions and keeps a glow
// level for the active chord that springs back to zero after each change.
type highlight struct {
	active   int
	glow     float64
	velocity float64
	since    time.Time
	spring   harmonica.Spring
	now      func() time.Time
}

func newHighlight(now func() time.Time) *highlight {
	return &highlight{
		active: cursor.None,
		spring: harmonica.NewSpring(harmonica.FPS(glowFPS), 8.0, 1.0),
		now:    now,
	}
}

func (h *highlight) ReelChanged(reel.Target) {}

func (h *highlight) CursorChanged(ev cursor.Event) {
	if ev.State.Index == h.active {
		return
	}
	h.active = ev.State.Index
	h.velocity = 0
	h.glow = 0
	if ev.State.Active() {
		h.glow = 1
		h.since = h.now()
	}
}

// Step advances the glow by one frame.
func (h *highlight) Step(now time.Time) {
	if h.glow == 0 || now.Sub(h.since) < glowHold {
		return
	}
	h.glow, h.velocity = h.spring.Update(h.glow, h.velocity, 0)
	if h.glow < 0.01 {
		h.glow, h.velocity = 0, 0
	}
}
