package cursor

import (
	"fmt"

	"github.com/olivier-w/enchordify/internal/timeline"
)

// None is the index reported before any chord has become active.
const None = -1

// State identifies the chord considered currently active.
type State struct {
	Index int
	Start float64
}

// Active reports whether a chord is active.
func (s State) Active() bool { return s.Index != None }

// EventKind describes how the cursor moved.
type EventKind uint8

const (
	Activated EventKind = iota // single forward step during playback
	Resynced                   // absolute reposition after a seek
	Reset                      // back to "none active"
)

func (k EventKind) String() string {
	switch k {
	case Activated:
		return "activated"
	case Resynced:
		return "resynced"
	case Reset:
		return "reset"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is emitted whenever the active chord changes.
type Event struct {
	Kind     EventKind
	State    State
	Previous int
}

// Cursor tracks which chord in a timeline is active.
type Cursor struct {
	timeline *timeline.Timeline
	state    State
}

// New returns a cursor positioned before the first chord.
func New(tl *timeline.Timeline) *Cursor {
	return &Cursor{timeline: tl, state: State{Index: None}}
}

// State returns the current cursor state.
func (c *Cursor) State() State { return c.state }

// AdvanceIfDue moves forward by exactly one chord when now has passed the
// start of the chord after the active one. Several elapsed chords are caught
// up one per call.
func (c *Cursor) AdvanceIfDue(now float64) (Event, bool) {
	next := c.state.Index + 1
	if next >= c.timeline.Len() {
		return Event{}, false
	}
	e := c.event(next)
	if now <= e.Start {
		return Event{}, false
	}
	prev := c.state.Index
	c.state = State{Index: next, Start: e.Start}
	return Event{Kind: Activated, State: c.state, Previous: prev}, true
}

// ResyncTo positions the cursor on the last chord starting at or before now,
// or on None when now precedes every chord.
func (c *Cursor) ResyncTo(now float64) State {
	i := c.timeline.Search(now)
	if i == None {
		c.state = State{Index: None}
		return c.state
	}
	c.state = State{Index: i, Start: c.event(i).Start}
	return c.state
}

// Reset returns the cursor to None.
func (c *Cursor) Reset() State {
	c.state = State{Index: None}
	return c.state
}

func (c *Cursor) event(i int) timeline.Event {
	e, err := c.timeline.At(i)
	if err != nil {
		panic(fmt.Sprintf("cursor: %v", err))
	}
	return e
}
