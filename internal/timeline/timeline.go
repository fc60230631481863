package timeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	// ErrInvalidTimeline is returned when chord events are unsorted, share a
	// start time, or carry a negative start.
	ErrInvalidTimeline = errors.New("invalid chord timeline")
	// ErrIndexOutOfRange is returned by At for indexes outside [0, Len).
	ErrIndexOutOfRange = errors.New("chord index out of range")
)

// Label identifies a chord by its root note and quality.
type Label struct {
	Tonic string
	Kind  string
}

var kindSuffix = map[string]string{
	"major":     "",
	"minor":     "m",
	"7th":       "7",
	"minor 7th": "m7",
	"sus2":      "sus2",
	"sus4":      "sus4",
	"power":     "5",
}

// Symbol returns the lead-sheet spelling of the chord, e.g. "Am" or "G7".
func (l Label) Symbol() string {
	if suffix, ok := kindSuffix[l.Kind]; ok {
		return l.Tonic + suffix
	}
	if l.Kind == "" {
		return l.Tonic
	}
	return l.Tonic + " " + l.Kind
}

// Slug returns a filesystem-safe name such as "F^-minor" ('#' is not safe in URLs).
func (l Label) Slug() string {
	return strings.ReplaceAll(l.Tonic, "#", "^") + "-" + l.Kind
}

func (l Label) String() string { return l.Symbol() }

// Event is a single chord starting at Start seconds into the track.
type Event struct {
	Start float64
	Label Label
}

// Timeline is an immutable, strictly ascending sequence of chord events.
type Timeline struct {
	events []Event
}

// Load validates events and builds a Timeline. Input is never reordered:
// anything not strictly ascending by start time is rejected.
func Load(events []Event) (*Timeline, error) {
	for i, e := range events {
		if math.IsNaN(e.Start) || math.IsInf(e.Start, 0) || e.Start < 0 {
			return nil, fmt.Errorf("%w: event %d has start %v", ErrInvalidTimeline, i, e.Start)
		}
		if i == 0 {
			continue
		}
		prev := events[i-1].Start
		switch {
		case e.Start == prev:
			return nil, fmt.Errorf("%w: events %d and %d both start at %.3fs", ErrInvalidTimeline, i-1, i, e.Start)
		case e.Start < prev:
			return nil, fmt.Errorf("%w: event %d starts at %.3fs before event %d at %.3fs", ErrInvalidTimeline, i, e.Start, i-1, prev)
		}
	}
	owned := make([]Event, len(events))
	copy(owned, events)
	return &Timeline{events: owned}, nil
}

// Empty returns a timeline with no chords.
func Empty() *Timeline {
	return &Timeline{}
}

// Len returns the number of chord events.
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.events)
}

// At returns the event at index i.
func (t *Timeline) At(i int) (Event, error) {
	if i < 0 || i >= t.Len() {
		return Event{}, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, t.Len())
	}
	return t.events[i], nil
}

// Events returns a copy of all events.
func (t *Timeline) Events() []Event {
	out := make([]Event, t.Len())
	if t != nil {
		copy(out, t.events)
	}
	return out
}

// Search returns the greatest index whose start is <= seconds, or -1 when
// seconds falls before the first chord.
func (t *Timeline) Search(seconds float64) int {
	n := t.Len()
	i := sort.Search(n, func(i int) bool { return t.events[i].Start > seconds })
	return i - 1
}
