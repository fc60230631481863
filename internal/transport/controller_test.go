package transport

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/olivier-w/enchordify/internal/cursor"
	"github.com/olivier-w/enchordify/internal/reel"
	"github.com/olivier-w/enchordify/internal/timeline"
)

type fakeClock struct {
	pos, dur float64
	skip     float64
	playing  bool
	finished bool
	ops      *[]string
}

func (c *fakeClock) record(op string) {
	if c.ops != nil {
		*c.ops = append(*c.ops, op)
	}
}

func (c *fakeClock) Duration() float64    { return c.dur }
func (c *fakeClock) CurrentTime() float64 { return c.pos }
func (c *fakeClock) Playing() bool        { return c.playing }
func (c *fakeClock) PlayPause()           { c.playing = !c.playing; c.record("clock") }
func (c *fakeClock) Pause()               { c.playing = false; c.record("clock") }
func (c *fakeClock) SeekTo(f float64)     { c.pos = f * c.dur; c.record("clock") }
func (c *fakeClock) SkipForward()         { c.pos = math.Min(c.dur, c.pos+c.skip); c.record("clock") }
func (c *fakeClock) SkipBackward()        { c.pos = math.Max(0, c.pos-c.skip); c.record("clock") }

func (c *fakeClock) advance(d time.Duration) {
	if !c.playing {
		return
	}
	// round to microseconds so repeated 10ms steps land exactly on the end
	c.pos = math.Round((c.pos+d.Seconds())*1e6) / 1e6
	if c.pos >= c.dur {
		c.pos = c.dur
		c.playing = false
		c.finished = true
	}
}

type fakeTimer struct {
	due     time.Time
	every   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() { t.stopped = true }

type fakeScheduler struct {
	now    time.Time
	timers []*fakeTimer
	moved  func(time.Duration)
}

func (s *fakeScheduler) Now() time.Time { return s.now }

func (s *fakeScheduler) After(d time.Duration, fn func()) Timer {
	t := &fakeTimer{due: s.now.Add(d), fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Every(d time.Duration, fn func()) Timer {
	t := &fakeTimer{due: s.now.Add(d), every: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) activePolls() int {
	n := 0
	for _, t := range s.timers {
		if t.every > 0 && !t.stopped {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) advance(d time.Duration) {
	end := s.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range s.timers {
			if t.stopped || t.due.After(end) {
				continue
			}
			if next == nil || t.due.Before(next.due) {
				next = t
			}
		}
		if next == nil {
			break
		}
		s.step(next.due.Sub(s.now))
		if next.every > 0 {
			next.due = next.due.Add(next.every)
		} else {
			next.stopped = true
		}
		next.fn()
	}
	s.step(end.Sub(s.now))
}

func (s *fakeScheduler) step(d time.Duration) {
	if s.moved != nil {
		s.moved(d)
	}
	s.now = s.now.Add(d)
}

type recorder struct {
	reel   []reel.Target
	cursor []cursor.Event
	ops    *[]string
}

func (r *recorder) ReelChanged(t reel.Target) {
	r.reel = append(r.reel, t)
	*r.ops = append(*r.ops, "reel")
}

func (r *recorder) CursorChanged(ev cursor.Event) {
	r.cursor = append(r.cursor, ev)
	*r.ops = append(*r.ops, "cursor")
}

type harness struct {
	t     *testing.T
	clock *fakeClock
	sched *fakeScheduler
	ctrl  *Controller
	rec   *recorder
	ops   []string
}

func scenarioTimeline(t *testing.T) *timeline.Timeline {
	t.Helper()
	tl, err := timeline.Load([]timeline.Event{
		{Start: 0.0, Label: timeline.Label{Tonic: "C", Kind: "major"}},
		{Start: 2.5, Label: timeline.Label{Tonic: "G", Kind: "major"}},
		{Start: 5.0, Label: timeline.Label{Tonic: "A", Kind: "minor"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return tl
}

func newHarness(t *testing.T, tl *timeline.Timeline) *harness {
	h := &harness{t: t}
	h.clock = &fakeClock{dur: 7, skip: 2, ops: &h.ops}
	h.sched = &fakeScheduler{now: time.Unix(1000, 0)}
	h.sched.moved = h.clock.advance
	h.rec = &recorder{ops: &h.ops}
	h.ctrl = New(h.clock, h.sched, tl, DefaultConfig(), WithObserver(h.rec))
	h.ctrl.Ready()
	return h
}

// run advances time in small steps, delivering the clock's finish
// notification the way the player's done channel would.
func (h *harness) run(d time.Duration) {
	const step = 10 * time.Millisecond
	for d > 0 {
		s := step
		if d < s {
			s = d
		}
		h.sched.advance(s)
		d -= s
		if h.clock.finished {
			h.clock.finished = false
			h.ctrl.Finish()
		}
	}
}

func (h *harness) cursorIndex() int { return h.ctrl.Cursor().Index }

func TestSkipForwardWhilePlayingResyncsCursor(t *testing.T) {
	h := newHarness(t, scenarioTimeline(t))

	h.ctrl.Play()
	if got := h.ctrl.ReelTarget(); got.Offset != -1750 || got.Transition != 7*time.Second {
		t.Fatalf("unexpected start target %+v", got)
	}
	h.run(2600 * time.Millisecond)
	if got := h.cursorIndex(); got != 1 {
		t.Fatalf("expected G active at 2.6s, got %d", got)
	}

	h.ctrl.SkipForward()
	if math.Abs(h.clock.pos-4.6) > 0.02 {
		t.Fatalf("expected clock near 4.6s, got %v", h.clock.pos)
	}
	if got := h.cursorIndex(); got != 1 {
		t.Fatalf("expected resync to index 1 at 4.6s, got %d", got)
	}
	if got := h.ctrl.ReelTarget(); got.Transition != 0 {
		t.Fatalf("expected instantaneous reposition, got %+v", got)
	}
	if got := h.ctrl.ReelOffset(); math.Abs(got-(50-h.clock.pos*250)) > 1e-6 {
		t.Fatalf("expected reel to have jumped to %v, got %v", 50-h.clock.pos*250, got)
	}

	h.run(time.Millisecond)
	if got := h.ctrl.ReelTarget(); got.Offset != -1750 || got.Transition <= 0 {
		t.Fatalf("expected resumed transition after the gap, got %+v", got)
	}

	h.ctrl.SkipForward()
	if got := h.cursorIndex(); got != 2 {
		t.Fatalf("expected Am active after second skip, got %d", got)
	}
	if got := h.sched.activePolls(); got != 1 {
		t.Fatalf("expected exactly one poll timer, got %d", got)
	}
}

func TestSkipBackNearStartSeeksToZero(t *testing.T) {
	h := newHarness(t, scenarioTimeline(t))

	h.ctrl.Play()
	h.run(time.Second)
	h.ctrl.SkipBack()

	if h.clock.pos != 0 {
		t.Fatalf("expected seek to 0, got %v", h.clock.pos)
	}
	if got := h.cursorIndex(); got != 0 {
		t.Fatalf("expected resync to index 0, got %d", got)
	}
	if !h.clock.playing {
		t.Fatal("expected playback to continue after skip back")
	}
}

func TestNaturalEndResetsAfterSettle(t *testing.T) {
	h := newHarness(t, scenarioTimeline(t))

	h.ctrl.Play()
	h.run(7 * time.Second)
	if !h.ctrl.Settling() {
		t.Fatal("expected settle reset to be pending after the end")
	}
	if got := h.sched.activePolls(); got != 0 {
		t.Fatalf("expected polling to stop at the end, got %d timers", got)
	}
	if got := h.cursorIndex(); got != 2 {
		t.Fatalf("expected last chord active at the end, got %d", got)
	}

	h.run(900 * time.Millisecond)
	if got := h.cursorIndex(); got != 2 {
		t.Fatalf("expected cursor untouched before settle delay, got %d", got)
	}

	h.run(200 * time.Millisecond)
	if got := h.ctrl.Cursor(); got.Active() {
		t.Fatalf("expected cursor reset after settle, got %+v", got)
	}
	if got := h.ctrl.ReelTarget(); got != (reel.Target{Offset: 50}) {
		t.Fatalf("expected reel reset to initial offset, got %+v", got)
	}
	if h.clock.pos != 0 || h.clock.playing {
		t.Fatalf("expected clock rewound and paused, got pos=%v playing=%v", h.clock.pos, h.clock.playing)
	}
	if h.sched.pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", h.sched.pending())
	}
}

func TestPauseFreezesReelAndStopsPolling(t *testing.T) {
	h := newHarness(t, scenarioTimeline(t))

	h.ctrl.Play()
	h.run(2 * time.Second)
	h.ctrl.Pause()

	want := 50 + (-1750-50)*(2.0/7.0)
	got := h.ctrl.ReelTarget()
	if math.Abs(got.Offset-want) > 1e-6 || got.Transition != 0 {
		t.Fatalf("expected frozen target at %v, got %+v", want, got)
	}
	if h.sched.activePolls() != 0 {
		t.Fatal("expected poll timer cancelled on pause")
	}

	before := h.cursorIndex()
	h.clock.pos = 6 // a stale tick would now advance the cursor
	h.run(time.Second)
	if h.cursorIndex() != before {
		t.Fatal("expected no cursor movement while paused")
	}
}

func TestPauseCancelsPendingResume(t *testing.T) {
	h := newHarness(t, scenarioTimeline(t))

	h.ctrl.Play()
	h.run(500 * time.Millisecond)
	h.ctrl.SkipForward()
	h.ctrl.Pause()
	h.run(50 * time.Millisecond)

	if got := h.ctrl.ReelTarget(); got.Transition != 0 {
		t.Fatalf("expected stale resume to be cancelled, got %+v", got)
	}
	if h.sched.pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", h.sched.pending())
	}
}

func TestSkipForwardPastEndClampsAndPauses(t *testing.T) {
	h := newHarness(t, scenarioTimeline(t))

	h.ctrl.Play()
	h.run(6 * time.Second)
	h.ctrl.SkipForward()

	if h.clock.pos != 7 || h.clock.playing {
		t.Fatalf("expected clamped pause at the end, got pos=%v playing=%v", h.clock.pos, h.clock.playing)
	}
	if h.sched.pending() != 0 {
		t.Fatalf("expected no timers after clamped skip, got %d", h.sched.pending())
	}
	if got := h.cursorIndex(); got != 2 {
		t.Fatalf("expected last chord active, got %d", got)
	}
}

func TestPlayDuringSettleAppliesResetFirst(t *testing.T) {
	h := newHarness(t, scenarioTimeline(t))

	h.ctrl.Play()
	h.run(7 * time.Second)
	h.ctrl.Play()

	if h.ctrl.Settling() {
		t.Fatal("expected pending settle to be flushed")
	}
	if !h.clock.playing || h.clock.pos != 0 {
		t.Fatalf("expected playback from the start, got pos=%v playing=%v", h.clock.pos, h.clock.playing)
	}
	if got := h.ctrl.ReelTarget(); got.Transition != 7*time.Second {
		t.Fatalf("expected full-length transition, got %+v", got)
	}
	h.run(2 * time.Second)
	if got := h.cursorIndex(); got != 0 {
		t.Fatalf("expected fresh cursor progress, got %d", got)
	}
}

func TestSeekOrderingClockReelCursorTimer(t *testing.T) {
	h := newHarness(t, scenarioTimeline(t))
	h.ctrl.Play()
	h.run(3 * time.Second)

	h.ops = nil
	h.ctrl.SkipBack()
	want := []string{"clock", "reel", "cursor"}
	if len(h.ops) != len(want) {
		t.Fatalf("unexpected operation order %v", h.ops)
	}
	for i := range want {
		if h.ops[i] != want[i] {
			t.Fatalf("unexpected operation order %v", h.ops)
		}
	}

	last := h.rec.cursor[len(h.rec.cursor)-1]
	if last.Kind != cursor.Resynced || last.State.Index != 0 || last.Previous != 1 {
		t.Fatalf("unexpected resync event %+v", last)
	}
}

func TestRandomActionsKeepAtMostOnePollTimer(t *testing.T) {
	h := newHarness(t, scenarioTimeline(t))
	rng := rand.New(rand.NewSource(42))

	actions := []func(){h.ctrl.Toggle, h.ctrl.Play, h.ctrl.Pause, h.ctrl.SkipBack, h.ctrl.SkipForward}
	for i := 0; i < 400; i++ {
		actions[rng.Intn(len(actions))]()
		if n := h.sched.activePolls(); n > 1 {
			t.Fatalf("step %d: %d poll timers active", i, n)
		}
		h.run(time.Duration(rng.Intn(400)) * time.Millisecond)
		n := h.sched.activePolls()
		if n > 1 {
			t.Fatalf("step %d: %d poll timers active", i, n)
		}
		if h.clock.playing && n != 1 {
			t.Fatalf("step %d: playing without a poll timer", i)
		}
	}
}

func TestEmptyTimelineReportsNone(t *testing.T) {
	h := newHarness(t, timeline.Empty())
	h.ctrl.Play()
	h.run(3 * time.Second)
	h.ctrl.SkipForward()
	if got := h.ctrl.Cursor(); got.Active() {
		t.Fatalf("expected no active chord, got %+v", got)
	}
}

func TestActionsBeforeReadyAreIgnored(t *testing.T) {
	clock := &fakeClock{dur: 7, skip: 2}
	sched := &fakeScheduler{now: time.Unix(0, 0)}
	ctrl := New(clock, sched, scenarioTimeline(t), DefaultConfig())

	ctrl.Play()
	ctrl.SkipForward()
	if clock.playing || clock.pos != 0 || sched.pending() != 0 {
		t.Fatal("expected no effect before Ready")
	}
}
