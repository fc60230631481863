package transport

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/olivier-w/enchordify/internal/cursor"
	"github.com/olivier-w/enchordify/internal/logger"
	"github.com/olivier-w/enchordify/internal/reel"
	"github.com/olivier-w/enchordify/internal/timeline"
)

// Controller is one playback session: a loaded timeline, its reel and its
// cursor, bound to a clock. It owns every timer it schedules.
type Controller struct {
	id       string
	cfg      Config
	clock    Clock
	sched    Scheduler
	observer Observer
	log      *zap.Logger

	timeline *timeline.Timeline
	animator reel.Animator
	motion   reel.Motion
	target   reel.Target
	cursor   *cursor.Cursor

	duration float64
	ready    bool

	poll   Timer // repeating advanceIfDue while playing
	resume Timer // second half of a jump-then-animate
	settle Timer // reset after natural end
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver routes reel and cursor instructions to o.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// New creates a controller for tl. Call Ready once the clock knows the
// track duration.
func New(clock Clock, sched Scheduler, tl *timeline.Timeline, cfg Config, opts ...Option) *Controller {
	if tl == nil {
		tl = timeline.Empty()
	}
	c := &Controller{
		id:       uuid.NewString(),
		cfg:      cfg,
		clock:    clock,
		sched:    sched,
		observer: nopObserver{},
		timeline: tl,
		animator: reel.Animator{PixelsPerSecond: cfg.PixelsPerSecond, InitialOffset: cfg.InitialOffset},
		cursor:   cursor.New(tl),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.Named("transport").With(zap.String("session", c.id))
	c.target = c.animator.Reset()
	c.motion = reel.NewMotion(c.target.Offset)
	return c
}

// ID identifies the session in logs.
func (c *Controller) ID() string { return c.id }

// Timeline returns the chords this session plays against.
func (c *Controller) Timeline() *timeline.Timeline { return c.timeline }

// Animator returns the reel geometry in use.
func (c *Controller) Animator() reel.Animator { return c.animator }

// Ready is the clock's onReady notification: it reads the duration and puts
// the reel and cursor at their initial state.
func (c *Controller) Ready() {
	c.cancelAll()
	c.duration = c.clock.Duration()
	c.ready = true
	c.applyReel(c.animator.Reset())
	c.resetCursor()
	c.log.Debug("track ready",
		zap.Float64("duration", c.duration),
		zap.Int("chords", c.timeline.Len()),
		zap.Float64("reel_length", c.animator.TrackLength(c.duration)),
	)
}

// Toggle plays when paused and pauses when playing.
func (c *Controller) Toggle() {
	if c.clock.Playing() {
		c.Pause()
		return
	}
	c.Play()
}

// Play resumes the clock and starts the reel scrolling toward its end.
func (c *Controller) Play() {
	if !c.ready || c.clock.Playing() {
		return
	}
	c.flushSettle()
	c.cancelAll()

	c.clock.PlayPause()
	now := c.clock.CurrentTime()
	c.applyReel(c.animator.Start(now, c.duration))
	c.startPolling()
	c.log.Debug("play", zap.Float64("at", now))
}

// Pause stops the clock and freezes the reel where it is drawn.
func (c *Controller) Pause() {
	if !c.ready || !c.clock.Playing() {
		return
	}
	c.cancelAll()

	c.clock.Pause()
	c.applyReel(c.animator.Pause(c.ReelOffset()))
	c.log.Debug("pause", zap.Float64("at", c.clock.CurrentTime()))
}

// SkipBack seeks back by the skip amount, or to the start when closer than that.
func (c *Controller) SkipBack() {
	if !c.ready {
		return
	}
	c.flushSettle()
	c.cancelAll()

	playing := c.clock.Playing()
	if c.clock.CurrentTime() < c.cfg.Skip.Seconds() {
		c.clock.SeekTo(0)
	} else {
		c.clock.SkipBackward()
	}
	c.afterSeek(playing)
}

// SkipForward seeks ahead by the skip amount. A skip past the end lands on
// the end and pauses.
func (c *Controller) SkipForward() {
	if !c.ready {
		return
	}
	c.flushSettle()
	c.cancelAll()

	playing := c.clock.Playing()
	if c.clock.CurrentTime()+c.cfg.Skip.Seconds() > c.duration {
		playing = false
		c.clock.SeekTo(1)
	} else {
		c.clock.SkipForward()
	}
	if !playing {
		c.clock.Pause()
	}
	c.afterSeek(playing)
}

// Finish is the clock's onFinish notification. Polling stops at once; the
// reel and cursor reset after the settle delay.
func (c *Controller) Finish() {
	if !c.ready {
		return
	}
	c.cancelAll()
	c.stop(&c.settle)
	c.settle = c.sched.After(c.cfg.SettleDelay, func() {
		c.settle = nil
		c.resetAfterEnd()
	})
	c.log.Debug("track finished", zap.Duration("settle", c.cfg.SettleDelay))
}

// Close cancels all outstanding timers.
func (c *Controller) Close() {
	c.cancelAll()
	c.stop(&c.settle)
}

// Playing reports whether the clock is playing.
func (c *Controller) Playing() bool { return c.clock.Playing() }

// Position returns the live clock position in seconds.
func (c *Controller) Position() float64 { return c.clock.CurrentTime() }

// Duration returns the track duration read at Ready.
func (c *Controller) Duration() float64 { return c.duration }

// Cursor returns the active chord state.
func (c *Controller) Cursor() cursor.State { return c.cursor.State() }

// ReelTarget returns the last instruction issued to the reel.
func (c *Controller) ReelTarget() reel.Target { return c.target }

// ReelOffset returns the offset the reel is displayed at right now.
func (c *Controller) ReelOffset() float64 { return c.motion.Offset(c.sched.Now()) }

// ReelMoving reports whether a reel transition is in progress.
func (c *Controller) ReelMoving() bool { return c.motion.Moving(c.sched.Now()) }

// Settling reports whether a post-end reset is pending.
func (c *Controller) Settling() bool { return c.settle != nil }

func (c *Controller) afterSeek(playing bool) {
	now := c.clock.CurrentTime()
	c.applyReel(c.animator.Reposition(now))
	prev := c.cursor.State().Index
	c.observer.CursorChanged(cursor.Event{Kind: cursor.Resynced, State: c.cursor.ResyncTo(now), Previous: prev})

	if playing {
		c.resume = c.sched.After(c.cfg.ResumeGap, func() {
			c.resume = nil
			c.applyReel(c.animator.ResumeAfterReposition(c.clock.CurrentTime(), c.duration))
		})
		c.startPolling()
	}
	c.log.Debug("seek",
		zap.Float64("to", now),
		zap.Bool("playing", playing),
		zap.Int("cursor", c.cursor.State().Index),
	)
}

func (c *Controller) resetAfterEnd() {
	c.cancelAll()
	c.clock.SeekTo(0)
	c.clock.Pause()
	c.applyReel(c.animator.Reset())
	c.resetCursor()
	c.log.Debug("reset after end")
}

// flushSettle applies a pending end-of-track reset immediately so the next
// action starts from a clean track.
func (c *Controller) flushSettle() {
	if c.settle == nil {
		return
	}
	c.stop(&c.settle)
	c.resetAfterEnd()
}

func (c *Controller) startPolling() {
	c.stop(&c.poll)
	c.poll = c.sched.Every(c.cfg.PollInterval, c.tick)
}

func (c *Controller) tick() {
	if ev, ok := c.cursor.AdvanceIfDue(c.clock.CurrentTime()); ok {
		c.observer.CursorChanged(ev)
	}
}

func (c *Controller) cancelAll() {
	c.stop(&c.poll)
	c.stop(&c.resume)
}

func (c *Controller) stop(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (c *Controller) applyReel(target reel.Target) {
	c.target = target
	c.motion.Apply(target, c.sched.Now())
	c.observer.ReelChanged(target)
}

func (c *Controller) resetCursor() {
	prev := c.cursor.State().Index
	c.observer.CursorChanged(cursor.Event{Kind: cursor.Reset, State: c.cursor.Reset(), Previous: prev})
}
