package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/enchordify/internal/transport"
)

// timerMsg is delivered when a scheduled timer comes due.
type timerMsg struct {
	id uint64
}

type timerEntry struct {
	fn    func()
	every time.Duration // zero for one-shot timers
}

// teaScheduler runs transport timers on the bubbletea event loop. Timers
// become tea.Tick commands carrying an id; a stopped timer's id is simply
// forgotten, so its tick arrives stale and is ignored.
type teaScheduler struct {
	now     func() time.Time
	nextID  uint64
	live    map[uint64]timerEntry
	pending []tea.Cmd
}

func newTeaScheduler() *teaScheduler {
	return &teaScheduler{now: time.Now, live: make(map[uint64]timerEntry)}
}

func (s *teaScheduler) Now() time.Time { return s.now() }

func (s *teaScheduler) After(d time.Duration, fn func()) transport.Timer {
	return s.schedule(d, timerEntry{fn: fn})
}

func (s *teaScheduler) Every(d time.Duration, fn func()) transport.Timer {
	return s.schedule(d, timerEntry{fn: fn, every: d})
}

func (s *teaScheduler) schedule(d time.Duration, e timerEntry) transport.Timer {
	s.nextID++
	id := s.nextID
	s.live[id] = e
	s.arm(id, d)
	return teaTimer{s: s, id: id}
}

func (s *teaScheduler) arm(id uint64, d time.Duration) {
	s.pending = append(s.pending, tea.Tick(d, func(time.Time) tea.Msg {
		return timerMsg{id: id}
	}))
}

// Fire runs the timer behind id if it is still live. Repeating timers are
// re-armed before their callback runs so the callback may stop them.
func (s *teaScheduler) Fire(id uint64) {
	e, ok := s.live[id]
	if !ok {
		return
	}
	if e.every > 0 {
		s.arm(id, e.every)
	} else {
		delete(s.live, id)
	}
	e.fn()
}

// Flush returns the ticks armed since the last call.
func (s *teaScheduler) Flush() tea.Cmd {
	if len(s.pending) == 0 {
		return nil
	}
	cmds := s.pending
	s.pending = nil
	return tea.Batch(cmds...)
}

// Live reports how many timers are outstanding.
func (s *teaScheduler) Live() int { return len(s.live) }

type teaTimer struct {
	s  *teaScheduler
	id uint64
}

func (t teaTimer) Stop() { delete(t.s.live, t.id) }
