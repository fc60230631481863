package reel

import "time"

// Motion interpolates the displayed offset between targets, the way a style
// transition would. A new target always starts from whatever is displayed at
// the moment it is applied, so a jump followed by a transition must be two
// separate Apply calls.
type Motion struct {
	from   float64
	to     float64
	start  time.Time
	length time.Duration
}

// NewMotion returns a Motion resting at offset.
func NewMotion(offset float64) Motion {
	return Motion{from: offset, to: offset}
}

// Apply begins a transition to target at now.
func (m *Motion) Apply(target Target, now time.Time) {
	m.from = m.Offset(now)
	m.to = target.Offset
	m.start = now
	m.length = target.Transition
	if m.length <= 0 {
		m.from = m.to
	}
}

// Offset returns the displayed offset at now.
func (m Motion) Offset(now time.Time) float64 {
	if m.length <= 0 {
		return m.to
	}
	elapsed := now.Sub(m.start)
	if elapsed <= 0 {
		return m.from
	}
	if elapsed >= m.length {
		return m.to
	}
	frac := float64(elapsed) / float64(m.length)
	return m.from + (m.to-m.from)*frac
}

// Moving reports whether a transition is still in progress at now.
func (m Motion) Moving(now time.Time) bool {
	return m.length > 0 && now.Sub(m.start) < m.length && m.from != m.to
}
