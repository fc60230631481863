package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/enchordify/internal/timeline"
)

type cellKind uint8

const (
	cellBlank cellKind = iota
	cellChord
	cellActive
	cellGlow
)

// reelLayout is the reel drawn into a fixed number of columns: a ruler row
// with a mark at each chord start and a row of chord symbols.
type reelLayout struct {
	ruler   []rune
	symbols []rune
	kinds   []cellKind
}

// layoutReel places every chord at column offset + start*pps. active is
// the cursor index (-1 for none); glow brightens it.
func layoutReel(tl *timeline.Timeline, offset, pps float64, width, active int, glow float64) reelLayout {
	if width < 1 {
		width = 1
	}
	l := reelLayout{
		ruler:   []rune(strings.Repeat("─", width)),
		symbols: []rune(strings.Repeat(" ", width)),
		kinds:   make([]cellKind, width),
	}

	for i, ev := range tl.Events() {
		col := int(math.Round(offset + ev.Start*pps))
		sym := []rune(ev.Label.Symbol())
		if col+len(sym) <= 0 || col >= width {
			continue
		}

		kind := cellChord
		if i == active {
			kind = cellActive
			if glow > 0.5 {
				kind = cellGlow
			}
		}
		if col >= 0 {
			l.ruler[col] = '┬'
		}
		for j, r := range sym {
			c := col + j
			if c < 0 || c >= width {
				continue
			}
			l.symbols[c] = r
			l.kinds[c] = kind
		}
	}
	return l
}

func (l reelLayout) render() string {
	var b strings.Builder
	b.WriteString(rulerStyle.Render(string(l.ruler)))
	b.WriteByte('\n')

	start := 0
	for i := 1; i <= len(l.kinds); i++ {
		if i < len(l.kinds) && l.kinds[i] == l.kinds[start] {
			continue
		}
		b.WriteString(styleFor(l.kinds[start]).Render(string(l.symbols[start:i])))
		start = i
	}
	return b.String()
}

func styleFor(k cellKind) lipgloss.Style {
	switch k {
	case cellChord:
		return chordStyle
	case cellActive:
		return activeChordStyle
	case cellGlow:
		return glowChordStyle
	default:
		return lipgloss.NewStyle()
	}
}
