package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/enchordify/internal/downloader"
	"github.com/olivier-w/enchordify/internal/player"
	"github.com/olivier-w/enchordify/internal/timeline"
	"github.com/olivier-w/enchordify/internal/transport"
	"github.com/olivier-w/enchordify/internal/util"
)

// Track is the audio a playback session drives.
type Track interface {
	transport.Clock
	Finished() <-chan struct{}
	Volume() float64
	AdjustVolume(delta float64)
	Close()
}

// Session is an opened, analyzed track ready for playback.
type Session struct {
	Track    Track
	Meta     player.Metadata
	Timeline *timeline.Timeline
	Records  []timeline.Record

	// SourcePath is the downloaded temp file for URL sources; "" for local
	// files, which disables saving.
	SourcePath string
	Cleanup    func()
}

// Model is the Bubbletea model for the playback screen: the chord reel,
// the current chord and the transport.
type Model struct {
	track    Track
	ctrl     *transport.Controller
	sched    *teaScheduler
	glow     *highlight
	meta     player.Metadata
	records  []timeline.Record
	progress progress.Model
	width    int
	quitting bool
	cleanup  func()

	sourcePath  string
	saveMsg     string
	saveMsgTime time.Time
	saving      bool
}

// New creates the playback model and readies the transport for the track.
func New(s Session, cfg transport.Config) Model {
	sched := newTeaScheduler()
	glow := newHighlight(sched.Now)
	ctrl := transport.New(s.Track, sched, s.Timeline, cfg, transport.WithObserver(glow))
	ctrl.Ready()

	return Model{
		track:   s.Track,
		ctrl:    ctrl,
		sched:   sched,
		glow:    glow,
		meta:    s.Meta,
		records: s.Records,
		progress: progress.New(
			progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
			progress.WithoutPercentage(),
		),
		cleanup:    s.Cleanup,
		sourcePath: s.SourcePath,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		frameCmd(),
		waitForFinish(m.track),
		tea.SetWindowTitle(windowTitle(m.meta.Title, true)),
		m.sched.Flush(),
	)
}

func waitForFinish(t Track) tea.Cmd {
	ch := t.Finished()
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		<-ch
		return playbackEndedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isQuit(msg) {
			return m.quit()
		}
		switch msg.String() {
		case " ":
			m.ctrl.Toggle()
			return m, m.afterTransport()
		case "left", "h":
			m.ctrl.SkipBack()
			return m, m.afterTransport()
		case "right", "l":
			m.ctrl.SkipForward()
			return m, m.afterTransport()
		case "up", "k", "+":
			m.track.AdjustVolume(0.05)
		case "down", "j", "-":
			m.track.AdjustVolume(-0.05)
		case "s":
			if m.sourcePath != "" && !m.saving {
				m.saving = true
				m.saveMsg = "Saving..."
				m.saveMsgTime = time.Now()
				src, title, records := m.sourcePath, m.meta.Title, m.records
				return m, func() tea.Msg {
					destName, err := downloader.SaveFile(src, title, ".", records)
					return fileSavedMsg{destName: destName, err: err}
				}
			}
		}
		return m, nil

	case timerMsg:
		m.sched.Fire(msg.id)
		return m, m.sched.Flush()

	case playbackEndedMsg:
		m.ctrl.Finish()
		return m, tea.Batch(m.afterTransport(), waitForFinish(m.track))

	case frameMsg:
		m.glow.Step(time.Time(msg))
		if m.saveMsg != "" && time.Since(m.saveMsgTime) > 5*time.Second {
			m.saveMsg = ""
		}
		return m, frameCmd()

	case fileSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.saveMsg = fmt.Sprintf("Save failed: %v", msg.err)
		} else {
			m.saveMsg = fmt.Sprintf("Saved to %s", msg.destName)
			m.sourcePath = ""
		}
		m.saveMsgTime = time.Now()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	}

	return m, nil
}

func (m Model) afterTransport() tea.Cmd {
	return tea.Batch(m.sched.Flush(), tea.SetWindowTitle(windowTitle(m.meta.Title, !m.ctrl.Playing())))
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.ctrl.Close()
	m.track.Close()
	if m.cleanup != nil {
		m.cleanup()
	}
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	w := m.width
	if w < 30 {
		w = 60
	}
	inner := w - 4

	header := headerStyle.Render("enchordify")
	title := titleStyle.Render(m.meta.Title)

	subtitle := ""
	if m.meta.Artist != "" && m.meta.Album != "" {
		subtitle = artistStyle.Render(fmt.Sprintf("%s - %s", m.meta.Artist, m.meta.Album))
	} else if m.meta.Artist != "" {
		subtitle = artistStyle.Render(m.meta.Artist)
	}

	anim := m.ctrl.Animator()
	cur := m.ctrl.Cursor()
	reel := layoutReel(m.ctrl.Timeline(), m.ctrl.ReelOffset(), anim.PixelsPerSecond, inner, cur.Index, m.glow.glow)

	current := " "
	if ev, err := m.ctrl.Timeline().At(cur.Index); err == nil {
		current = ev.Label.Symbol()
	}

	elapsed := m.ctrl.Position()
	total := m.ctrl.Duration()
	elapsedStr := util.FormatSeconds(elapsed)
	totalStr := util.FormatSeconds(total)
	barWidth := inner - len(elapsedStr) - len(totalStr) - 2
	if barWidth < 10 {
		barWidth = 10
	}
	m.progress.Width = barWidth
	ratio := 0.0
	if total > 0 {
		ratio = elapsed / total
	}
	progressLine := fmt.Sprintf("%s %s %s", timeStyle.Render(elapsedStr), m.progress.ViewAs(ratio), timeStyle.Render(totalStr))

	statusText := "▶  playing"
	if !m.ctrl.Playing() {
		statusText = "❚❚ paused"
	}
	if m.ctrl.Timeline().Len() == 0 {
		statusText += "  (no chords detected)"
	}
	volStr := renderVolumePercent(m.track.Volume())
	statusLine := statusStyle.Render(statusText) + spaces(inner-len([]rune(statusText))-len(volStr)) + statusStyle.Render(volStr)

	lines := "\n"
	lines += "  " + header + "\n"
	lines += "\n"
	lines += "  " + title + "\n"
	if subtitle != "" {
		lines += "  " + subtitle + "\n"
	}
	lines += "\n"
	lines += indentBlock(reel.render(), "  ") + "\n"
	lines += "\n"
	lines += "  " + currentStyle.Render(current) + "\n"
	lines += "\n"
	lines += "  " + progressLine + "\n"
	lines += "  " + statusLine + "\n"
	if m.saveMsg != "" {
		lines += "  " + helpStyle.Render(m.saveMsg) + "\n"
	}
	lines += "\n"
	lines += "  " + helpStyle.Render(helpText(m.sourcePath != "")) + "\n"

	return lines
}

func windowTitle(title string, paused bool) string {
	if paused {
		return "⏸ " + title + " · enchordify"
	}
	return "▶ " + title + " · enchordify"
}
