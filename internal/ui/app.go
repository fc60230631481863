package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/enchordify/internal/analysis"
	"github.com/olivier-w/enchordify/internal/logger"
)

type appPhase uint8

const (
	phaseBrowse appPhase = iota
	phaseOpening
)

type openedMsg struct {
	session Session
	err     error
}

type openStatusMsg string

// App is the top-level model: it browses for a track, shows a working
// indicator while the track is fetched and analyzed, then hands over to
// the playback Model. Failures return to the browser with the message.
type App struct {
	opener   Opener
	dir      string
	browser  BrowserModel
	phase    appPhase
	errMsg   string
	width    int
	height   int
	spinner  spinner.Model
	status   string
	statusCh chan string
	cancel   context.CancelFunc
	pending  string
}

// NewApp creates the app over dir. A non-empty initial path or URL is
// opened immediately instead of showing the browser.
func NewApp(opener Opener, dir, initial string) App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	return App{
		opener:  opener,
		dir:     dir,
		browser: NewBrowserIn(dir),
		phase:   phaseBrowse,
		spinner: s,
		pending: initial,
	}
}

func (m App) Init() tea.Cmd {
	if m.pending != "" {
		path := m.pending
		return func() tea.Msg { return BrowserSelectedMsg{Path: path} }
	}
	return tea.Batch(m.browser.Init(), m.spinner.Tick)
}

func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.phase == phaseBrowse {
			return m.updateBrowser(msg)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.phase == phaseOpening {
			return m, cmd
		}
		return m, nil

	case BrowserCancelledMsg:
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)

	case BrowserSelectedMsg:
		ctx, cancel := context.WithCancel(context.Background())
		m.phase = phaseOpening
		m.errMsg = ""
		m.pending = ""
		m.status = "Opening..."
		m.statusCh = make(chan string, 16)
		m.cancel = cancel
		return m, tea.Batch(
			m.spinner.Tick,
			m.waitForStatus(),
			openCmd(ctx, m.opener, msg.Path, m.statusCh),
			tea.SetWindowTitle("enchordify · working"),
		)

	case openStatusMsg:
		m.status = string(msg)
		return m, m.waitForStatus()

	case openedMsg:
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.statusCh = nil
		if msg.err != nil {
			logger.Warn("open failed", logger.ErrorField(msg.err))
			m.phase = phaseBrowse
			m.errMsg = describeError(msg.err)
			m.browser = NewBrowserIn(m.dir)
			return m, m.resize(m.browser.Init())
		}

		model := New(msg.session, m.opener.Transport)
		return model, m.resize(model.Init())

	case tea.KeyMsg:
		if m.phase == phaseOpening && isQuit(msg) {
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
	}

	if m.phase == phaseBrowse {
		return m.updateBrowser(msg)
	}
	return m, nil
}

func (m App) updateBrowser(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.browser.Update(msg)
	if browser, ok := model.(BrowserModel); ok {
		m.browser = browser
	}
	return m, cmd
}

// resize replays the last window size to a newly shown screen.
func (m App) resize(cmd tea.Cmd) tea.Cmd {
	if m.width == 0 && m.height == 0 {
		return cmd
	}
	w, h := m.width, m.height
	return tea.Batch(cmd, func() tea.Msg {
		return tea.WindowSizeMsg{Width: w, Height: h}
	})
}

func (m App) waitForStatus() tea.Cmd {
	if m.statusCh == nil {
		return nil
	}
	statusCh := m.statusCh
	return func() tea.Msg {
		status, ok := <-statusCh
		if !ok {
			return nil
		}
		return openStatusMsg(status)
	}
}

func openCmd(ctx context.Context, o Opener, path string, statusCh chan string) tea.Cmd {
	return func() tea.Msg {
		defer close(statusCh)
		session, err := o.Open(ctx, path, func(s string) {
			select {
			case statusCh <- s:
			default:
			}
		})
		if err == nil && ctx.Err() != nil {
			session.Close()
			err = ctx.Err()
		}
		return openedMsg{session: session, err: err}
	}
}

func describeError(err error) string {
	var f *analysis.Failure
	if errors.As(err, &f) {
		if errors.Is(err, analysis.ErrNoAnalysis) {
			return "No chord analysis available. Configure ENCHORDIFY_ANALYZER_URL or ENCHORDIFY_ANALYZER_CMD."
		}
		return "Analysis failed: " + f.Err.Error()
	}
	return err.Error()
}

func (m App) View() string {
	if m.phase == phaseBrowse {
		if m.browser.HasError() {
			return "\n  enchordify\n\n  " + errorStyle.Render(m.browser.Error().Error()) + "\n"
		}
		if m.errMsg == "" {
			return m.browser.View()
		}
		return "\n  " + errorStyle.Render(m.errMsg) + "\n\n" + m.browser.View()
	}

	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(headerStyle.Render("enchordify"))
	b.WriteString("\n\n  ")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n\n  ")
	b.WriteString(helpStyle.Render("q quit"))
	b.WriteString("\n")
	return b.String()
}
