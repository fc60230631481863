package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const frameInterval = time.Second / glowFPS

type frameMsg time.Time
type playbackEndedMsg struct{}
type fileSavedMsg struct {
	destName string
	err      error
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}
