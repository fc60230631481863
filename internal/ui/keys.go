package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText(canSave bool) string {
	s := "space play/pause  ←/→ skip  ↑/↓ volume"
	if canSave {
		s += "  s save"
	}
	s += "  q quit"
	return s
}
