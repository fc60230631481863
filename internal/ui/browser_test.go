package ui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestBrowserFileSelectionReturnsMessage(t *testing.T) {
	dir := tempDirWith(t, map[string]string{
		"song.mp3": "data",
	})

	m := NewBrowserIn(dir)

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = model.(BrowserModel)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected selection command")
	}

	msg := cmd()
	selected, ok := msg.(BrowserSelectedMsg)
	if !ok {
		t.Fatalf("expected BrowserSelectedMsg, got %T", msg)
	}
	if want := filepath.Join(dir, "song.mp3"); selected.Path != want {
		t.Fatalf("expected %s, got %q", want, selected.Path)
	}
}

func TestBrowserURLSelectionReturnsMessage(t *testing.T) {
	m := NewBrowserIn(t.TempDir())
	m.urlMode = true
	m.input.SetValue("  https://example.com/watch?v=1 ")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected URL selection command")
	}

	selected, ok := cmd().(BrowserSelectedMsg)
	if !ok {
		t.Fatal("expected BrowserSelectedMsg")
	}
	if selected.Path != "https://example.com/watch?v=1" {
		t.Fatalf("expected trimmed URL, got %q", selected.Path)
	}
}

func TestBrowserCancelReturnsMessage(t *testing.T) {
	m := NewBrowserIn(t.TempDir())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected cancel command")
	}
	if _, ok := cmd().(BrowserCancelledMsg); !ok {
		t.Fatalf("expected BrowserCancelledMsg, got %T", cmd())
	}
}

func TestBrowserListsOnlyPlayableFiles(t *testing.T) {
	dir := tempDirWith(t, map[string]string{
		"a.mp3":             "data",
		"b.flac":            "data",
		"c.ogg":             "data",
		"d.wav":             "data",
		"d.wav.chords.json": "[]",
		"notes.txt":         "data",
		"clip.m4a":          "data",
	})

	m := NewBrowserIn(dir)

	got := map[string]fileItem{}
	for _, item := range m.list.Items() {
		if f, ok := item.(fileItem); ok {
			got[f.name+f.ext] = f
		}
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 playable files, got %v", got)
	}
	if !got["d.wav"].analyzed || got["a.mp3"].analyzed {
		t.Fatal("expected only d.wav to be marked as analyzed")
	}
}

func TestBrowserUnreadableDirectory(t *testing.T) {
	m := NewBrowserIn(filepath.Join(t.TempDir(), "missing"))
	if !m.HasError() {
		t.Fatal("expected an error for a missing directory")
	}
}

func tempDirWith(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, contents := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
