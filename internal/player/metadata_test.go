package player

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadMetadataFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Blue Bossa.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := ReadMetadata(path)
	if m.Title != "Blue Bossa" {
		t.Fatalf("expected title from file name, got %q", m.Title)
	}
	if m.Label() != "Blue Bossa" {
		t.Fatalf("expected label without artist, got %q", m.Label())
	}
}

func TestMetadataLabelJoinsArtist(t *testing.T) {
	m := Metadata{Title: "Autumn Leaves", Artist: "Cannonball Adderley"}
	if got := m.Label(); got != "Cannonball Adderley - Autumn Leaves" {
		t.Fatalf("unexpected label %q", got)
	}
}
