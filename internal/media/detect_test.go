package media

import (
	"strings"
	"testing"
)

func TestIsSupportedExt(t *testing.T) {
	for _, ext := range []string{".mp3", ".WAV", ".flac", ".ogg"} {
		if !IsSupportedExt(ext) {
			t.Fatalf("expected %s to be supported", ext)
		}
	}
	for _, ext := range []string{".aac", ".m4a", ".txt", ""} {
		if IsSupportedExt(ext) {
			t.Fatalf("expected %s to be unsupported", ext)
		}
	}
}

func TestIsUploadAllowed(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"song.mp3", true},
		{"take.2.WAV", true},
		{"song.flac", false},
		{"noext", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsUploadAllowed(tt.name); got != tt.want {
			t.Fatalf("IsUploadAllowed(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSupportedExtsListMatchesTable(t *testing.T) {
	list := SupportedExtsList()
	for ext := range audioExts {
		if !strings.Contains(list, ext) {
			t.Fatalf("expected supported ext list to include %s, got %q", ext, list)
		}
	}
}

func TestSidecarPath(t *testing.T) {
	if got := SidecarPath("/music/a.mp3"); got != "/music/a.mp3.chords.json" {
		t.Fatalf("unexpected sidecar path %q", got)
	}
}
