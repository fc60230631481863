package downloader

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/olivier-w/enchordify/internal/media"
	"github.com/olivier-w/enchordify/internal/timeline"
)

func TestNormalizeURL(t *testing.T) {
	got, err := NormalizeURL(` "https://example.com/watch?v=abc" `)
	if err != nil {
		t.Fatalf("NormalizeURL() unexpected error: %v", err)
	}
	if want := "https://example.com/watch?v=abc"; got != want {
		t.Fatalf("NormalizeURL() = %q, want %q", got, want)
	}
}

func TestNormalizeURLUnsupportedScheme(t *testing.T) {
	_, err := NormalizeURL("ftp://example.com/song.mp3")
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("NormalizeURL() error = %v, want ErrUnsupportedScheme", err)
	}
}

func TestNormalizeURLNoHost(t *testing.T) {
	if _, err := NormalizeURL("https:///path"); err == nil {
		t.Fatal("expected error for URL without host")
	}
}

func TestIsURL(t *testing.T) {
	cases := []struct {
		arg  string
		want bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"HTTP://example.com/a.mp3", true},
		{"song.mp3", false},
		{"/home/me/https.mp3", false},
	}
	for _, tc := range cases {
		if got := IsURL(tc.arg); got != tc.want {
			t.Fatalf("IsURL(%q) = %v, want %v", tc.arg, got, tc.want)
		}
	}
}

func TestPhaseOf(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"[youtube] abc: Downloading webpage", "Fetching info..."},
		{"[download]  42.0% of 3.1MiB", "Downloading..."},
		{"[ExtractAudio] Destination: x.wav", "Converting..."},
		{"[info] something else", ""},
	}
	for _, tc := range cases {
		if got := phaseOf(tc.line); got != tc.want {
			t.Fatalf("phaseOf(%q) = %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(` a/b:c*?"<>| `); got != "abc" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
	if got := SanitizeFilename("///"); got != "download" {
		t.Fatalf("expected fallback name, got %q", got)
	}
}

func TestWriteSidecar(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "song.mp3")
	records := []timeline.Record{{Start: 0, Tonic: "E", Kind: "minor", Duration: 1}}

	if err := WriteSidecar(audio, records); err != nil {
		t.Fatalf("WriteSidecar: %v", err)
	}
	data, err := os.ReadFile(media.SidecarPath(audio))
	if err != nil {
		t.Fatalf("reading sidecar: %v", err)
	}
	var got []timeline.Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decoding sidecar: %v", err)
	}
	if len(got) != 1 || got[0] != records[0] {
		t.Fatalf("unexpected sidecar contents %+v", got)
	}
}
