package downloader

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/olivier-w/enchordify/internal/media"
	"github.com/olivier-w/enchordify/internal/timeline"
)

var invalidFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeFilename strips characters invalid in filenames and trims whitespace.
// Falls back to "download" if the result is empty.
func SanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" {
		return "download"
	}
	return name
}

// SaveFile converts a downloaded WAV to MP3 in dir via ffmpeg and writes
// the chord analysis next to it, so the next run opens it without
// re-analyzing. Returns the MP3 path.
func SaveFile(srcPath, title, dir string, records []timeline.Record) (string, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found (required for saving)")
	}

	dest := filepath.Join(dir, SanitizeFilename(title)+".mp3")
	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("file %q already exists", dest)
	}

	output, err := exec.Command(ffmpeg, "-i", srcPath, "-q:a", "2", dest).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg failed: %w\n%s", err, output)
	}

	if err := WriteSidecar(dest, records); err != nil {
		return dest, err
	}
	return dest, nil
}

// WriteSidecar stores records as the chord sidecar of audioPath.
func WriteSidecar(audioPath string, records []timeline.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding chords: %w", err)
	}
	if err := os.WriteFile(media.SidecarPath(audioPath), data, 0o644); err != nil {
		return fmt.Errorf("writing chords: %w", err)
	}
	return nil
}
