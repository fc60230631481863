package media

import (
	"path/filepath"
	"strings"
)

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// uploadExts are the formats the analysis server accepts.
var uploadExts = map[string]bool{
	".mp3": true,
	".wav": true,
}

// IsSupportedExt returns true if the extension is a playable audio format.
func IsSupportedExt(ext string) bool {
	return audioExts[strings.ToLower(ext)]
}

// IsUploadAllowed reports whether filename may be uploaded for analysis.
func IsUploadAllowed(filename string) bool {
	return uploadExts[strings.ToLower(filepath.Ext(filename))]
}

// SupportedExtsList returns a human-readable list of playable formats.
func SupportedExtsList() string {
	return ".mp3, .wav, .flac, .ogg"
}

// SidecarPath returns where a chord analysis for audioPath is stored on disk.
func SidecarPath(audioPath string) string {
	return audioPath + ".chords.json"
}
