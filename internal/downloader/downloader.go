package downloader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
)

// ErrUnsupportedScheme is returned for URLs that are not http or https.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// IsURL returns true if the argument looks like a URL.
func IsURL(arg string) bool {
	arg = strings.ToLower(strings.TrimSpace(arg))
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// NormalizeURL trims whitespace and surrounding quotes and checks the
// result is an absolute http(s) URL.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	parsed, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL %q has no host", s)
	}
	return parsed.String(), nil
}

// phaseOf maps a yt-dlp output line to a short status, or "" if the line
// does not start a new phase.
func phaseOf(line string) string {
	switch {
	case strings.Contains(line, "Extracting") || strings.Contains(line, "Downloading webpage"):
		return "Fetching info..."
	case strings.Contains(line, "[download]") && strings.Contains(line, "%"):
		return "Downloading..."
	case strings.Contains(line, "ExtractAudio"):
		return "Converting..."
	}
	return ""
}

// Download uses yt-dlp to fetch the audio behind a URL as WAV so it can be
// played and analyzed like a local file. onStatus is called once per phase.
// Returns the temp file path, the title, and a cleanup func.
func Download(ctx context.Context, rawURL string, onStatus func(string)) (string, string, func(), error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return "", "", nil, err
	}

	ytdlp, err := exec.LookPath("yt-dlp")
	if err != nil {
		return "", "", nil, fmt.Errorf("yt-dlp not found. Install it:\n  macOS:   brew install yt-dlp\n  Linux:   sudo apt install yt-dlp  (or pip install yt-dlp)")
	}

	tmpFile, err := os.CreateTemp("", "enchordify-*.wav")
	if err != nil {
		return "", "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()

	cleanup := func() {
		os.Remove(tmpPath)
	}

	var title string
	if out, err := exec.CommandContext(ctx, ytdlp, "--skip-download", "--print", "title", target).Output(); err == nil {
		title = strings.TrimSpace(string(out))
	}

	cmd := exec.CommandContext(ctx, ytdlp, "-x", "--audio-format", "wav", "-o", tmpPath, "--force-overwrite", target)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("setting up yt-dlp: %w", err)
	}
	cmd.Stdout = cmd.Stderr

	if err := cmd.Start(); err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("starting yt-dlp: %w", err)
	}

	lastPhase := ""
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		phase := phaseOf(scanner.Text())
		if phase != "" && phase != lastPhase && onStatus != nil {
			lastPhase = phase
			onStatus(phase)
		}
	}

	if err := cmd.Wait(); err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("yt-dlp failed: %w", err)
	}
	if title == "" {
		title = "download"
	}
	return tmpPath, title, cleanup, nil
}
