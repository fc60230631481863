package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/olivier-w/enchordify/internal/analysis"
	"github.com/olivier-w/enchordify/internal/downloader"
	"github.com/olivier-w/enchordify/internal/logger"
	"github.com/olivier-w/enchordify/internal/media"
	"github.com/olivier-w/enchordify/internal/player"
	"github.com/olivier-w/enchordify/internal/transport"
)

// Opener turns a file path or URL into a playback session.
type Opener struct {
	Analyzer  analysis.Analyzer
	Transport transport.Config
	// OpenTrack opens the audio for playback. Nil means the real player.
	OpenTrack func(path string) (Track, error)
}

func (o Opener) openTrack(path string) (Track, error) {
	if o.OpenTrack != nil {
		return o.OpenTrack(path)
	}
	p, err := player.New(path, player.Options{Skip: o.Transport.Skip})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Open resolves arg, analyzes it and opens the audio. status receives a
// short description of each phase. Analysis errors are *analysis.Failure.
func (o Opener) Open(ctx context.Context, arg string, status func(string)) (Session, error) {
	if status == nil {
		status = func(string) {}
	}

	var s Session
	path := arg
	title := ""
	if downloader.IsURL(arg) {
		status("Fetching info...")
		tmp, t, cleanup, err := downloader.Download(ctx, arg, status)
		if err != nil {
			return Session{}, err
		}
		path, title = tmp, t
		s.SourcePath = tmp
		s.Cleanup = cleanup
	} else {
		info, err := os.Stat(path)
		if err != nil {
			return Session{}, err
		}
		if info.IsDir() {
			return Session{}, fmt.Errorf("%s is a directory", path)
		}
		if ext := filepath.Ext(path); !media.IsSupportedExt(ext) {
			return Session{}, fmt.Errorf("unsupported format %q (supported: %s)", ext, media.SupportedExtsList())
		}
	}

	fail := func(err error) (Session, error) {
		if s.Cleanup != nil {
			s.Cleanup()
		}
		return Session{}, err
	}

	status("Analyzing...")
	tl, records, err := analysis.Load(ctx, o.Analyzer, path)
	if err != nil {
		return fail(err)
	}

	status("Opening audio...")
	track, err := o.openTrack(path)
	if err != nil {
		return fail(err)
	}

	s.Track = track
	s.Timeline = tl
	s.Records = records
	if title != "" {
		s.Meta = player.Metadata{Title: title}
	} else {
		s.Meta = player.ReadMetadata(path)
	}

	logger.Info("track opened",
		logger.String("path", path),
		logger.Int("chords", tl.Len()),
		logger.Float64("duration", track.Duration()),
	)
	return s, nil
}

// Close releases the session's track and temp files.
func (s Session) Close() {
	if s.Track != nil {
		s.Track.Close()
	}
	if s.Cleanup != nil {
		s.Cleanup()
	}
}
