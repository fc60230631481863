package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olivier-w/enchordify/internal/analysis"
	"github.com/olivier-w/enchordify/internal/timeline"
)

type stubAnalyzer struct {
	records []timeline.Record
	err     error
	calls   int
}

func (s *stubAnalyzer) Analyze(context.Context, string) ([]timeline.Record, error) {
	s.calls++
	return s.records, s.err
}

func testOpener(a analysis.Analyzer, track *fakeTrack) (Opener, *int) {
	opened := 0
	return Opener{
		Analyzer:  a,
		Transport: testConfig(),
		OpenTrack: func(string) (Track, error) {
			opened++
			return track, nil
		},
	}, &opened
}

func writeTrack(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestOpenLocalFile(t *testing.T) {
	path := writeTrack(t, "My Song.wav")
	a := &stubAnalyzer{records: []timeline.Record{
		{Start: 0, Tonic: "C", Kind: "major"},
		{Start: 2, Tonic: "G", Kind: "major"},
	}}
	track := newFakeTrack(8)
	o, opened := testOpener(a, track)

	var statuses []string
	s, err := o.Open(context.Background(), path, func(st string) { statuses = append(statuses, st) })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if *opened != 1 || s.Track != Track(track) {
		t.Fatal("expected the track to be opened")
	}
	if s.Timeline.Len() != 2 || len(s.Records) != 2 {
		t.Fatalf("expected 2 chords, got %d", s.Timeline.Len())
	}
	if s.Meta.Title != "My Song" {
		t.Fatalf("expected title from file name, got %q", s.Meta.Title)
	}
	if s.SourcePath != "" {
		t.Fatal("expected local files not to be saveable")
	}
	if strings.Join(statuses, "|") != "Analyzing...|Opening audio..." {
		t.Fatalf("unexpected statuses %q", statuses)
	}
}

func TestOpenRejectsUnsupportedFile(t *testing.T) {
	a := &stubAnalyzer{}
	o, _ := testOpener(a, newFakeTrack(1))

	_, err := o.Open(context.Background(), writeTrack(t, "notes.txt"), nil)
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
	if a.calls != 0 {
		t.Fatal("expected no analysis for an unsupported file")
	}
}

func TestOpenAnalysisFailureSkipsPlayback(t *testing.T) {
	a := &stubAnalyzer{err: errors.New("service unavailable")}
	o, opened := testOpener(a, newFakeTrack(1))

	_, err := o.Open(context.Background(), writeTrack(t, "song.mp3"), nil)
	var f *analysis.Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *analysis.Failure, got %v", err)
	}
	if *opened != 0 {
		t.Fatal("expected the track to stay closed after a failed analysis")
	}
}

func TestOpenCmdReportsStatusAndResult(t *testing.T) {
	a := &stubAnalyzer{records: []timeline.Record{{Start: 0, Tonic: "E", Kind: "minor"}}}
	o, _ := testOpener(a, newFakeTrack(4))
	ch := make(chan string, 16)

	msg := openCmd(context.Background(), o, writeTrack(t, "a.ogg"), ch)()
	opened, ok := msg.(openedMsg)
	if !ok || opened.err != nil {
		t.Fatalf("expected successful openedMsg, got %#v", msg)
	}

	var got []string
	for s := range ch {
		got = append(got, s)
	}
	if len(got) != 2 {
		t.Fatalf("expected two status updates before close, got %q", got)
	}
}

func TestOpenCmdClosesSessionWhenCancelled(t *testing.T) {
	a := &stubAnalyzer{records: []timeline.Record{{Start: 0, Tonic: "E", Kind: "minor"}}}
	track := newFakeTrack(4)
	o, _ := testOpener(a, track)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg := openCmd(ctx, o, writeTrack(t, "a.wav"), make(chan string, 16))().(openedMsg)
	if !errors.Is(msg.err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", msg.err)
	}
	if track.closed != 1 {
		t.Fatal("expected the abandoned track to be closed")
	}
}

func TestAppInitialArgSkipsBrowser(t *testing.T) {
	o, _ := testOpener(&stubAnalyzer{}, newFakeTrack(1))
	app := NewApp(o, t.TempDir(), "song.mp3")

	cmd := app.Init()
	if cmd == nil {
		t.Fatal("expected an open command")
	}
	sel, ok := cmd().(BrowserSelectedMsg)
	if !ok || sel.Path != "song.mp3" {
		t.Fatalf("expected selection of the initial argument, got %#v", sel)
	}

	next, cmd := app.Update(sel)
	app = next.(App)
	if app.phase != phaseOpening || cmd == nil {
		t.Fatal("expected the opening phase")
	}
	if !strings.Contains(app.View(), "Opening...") {
		t.Fatalf("expected working view, got %q", app.View())
	}

	next, _ = app.Update(openStatusMsg("Analyzing..."))
	app = next.(App)
	if !strings.Contains(app.View(), "Analyzing...") {
		t.Fatal("expected status line to follow progress")
	}
}

func TestAppFailureReturnsToBrowser(t *testing.T) {
	o, _ := testOpener(&stubAnalyzer{}, newFakeTrack(1))
	app := NewApp(o, t.TempDir(), "")
	next, _ := app.Update(BrowserSelectedMsg{Path: "x.mp3"})
	app = next.(App)

	next, _ = app.Update(openedMsg{err: &analysis.Failure{Path: "x.mp3", Err: errors.New("bad response")}})
	app = next.(App)
	if app.phase != phaseBrowse {
		t.Fatal("expected the browser after a failure")
	}
	if app.errMsg != "Analysis failed: bad response" {
		t.Fatalf("unexpected error message %q", app.errMsg)
	}
	if !strings.Contains(app.View(), "Analysis failed") {
		t.Fatal("expected the error above the browser")
	}
}

func TestAppSuccessHandsOverToPlayer(t *testing.T) {
	track := newFakeTrack(6)
	o, _ := testOpener(&stubAnalyzer{}, track)
	app := NewApp(o, t.TempDir(), "")
	next, _ := app.Update(BrowserSelectedMsg{Path: "x.mp3"})
	app = next.(App)

	next, cmd := app.Update(openedMsg{session: Session{Track: track, Timeline: testTimeline(t)}})
	if _, ok := next.(Model); !ok {
		t.Fatalf("expected the playback model, got %T", next)
	}
	if cmd == nil {
		t.Fatal("expected the player's init commands")
	}
}

func TestDescribeErrorNoAnalysis(t *testing.T) {
	_, err := analysis.Chain{}.Analyze(context.Background(), "x.wav")
	if got := describeError(err); !strings.Contains(got, "No chord analysis available") {
		t.Fatalf("unexpected message %q", got)
	}
}
