// Package analysis turns an audio file into chord records. Analyzers are
// composed: a sidecar file, an external command and a remote service can be
// chained, and the chain can sit behind the SQLite cache.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/olivier-w/enchordify/internal/timeline"
)

// Analyzer produces the chord records of an audio file.
type Analyzer interface {
	Analyze(ctx context.Context, path string) ([]timeline.Record, error)
}

// ErrNoAnalysis is returned by an analyzer that has nothing for the file,
// such as a sidecar that does not exist. Chain moves on to the next one.
var ErrNoAnalysis = errors.New("no analysis available")

// Failure is any error that keeps a track from getting a timeline.
type Failure struct {
	Path string
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("analyzing %s: %v", f.Path, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(path string, err error) error {
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	return &Failure{Path: path, Err: err}
}

// Chain tries analyzers in order until one returns records. Analyzers that
// report ErrNoAnalysis are skipped; any other error stops the chain.
type Chain []Analyzer

func (c Chain) Analyze(ctx context.Context, path string) ([]timeline.Record, error) {
	for _, a := range c {
		records, err := a.Analyze(ctx, path)
		if errors.Is(err, ErrNoAnalysis) {
			continue
		}
		if err != nil {
			return nil, fail(path, err)
		}
		return records, nil
	}
	return nil, fail(path, ErrNoAnalysis)
}

// Load runs a and converts the result into a timeline.
func Load(ctx context.Context, a Analyzer, path string) (*timeline.Timeline, []timeline.Record, error) {
	records, err := a.Analyze(ctx, path)
	if err != nil {
		return nil, nil, fail(path, err)
	}
	records = Refine(records)
	tl, err := timeline.FromRecords(records)
	if err != nil {
		return nil, nil, fail(path, err)
	}
	return tl, records, nil
}

// Kinds lists the chord qualities the analyzer emits.
var Kinds = []string{"major", "minor", "7th", "minor 7th", "sus2", "sus4", "power"}

func validKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
