package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/olivier-w/enchordify/internal/media"
	"github.com/olivier-w/enchordify/internal/timeline"
)

// Sidecar reads a previously saved analysis from <audio>.chords.json.
type Sidecar struct{}

func (Sidecar) Analyze(_ context.Context, path string) ([]timeline.Record, error) {
	data, err := os.ReadFile(media.SidecarPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoAnalysis
	}
	if err != nil {
		return nil, err
	}
	return decodeRecords(data)
}

func decodeRecords(data []byte) ([]timeline.Record, error) {
	var records []timeline.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding chord records: %w", err)
	}
	for i, r := range records {
		r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
		records[i].Kind = r.Kind
		if r.Tonic == "" {
			return nil, fmt.Errorf("chord record %d has no tonic", i)
		}
		if !validKind(r.Kind) {
			return nil, fmt.Errorf("chord record %d has unknown kind %q", i, r.Kind)
		}
	}
	return records, nil
}
