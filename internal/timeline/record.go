package timeline

import "fmt"

// Record is one chord as delivered by the analysis service.
type Record struct {
	Start    float64 `json:"start"`
	Tonic    string  `json:"tonic"`
	Kind     string  `json:"kind"`
	Duration float64 `json:"duration,omitempty"`
}

// FromRecords converts analysis records into a validated Timeline.
func FromRecords(records []Record) (*Timeline, error) {
	events := make([]Event, len(records))
	for i, r := range records {
		if r.Tonic == "" {
			return nil, fmt.Errorf("%w: record %d has no tonic", ErrInvalidTimeline, i)
		}
		events[i] = Event{
			Start: r.Start,
			Label: Label{Tonic: r.Tonic, Kind: r.Kind},
		}
	}
	return Load(events)
}

// Records converts the timeline back to analysis records, filling in each
// chord's duration from the next start (the last chord runs to trackEnd).
func (t *Timeline) Records(trackEnd float64) []Record {
	out := make([]Record, t.Len())
	for i := range out {
		e := t.events[i]
		end := trackEnd
		if i+1 < len(t.events) {
			end = t.events[i+1].Start
		}
		dur := end - e.Start
		if dur < 0 {
			dur = 0
		}
		out[i] = Record{Start: e.Start, Tonic: e.Label.Tonic, Kind: e.Label.Kind, Duration: dur}
	}
	return out
}
