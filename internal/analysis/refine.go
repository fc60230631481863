package analysis

import "github.com/olivier-w/enchordify/internal/timeline"

// Refine cleans up a raw progression: short 7th or minor 7th chords that
// lead into a longer triad on the same tonic are dropped, consecutive
// repeats are merged, and durations are recomputed from the next start.
// The last chord runs to the end of its last merged piece.
func Refine(records []timeline.Record) []timeline.Record {
	if len(records) == 0 {
		return records
	}
	in := collapse(records)

	kept := make([]timeline.Record, 0, len(in))
	for i, r := range in {
		if i+1 < len(in) && shadowed(r, in[i+1]) {
			continue
		}
		kept = append(kept, r)
	}
	return collapse(kept)
}

func shadowed(r, next timeline.Record) bool {
	if r.Tonic != next.Tonic || r.Duration >= next.Duration {
		return false
	}
	return (r.Kind == "7th" && next.Kind == "major") ||
		(r.Kind == "minor 7th" && next.Kind == "minor")
}

func collapse(records []timeline.Record) []timeline.Record {
	out := make([]timeline.Record, 0, len(records))
	for _, r := range records {
		if n := len(out); n > 0 && out[n-1].Tonic == r.Tonic && out[n-1].Kind == r.Kind {
			// The merged chord runs to the end of its last piece.
			out[n-1].Duration = r.Start + r.Duration - out[n-1].Start
			continue
		}
		out = append(out, r)
	}
	for i := 0; i+1 < len(out); i++ {
		out[i].Duration = out[i+1].Start - out[i].Start
	}
	return out
}
