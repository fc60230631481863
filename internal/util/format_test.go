package util

import (
	"math"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{59 * time.Second, "0:59"},
		{61500 * time.Millisecond, "1:01"},
		{-time.Second, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := FormatSeconds(125.9); got != "2:05" {
		t.Fatalf("expected 2:05, got %q", got)
	}
	if got := FormatSeconds(math.NaN()); got != "0:00" {
		t.Fatalf("expected NaN to format as 0:00, got %q", got)
	}
}

func TestFormatStopwatch(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00.000"},
		{1.5, "00:01.500"},
		{65.25, "01:05.250"},
		{3599.9994, "59:59.999"},
		{-3, "00:00.000"},
	}
	for _, tt := range tests {
		if got := FormatStopwatch(tt.in); got != tt.want {
			t.Fatalf("FormatStopwatch(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
