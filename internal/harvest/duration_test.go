package harvest

import (
	"encoding/json"
	"testing"

	"call-harvester-go/internal/logger"
)

func TestResolveDuration(t *testing.T) {
	log := logger.New().Entry
	cases := []struct {
		name     string
		reported json.Number
		start    string
		end      string
		want     int
	}{
		{"reported wins", "42", "2024-01-10T12:00:00+03:00", "2024-01-10T12:00:05+03:00", 42},
		{"reported float truncated", "42.9", "", "", 42},
		{"reported garbage becomes zero", "n/a", "", "", 0},
		{"computed from timestamps", "", "2024-01-10T12:00:00+03:00", "2024-01-10T12:01:30+03:00", 90},
		{"computed space layout", "", "2024-01-10 12:00:00", "2024-01-10 12:00:07", 7},
		{"negative span clamped", "", "2024-01-10T12:05:00+03:00", "2024-01-10T12:00:00+03:00", 0},
		{"bad start becomes zero", "", "yesterday", "2024-01-10T12:00:00+03:00", 0},
		{"bad end becomes zero", "", "2024-01-10T12:00:00+03:00", "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveDuration(tc.reported, tc.start, tc.end, log)
			if got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestDurationFilterInclusiveBounds(t *testing.T) {
	min, max := 10, 100
	f := DurationFilter{Min: &min, Max: &max}
	cases := []struct {
		d    int
		want bool
	}{
		{9, false},
		{10, true},
		{55, true},
		{100, true},
		{101, false},
	}
	for _, tc := range cases {
		if got := f.Accept(tc.d); got != tc.want {
			t.Fatalf("Accept(%d) = %v, want %v", tc.d, got, tc.want)
		}
	}
}

func TestDurationFilterOpenBounds(t *testing.T) {
	if !(DurationFilter{}).Accept(0) {
		t.Fatal("no bounds should accept everything")
	}
	min := 5
	if (DurationFilter{Min: &min}).Accept(4) {
		t.Fatal("min-only filter accepted a short call")
	}
	max := 5
	if (DurationFilter{Max: &max}).Accept(6) {
		t.Fatal("max-only filter accepted a long call")
	}
}
