package translate

import (
	"errors"
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"RFC3339", "2017-06-15T14:00:00Z", time.Date(2017, 6, 15, 14, 0, 0, 0, time.UTC)},
		{"date only", "2017-06-15", time.Date(2017, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"no timezone", "2017-06-15T14:00:00", time.Date(2017, 6, 15, 14, 0, 0, 0, time.UTC)},
		{"with offset", "2017-06-15T14:00:00+02:00", time.Date(2017, 6, 15, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.input)
			if err != nil {
				t.Fatalf("ParseTime(%q) failed: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTime_Invalid(t *testing.T) {
	for _, input := range []string{"", "yesterday", "2017-13-45"} {
		if _, err := ParseTime(input); !errors.Is(err, ErrInvalidDateTime) {
			t.Errorf("ParseTime(%q): expected ErrInvalidDateTime, got %v", input, err)
		}
	}
}

func TestParseInterval(t *testing.T) {
	start, end, err := ParseInterval("2015-01-01/2017-11-01")
	if err != nil {
		t.Fatalf("ParseInterval failed: %v", err)
	}
	if start == nil || end == nil {
		t.Fatal("expected both bounds")
	}
	if !start.Equal(time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2017, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", end)
	}
}

func TestParseInterval_OpenEnded(t *testing.T) {
	start, end, err := ParseInterval("2015-01-01")
	if err != nil {
		t.Fatalf("ParseInterval failed: %v", err)
	}
	if start == nil {
		t.Fatal("expected start bound")
	}
	if end != nil {
		t.Errorf("expected nil end, got %v", end)
	}
}

func TestParseInterval_Empty(t *testing.T) {
	start, end, err := ParseInterval("")
	if err != nil {
		t.Fatalf("ParseInterval failed: %v", err)
	}
	if start != nil || end != nil {
		t.Error("expected no bounds for empty input")
	}
}

func TestParseInterval_Invalid(t *testing.T) {
	tests := []string{
		"2017-01-01/2015-01-01", // end before start
		"a/b",
		"2015-01-01/2016-01-01/2017-01-01",
	}
	for _, input := range tests {
		if _, _, err := ParseInterval(input); err == nil {
			t.Errorf("ParseInterval(%q): expected error, got nil", input)
		}
	}
}
