package translate

import (
	"fmt"
	"strings"
	"time"
)

// Accepted input layouts for datetime arguments. GBDX record timestamps use
// microsecond precision; humans mostly type dates.
var inputTimeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses a single datetime argument into a UTC time.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty time string", ErrInvalidDateTime)
	}

	var lastErr error
	for _, format := range inputTimeFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDateTime, s, lastErr)
}

// ParseInterval parses a datetime argument which can be:
//   - a single instant: "2017-06-15T14:00:00Z" (open-ended start bound)
//   - a closed interval: "2017-01-01/2017-11-01"
//
// Returns start and end times; end is nil for open-ended ranges.
func ParseInterval(datetime string) (*time.Time, *time.Time, error) {
	datetime = strings.TrimSpace(datetime)
	if datetime == "" {
		return nil, nil, nil
	}

	parts := strings.Split(datetime, "/")
	if len(parts) > 2 {
		return nil, nil, fmt.Errorf("%w: interval must be 'start/end'", ErrInvalidDateTime)
	}

	start, err := ParseTime(parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid start datetime: %w", err)
	}

	if len(parts) == 1 {
		return &start, nil, nil
	}

	end, err := ParseTime(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid end datetime: %w", err)
	}
	if end.Before(start) {
		return nil, nil, fmt.Errorf("%w: end precedes start", ErrInvalidDateTime)
	}

	return &start, &end, nil
}
