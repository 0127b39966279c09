package translate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Query is a generic search request, expressed in provider-neutral terms.
// The translator converts it to GBDX filter predicates and parameters.
type Query struct {
	// Intersects is the AOI as GeoJSON: a Feature, a FeatureCollection
	// (the first feature is used), or a bare geometry object.
	Intersects json.RawMessage

	// Datetime is an RFC3339 instant or a "start/end" interval.
	// The end is optional (open-ended range).
	Datetime string

	// Collections restricts results to these collection IDs.
	Collections []string

	// CloudCover bounds the scene cloud-cover percentage.
	CloudCover *CloudCoverRange

	// IDs requests specific catalog records directly. When set, every
	// other filter field is ignored.
	IDs []string

	// Types are the GBDX record types to search.
	Types []string
}

// CloudCoverRange bounds cloud cover in percent. Either bound may be nil.
type CloudCoverRange struct {
	Min *float64
	Max *float64
}

// ParseCloudCover parses a cloud-cover argument. A single value is an upper
// bound ("10"); two slash-separated values are a min/max range ("0/10").
func ParseCloudCover(s string) (*CloudCoverRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, "/")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: expected 'max' or 'min/max', got %q", ErrInvalidCloudCover, s)
	}

	parse := func(v string) (*float64, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidCloudCover, v)
		}
		if f < 0 || f > 100 {
			return nil, fmt.Errorf("%w: %v outside [0,100]", ErrInvalidCloudCover, f)
		}
		return &f, nil
	}

	r := &CloudCoverRange{}
	if len(parts) == 1 {
		max, err := parse(parts[0])
		if err != nil {
			return nil, err
		}
		r.Max = max
		return r, nil
	}

	min, err := parse(parts[0])
	if err != nil {
		return nil, err
	}
	max, err := parse(parts[1])
	if err != nil {
		return nil, err
	}
	if *min > *max {
		return nil, fmt.Errorf("%w: min %v exceeds max %v", ErrInvalidCloudCover, *min, *max)
	}

	r.Min, r.Max = min, max
	return r, nil
}
