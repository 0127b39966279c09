package gbdx

import (
	"time"
)

// TimestampFormat is the microsecond-precision UTC layout GBDX expects for
// temporal parameters and reports in record timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// DefaultType is the record type searched when a query does not specify one.
const DefaultType = "DigitalGlobeAcquisition"

// SearchParams represents parameters for GBDX catalog search queries.
type SearchParams struct {
	// Filters are conjunctive provider filter predicates,
	// e.g. "cloudCover <= 10" or "sensorPlatformName = 'WORLDVIEW02'".
	Filters []string

	// SearchAreaWkt is the spatial search constraint as a WKT polygon.
	SearchAreaWkt string

	// Start and End bound the acquisition timestamp. End is optional
	// (open-ended range).
	Start *time.Time
	End   *time.Time

	// Types are the record types to search (default: DigitalGlobeAcquisition).
	Types []string
}

// searchRequest is the JSON body of a catalog search call.
type searchRequest struct {
	SearchAreaWkt string   `json:"searchAreaWkt,omitempty"`
	StartDate     string   `json:"startDate,omitempty"`
	EndDate       string   `json:"endDate,omitempty"`
	Filters       []string `json:"filters"`
	Types         []string `json:"types"`
}

// ToRequest converts SearchParams to the request body for the search endpoint.
func (p *SearchParams) ToRequest() searchRequest {
	req := searchRequest{
		SearchAreaWkt: p.SearchAreaWkt,
		Filters:       p.Filters,
		Types:         p.Types,
	}

	if req.Filters == nil {
		req.Filters = []string{}
	}
	if len(req.Types) == 0 {
		req.Types = []string{DefaultType}
	}

	if p.Start != nil {
		req.StartDate = FormatTimestamp(*p.Start)
	}
	if p.End != nil {
		req.EndDate = FormatTimestamp(*p.End)
	}

	return req
}

// FormatTimestamp formats a time for GBDX temporal parameters.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}
