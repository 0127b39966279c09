// Package translate converts generic scene queries into GBDX's native filter
// syntax and parameter set.
package translate

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rkm/sat-gbdx/internal/gbdx"
	"github.com/rkm/sat-gbdx/internal/registry"
)

// Translation is the provider-native form of a query. When IDs is non-empty
// the query is a direct record fetch and Params is meaningless.
type Translation struct {
	IDs    []string
	Params gbdx.SearchParams
}

// Translator converts generic queries into GBDX search parameters.
// Translation is pure: the same query always yields the same output.
type Translator struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// NewTranslator creates a new translator instance.
func NewTranslator(reg *registry.Registry, logger *slog.Logger) *Translator {
	return &Translator{
		registry: reg,
		logger:   logger,
	}
}

// Translate converts a query into GBDX filter predicates and parameters.
// Rules are applied independently and composed conjunctively; explicit IDs
// short-circuit every other filter.
func (t *Translator) Translate(q *Query) (*Translation, error) {
	if len(q.IDs) > 0 {
		return &Translation{IDs: q.IDs}, nil
	}

	params := gbdx.SearchParams{
		Types: q.Types,
	}

	if len(q.Collections) > 0 {
		filter, err := t.collectionFilter(q.Collections)
		if err != nil {
			return nil, err
		}
		params.Filters = append(params.Filters, filter)
	}

	if len(q.Intersects) > 0 {
		aoi, err := ParseAOI(q.Intersects)
		if err != nil {
			t.logger.Error("failed to parse AOI geometry", "error", err)
			return nil, err
		}
		params.SearchAreaWkt = AOIToWKT(aoi)
	}

	if q.Datetime != "" {
		start, end, err := ParseInterval(q.Datetime)
		if err != nil {
			t.logger.Error("failed to parse datetime", "error", err)
			return nil, err
		}
		params.Start = start
		params.End = end
	}

	if q.CloudCover != nil {
		params.Filters = append(params.Filters, cloudCoverFilters(q.CloudCover)...)
	}

	return &Translation{Params: params}, nil
}

// collectionFilter resolves collection IDs to instrument names and emits the
// GBDX platform-name equality predicate.
func (t *Translator) collectionFilter(ids []string) (string, error) {
	instruments := make([]string, 0, len(ids))
	for _, id := range ids {
		col := t.registry.Get(id)
		if col == nil {
			return "", fmt.Errorf("%w: %q", ErrUnknownCollection, id)
		}
		instruments = append(instruments, col.Instrument)
	}
	return fmt.Sprintf("sensorPlatformName = '%s'", strings.Join(instruments, ",")), nil
}

// cloudCoverFilters emits one inequality predicate per configured bound.
func cloudCoverFilters(r *CloudCoverRange) []string {
	var filters []string
	if r.Min != nil {
		filters = append(filters, "cloudCover >= "+formatBound(*r.Min))
	}
	if r.Max != nil {
		filters = append(filters, "cloudCover <= "+formatBound(*r.Max))
	}
	return filters
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
