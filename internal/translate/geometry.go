package translate

import (
	"encoding/json"
	"fmt"

	"github.com/peterstace/simplefeatures/geom"
)

// ParseAOI parses an area of interest from GeoJSON. It accepts a Feature, a
// FeatureCollection (the first feature is used), or a bare geometry object,
// and requires the result to be a non-empty Polygon or MultiPolygon.
func ParseAOI(data []byte) (geom.Geometry, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return geom.Geometry{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	var g geom.Geometry
	switch probe.Type {
	case "FeatureCollection":
		var fc geom.GeoJSONFeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return geom.Geometry{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		if len(fc) == 0 {
			return geom.Geometry{}, fmt.Errorf("%w: feature collection is empty", ErrInvalidGeometry)
		}
		g = fc[0].Geometry
	case "Feature":
		var feat geom.GeoJSONFeature
		if err := json.Unmarshal(data, &feat); err != nil {
			return geom.Geometry{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		g = feat.Geometry
	default:
		parsed, err := geom.UnmarshalGeoJSON(data)
		if err != nil {
			return geom.Geometry{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		g = parsed
	}

	if g.IsEmpty() {
		return geom.Geometry{}, fmt.Errorf("%w: geometry is empty", ErrInvalidGeometry)
	}

	switch g.Type() {
	case geom.TypePolygon, geom.TypeMultiPolygon:
		return g, nil
	default:
		return geom.Geometry{}, fmt.Errorf("%w: expected Polygon or MultiPolygon, got %s", ErrInvalidGeometry, g.Type())
	}
}

// AOIToWKT renders an AOI geometry as the WKT string GBDX expects for its
// spatial search parameter.
func AOIToWKT(g geom.Geometry) string {
	return g.AsText()
}
