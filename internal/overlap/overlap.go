// Package overlap computes the fractional geometric intersection between
// scene footprints and a query AOI.
//
// The canonical convention is a raw fraction in [0,1]: intersection area
// divided by the AOI's own area, i.e. the portion of the AOI the scene
// actually covers. Threshold filtering keeps scenes with fraction >= the
// threshold.
package overlap

import (
	"fmt"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/rkm/sat-gbdx/internal/scene"
)

// Evaluate computes the AOI overlap fraction for each scene and records it.
// The input order is preserved; scenes are independent of one another.
func Evaluate(scenes []*scene.Scene, aoi geom.Geometry) error {
	aoiArea := polygonalArea(aoi)
	if aoiArea <= 0 {
		return fmt.Errorf("AOI has no area")
	}

	for _, s := range scenes {
		footprint, err := s.Footprint()
		if err != nil {
			return err
		}

		intersection, err := geom.Intersection(footprint, aoi)
		if err != nil {
			return fmt.Errorf("scene %s: intersection failed: %w", s.ID(), err)
		}

		fraction := polygonalArea(intersection) / aoiArea
		if fraction < 0 {
			fraction = 0
		} else if fraction > 1 {
			fraction = 1
		}
		s.SetOverlap(fraction)
	}

	return nil
}

// FilterByThreshold returns the subsequence of scenes whose overlap fraction
// is at least threshold. Scenes that were never evaluated are dropped.
func FilterByThreshold(scenes []*scene.Scene, threshold float64) []*scene.Scene {
	kept := make([]*scene.Scene, 0, len(scenes))
	for _, s := range scenes {
		fraction, ok := s.Overlap()
		if !ok {
			continue
		}
		if fraction >= threshold {
			kept = append(kept, s)
		}
	}
	return kept
}

// ValidateThreshold checks that a threshold is a fraction in [0,1].
func ValidateThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("overlap threshold must be in [0,1], got %v", threshold)
	}
	return nil
}

// polygonalArea returns the total polygonal area of a geometry. Lower
// dimensional pieces (points, lines) contribute nothing; geometry
// collections are summed.
func polygonalArea(g geom.Geometry) float64 {
	switch g.Type() {
	case geom.TypePolygon:
		return g.MustAsPolygon().Area()
	case geom.TypeMultiPolygon:
		return g.MustAsMultiPolygon().Area()
	case geom.TypeGeometryCollection:
		gc := g.MustAsGeometryCollection()
		var total float64
		for i := 0; i < gc.NumGeometries(); i++ {
			total += polygonalArea(gc.GeometryN(i))
		}
		return total
	default:
		return 0
	}
}
