package scene

import (
	"fmt"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/planetlabs/go-stac"

	"github.com/rkm/sat-gbdx/internal/gbdx"
	"github.com/rkm/sat-gbdx/internal/registry"
)

// stacVersion is written into normalized items.
const stacVersion = "1.0.0"

// Normalizer maps raw GBDX catalog records into canonical scenes, merging in
// collection reference metadata by instrument name.
type Normalizer struct {
	registry *registry.Registry
}

// NewNormalizer creates a normalizer backed by the given registry.
func NewNormalizer(reg *registry.Registry) *Normalizer {
	return &Normalizer{registry: reg}
}

// Normalize converts one raw record into a Scene. It fails when the record's
// platform name matches no registry collection, or when the footprint WKT
// cannot be parsed.
func (n *Normalizer) Normalize(rec *gbdx.Record) (*Scene, error) {
	props := rec.Properties

	id := props.CatalogID
	if id == "" {
		id = rec.Identifier
	}
	if id == "" {
		return nil, fmt.Errorf("record has no catalog ID")
	}

	col := n.registry.GetByInstrument(props.PlatformName)
	if col == nil {
		return nil, fmt.Errorf("%w: %q (scene %s)", ErrUnknownPlatform, props.PlatformName, id)
	}

	footprint, err := geom.UnmarshalWKT(props.FootprintWkt)
	if err != nil {
		return nil, fmt.Errorf("scene %s: failed to parse footprint WKT: %w", id, err)
	}

	item := &stac.Item{
		Version:    stacVersion,
		Id:         id,
		Collection: col.ID,
		Properties: map[string]any{
			propDatetime:       props.Timestamp,
			"eo:cloud_cover":   props.CloudCover,
			"eo:gsd":           props.MultiResolution,
			"eo:sun_azimuth":   props.SunAzimuth,
			"eo:sun_elevation": props.SunElevation,
			"eo:off_nadir":     props.OffNadirAngle,
			"eo:azimuth":       props.TargetAzimuth,
			"dg:image_bands":   props.ImageBands,
		},
		Assets: make(map[string]*stac.Asset),
		Links:  make([]*stac.Link, 0),
	}

	if props.BucketName != "" {
		item.Properties["dg:bucket_name"] = props.BucketName
	}

	// Reference metadata fills in around the record's own fields; the
	// scene-derived values win on conflict.
	col.MergeProperties(item.Properties)

	s := &Scene{Item: item, State: StateUnordered()}
	if err := s.setFootprint(footprint); err != nil {
		return nil, fmt.Errorf("scene %s: %w", id, err)
	}

	if props.BrowseURL != "" {
		s.AddAsset("thumbnail", props.BrowseURL, "Browse Image", "image/jpeg", "thumbnail")
	}

	return s, nil
}

// NormalizeAll converts a batch of records, failing on the first bad record.
func (n *Normalizer) NormalizeAll(records []gbdx.Record) ([]*Scene, error) {
	scenes := make([]*Scene, 0, len(records))
	for i := range records {
		s, err := n.Normalize(&records[i])
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, s)
	}
	return scenes, nil
}
