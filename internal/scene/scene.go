// Package scene provides the canonical scene representation, normalization of
// raw GBDX catalog records, and the persistable scene collection.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/planetlabs/go-stac"
	"github.com/peterstace/simplefeatures/geom"
)

var (
	// ErrUnknownPlatform is returned when a record's platform name has no
	// matching collection in the registry. This indicates a stale registry,
	// not a transient condition.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrMissingAOI is returned when a collection operation that needs the
	// query AOI finds none in the shared properties.
	ErrMissingAOI = errors.New("scene collection has no AOI")
)

// Property keys used on normalized scenes.
const (
	propDatetime = "datetime"
	propOverlap  = "overlap"
	propOrderID  = "dg:order_id"
	propLocation = "dg:location"
)

// Scene is one normalized catalog record: a STAC item carrying the
// provider's EO attributes, plus order state and the computed AOI overlap.
type Scene struct {
	Item *stac.Item

	// State is the fulfillment state, kept in sync with the dg:order_id
	// and dg:location item properties so it survives persistence.
	State OrderState

	footprint    geom.Geometry
	hasFootprint bool
}

// FromItem reconstructs a Scene from a persisted STAC item, deriving the
// order state from the dg:* properties.
func FromItem(item *stac.Item) *Scene {
	s := &Scene{Item: item, State: StateUnordered()}

	orderID, _ := item.Properties[propOrderID].(string)
	location, _ := item.Properties[propLocation].(string)

	switch {
	case orderID != "" && location != "":
		s.State = StateFulfilled(orderID, location)
	case orderID != "":
		s.State = StatePending(orderID)
	}

	return s
}

// ID returns the provider catalog ID.
func (s *Scene) ID() string {
	return s.Item.Id
}

// CollectionID returns the collection the scene was matched to.
func (s *Scene) CollectionID() string {
	return s.Item.Collection
}

// Datetime returns the acquisition timestamp property.
func (s *Scene) Datetime() string {
	v, _ := s.Item.Properties[propDatetime].(string)
	return v
}

// Date returns the calendar-date part of the acquisition timestamp.
func (s *Scene) Date() string {
	dt := s.Datetime()
	if i := strings.IndexByte(dt, 'T'); i > 0 {
		return dt[:i]
	}
	return dt
}

// Instrument returns the provider instrument name (e.g. "WORLDVIEW02").
func (s *Scene) Instrument() string {
	v, _ := s.Item.Properties["eo:instrument"].(string)
	return v
}

// Footprint returns the scene's ground polygon. The item geometry is stored
// as GeoJSON; the parsed form is cached after the first call.
func (s *Scene) Footprint() (geom.Geometry, error) {
	if s.hasFootprint {
		return s.footprint, nil
	}

	if s.Item.Geometry == nil {
		return geom.Geometry{}, fmt.Errorf("scene %s has no geometry", s.ID())
	}

	data, err := json.Marshal(s.Item.Geometry)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("scene %s: failed to encode geometry: %w", s.ID(), err)
	}

	g, err := geom.UnmarshalGeoJSON(data)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("scene %s: failed to parse geometry: %w", s.ID(), err)
	}

	s.footprint = g
	s.hasFootprint = true
	return g, nil
}

// setFootprint stores a parsed footprint on the item as plain GeoJSON and
// primes the cache.
func (s *Scene) setFootprint(g geom.Geometry) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to encode footprint: %w", err)
	}

	var geomMap map[string]any
	if err := json.Unmarshal(data, &geomMap); err != nil {
		return fmt.Errorf("failed to decode footprint: %w", err)
	}

	s.Item.Geometry = geomMap
	if min, max, ok := g.Envelope().MinMaxXYs(); ok {
		s.Item.Bbox = []float64{min.X, min.Y, max.X, max.Y}
	}

	s.footprint = g
	s.hasFootprint = true
	return nil
}

// Overlap returns the computed AOI overlap fraction, and whether it has been
// evaluated. A scene that was never evaluated is distinct from one with zero
// overlap.
func (s *Scene) Overlap() (float64, bool) {
	switch v := s.Item.Properties[propOverlap].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// SetOverlap records the AOI overlap fraction.
func (s *Scene) SetOverlap(fraction float64) {
	s.Item.Properties[propOverlap] = fraction
}

// SetState transitions the order state and mirrors it into the persisted
// item properties.
func (s *Scene) SetState(state OrderState) {
	s.State = state
	if state.OrderID != "" {
		s.Item.Properties[propOrderID] = state.OrderID
	}
	if state.Location != "" {
		s.Item.Properties[propLocation] = state.Location
	}
}

// AddAsset records an asset reference (URL or local path) under the given key.
func (s *Scene) AddAsset(key, href, title, mediaType string, roles ...string) {
	s.Item.Assets[key] = &stac.Asset{
		Href:  href,
		Title: title,
		Type:  mediaType,
		Roles: roles,
	}
}

// Asset returns the href recorded under the given asset key, if any.
func (s *Scene) Asset(key string) (string, bool) {
	a, ok := s.Item.Assets[key]
	if !ok || a == nil {
		return "", false
	}
	return a.Href, true
}

// Filename expands a filename pattern for this scene. Supported tokens:
// ${date}, ${c:id}, ${id}.
func (s *Scene) Filename(pattern string) string {
	r := strings.NewReplacer(
		"${date}", s.Date(),
		"${c:id}", s.CollectionID(),
		"${id}", s.ID(),
	)
	return r.Replace(pattern)
}
