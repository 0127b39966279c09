package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/planetlabs/go-stac"

	"github.com/rkm/sat-gbdx/internal/translate"
)

// Collection is an ordered set of scenes sharing request-level context.
// Insertion order is the search result order and is preserved across
// persistence.
type Collection struct {
	Scenes []*Scene

	// Properties holds shared query context. The "intersects" key carries
	// the AOI GeoJSON and is required for fetch and crop operations.
	Properties map[string]any
}

// document is the persisted form: a GeoJSON FeatureCollection whose features
// are the scenes and whose top-level properties hold the query context.
type document struct {
	Type       string         `json:"type"`
	Features   []*stac.Item   `json:"features"`
	Properties map[string]any `json:"properties,omitempty"`
}

// NewCollection creates a collection over the given scenes.
func NewCollection(scenes []*Scene, properties map[string]any) *Collection {
	if properties == nil {
		properties = make(map[string]any)
	}
	return &Collection{Scenes: scenes, Properties: properties}
}

// SetAOI stores the query AOI GeoJSON in the shared properties.
func (c *Collection) SetAOI(raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("invalid AOI GeoJSON: %w", err)
	}
	c.Properties["intersects"] = v
	return nil
}

// AOI returns the query AOI as a parsed geometry. Fetch and crop operations
// require it; its absence is a hard precondition failure.
func (c *Collection) AOI() (geom.Geometry, error) {
	raw, err := c.AOIRaw()
	if err != nil {
		return geom.Geometry{}, err
	}
	g, err := translate.ParseAOI(raw)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("stored AOI is unusable: %w", err)
	}
	return g, nil
}

// AOIRaw returns the stored AOI GeoJSON bytes.
func (c *Collection) AOIRaw() (json.RawMessage, error) {
	v, ok := c.Properties["intersects"]
	if !ok || v == nil {
		return nil, ErrMissingAOI
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stored AOI: %w", err)
	}
	return data, nil
}

// Len returns the number of scenes in the collection.
func (c *Collection) Len() int {
	return len(c.Scenes)
}

// Find returns the scene with the given catalog ID, or nil.
func (c *Collection) Find(id string) *Scene {
	for _, s := range c.Scenes {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

// Filter removes scenes the predicate rejects, preserving order.
func (c *Collection) Filter(keep func(*Scene) bool) {
	kept := c.Scenes[:0]
	for _, s := range c.Scenes {
		if keep(s) {
			kept = append(kept, s)
		}
	}
	c.Scenes = kept
}

// FilterByIDs keeps only scenes whose catalog ID is in ids.
func (c *Collection) FilterByIDs(ids []string) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	c.Filter(func(s *Scene) bool { return want[s.ID()] })
}

// FilterByCollection keeps only scenes belonging to the given collection ID.
func (c *Collection) FilterByCollection(collectionID string) {
	c.Filter(func(s *Scene) bool { return s.CollectionID() == collectionID })
}

// Load reconstructs a collection from a persisted GeoJSON document.
func Load(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenes file %q: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scenes file %q: %w", path, err)
	}
	if doc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("scenes file %q is not a FeatureCollection", path)
	}

	scenes := make([]*Scene, 0, len(doc.Features))
	for _, item := range doc.Features {
		if item == nil {
			continue
		}
		scenes = append(scenes, FromItem(item))
	}

	return NewCollection(scenes, doc.Properties), nil
}

// Save writes the collection to path. With appendMode, scenes already in the
// file are preserved and merged by catalog ID, newer metadata winning.
func (c *Collection) Save(path string, appendMode bool) error {
	scenes := c.Scenes

	if appendMode {
		if _, err := os.Stat(path); err == nil {
			existing, err := Load(path)
			if err != nil {
				return fmt.Errorf("cannot append to %q: %w", path, err)
			}
			scenes = mergeScenes(existing.Scenes, c.Scenes)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("cannot stat %q: %w", path, err)
		}
	}

	doc := document{
		Type:       "FeatureCollection",
		Features:   make([]*stac.Item, 0, len(scenes)),
		Properties: c.Properties,
	}
	for _, s := range scenes {
		doc.Features = append(doc.Features, s.Item)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scenes: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scenes file %q: %w", path, err)
	}

	return nil
}

// mergeScenes merges updates into base by catalog ID. Existing order is
// preserved; scenes not present in base are appended in update order.
func mergeScenes(base, updates []*Scene) []*Scene {
	byID := make(map[string]*Scene, len(updates))
	for _, s := range updates {
		byID[s.ID()] = s
	}

	merged := make([]*Scene, 0, len(base)+len(updates))
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		if u, ok := byID[s.ID()]; ok {
			merged = append(merged, u)
		} else {
			merged = append(merged, s)
		}
		seen[s.ID()] = true
	}
	for _, s := range updates {
		if !seen[s.ID()] {
			merged = append(merged, s)
		}
	}
	return merged
}
