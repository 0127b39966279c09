// Package registry provides the static DigitalGlobe collection reference table.
//
// Collections map provider instrument names (e.g. "WORLDVIEW02") to the
// metadata shared by every scene acquired by that instrument. The table is
// bundled with the binary; failing to load it is a packaging defect, not a
// runtime condition.
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
)

//go:embed collections.json
var collectionsJSON []byte

// Collection holds the reference metadata for one instrument/platform pair.
type Collection struct {
	ID         string
	Title      string
	Instrument string
	Platform   string

	// Properties is the full property map from the reference file,
	// merged into scenes during normalization.
	Properties map[string]any
}

// Registry is the loaded collection table, indexed by collection ID and by
// instrument name. It is read-only after Load and safe for concurrent use.
type Registry struct {
	byID         map[string]*Collection
	byInstrument map[string]*Collection
}

// Load parses the bundled collection reference file.
func Load() (*Registry, error) {
	return parse(collectionsJSON)
}

func parse(data []byte) (*Registry, error) {
	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse collections file: %w", err)
	}

	if len(doc.Features) == 0 {
		return nil, fmt.Errorf("collections file contains no collections")
	}

	r := &Registry{
		byID:         make(map[string]*Collection, len(doc.Features)),
		byInstrument: make(map[string]*Collection, len(doc.Features)),
	}

	for i, feat := range doc.Features {
		col, err := newCollection(feat.Properties)
		if err != nil {
			return nil, fmt.Errorf("invalid collection at index %d: %w", i, err)
		}

		if _, exists := r.byID[col.ID]; exists {
			return nil, fmt.Errorf("duplicate collection ID %q", col.ID)
		}
		if _, exists := r.byInstrument[col.Instrument]; exists {
			return nil, fmt.Errorf("duplicate instrument %q", col.Instrument)
		}

		r.byID[col.ID] = col
		r.byInstrument[col.Instrument] = col
	}

	return r, nil
}

func newCollection(props map[string]any) (*Collection, error) {
	if props == nil {
		return nil, fmt.Errorf("collection has no properties")
	}

	id, _ := props["c:id"].(string)
	if id == "" {
		return nil, fmt.Errorf("collection ID (c:id) is required")
	}

	instrument, _ := props["eo:instrument"].(string)
	if instrument == "" {
		return nil, fmt.Errorf("collection %q: instrument (eo:instrument) is required", id)
	}

	title, _ := props["title"].(string)
	platform, _ := props["eo:platform"].(string)

	return &Collection{
		ID:         id,
		Title:      title,
		Instrument: instrument,
		Platform:   platform,
		Properties: props,
	}, nil
}

// Get retrieves a collection by ID.
// Returns nil if the collection does not exist.
func (r *Registry) Get(id string) *Collection {
	return r.byID[id]
}

// GetByInstrument retrieves a collection by provider instrument name.
// Returns nil if no collection matches.
func (r *Registry) GetByInstrument(instrument string) *Collection {
	return r.byInstrument[instrument]
}

// Has checks if a collection with the given ID exists in the registry.
func (r *Registry) Has(id string) bool {
	_, exists := r.byID[id]
	return exists
}

// IDs returns all collection IDs in the registry, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns all collections in the registry, ordered by ID.
func (r *Registry) All() []*Collection {
	cols := make([]*Collection, 0, len(r.byID))
	for _, id := range r.IDs() {
		cols = append(cols, r.byID[id])
	}
	return cols
}

// Count returns the number of collections in the registry.
func (r *Registry) Count() int {
	return len(r.byID)
}

// MergeProperties copies the collection's reference properties into props,
// skipping keys the scene already has a value for. Scene-derived fields
// always win over collection defaults.
func (c *Collection) MergeProperties(props map[string]any) {
	for k, v := range c.Properties {
		if _, exists := props[k]; !exists {
			props[k] = v
		}
	}
}
