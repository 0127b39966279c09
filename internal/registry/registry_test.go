package registry

import (
	"testing"
)

func TestLoad(t *testing.T) {
	r, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if r.Count() == 0 {
		t.Fatal("expected bundled collections, got none")
	}

	// The WorldView-2 collection is the most commonly queried one.
	col := r.Get("wv02")
	if col == nil {
		t.Fatal("expected wv02 collection")
	}
	if col.Instrument != "WORLDVIEW02" {
		t.Errorf("wv02 instrument = %q, want WORLDVIEW02", col.Instrument)
	}
	if col.Platform != "worldview-2" {
		t.Errorf("wv02 platform = %q, want worldview-2", col.Platform)
	}

	if got := r.GetByInstrument("WORLDVIEW02"); got != col {
		t.Error("instrument lookup did not return the same collection")
	}
}

func TestLoad_InstrumentsUnique(t *testing.T) {
	r, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	seen := make(map[string]string)
	for _, col := range r.All() {
		if other, ok := seen[col.Instrument]; ok {
			t.Errorf("instrument %q shared by %q and %q", col.Instrument, other, col.ID)
		}
		seen[col.Instrument] = col.ID
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed JSON", `{`},
		{"empty feature list", `{"type": "FeatureCollection", "features": []}`},
		{"missing id", `{"type": "FeatureCollection", "features": [{"properties": {"eo:instrument": "X"}}]}`},
		{"missing instrument", `{"type": "FeatureCollection", "features": [{"properties": {"c:id": "x"}}]}`},
		{
			"duplicate id",
			`{"type": "FeatureCollection", "features": [
				{"properties": {"c:id": "x", "eo:instrument": "A"}},
				{"properties": {"c:id": "x", "eo:instrument": "B"}}
			]}`,
		},
		{
			"duplicate instrument",
			`{"type": "FeatureCollection", "features": [
				{"properties": {"c:id": "x", "eo:instrument": "A"}},
				{"properties": {"c:id": "y", "eo:instrument": "A"}}
			]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parse([]byte(tt.data)); err == nil {
				t.Error("expected parse error, got nil")
			}
		})
	}
}

func TestMergeProperties(t *testing.T) {
	r, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	col := r.Get("ge01")
	if col == nil {
		t.Fatal("expected ge01 collection")
	}

	props := map[string]any{
		"eo:gsd":         0.5, // scene-derived, must not be overwritten
		"eo:cloud_cover": 12.0,
	}
	col.MergeProperties(props)

	if props["eo:gsd"] != 0.5 {
		t.Errorf("scene-derived eo:gsd was overwritten: %v", props["eo:gsd"])
	}
	if props["c:id"] != "ge01" {
		t.Errorf("expected c:id merged from collection, got %v", props["c:id"])
	}
	if props["eo:instrument"] != "GEOEYE01" {
		t.Errorf("expected eo:instrument merged from collection, got %v", props["eo:instrument"])
	}
	if props["eo:cloud_cover"] != 12.0 {
		t.Errorf("unrelated scene property changed: %v", props["eo:cloud_cover"])
	}
}
