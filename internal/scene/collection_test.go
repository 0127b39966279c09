package scene

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

const testAOI = `{"type": "Polygon", "coordinates": [[[0, 0], [0.01, 0], [0.01, 0.01], [0, 0.01], [0, 0]]]}`

func newTestCollection(t *testing.T, ids ...string) *Collection {
	t.Helper()
	n := newTestNormalizer(t)

	scenes := make([]*Scene, 0, len(ids))
	for _, id := range ids {
		rec := testRecord()
		rec.Properties.CatalogID = id
		s, err := n.Normalize(&rec)
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}
		scenes = append(scenes, s)
	}

	c := NewCollection(scenes, nil)
	if err := c.SetAOI(json.RawMessage(testAOI)); err != nil {
		t.Fatalf("SetAOI failed: %v", err)
	}
	return c
}

func TestCollection_AOI(t *testing.T) {
	c := newTestCollection(t, "a")

	aoi, err := c.AOI()
	if err != nil {
		t.Fatalf("AOI failed: %v", err)
	}
	if aoi.IsEmpty() {
		t.Error("AOI is empty")
	}
}

func TestCollection_MissingAOI(t *testing.T) {
	c := NewCollection(nil, nil)
	if _, err := c.AOI(); !errors.Is(err, ErrMissingAOI) {
		t.Fatalf("expected ErrMissingAOI, got %v", err)
	}
}

func TestCollection_RoundTrip(t *testing.T) {
	c := newTestCollection(t, "a", "b", "c")
	c.Scenes[1].SetState(StatePending("order-1"))
	c.Scenes[2].SetOverlap(0.42)

	path := filepath.Join(t.TempDir(), "scenes.geojson")
	if err := c.Save(path, false); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Len() != 3 {
		t.Fatalf("expected 3 scenes, got %d", loaded.Len())
	}

	// Scene order and IDs survive the round trip.
	for i, want := range []string{"a", "b", "c"} {
		if got := loaded.Scenes[i].ID(); got != want {
			t.Errorf("scene %d ID = %q, want %q", i, got, want)
		}
	}

	// Order state is reconstructed from persisted properties.
	if loaded.Scenes[1].State.Phase != Pending {
		t.Errorf("scene b state = %v, want Pending", loaded.Scenes[1].State)
	}
	if loaded.Scenes[1].State.OrderID != "order-1" {
		t.Errorf("scene b order ID = %q", loaded.Scenes[1].State.OrderID)
	}

	// Overlap survives.
	if v, ok := loaded.Scenes[2].Overlap(); !ok || v != 0.42 {
		t.Errorf("scene c overlap = %v, %v", v, ok)
	}
	if _, ok := loaded.Scenes[0].Overlap(); ok {
		t.Error("scene a should have no overlap value")
	}

	// The AOI survives in the shared properties.
	aoi, err := loaded.AOI()
	if err != nil {
		t.Fatalf("loaded AOI failed: %v", err)
	}
	if aoi.IsEmpty() {
		t.Error("loaded AOI is empty")
	}

	// Property maps are equivalent.
	for i := range c.Scenes {
		want := normalizeJSON(t, c.Scenes[i].Item.Properties)
		got := normalizeJSON(t, loaded.Scenes[i].Item.Properties)
		if !reflect.DeepEqual(want, got) {
			t.Errorf("scene %d properties differ:\nsaved:  %v\nloaded: %v", i, want, got)
		}
	}

	// Saving the loaded collection again is idempotent.
	path2 := filepath.Join(t.TempDir(), "scenes2.geojson")
	if err := loaded.Save(path2, false); err != nil {
		t.Fatalf("re-Save failed: %v", err)
	}
	reloaded, err := Load(path2)
	if err != nil {
		t.Fatalf("re-Load failed: %v", err)
	}
	if reloaded.Len() != loaded.Len() {
		t.Errorf("re-loaded count = %d, want %d", reloaded.Len(), loaded.Len())
	}
}

// normalizeJSON round-trips a value through JSON so numeric types compare
// consistently.
func normalizeJSON(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return out
}

func TestCollection_SaveAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenes.geojson")

	first := newTestCollection(t, "a", "b")
	if err := first.Save(path, false); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Second run returns scene b (updated with an order) and a new scene c.
	second := newTestCollection(t, "b", "c")
	second.Scenes[0].SetState(StateFulfilled("order-9", "s3://bucket/b"))
	if err := second.Save(path, true); err != nil {
		t.Fatalf("append Save failed: %v", err)
	}

	merged, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if merged.Len() != 3 {
		t.Fatalf("expected 3 merged scenes, got %d", merged.Len())
	}
	for i, want := range []string{"a", "b", "c"} {
		if got := merged.Scenes[i].ID(); got != want {
			t.Errorf("scene %d = %q, want %q", i, got, want)
		}
	}

	// The updated scene b won over the stale persisted one.
	b := merged.Find("b")
	if b == nil {
		t.Fatal("scene b missing")
	}
	if b.State.Phase != Fulfilled {
		t.Errorf("scene b state = %v, want Fulfilled", b.State)
	}
}

func TestCollection_Filter(t *testing.T) {
	c := newTestCollection(t, "a", "b", "c")

	c.FilterByIDs([]string{"a", "c"})
	if c.Len() != 2 {
		t.Fatalf("expected 2 scenes, got %d", c.Len())
	}
	if c.Scenes[0].ID() != "a" || c.Scenes[1].ID() != "c" {
		t.Errorf("unexpected scenes after filter: %s, %s", c.Scenes[0].ID(), c.Scenes[1].ID())
	}

	c.FilterByCollection("wv02")
	if c.Len() != 2 {
		t.Errorf("wv02 filter should keep all scenes, got %d", c.Len())
	}

	c.FilterByCollection("ge01")
	if c.Len() != 0 {
		t.Errorf("ge01 filter should remove all scenes, got %d", c.Len())
	}
}

func TestCollection_Find(t *testing.T) {
	c := newTestCollection(t, "a", "b")
	if s := c.Find("b"); s == nil || s.ID() != "b" {
		t.Error("Find(b) failed")
	}
	if s := c.Find("z"); s != nil {
		t.Error("Find(z) should return nil")
	}
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.geojson")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.geojson")
	writeFile(t, bad, `{"type": "Point"}`)
	if _, err := Load(bad); err == nil {
		t.Error("expected error for non-FeatureCollection document")
	}
}

func TestScene_Filename(t *testing.T) {
	c := newTestCollection(t, "10400100G00")
	s := c.Scenes[0]

	got := s.Filename("${date}_${c:id}_${id}")
	want := "2017-06-15_wv02_10400100G00"
	if got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
}

func TestFromItem_StateReconstruction(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name      string
		mutate    func(*Scene)
		wantPhase OrderPhase
	}{
		{"unordered", func(s *Scene) {}, Unordered},
		{"pending", func(s *Scene) { s.SetState(StatePending("o1")) }, Pending},
		{"fulfilled", func(s *Scene) { s.SetState(StateFulfilled("o1", "s3://x")) }, Fulfilled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecord()
			s, err := n.Normalize(&rec)
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			tt.mutate(s)

			restored := FromItem(s.Item)
			if restored.State.Phase != tt.wantPhase {
				t.Errorf("restored phase = %v, want %v", restored.State.Phase, tt.wantPhase)
			}
		})
	}
}
