package tiles

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/rkm/sat-gbdx/internal/gbdx"
	"github.com/rkm/sat-gbdx/internal/registry"
	"github.com/rkm/sat-gbdx/internal/scene"
)

func TestDeg2Num(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		zoom     int
		x, y     int
	}{
		{"origin at zoom 0", 0, 0, 0, 0, 0},
		{"origin at zoom 1", 0, 0, 1, 1, 1},
		{"northwest quadrant", 45, -90, 1, 0, 0},
		{"greenwich at zoom 8", 51.5, 0, 8, 128, 85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := Deg2Num(tt.lat, tt.lon, tt.zoom)
			if x != tt.x || y != tt.y {
				t.Errorf("Deg2Num(%v, %v, %d) = (%d, %d), want (%d, %d)",
					tt.lat, tt.lon, tt.zoom, x, y, tt.x, tt.y)
			}
		})
	}
}

func TestNum2Deg_RoundTrip(t *testing.T) {
	// The northwest corner of a tile maps back into the same tile.
	for _, tile := range []Tile{
		{X: 0, Y: 0, Zoom: 1},
		{X: 128, Y: 85, Zoom: 8},
		{X: 301, Y: 384, Zoom: 10},
	} {
		lat, lon := Num2Deg(tile.X, tile.Y, tile.Zoom)
		x, y := Deg2Num(lat-1e-9, lon+1e-9, tile.Zoom)
		if x != tile.X || y != tile.Y {
			t.Errorf("round trip of %+v gave (%d, %d)", tile, x, y)
		}
	}
}

func TestTileBounds(t *testing.T) {
	// Zoom 1 tile (0,0) covers the northwest quadrant.
	b, err := Tile{X: 0, Y: 0, Zoom: 1}.Bounds()
	if err != nil {
		t.Fatalf("Bounds failed: %v", err)
	}
	min, max, ok := b.Envelope().MinMaxXYs()
	if !ok {
		t.Fatal("empty bounds")
	}
	if math.Abs(min.X-(-180)) > 1e-9 || math.Abs(max.X-0) > 1e-9 {
		t.Errorf("lon range = [%v, %v], want [-180, 0]", min.X, max.X)
	}
	if math.Abs(min.Y-0) > 1e-9 || math.Abs(max.Y-85.0511287798) > 1e-6 {
		t.Errorf("lat range = [%v, %v]", min.Y, max.Y)
	}
}

func mustGeom(t *testing.T, wkt string) geom.Geometry {
	t.Helper()
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		t.Fatalf("failed to parse WKT: %v", err)
	}
	return g
}

func TestForAOI(t *testing.T) {
	// A small AOI straddling the origin touches all four zoom-1 tiles.
	aoi := mustGeom(t, "POLYGON((-1 -1,1 -1,1 1,-1 1,-1 -1))")
	tiles, err := ForAOI(aoi, 1)
	if err != nil {
		t.Fatalf("ForAOI failed: %v", err)
	}
	if len(tiles) != 4 {
		t.Fatalf("got %d tiles, want 4: %v", len(tiles), tiles)
	}
}

func TestForAOI_ExcludesNonOverlapping(t *testing.T) {
	// An AOI inside the northeast quadrant hits exactly one zoom-1 tile.
	aoi := mustGeom(t, "POLYGON((10 10,20 10,20 20,10 20,10 10))")
	tiles, err := ForAOI(aoi, 1)
	if err != nil {
		t.Fatalf("ForAOI failed: %v", err)
	}
	if len(tiles) != 1 {
		t.Fatalf("got %d tiles, want 1: %v", len(tiles), tiles)
	}
	if tiles[0] != (Tile{X: 1, Y: 0, Zoom: 1}) {
		t.Errorf("tile = %+v, want {1 0 1}", tiles[0])
	}
}

type fakeDownloader struct {
	urls []string
	err  error
}

func (d *fakeDownloader) DownloadFile(_ context.Context, url, path string) error {
	d.urls = append(d.urls, url)
	if d.err != nil {
		return d.err
	}
	return os.WriteFile(path, []byte("png"), 0o644)
}

func newTileScene(t *testing.T, bucket string) *scene.Scene {
	t.Helper()
	reg, err := registry.Load()
	if err != nil {
		t.Fatalf("registry.Load() failed: %v", err)
	}
	rec := gbdx.Record{
		Properties: gbdx.RecordProperties{
			CatalogID:    "tile-scene",
			Timestamp:    "2017-06-15T14:00:00.000000Z",
			PlatformName: "WORLDVIEW02",
			FootprintWkt: "POLYGON((-10 -10,30 -10,30 30,-10 30,-10 -10))",
			BucketName:   bucket,
		},
	}
	s, err := scene.NewNormalizer(reg).Normalize(&rec)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	return s
}

func TestService_Fetch(t *testing.T) {
	d := &fakeDownloader{}
	svc := NewService("https://tiles.example.com", "tok", d, nil)
	aoi := mustGeom(t, "POLYGON((10 10,20 10,20 20,10 20,10 10))")
	outDir := t.TempDir()

	paths, err := svc.Fetch(context.Background(), newTileScene(t, "bucket-1"), aoi, 1, outDir)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("got %d paths, want 1", len(paths))
	}
	want := filepath.Join(outDir, "1-1-0.png")
	if paths[0] != want {
		t.Errorf("path = %q, want %q", paths[0], want)
	}
	if len(d.urls) != 1 {
		t.Fatalf("downloads = %v", d.urls)
	}
	wantURL := "https://tiles.example.com/v1/tile/bucket-1/tile-scene/1/1/0?token=tok"
	if d.urls[0] != wantURL {
		t.Errorf("url = %q, want %q", d.urls[0], wantURL)
	}

	// A second fetch keeps the existing file and skips the download.
	if _, err := svc.Fetch(context.Background(), newTileScene(t, "bucket-1"), aoi, 1, outDir); err != nil {
		t.Fatalf("second Fetch failed: %v", err)
	}
	if len(d.urls) != 1 {
		t.Errorf("existing tile was re-downloaded: %v", d.urls)
	}
}

func TestService_Fetch_RequiresToken(t *testing.T) {
	svc := NewService("", "", &fakeDownloader{}, nil)
	aoi := mustGeom(t, "POLYGON((10 10,20 10,20 20,10 20,10 10))")

	_, err := svc.Fetch(context.Background(), newTileScene(t, "bucket-1"), aoi, 1, t.TempDir())
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("err = %v, want ErrNoToken", err)
	}
}

func TestService_Fetch_RequiresBucket(t *testing.T) {
	svc := NewService("", "tok", &fakeDownloader{}, nil)
	aoi := mustGeom(t, "POLYGON((10 10,20 10,20 20,10 20,10 10))")

	_, err := svc.Fetch(context.Background(), newTileScene(t, ""), aoi, 1, t.TempDir())
	if !errors.Is(err, ErrNoBucket) {
		t.Fatalf("err = %v, want ErrNoBucket", err)
	}
}

func TestService_DefaultBaseURL(t *testing.T) {
	svc := NewService("", "tok", &fakeDownloader{}, nil)
	u := svc.TileURL("b", "s", Tile{X: 1, Y: 2, Zoom: 3})
	if !strings.HasPrefix(u, DefaultBaseURL+"/v1/tile/b/s/3/1/2") {
		t.Errorf("url = %q", u)
	}
}
