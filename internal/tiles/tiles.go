// Package tiles enumerates and downloads pre-rendered map tiles for scenes
// from the IDAHO tile store, which serves the Google tiling scheme.
package tiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"os"
	"path/filepath"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/rkm/sat-gbdx/internal/scene"
)

// DefaultBaseURL is the IDAHO tile service endpoint.
const DefaultBaseURL = "https://idaho.geobigdata.io"

var (
	// ErrNoToken is returned when tile downloads are attempted without an
	// API token.
	ErrNoToken = errors.New("tile downloads require a GBDX token")

	// ErrNoBucket is returned for scenes with no tile store bucket.
	ErrNoBucket = errors.New("scene has no tile store bucket")
)

// Tile addresses one Google-scheme map tile.
type Tile struct {
	X, Y, Zoom int
}

// Deg2Num returns the Google tile coordinates containing the given point.
func Deg2Num(lat, lon float64, zoom int) (x, y int) {
	latRad := lat * math.Pi / 180
	n := math.Exp2(float64(zoom))
	x = int((lon + 180.0) / 360.0 * n)
	y = int((1.0 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2.0 * n)
	return x, y
}

// Num2Deg returns the latitude and longitude of the tile's northwest corner.
func Num2Deg(x, y, zoom int) (lat, lon float64) {
	n := math.Exp2(float64(zoom))
	lon = float64(x)/n*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/n)))
	lat = latRad * 180 / math.Pi
	return lat, lon
}

// Bounds returns the tile's ground footprint as a lon/lat polygon.
func (t Tile) Bounds() (geom.Geometry, error) {
	north, west := Num2Deg(t.X, t.Y, t.Zoom)
	south, east := Num2Deg(t.X+1, t.Y+1, t.Zoom)
	wkt := fmt.Sprintf("POLYGON((%[1]v %[3]v,%[2]v %[3]v,%[2]v %[4]v,%[1]v %[4]v,%[1]v %[3]v))",
		west, east, south, north)
	return geom.UnmarshalWKT(wkt)
}

// ForAOI enumerates the tiles at the given zoom whose footprint overlaps the
// AOI with positive area. Tiles merely touching the AOI boundary are skipped.
func ForAOI(aoi geom.Geometry, zoom int) ([]Tile, error) {
	min, max, ok := aoi.Envelope().MinMaxXYs()
	if !ok {
		return nil, fmt.Errorf("AOI has an empty envelope")
	}

	// Tile rows grow southward, so the AOI's north edge gives the min row.
	xmin, ymin := Deg2Num(max.Y, min.X, zoom)
	xmax, ymax := Deg2Num(min.Y, max.X, zoom)

	var tiles []Tile
	for x := xmin; x <= xmax; x++ {
		for y := ymin; y <= ymax; y++ {
			t := Tile{X: x, Y: y, Zoom: zoom}
			bounds, err := t.Bounds()
			if err != nil {
				return nil, err
			}
			inter, err := geom.Intersection(aoi, bounds)
			if err != nil {
				return nil, fmt.Errorf("tile %d/%d/%d intersection failed: %w", zoom, x, y, err)
			}
			if inter.IsEmpty() || !hasArea(inter) {
				continue
			}
			tiles = append(tiles, t)
		}
	}
	return tiles, nil
}

func hasArea(g geom.Geometry) bool {
	switch g.Type() {
	case geom.TypePolygon:
		return g.MustAsPolygon().Area() > 0
	case geom.TypeMultiPolygon:
		return g.MustAsMultiPolygon().Area() > 0
	case geom.TypeGeometryCollection:
		gc := g.MustAsGeometryCollection()
		for i := 0; i < gc.NumGeometries(); i++ {
			if hasArea(gc.GeometryN(i)) {
				return true
			}
		}
	}
	return false
}

// Downloader fetches a URL to a local file. *gbdx.Client satisfies it.
type Downloader interface {
	DownloadFile(ctx context.Context, url, path string) error
}

// Service downloads scene tiles.
type Service struct {
	baseURL    string
	token      string
	downloader Downloader
	logger     *slog.Logger
}

// NewService creates a tile service. The token is mandatory for downloads.
func NewService(baseURL, token string, d Downloader, logger *slog.Logger) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{baseURL: baseURL, token: token, downloader: d, logger: logger}
}

// TileURL builds the tile store URL for one tile of a scene.
func (s *Service) TileURL(bucket, sceneID string, t Tile) string {
	return fmt.Sprintf("%s/v1/tile/%s/%s/%d/%d/%d?token=%s",
		s.baseURL, url.PathEscape(bucket), url.PathEscape(sceneID),
		t.Zoom, t.X, t.Y, url.QueryEscape(s.token))
}

// Fetch downloads every AOI-overlapping tile for the scene at the given zoom
// into outDir, named "<zoom>-<x>-<y>.png". Existing files are kept. It
// returns the paths of all tiles, downloaded or pre-existing.
func (s *Service) Fetch(ctx context.Context, sc *scene.Scene, aoi geom.Geometry, zoom int, outDir string) ([]string, error) {
	if s.token == "" {
		return nil, ErrNoToken
	}

	bucket, _ := sc.Item.Properties["dg:bucket_name"].(string)
	if bucket == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoBucket, sc.ID())
	}

	tiles, err := ForAOI(aoi, zoom)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create tile directory: %w", err)
	}

	s.logger.InfoContext(ctx, "fetching scene tiles",
		slog.String("scene", sc.ID()),
		slog.Int("zoom", zoom),
		slog.Int("tile_count", len(tiles)),
	)

	paths := make([]string, 0, len(tiles))
	for _, t := range tiles {
		path := filepath.Join(outDir, fmt.Sprintf("%d-%d-%d.png", t.Zoom, t.X, t.Y))
		if _, err := os.Stat(path); err == nil {
			paths = append(paths, path)
			continue
		}
		if err := s.downloader.DownloadFile(ctx, s.TileURL(bucket, sc.ID(), t), path); err != nil {
			return paths, fmt.Errorf("tile %d/%d/%d failed: %w", t.Zoom, t.X, t.Y, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
