// Package fetch orchestrates ordering and imagery retrieval for scene
// collections: it places and polls fulfillment orders, downloads image
// products, and crops them to the collection's AOI.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/rkm/sat-gbdx/internal/gbdx"
	"github.com/rkm/sat-gbdx/internal/imaging"
	"github.com/rkm/sat-gbdx/internal/scene"
)

var (
	// ErrUnknownAsset is returned for an asset key with no fetch recipe.
	ErrUnknownAsset = errors.New("unknown asset key")

	// ErrNoThumbnail is returned when a scene record carries no browse URL.
	ErrNoThumbnail = errors.New("scene has no thumbnail asset")

	// ErrNotFulfilled is returned when a full-resolution fetch is attempted
	// for a scene whose order has not been delivered.
	ErrNotFulfilled = errors.New("scene order not fulfilled")
)

// API is the provider surface the fetcher needs. *gbdx.Client satisfies it.
type API interface {
	Order(ctx context.Context, catalogID string) (string, error)
	Status(ctx context.Context, orderID string) (*gbdx.OrderStatus, error)
	FetchImage(ctx context.Context, catalogID string, recipe map[string]string, bbox [4]float64, dstPath string) error
	DownloadFile(ctx context.Context, url, path string) error
}

// Fetcher drives order placement and imagery downloads for scenes.
type Fetcher struct {
	api     API
	proc    imaging.Processor
	dataDir string
	pattern string
	logger  *slog.Logger
}

// NewFetcher creates a fetcher writing outputs under dataDir, naming files
// after the given pattern (see Scene.Filename for the supported tokens).
func NewFetcher(api API, proc imaging.Processor, dataDir, pattern string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		api:     api,
		proc:    proc,
		dataDir: dataDir,
		pattern: pattern,
		logger:  logger,
	}
}

// Order advances a scene's fulfillment state by one step. An unordered scene
// gets an order placed; a pending scene gets one status poll. The returned
// bool reports whether the scene is fulfilled after the step.
func (f *Fetcher) Order(ctx context.Context, s *scene.Scene) (bool, error) {
	switch s.State.Phase {
	case scene.Fulfilled:
		return true, nil

	case scene.Unordered:
		orderID, err := f.api.Order(ctx, s.ID())
		if err != nil {
			return false, err
		}
		s.SetState(scene.StatePending(orderID))
	}

	status, err := f.api.Status(ctx, s.State.OrderID)
	if err != nil {
		return false, err
	}
	if !status.Delivered() {
		f.logger.DebugContext(ctx, "order not yet delivered",
			slog.String("scene", s.ID()),
			slog.String("order_id", s.State.OrderID),
			slog.String("state", status.State),
		)
		return false, nil
	}

	s.SetState(scene.StateFulfilled(s.State.OrderID, status.Location))
	f.logger.InfoContext(ctx, "order delivered",
		slog.String("scene", s.ID()),
		slog.String("order_id", s.State.OrderID),
		slog.String("location", status.Location),
	)
	return true, nil
}

// OrderAll runs one Order step for every scene in the collection, continuing
// past per-scene failures. It returns the number of fulfilled scenes and the
// first error encountered, if any.
func (f *Fetcher) OrderAll(ctx context.Context, col *scene.Collection) (int, error) {
	var fulfilled int
	var firstErr error
	for _, s := range col.Scenes {
		done, err := f.Order(ctx, s)
		if err != nil {
			f.logger.ErrorContext(ctx, "order step failed",
				slog.String("scene", s.ID()),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if done {
			fulfilled++
		}
	}
	return fulfilled, firstErr
}

// Result records the outcome of fetching one scene's asset.
type Result struct {
	SceneID string
	Path    string
	Err     error
}

// Report aggregates per-scene fetch results for a batch.
type Report struct {
	Results []Result
}

// Succeeded returns the number of scenes fetched without error.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of scenes whose fetch failed.
func (r *Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Err returns a summary error when any scene failed, nil otherwise.
func (r *Report) Err() error {
	failed := r.Failed()
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d scenes failed to fetch", failed, len(r.Results))
}

// FetchBatch downloads the named asset for every scene in the collection,
// cropping full-resolution products to the collection AOI. Failures are
// per-scene; one bad scene never aborts the batch.
func (f *Fetcher) FetchBatch(ctx context.Context, col *scene.Collection, assetKey string) (*Report, error) {
	if _, ok := recipes[assetKey]; !ok && assetKey != assetThumbnail {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAsset, assetKey)
	}

	aoi, err := col.AOI()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	workDir, err := os.MkdirTemp("", "sat-gbdx-fetch-")
	if err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	cutlinePath, err := f.writeCutline(col, workDir)
	if err != nil {
		return nil, err
	}

	bbox, err := envelopeBbox(aoi)
	if err != nil {
		return nil, err
	}

	report := &Report{Results: make([]Result, 0, col.Len())}
	for _, s := range col.Scenes {
		path, err := f.fetchOne(ctx, s, assetKey, bbox, cutlinePath, workDir)
		if err != nil {
			f.logger.ErrorContext(ctx, "scene fetch failed",
				slog.String("scene", s.ID()),
				slog.String("asset", assetKey),
				slog.String("error", err.Error()),
			)
		}
		report.Results = append(report.Results, Result{SceneID: s.ID(), Path: path, Err: err})
	}

	f.logger.InfoContext(ctx, "fetch batch completed",
		slog.String("asset", assetKey),
		slog.Int("succeeded", report.Succeeded()),
		slog.Int("failed", report.Failed()),
	)
	return report, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, s *scene.Scene, assetKey string, bbox [4]float64, cutlinePath, workDir string) (string, error) {
	if assetKey == assetThumbnail {
		return f.fetchThumbnail(ctx, s)
	}

	// Full-resolution products are only available once the order has a
	// delivery location. Thumbnails come from the browse URL and are exempt.
	if s.State.Phase != scene.Fulfilled {
		return "", fmt.Errorf("%w: %s", ErrNotFulfilled, s.ID())
	}

	outPath := filepath.Join(f.dataDir, outputName(s, f.pattern, assetKey))
	rawPath := filepath.Join(workDir, s.ID()+".tif")

	if err := f.api.FetchImage(ctx, s.ID(), recipes[assetKey], bbox, rawPath); err != nil {
		return "", err
	}

	params := imaging.CropParams{
		CutlinePath: cutlinePath,
		NoData:      nodataFor(s.Instrument()),
	}
	if err := f.proc.Crop(ctx, rawPath, outPath, params); err != nil {
		return "", err
	}

	s.AddAsset(assetKey, outPath, "", "image/tiff; application=geotiff", "data")
	return outPath, nil
}

func (f *Fetcher) fetchThumbnail(ctx context.Context, s *scene.Scene) (string, error) {
	href, ok := s.Asset(assetThumbnail)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoThumbnail, s.ID())
	}

	outPath := filepath.Join(f.dataDir, s.Filename(f.pattern)+".jpg")
	if err := f.api.DownloadFile(ctx, href, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// outputName builds the output filename for a full-resolution product. The
// asset key is appended for non-default recipes so multiple products of one
// scene never collide.
func outputName(s *scene.Scene, pattern, assetKey string) string {
	name := s.Filename(pattern)
	if assetKey != "default" {
		name += "_" + assetKey
	}
	return name + ".tif"
}

// writeCutline materializes the collection AOI as a GeoJSON file for GDAL.
func (f *Fetcher) writeCutline(col *scene.Collection, workDir string) (string, error) {
	raw, err := col.AOIRaw()
	if err != nil {
		return "", err
	}
	path := filepath.Join(workDir, "aoi.geojson")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write cutline: %w", err)
	}
	return path, nil
}

func envelopeBbox(g geom.Geometry) ([4]float64, error) {
	min, max, ok := g.Envelope().MinMaxXYs()
	if !ok {
		return [4]float64{}, fmt.Errorf("AOI has an empty envelope")
	}
	return [4]float64{min.X, min.Y, max.X, max.Y}, nil
}
