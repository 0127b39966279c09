package imaging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/airbusgeo/godal"
)

var registerOnce sync.Once

// GDALProcessor crops rasters with GDAL's warp machinery.
type GDALProcessor struct {
	logger *slog.Logger
}

// NewGDALProcessor registers the GDAL drivers on first use and returns a
// processor.
func NewGDALProcessor(logger *slog.Logger) *GDALProcessor {
	registerOnce.Do(godal.RegisterAll)
	if logger == nil {
		logger = slog.Default()
	}
	return &GDALProcessor{logger: logger}
}

// Crop clips the source raster against the cutline geometry, keeping the
// source resolution and writing params.NoData into every output band.
func (p *GDALProcessor) Crop(ctx context.Context, srcPath, dstPath string, params CropParams) error {
	if _, err := os.Stat(srcPath); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, srcPath)
	}

	src, err := godal.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", srcPath, err)
	}
	defer src.Close()

	nodata := strconv.FormatFloat(params.NoData, 'f', -1, 64)
	switches := []string{
		"-cutline", params.CutlinePath,
		"-crop_to_cutline",
		"-dstnodata", nodata,
		"-of", "GTiff",
	}

	p.logger.DebugContext(ctx, "cropping raster",
		slog.String("src", srcPath),
		slog.String("dst", dstPath),
		slog.String("cutline", params.CutlinePath),
		slog.String("nodata", nodata),
	)

	dst, err := godal.Warp(dstPath, []*godal.Dataset{src}, switches)
	if err != nil {
		return fmt.Errorf("warp of %s failed: %w", srcPath, err)
	}
	defer dst.Close()

	for _, band := range dst.Bands() {
		if err := band.SetNoData(params.NoData); err != nil {
			return fmt.Errorf("failed to set nodata on %s: %w", dstPath, err)
		}
	}
	return nil
}
