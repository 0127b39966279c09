// Package imaging post-processes downloaded rasters: cropping them to an
// area of interest and stamping the sensor's nodata value.
package imaging

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the source raster does not exist.
	ErrNotFound = errors.New("raster not found")
)

// CropParams controls a crop operation.
type CropParams struct {
	// CutlinePath is a GeoJSON file holding the clip geometry.
	CutlinePath string
	// NoData is written to every band of the output raster.
	NoData float64
}

// Processor crops rasters to a geometry. Implementations are expected to be
// safe for concurrent use.
type Processor interface {
	// Crop clips srcPath to the cutline and writes the result to dstPath.
	Crop(ctx context.Context, srcPath, dstPath string, params CropParams) error
}
