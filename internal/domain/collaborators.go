package domain

import (
	"context"
	"time"
)

// DateWindow bounds an imagery acquisition period.
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// GridPair is a co-registered before/after raster pair.
type GridPair struct {
	Before Grid
	After  Grid
}

// ImagerySource delivers co-registered vegetation-index grids for a region
// and two acquisition windows. Implementations wrap failures in
// ErrImageryUnavailable so the coordinator can surface them as job failures.
type ImagerySource interface {
	FetchPair(ctx context.Context, region BBox, before, after DateWindow) (GridPair, error)
}

// Geocoder resolves a free-text region name to a WGS-84 bounding box,
// failing with ErrRegionNotFound when the name cannot be resolved.
type Geocoder interface {
	RegionBounds(ctx context.Context, name string) (BBox, error)
}
