package raster

import (
	"fmt"
	"math"
)

// metersPerDegLat is close to constant everywhere on the ellipsoid.
const metersPerDegLat = 111320.0

// PixelAreaHa approximates the area of one pixel in hectares for a raster of
// width x height pixels covering bbox. It projects the box onto a local
// equirectangular plane at the center latitude: longitude degrees shrink by
// cos(lat), latitude degrees do not. The approximation is fine for tiles of
// a few degrees at 10-30 m resolution; error grows with tile size and
// distance from the equator, so it must not be used for continental extents.
func PixelAreaHa(bbox BBox, width, height int) (float64, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("%w: %dx%d pixels", ErrEmptyRaster, width, height)
	}
	if err := bbox.Validate(); err != nil {
		return 0, err
	}

	centerLat := (bbox.South + bbox.North) / 2
	metersPerDegLon := metersPerDegLat * math.Cos(centerLat*math.Pi/180)

	extentXMeters := (bbox.East - bbox.West) * metersPerDegLon
	extentYMeters := (bbox.North - bbox.South) * metersPerDegLat

	pixelXMeters := extentXMeters / float64(width)
	pixelYMeters := extentYMeters / float64(height)

	return pixelXMeters * pixelYMeters / 10000.0, nil
}
