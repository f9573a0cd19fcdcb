// Package raster holds the ephemeral in-memory raster values handed over by
// the decode layer, plus the pixel-area geometry helper. Nothing here is
// persisted and no file format is owned here; GeoTIFF/COG decoding belongs
// to the upstream collaborators.
package raster

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyRaster marks a zero-sized class map or band grid.
	ErrEmptyRaster = errors.New("raster: empty raster")
	// ErrInvalidBBox marks a malformed bounding box.
	ErrInvalidBBox = errors.New("raster: invalid bounding box")
)

// BBox is a WGS84 bounding box in degrees (min_lon, min_lat, max_lon, max_lat).
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Validate rejects boxes with non-positive extent or out-of-range coordinates.
func (b BBox) Validate() error {
	if b.East <= b.West || b.North <= b.South {
		return fmt.Errorf("%w: extent (%v,%v,%v,%v)", ErrInvalidBBox, b.West, b.South, b.East, b.North)
	}
	if b.West < -180 || b.East > 180 || b.South < -90 || b.North > 90 {
		return fmt.Errorf("%w: coordinates out of range (%v,%v,%v,%v)", ErrInvalidBBox, b.West, b.South, b.East, b.North)
	}
	return nil
}

// WKT renders the box as a closed POLYGON for PostGIS queries.
func (b BBox) WKT() string {
	return fmt.Sprintf("POLYGON((%v %v, %v %v, %v %v, %v %v, %v %v))",
		b.West, b.South, b.East, b.South, b.East, b.North, b.West, b.North, b.West, b.South)
}

// ClassMap is a decoded classification raster: H rows by W columns of crop
// class indices, georeferenced by BBox.
type ClassMap struct {
	Classes [][]uint16
	BBox    BBox
	EPSG    string
}

// Height returns the row count.
func (m *ClassMap) Height() int { return len(m.Classes) }

// Width returns the column count of the first row; rows are rectangular.
func (m *ClassMap) Width() int {
	if len(m.Classes) == 0 {
		return 0
	}
	return len(m.Classes[0])
}

// Validate rejects empty or ragged maps and malformed boxes.
func (m *ClassMap) Validate() error {
	if m.Height() == 0 || m.Width() == 0 {
		return ErrEmptyRaster
	}
	w := m.Width()
	for i, row := range m.Classes {
		if len(row) != w {
			return fmt.Errorf("%w: ragged row %d (%d != %d)", ErrEmptyRaster, i, len(row), w)
		}
	}
	return m.BBox.Validate()
}

// Sentinel-2 band positions within a frame. The order is fixed by the
// upstream stack builder: B02, B03, B04, B08.
const (
	BandBlue  = 0
	BandGreen = 1
	BandRed   = 2
	BandNIR   = 3
)

// Frame is one time step of a band stack: four same-shaped H x W grids.
type Frame [4][][]float64

// BandStack is a multi-temporal stack of Sentinel-2 band frames, the 5-D
// (1, T, 4, H, W) input array with its batch dimension already dropped.
type BandStack struct {
	Frames []Frame
	BBox   BBox
	EPSG   string
}

// Last returns the most recent frame; detection reads current index values
// from it.
func (s *BandStack) Last() (Frame, error) {
	if len(s.Frames) == 0 {
		return Frame{}, fmt.Errorf("%w: band stack has no time steps", ErrEmptyRaster)
	}
	return s.Frames[len(s.Frames)-1], nil
}
