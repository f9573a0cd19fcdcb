// Package indices computes spectral indices from Sentinel-2 band grids.
// All transforms replace NaN/Inf from zero denominators with 0.0 so that
// downstream means and thresholds never see non-finite values.
package indices

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/raster"
)

// NDVI computes (NIR - RED) / (NIR + RED) per pixel.
func NDVI(nir, red [][]float64) [][]float64 {
	return normalizedDiff(nir, red)
}

// NDWI computes (GREEN - NIR) / (GREEN + NIR) per pixel.
func NDWI(green, nir [][]float64) [][]float64 {
	return normalizedDiff(green, nir)
}

// MSI computes SWIR / NIR per pixel. The standard 4-band stack carries no
// SWIR band, so this only runs when a caller supplies one separately.
func MSI(swir, nir [][]float64) [][]float64 {
	rows, cols := len(swir), 0
	if rows > 0 {
		cols = len(swir[0])
	}
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		for j := range out[i] {
			if nir[i][j] != 0 {
				out[i][j] = swir[i][j] / nir[i][j]
			}
		}
	}
	return out
}

func normalizedDiff(a, b [][]float64) [][]float64 {
	rows, cols := len(a), 0
	if rows > 0 {
		cols = len(a[0])
	}
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		for j := range out[i] {
			denom := a[i][j] + b[i][j]
			if denom != 0 {
				out[i][j] = (a[i][j] - b[i][j]) / denom
			}
		}
	}
	return out
}

// MeanNDVI reduces a band stack to the single "current" NDVI scalar: the
// mean over all pixels of the last time step's NDVI grid.
func MeanNDVI(stack *raster.BandStack) (float64, error) {
	last, err := stack.Last()
	if err != nil {
		return 0, err
	}
	return gridMean(NDVI(last[raster.BandNIR], last[raster.BandRed]))
}

// MeanNDWI reduces a band stack to the current NDWI scalar, same reduction
// as MeanNDVI.
func MeanNDWI(stack *raster.BandStack) (float64, error) {
	last, err := stack.Last()
	if err != nil {
		return 0, err
	}
	return gridMean(NDWI(last[raster.BandGreen], last[raster.BandNIR]))
}

func gridMean(grid [][]float64) (float64, error) {
	var flat []float64
	for _, row := range grid {
		flat = append(flat, row...)
	}
	if len(flat) == 0 {
		return 0, fmt.Errorf("%w: empty index grid", raster.ErrEmptyRaster)
	}
	return stat.Mean(flat, nil), nil
}
