package indices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/raster"
)

func uniform(h, w int, v float64) [][]float64 {
	grid := make([][]float64, h)
	for i := range grid {
		grid[i] = make([]float64, w)
		for j := range grid[i] {
			grid[i][j] = v
		}
	}
	return grid
}

func TestNDVI(t *testing.T) {
	t.Run("healthy vegetation", func(t *testing.T) {
		ndvi := NDVI(uniform(2, 2, 0.8), uniform(2, 2, 0.2))
		for _, row := range ndvi {
			for _, v := range row {
				assert.InDelta(t, 0.6, v, 1e-12)
			}
		}
	})

	t.Run("zero denominator yields zero, not NaN", func(t *testing.T) {
		ndvi := NDVI(uniform(3, 4, 0), uniform(3, 4, 0))
		for _, row := range ndvi {
			for _, v := range row {
				assert.Equal(t, 0.0, v)
			}
		}
	})

	t.Run("opposite signs cancel to zero denominator", func(t *testing.T) {
		ndvi := NDVI(uniform(1, 1, 0.5), uniform(1, 1, -0.5))
		assert.Equal(t, 0.0, ndvi[0][0])
	})
}

func TestNDWI(t *testing.T) {
	ndwi := NDWI(uniform(2, 2, 1.35), uniform(2, 2, 0.65))
	assert.InDelta(t, 0.35, ndwi[0][0], 1e-12)

	zero := NDWI(uniform(2, 2, 0), uniform(2, 2, 0))
	assert.Equal(t, 0.0, zero[1][1])
}

func TestMSI(t *testing.T) {
	msi := MSI(uniform(2, 2, 1.2), uniform(2, 2, 0.6))
	assert.InDelta(t, 2.0, msi[0][0], 1e-12)

	// zero NIR must not divide
	safe := MSI(uniform(2, 2, 1.2), uniform(2, 2, 0))
	assert.Equal(t, 0.0, safe[0][0])
}

func frame(blue, green, red, nir float64, h, w int) raster.Frame {
	return raster.Frame{
		uniform(h, w, blue),
		uniform(h, w, green),
		uniform(h, w, red),
		uniform(h, w, nir),
	}
}

func TestMeanNDVI_UsesLastTimeStep(t *testing.T) {
	stack := &raster.BandStack{
		Frames: []raster.Frame{
			frame(0.1, 0.1, 0.9, 0.1, 3, 3), // old, stressed
			frame(0.1, 0.1, 0.2, 0.8, 3, 3), // current, healthy
		},
		BBox: raster.BBox{West: 105.7, South: 10.0, East: 105.8, North: 10.1},
	}

	mean, err := MeanNDVI(stack)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, mean, 1e-12)
}

func TestMeanNDWI(t *testing.T) {
	stack := &raster.BandStack{
		Frames: []raster.Frame{frame(0.1, 1.35, 0.2, 0.65, 2, 2)},
	}

	mean, err := MeanNDWI(stack)
	require.NoError(t, err)
	assert.InDelta(t, 0.35, mean, 1e-12)
}

func TestMean_EmptyStack(t *testing.T) {
	_, err := MeanNDVI(&raster.BandStack{})
	assert.ErrorIs(t, err, raster.ErrEmptyRaster)

	_, err = MeanNDWI(&raster.BandStack{})
	assert.ErrorIs(t, err, raster.ErrEmptyRaster)
}
