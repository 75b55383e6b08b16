package dcmpix_test

import (
	"testing"

	"github.com/mdouchement/dcmpix"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func mosaic(columns, rows int) *dcmpix.Image {
	img := dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.UINT16), columns, rows)
	buf := make([]byte, img.BufferLength())
	for i := range buf {
		buf[i] = byte(i)
	}
	img.PixelData = dcmpix.PixelData{Bytes: buf}
	img.Geometry.Spacing = [3]float64{0.5, 0.5, 2}
	return img
}

func TestMosaicSplit(t *testing.T) {
	img := mosaic(4, 6)

	vol, err := dcmpix.NewMosaicSplitter(3).Split(img)
	require.NoError(t, err)
	assert.Equal(t, 3, vol.NumberOfDimensions)
	assert.Equal(t, [3]int{4, 2, 3}, vol.Dimensions)
	assert.Equal(t, 16, vol.FrameLength())
	assert.Equal(t, 1, img.Frames(), "source must not be modified")

	for i := 0; i < 3; i++ {
		frame, err := vol.Frame(i)
		require.NoError(t, err)
		assert.Equal(t, img.PixelData.Bytes[i*16:(i+1)*16], frame)
	}
}

func TestMosaicSlices(t *testing.T) {
	img := mosaic(4, 6)
	img.Geometry.Origin = r3.Vec{X: -10, Y: 5, Z: 1}

	slices, err := dcmpix.NewMosaicSplitter(3).Slices(img)
	require.NoError(t, err)
	require.Len(t, slices, 3)

	for i, slice := range slices {
		assert.Equal(t, 2, slice.NumberOfDimensions)
		assert.Equal(t, 4, slice.Columns())
		assert.Equal(t, 2, slice.Rows())
		assert.Equal(t, r3.Vec{X: -10, Y: 5, Z: 1 + 2*float64(i)}, slice.Geometry.Origin)
		assert.Equal(t, 2.0, slice.Geometry.Spacing[2])
		assert.Equal(t, img.PixelData.Bytes[i*16:(i+1)*16], slice.PixelData.Bytes)
	}
}

func TestMosaicSliceOblique(t *testing.T) {
	img := mosaic(2, 4)
	img.Geometry.Cosines = dcmpix.NewDirectionCosines([6]float64{0, 1, 0, 0, 0, -1})

	slices, err := dcmpix.NewMosaicSplitter(2).Slices(img)
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{}, slices[0].Geometry.Origin)
	assert.InDelta(t, -2, slices[1].Geometry.Origin.X, 1e-9) // Normal is -X.
	assert.InDelta(t, 0, slices[1].Geometry.Origin.Y, 1e-9)
	assert.InDelta(t, 0, slices[1].Geometry.Origin.Z, 1e-9)
}

func TestMosaicErrors(t *testing.T) {
	_, err := dcmpix.NewMosaicSplitter(0).Split(mosaic(4, 6))
	assert.IsType(t, dcmpix.ConfigurationError(""), errors.Cause(err))

	_, err = dcmpix.NewMosaicSplitter(4).Split(mosaic(4, 6))
	assert.IsType(t, dcmpix.DecodeError(""), errors.Cause(err))

	img := mosaic(4, 6)
	img.PixelData.Bytes = img.PixelData.Bytes[:10]
	_, err = dcmpix.NewMosaicSplitter(3).Split(img)
	assert.IsType(t, dcmpix.DecodeError(""), errors.Cause(err))

	img = mosaic(4, 6)
	img.PixelData = dcmpix.PixelData{Fragments: dcmpix.NewFragmentSequence(dcmpix.Fragment{1, 2})}
	_, err = dcmpix.NewMosaicSplitter(3).Split(img)
	assert.IsType(t, dcmpix.UnsupportedError(""), errors.Cause(err))
}
