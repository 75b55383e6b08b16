package dcmpix_test

import (
	"testing"

	"github.com/mdouchement/dcmpix"
	"github.com/stretchr/testify/assert"
)

func TestScalarTypeRoundTrip(t *testing.T) {
	for _, st := range []dcmpix.ScalarType{
		dcmpix.UINT8, dcmpix.INT8,
		dcmpix.UINT12, dcmpix.INT12,
		dcmpix.UINT16, dcmpix.INT16,
		dcmpix.UINT32, dcmpix.INT32,
		dcmpix.FLOAT16, dcmpix.FLOAT32, dcmpix.FLOAT64,
	} {
		pf := dcmpix.NewPixelFormat(st)
		assert.Equal(t, st, pf.ScalarType(), st.String())
		assert.Equal(t, pf.BitsAllocated, pf.BitsStored, st.String())
		assert.Equal(t, pf.BitsStored-1, pf.HighBit, st.String())
		assert.EqualValues(t, 1, pf.SamplesPerPixel, st.String())
	}
}

func TestScalarTypeUnknown(t *testing.T) {
	pf := dcmpix.PixelFormat{SamplesPerPixel: 1, BitsAllocated: 7, BitsStored: 7, HighBit: 6}
	assert.Equal(t, dcmpix.UNKNOWN, pf.ScalarType())
	assert.Equal(t, "UNKNOWN", pf.ScalarType().String())

	pf = dcmpix.PixelFormat{SamplesPerPixel: 1, BitsAllocated: 16, BitsStored: 16, HighBit: 15, PixelRepresentation: 9}
	assert.Equal(t, dcmpix.UNKNOWN, pf.ScalarType())
}

func TestPixelFormatMinMax(t *testing.T) {
	tests := []struct {
		pf       dcmpix.PixelFormat
		min, max int64
	}{
		{dcmpix.NewPixelFormat(dcmpix.UINT8), 0, 255},
		{dcmpix.NewPixelFormat(dcmpix.INT8), -128, 127},
		{dcmpix.NewPixelFormat(dcmpix.UINT16), 0, 65535},
		{dcmpix.NewPixelFormat(dcmpix.INT16), -32768, 32767},
		{dcmpix.PixelFormat{SamplesPerPixel: 1, BitsAllocated: 16, BitsStored: 12, HighBit: 11}, 0, 4095},
		{dcmpix.PixelFormat{SamplesPerPixel: 1, BitsAllocated: 16, BitsStored: 12, HighBit: 11, PixelRepresentation: 1}, -2048, 2047},
		{dcmpix.NewPixelFormat(dcmpix.INT32), -2147483648, 2147483647},
		{dcmpix.NewPixelFormat(dcmpix.FLOAT64), 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.min, tt.pf.Min(), tt.pf.ScalarType().String())
		assert.Equal(t, tt.max, tt.pf.Max(), tt.pf.ScalarType().String())
	}
}

func TestPixelFormatRange(t *testing.T) {
	for bs := uint16(1); bs <= 32; bs++ {
		span := int64(1)<<bs - 1

		pf := dcmpix.PixelFormat{SamplesPerPixel: 1, BitsAllocated: 32, BitsStored: bs, HighBit: bs - 1}
		assert.EqualValues(t, 0, pf.Min(), "unsigned %d", bs)
		assert.Equal(t, span, pf.Max(), "unsigned %d", bs)

		pf.PixelRepresentation = dcmpix.RepresentationSigned
		assert.Equal(t, span, pf.Max()-pf.Min(), "signed %d", bs)
		assert.Equal(t, -pf.Max()-1, pf.Min(), "signed %d", bs)
	}
}

func TestPixelFormatSizes(t *testing.T) {
	pf := dcmpix.NewPixelFormat(dcmpix.UINT12)
	assert.Equal(t, 2, pf.SampleSize())
	assert.Equal(t, 2, pf.PixelSize())

	pf = dcmpix.NewPixelFormat(dcmpix.UINT8)
	pf.SamplesPerPixel = 3
	assert.Equal(t, 1, pf.SampleSize())
	assert.Equal(t, 3, pf.PixelSize())
}

func TestPixelFormatValidate(t *testing.T) {
	pf := dcmpix.PixelFormat{SamplesPerPixel: 1, BitsAllocated: 24, BitsStored: 24, HighBit: 23}
	assert.False(t, pf.Validate())
	assert.Equal(t, dcmpix.PixelFormat{SamplesPerPixel: 3, BitsAllocated: 8, BitsStored: 8, HighBit: 7}, pf)
	assert.True(t, pf.Validate())

	pf = dcmpix.PixelFormat{SamplesPerPixel: 1, BitsAllocated: 8, BitsStored: 12, HighBit: 11}
	assert.False(t, pf.Validate())

	pf = dcmpix.PixelFormat{SamplesPerPixel: 2, BitsAllocated: 8, BitsStored: 8, HighBit: 7}
	assert.False(t, pf.Validate())

	pf = dcmpix.NewPixelFormat(dcmpix.INT16)
	assert.True(t, pf.Validate())
	assert.True(t, pf.IsSigned())
	assert.False(t, pf.IsFloat())
}

func TestPixelFormatString(t *testing.T) {
	pf := dcmpix.NewPixelFormat(dcmpix.INT16)
	assert.Contains(t, pf.String(), "ScalarType found   :INT16")
}
