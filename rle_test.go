package dcmpix_test

import (
	"testing"

	"github.com/mdouchement/dcmpix"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int, step byte) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i/3) * step
	}
	return buf
}

func TestRLERoundTrip(t *testing.T) {
	tests := []struct {
		name string
		img  *dcmpix.Image
	}{
		{"uint8", dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.UINT8), 16, 8)},
		{"int16 volume", dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.INT16), 8, 4, 3)},
		{"rgb", func() *dcmpix.Image {
			pf := dcmpix.NewPixelFormat(dcmpix.UINT8)
			pf.SamplesPerPixel = 3
			return dcmpix.NewImage(pf, 5, 5)
		}()},
		{"rgb planar", func() *dcmpix.Image {
			pf := dcmpix.NewPixelFormat(dcmpix.UINT16)
			pf.SamplesPerPixel = 3
			img := dcmpix.NewImage(pf, 4, 3)
			img.PlanarConfiguration = dcmpix.PlanarSeparate
			return img
		}()},
	}

	codec := dcmpix.NewRLECodec()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			native := ramp(tt.img.BufferLength(), 7)

			tt.img.TransferSyntax = dcmpix.RLELossless
			coded, err := codec.Code(tt.img, dcmpix.PixelData{Bytes: native})
			require.NoError(t, err)
			require.True(t, coded.IsEncapsulated())
			assert.Equal(t, tt.img.Frames(), coded.Fragments.Len())
			assert.Len(t, coded.Fragments.Table, tt.img.Frames())

			decoded, err := codec.Decode(tt.img, coded)
			require.NoError(t, err)
			assert.Equal(t, native, decoded.Bytes)
		})
	}
}

func TestRLEFragmentMismatch(t *testing.T) {
	img := dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.UINT8), 4, 4, 3)
	img.TransferSyntax = dcmpix.RLELossless

	codec := dcmpix.NewRLECodec()
	coded, err := codec.Code(img, dcmpix.PixelData{Bytes: ramp(img.BufferLength(), 1)})
	require.NoError(t, err)

	f0, _ := coded.Fragments.At(0)
	f1, _ := coded.Fragments.At(1)
	_, err = codec.Decode(img, dcmpix.PixelData{Fragments: dcmpix.NewFragmentSequence(f0, f1)})
	assert.IsType(t, dcmpix.DecodeError(""), errors.Cause(err))
}

func TestRLEHeaderMismatch(t *testing.T) {
	img := dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.UINT8), 4, 4)
	img.TransferSyntax = dcmpix.RLELossless

	codec := dcmpix.NewRLECodec()
	coded, err := codec.Code(img, dcmpix.PixelData{Bytes: ramp(img.BufferLength(), 1)})
	require.NoError(t, err)

	img.PixelFormat = dcmpix.NewPixelFormat(dcmpix.UINT16)
	_, err = codec.Decode(img, coded)
	assert.IsType(t, dcmpix.DecodeError(""), errors.Cause(err))
}
