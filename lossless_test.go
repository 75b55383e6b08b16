package dcmpix_test

import (
	"testing"

	"github.com/mdouchement/dcmpix"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// samples returns a native buffer whose values fit in BitsStored bits,
// sign extended for signed formats.
func samples(img *dcmpix.Image) []byte {
	pf := img.PixelFormat
	size := pf.SampleSize()
	n := img.BufferLength() / size
	buf := make([]byte, img.BufferLength())
	span := int32(1) << pf.BitsStored
	for i := 0; i < n; i++ {
		v := int32(i*37) % span
		if pf.IsSigned() {
			v -= span / 2
		}
		for b := 0; b < size; b++ {
			buf[i*size+b] = byte(v >> (8 * uint(b)))
		}
	}
	return buf
}

func losslessCodecs() []dcmpix.Codec {
	return []dcmpix.Codec{dcmpix.NewJPEGLosslessCodec(), dcmpix.NewJPEGLSCodec()}
}

func TestLosslessRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		img  func() *dcmpix.Image
	}{
		{"uint8", func() *dcmpix.Image { return dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.UINT8), 16, 8) }},
		{"uint12", func() *dcmpix.Image {
			img := dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.UINT16), 12, 10)
			img.PixelFormat.BitsStored = 12
			img.PixelFormat.HighBit = 11
			return img
		}},
		{"int16 volume", func() *dcmpix.Image { return dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.INT16), 8, 4, 3) }},
		{"rgb planar", func() *dcmpix.Image {
			pf := dcmpix.NewPixelFormat(dcmpix.UINT8)
			pf.SamplesPerPixel = 3
			img := dcmpix.NewImage(pf, 6, 5)
			img.PlanarConfiguration = dcmpix.PlanarSeparate
			return img
		}},
	}

	for _, codec := range losslessCodecs() {
		for _, tt := range tests {
			t.Run(codec.Name()+" "+tt.name, func(t *testing.T) {
				img := tt.img()
				native := samples(img)

				coded, err := codec.Code(img, dcmpix.PixelData{Bytes: native})
				require.NoError(t, err)
				require.True(t, coded.IsEncapsulated())
				assert.Equal(t, img.Frames(), coded.Fragments.Len())

				decoded, err := codec.Decode(img, coded)
				require.NoError(t, err)
				assert.Equal(t, native, decoded.Bytes)
			})
		}
	}
}

func TestLosslessErrors(t *testing.T) {
	for _, codec := range losslessCodecs() {
		t.Run(codec.Name(), func(t *testing.T) {
			img := dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.UINT8), 8, 8, 3)
			coded, err := codec.Code(img, dcmpix.PixelData{Bytes: samples(img)})
			require.NoError(t, err)

			f0, _ := coded.Fragments.At(0)
			f1, _ := coded.Fragments.At(1)
			_, err = codec.Decode(img, dcmpix.PixelData{Fragments: dcmpix.NewFragmentSequence(f0, f1)})
			assert.IsType(t, dcmpix.DecodeError(""), errors.Cause(err))

			// Declared dimensions disagree with the stream.
			small := dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.UINT8), 4, 4)
			_, err = codec.Decode(small, dcmpix.PixelData{Fragments: dcmpix.NewFragmentSequence(f0)})
			assert.IsType(t, dcmpix.DecodeError(""), errors.Cause(err))

			fp := dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.FLOAT32), 4, 4)
			_, err = codec.Code(fp, dcmpix.PixelData{Bytes: make([]byte, fp.BufferLength())})
			assert.IsType(t, dcmpix.UnsupportedError(""), errors.Cause(err))
		})
	}
}

func TestChangeTransferSyntaxLossless(t *testing.T) {
	img := dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.UINT16), 10, 10)
	img.PixelData = dcmpix.PixelData{Bytes: samples(img)}

	for _, ts := range []dcmpix.TransferSyntax{dcmpix.JPEGLossless, dcmpix.JPEGLSLossless} {
		t.Run(ts.Name(), func(t *testing.T) {
			coded, err := dcmpix.NewChangeTransferSyntax(ts).Change(img)
			require.NoError(t, err)
			assert.Equal(t, ts, coded.TransferSyntax)
			assert.False(t, coded.Lossy)

			native, err := dcmpix.NewChangeTransferSyntax(dcmpix.ExplicitVRLittleEndian).Change(coded)
			require.NoError(t, err)
			assert.Equal(t, img.PixelData.Bytes, native.PixelData.Bytes)
		})
	}
}
