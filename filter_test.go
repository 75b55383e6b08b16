package dcmpix_test

import (
	"testing"

	"github.com/mdouchement/dcmpix"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingCodec wraps a codec and counts its calls.
type countingCodec struct {
	dcmpix.Codec
	name    string
	decoded int
	coded   int
}

func (c *countingCodec) Name() string {
	return c.name
}

func (c *countingCodec) Decode(img *dcmpix.Image, in dcmpix.PixelData) (dcmpix.PixelData, error) {
	c.decoded++
	return c.Codec.Decode(img, in)
}

func (c *countingCodec) Code(img *dcmpix.Image, in dcmpix.PixelData) (dcmpix.PixelData, error) {
	c.coded++
	return c.Codec.Code(img, in)
}

func native8(w, h int) *dcmpix.Image {
	img := dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.UINT8), w, h)
	img.PixelData = dcmpix.PixelData{Bytes: gradient(img)}
	return img
}

func TestChangeTransferSyntaxNoop(t *testing.T) {
	img := native8(8, 8)
	raw := &countingCodec{Codec: dcmpix.NewRawCodec(), name: "raw"}

	filter := dcmpix.NewChangeTransferSyntax(dcmpix.ExplicitVRLittleEndian)
	filter.Codecs = dcmpix.Codecs{raw}
	out, err := filter.Change(img)
	require.NoError(t, err)
	assert.Same(t, img, out)
	assert.Zero(t, raw.decoded+raw.coded)

	filter.Force = true
	out, err = filter.Change(img)
	require.NoError(t, err)
	assert.NotSame(t, img, out)
	assert.Equal(t, 1, raw.decoded)
	assert.Equal(t, 1, raw.coded)
	assert.Equal(t, img.PixelData.Bytes, out.PixelData.Bytes)
}

func TestChangeTransferSyntaxInspect(t *testing.T) {
	img := native8(8, 8)
	raw := &countingCodec{Codec: dcmpix.NewRawCodec(), name: "raw"}

	filter := dcmpix.NewChangeTransferSyntax("")
	filter.Codecs = dcmpix.Codecs{raw}
	_, err := filter.Change(img)
	assert.IsType(t, dcmpix.ConfigurationError(""), errors.Cause(err))

	filter.Force = true
	out, err := filter.Change(img)
	require.NoError(t, err)
	assert.Same(t, img, out)
	assert.Equal(t, 1, raw.decoded)
	assert.Zero(t, raw.coded)
}

func TestChangeTransferSyntaxCodecOrder(t *testing.T) {
	img := native8(8, 8)
	first := &countingCodec{Codec: dcmpix.NewRLECodec(), name: "first"}
	second := &countingCodec{Codec: dcmpix.NewRLECodec(), name: "second"}
	user := &countingCodec{Codec: dcmpix.NewRLECodec(), name: "user"}

	filter := dcmpix.NewChangeTransferSyntax(dcmpix.RLELossless)
	filter.Codecs = dcmpix.Codecs{dcmpix.NewRawCodec(), first, second}
	_, err := filter.Change(img)
	require.NoError(t, err)
	assert.Equal(t, 1, first.coded)
	assert.Zero(t, second.coded)

	filter.UserCodec = user
	_, err = filter.Change(img)
	require.NoError(t, err)
	assert.Equal(t, 1, user.coded)
	assert.Equal(t, 1, first.coded)
}

func TestChangeTransferSyntaxCapability(t *testing.T) {
	img := native8(8, 8)

	filter := dcmpix.NewChangeTransferSyntax(dcmpix.JPEGBaseline)
	_, err := filter.Change(img)
	assert.IsType(t, dcmpix.CapabilityError(""), errors.Cause(err))

	img.TransferSyntax = dcmpix.JPEGLSNearLossless
	filter = dcmpix.NewChangeTransferSyntax(dcmpix.ExplicitVRLittleEndian)
	_, err = filter.Change(img)
	assert.IsType(t, dcmpix.CapabilityError(""), errors.Cause(err))
}

func TestChangeTransferSyntaxRoundTrip(t *testing.T) {
	img := native8(16, 16)
	img.Icon = native8(4, 4)

	coded, err := dcmpix.NewChangeTransferSyntax(dcmpix.JPEG2000Lossless).Change(img)
	require.NoError(t, err)
	assert.Equal(t, dcmpix.JPEG2000Lossless, coded.TransferSyntax)
	assert.True(t, coded.PixelData.IsEncapsulated())
	assert.False(t, coded.Lossy)
	require.NotNil(t, coded.Icon)
	assert.Equal(t, dcmpix.ExplicitVRLittleEndian, coded.Icon.TransferSyntax)
	assert.Equal(t, dcmpix.ExplicitVRLittleEndian, img.TransferSyntax, "source must not be modified")

	decoded, err := dcmpix.NewChangeTransferSyntax(dcmpix.ExplicitVRBigEndian).Change(coded)
	require.NoError(t, err)
	assert.Equal(t, dcmpix.ExplicitVRBigEndian, decoded.TransferSyntax)
	assert.Equal(t, img.PixelData.Bytes, decoded.PixelData.Bytes) // 8 bits samples are not swapped.

	filter := dcmpix.NewChangeTransferSyntax(dcmpix.RLELossless)
	filter.CompressIconImage = true
	rle, err := filter.Change(img)
	require.NoError(t, err)
	assert.Equal(t, dcmpix.RLELossless, rle.Icon.TransferSyntax)
	assert.True(t, rle.Icon.PixelData.IsEncapsulated())
}

func TestChangeTransferSyntaxColor(t *testing.T) {
	pf := dcmpix.NewPixelFormat(dcmpix.UINT8)
	pf.SamplesPerPixel = 3
	img := dcmpix.NewImage(pf, 8, 8)
	img.PixelData = dcmpix.PixelData{Bytes: gradient(img)}

	coded, err := dcmpix.NewChangeTransferSyntax(dcmpix.JPEG2000Lossless).Change(img)
	require.NoError(t, err)
	assert.Equal(t, dcmpix.YBRRCT, coded.Photometric)

	decoded, err := dcmpix.NewChangeTransferSyntax(dcmpix.ExplicitVRLittleEndian).Change(coded)
	require.NoError(t, err)
	assert.Equal(t, dcmpix.RGB, decoded.Photometric)
	assert.Equal(t, img.PixelData.Bytes, decoded.PixelData.Bytes)

	codec := dcmpix.NewJPEG2000Codec()
	codec.SetQuality(0, 80)
	filter := dcmpix.NewChangeTransferSyntax(dcmpix.JPEG2000)
	filter.UserCodec = codec
	lossy, err := filter.Change(img)
	require.NoError(t, err)
	assert.True(t, lossy.Lossy)
	assert.Equal(t, dcmpix.YBRICT, lossy.Photometric)
}
