package dcmpix_test

import (
	"encoding/binary"
	"testing"

	"github.com/mdouchement/dcmpix"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// codestream builds a main header followed by an empty tile and EOC.
// ssiz holds the Ssiz byte of each component.
func codestream(w, h int, ssiz []byte, reversible bool) []byte {
	be := binary.BigEndian
	buf := []byte{0xFF, 0x4F}

	siz := be.AppendUint16(nil, 0) // Rsiz
	for _, v := range []uint32{uint32(w), uint32(h), 0, 0, uint32(w), uint32(h), 0, 0} {
		siz = be.AppendUint32(siz, v)
	}
	siz = be.AppendUint16(siz, uint16(len(ssiz)))
	for _, s := range ssiz {
		siz = append(siz, s, 1, 1)
	}
	buf = append(buf, 0xFF, 0x51)
	buf = be.AppendUint16(buf, uint16(len(siz)+2))
	buf = append(buf, siz...)

	transform := byte(0)
	if reversible {
		transform = 1
	}
	mct := byte(0)
	if len(ssiz) == 3 {
		mct = 1
	}
	cod := []byte{0, 0, 0, 2, mct, 5, 4, 4, 0, transform}
	buf = append(buf, 0xFF, 0x52)
	buf = be.AppendUint16(buf, uint16(len(cod)+2))
	buf = append(buf, cod...)

	buf = append(buf, 0xFF, 0x90, 0x00, 0x0A, 0, 0, 0, 0, 0, 0, 0, 1)
	return append(buf, 0xFF, 0xD9)
}

func jp2(stream []byte) []byte {
	buf := []byte("\x00\x00\x00\x0C\x6A\x50\x20\x20\x0D\x0A\x87\x0A")
	buf = append(buf, 0, 0, 0, 20, 'f', 't', 'y', 'p', 'j', 'p', '2', ' ', 0, 0, 0, 0, 'j', 'p', '2', ' ')
	buf = binary.BigEndian.AppendUint32(buf, uint32(8+len(stream)))
	buf = append(buf, 'j', 'p', '2', 'c')
	return append(buf, stream...)
}

func TestParseJPEG2000Header(t *testing.T) {
	h, err := dcmpix.ParseJPEG2000Header(codestream(64, 32, []byte{11}, true))
	require.NoError(t, err)
	assert.False(t, h.JP2)
	assert.Equal(t, 64, h.Width)
	assert.Equal(t, 32, h.Height)
	assert.Equal(t, []dcmpix.Component{{Precision: 12, DX: 1, DY: 1}}, h.Components)
	assert.True(t, h.Reversible)
	assert.Equal(t, 2, h.Layers)
	assert.Equal(t, 6, h.Resolutions)
	assert.False(t, h.MCT)

	pf, err := h.PixelFormat()
	require.NoError(t, err)
	assert.Equal(t, dcmpix.PixelFormat{SamplesPerPixel: 1, BitsAllocated: 16, BitsStored: 12, HighBit: 11}, pf)
	pi, err := h.Photometric()
	require.NoError(t, err)
	assert.Equal(t, dcmpix.Monochrome2, pi)
	assert.Equal(t, dcmpix.JPEG2000Lossless, h.TransferSyntax())
}

func TestParseJPEG2000HeaderSignedColor(t *testing.T) {
	h, err := dcmpix.ParseJPEG2000Header(jp2(codestream(8, 8, []byte{0x87, 0x87, 0x87}, false)))
	require.NoError(t, err)
	assert.True(t, h.JP2)
	assert.True(t, h.MCT)
	assert.False(t, h.Reversible)

	img := dcmpix.NewImage(dcmpix.NewPixelFormat(dcmpix.UINT16), 1, 1)
	require.NoError(t, h.ApplyTo(img))
	assert.Equal(t, dcmpix.PixelFormat{SamplesPerPixel: 3, BitsAllocated: 8, BitsStored: 8, HighBit: 7, PixelRepresentation: 1}, img.PixelFormat)
	assert.Equal(t, dcmpix.YBRICT, img.Photometric)
	assert.Equal(t, dcmpix.JPEG2000, img.TransferSyntax)
	assert.Equal(t, 8, img.Columns())
	assert.True(t, img.Lossy)
}

func TestParseJPEG2000HeaderErrors(t *testing.T) {
	_, err := dcmpix.ParseJPEG2000Header([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	assert.IsType(t, dcmpix.DecodeError(""), errors.Cause(err))

	stream := codestream(8, 8, []byte{7}, true)
	_, err = dcmpix.ParseJPEG2000Header(stream[:20])
	assert.IsType(t, dcmpix.DecodeError(""), errors.Cause(err))

	h, err := dcmpix.ParseJPEG2000Header(codestream(8, 8, []byte{7, 7}, true))
	require.NoError(t, err)
	_, err = h.Photometric()
	assert.IsType(t, dcmpix.UnsupportedError(""), errors.Cause(err))

	h, err = dcmpix.ParseJPEG2000Header(codestream(8, 8, []byte{7, 11, 7}, true))
	require.NoError(t, err)
	_, err = h.PixelFormat()
	assert.IsType(t, dcmpix.DecodeError(""), errors.Cause(err))
}
