package dcmpix

import (
	"fmt"

	"github.com/cocosip/go-dicom-codec/codec"
	sv1 "github.com/cocosip/go-dicom-codec/jpeg/lossless14sv1"
	jpegls "github.com/cocosip/go-dicom-codec/jpegls/lossless"
	"github.com/pkg/errors"
)

// JPEGLosslessCodec handles JPEG Lossless, Non-Hierarchical, First-Order
// Prediction (process 14, selection value 1).
type JPEGLosslessCodec struct {
	frameCodec
}

// NewJPEGLosslessCodec returns a JPEG Lossless SV1 codec.
func NewJPEGLosslessCodec() *JPEGLosslessCodec {
	return &JPEGLosslessCodec{frameCodec{
		name:   "jpeg-lossless",
		syntax: JPEGLossless,
		codec:  sv1.NewLossless14SV1Codec(),
	}}
}

// JPEGLSCodec handles JPEG-LS Lossless.
type JPEGLSCodec struct {
	frameCodec
}

// NewJPEGLSCodec returns a JPEG-LS Lossless codec.
func NewJPEGLSCodec() *JPEGLSCodec {
	return &JPEGLSCodec{frameCodec{
		name:   "jpeg-ls",
		syntax: JPEGLSLossless,
		codec:  jpegls.NewJPEGLSLosslessCodec(),
	}}
}

// frameCodec adapts a single frame codec of github.com/cocosip/go-dicom-codec.
// Frames are stored one per fragment with interleaved samples, the library
// working on little endian samples of at most 16 bits.
type frameCodec struct {
	name   string
	syntax TransferSyntax
	codec  codec.Codec
}

// Name implements Codec.
func (c *frameCodec) Name() string {
	return c.name
}

// CanDecode implements Codec.
func (c *frameCodec) CanDecode(ts TransferSyntax) bool {
	return ts == c.syntax
}

// CanCode implements Codec.
func (c *frameCodec) CanCode(ts TransferSyntax) bool {
	return ts == c.syntax
}

// IsLossy reports false, both syntaxes being lossless.
func (c *frameCodec) IsLossy() bool {
	return false
}

func (c *frameCodec) check(img *Image) error {
	pf := img.PixelFormat
	if pf.BitsAllocated%8 != 0 || pf.IsFloat() || pf.BitsAllocated > 16 {
		return UnsupportedError(fmt.Sprintf("%s: %s samples", c.name, pf.ScalarType()))
	}
	if pf.SamplesPerPixel != 1 && pf.SamplesPerPixel != 3 {
		return UnsupportedError(fmt.Sprintf("%s: %d samples per pixel", c.name, pf.SamplesPerPixel))
	}
	return nil
}

// Decode implements Codec.
func (c *frameCodec) Decode(img *Image, in PixelData) (PixelData, error) {
	if !in.IsEncapsulated() {
		return PixelData{}, DecodeError(c.name + ": pixel data is not encapsulated")
	}
	if err := c.check(img); err != nil {
		return PixelData{}, err
	}

	n := img.FrameLength()
	frames := img.Frames()
	if frames == 1 {
		out := make([]byte, n)
		if err := c.decodeFrame(img, in.Fragments.Buffer(), out); err != nil {
			return PixelData{}, err
		}
		return PixelData{Bytes: out}, nil
	}

	if in.Fragments.Len() != frames {
		return PixelData{}, DecodeError(fmt.Sprintf("%s: %d fragments for %d frames", c.name, in.Fragments.Len(), frames))
	}
	out := make([]byte, n*frames)
	for i := 0; i < frames; i++ {
		frag, _ := in.Fragments.At(i)
		if err := c.decodeFrame(img, frag, out[i*n:(i+1)*n]); err != nil {
			return PixelData{}, errors.Wrapf(err, "frame %d", i)
		}
	}
	return PixelData{Bytes: out}, nil
}

func (c *frameCodec) decodeFrame(img *Image, stream, dst []byte) error {
	res, err := c.codec.Decode(stream)
	if err != nil {
		return DecodeError(fmt.Sprintf("%s: %v", c.name, err))
	}

	pf := img.PixelFormat
	w, h := img.Columns(), img.Rows()
	spp := int(pf.SamplesPerPixel)
	size := pf.SampleSize()
	if res.Width != w || res.Height != h || res.Components != spp {
		return DecodeError(fmt.Sprintf("%s: decoded %dx%dx%d, expected %dx%dx%d", c.name, res.Width, res.Height, res.Components, w, h, spp))
	}
	if len(res.PixelData) < w*h*spp*size {
		return DecodeError(fmt.Sprintf("%s: decoded %d bytes, expected %d", c.name, len(res.PixelData), w*h*spp*size))
	}

	prec := int(pf.BitsStored)
	for p := 0; p < w*h; p++ {
		for s := 0; s < spp; s++ {
			v := getSample(res.PixelData[(p*spp+s)*size:], size)
			if pf.IsSigned() {
				v = uint32(signExtend(v, prec))
			}
			putSample(dst[sampleIndex(img.PlanarConfiguration, p, s, spp, w*h)*size:], size, v)
		}
	}
	return nil
}

// Code implements Codec.
func (c *frameCodec) Code(img *Image, in PixelData) (PixelData, error) {
	if in.IsEncapsulated() {
		return PixelData{}, DecodeError(c.name + ": pixel data is already encapsulated")
	}
	if err := c.check(img); err != nil {
		return PixelData{}, err
	}
	n := img.FrameLength()
	if len(in.Bytes) < n*img.Frames() {
		return PixelData{}, DecodeError(fmt.Sprintf("%s: pixel data holds %d bytes, expected %d", c.name, len(in.Bytes), n*img.Frames()))
	}

	pf := img.PixelFormat
	w, h := img.Columns(), img.Rows()
	spp := int(pf.SamplesPerPixel)
	size := pf.SampleSize()
	mask := uint32(1)<<pf.BitsStored - 1

	fs := &FragmentSequence{}
	buf := make([]byte, n)
	for i := 0; i < img.Frames(); i++ {
		frame := in.Bytes[i*n : (i+1)*n]
		for p := 0; p < w*h; p++ {
			for s := 0; s < spp; s++ {
				v := getSample(frame[sampleIndex(img.PlanarConfiguration, p, s, spp, w*h)*size:], size)
				putSample(buf[(p*spp+s)*size:], size, v&mask)
			}
		}

		stream, err := c.codec.Encode(codec.EncodeParams{
			PixelData:  buf,
			Width:      w,
			Height:     h,
			Components: spp,
			BitDepth:   int(pf.BitsStored),
			Options:    &codec.BaseOptions{},
		})
		if err != nil {
			return PixelData{}, errors.Wrapf(err, "%s: encode frame %d", c.name, i)
		}
		fs.Add(Fragment(stream))
	}
	fs.BuildOffsetTable()
	return PixelData{Fragments: fs}, nil
}
