package dcmpix

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"github.com/mrjoshuak/go-jpeg2000"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// JPEG2000Codec encodes and decodes wavelet compressed pixel data.
//
// Multi-frame images are stored with one codestream per frame, each one in
// its own fragment. A 2D image may be split over several fragments which are
// concatenated before decoding.
type JPEG2000Codec struct {
	logger *zap.SugaredLogger

	rates        []float64 // Compression ratio per quality layer.
	qualities    []float64 // Quality per quality layer.
	tile         image.Point
	resolutions  int
	irreversible bool
	reduce       int

	lossy bool // Reversibility of the last coded or decoded stream.
}

// NewJPEG2000Codec returns a codec producing lossless codestreams.
func NewJPEG2000Codec() *JPEG2000Codec {
	return &JPEG2000Codec{
		logger:      zap.NewNop().Sugar(),
		resolutions: 6,
	}
}

// SetLogger sets the logger used to report recoverable stream defects.
func (c *JPEG2000Codec) SetLogger(l *zap.SugaredLogger) {
	c.logger = l
}

// SetRate sets the compression ratio of the given quality layer.
func (c *JPEG2000Codec) SetRate(layer int, rate float64) {
	c.rates = setLayer(c.rates, layer, rate)
}

// SetQuality sets the quality (1-100) of the given quality layer.
func (c *JPEG2000Codec) SetQuality(layer int, quality float64) {
	c.qualities = setLayer(c.qualities, layer, quality)
}

// SetTileSize sets the tile dimensions, the whole image being one tile by default.
func (c *JPEG2000Codec) SetTileSize(tx, ty int) {
	c.tile = image.Pt(tx, ty)
}

// SetNumberOfResolutions sets the number of resolution levels.
func (c *JPEG2000Codec) SetNumberOfResolutions(n int) {
	c.resolutions = n
}

// SetReversible selects the 5-3 (true) or the 9-7 (false) wavelet transform.
func (c *JPEG2000Codec) SetReversible(reversible bool) {
	c.irreversible = !reversible
}

// SetReduceResolution sets the number of highest resolution levels
// discarded when decoding.
func (c *JPEG2000Codec) SetReduceResolution(factor int) {
	c.reduce = factor
}

// IsLossy reports whether the last coded or decoded stream used the
// irreversible transform.
func (c *JPEG2000Codec) IsLossy() bool {
	return c.lossy
}

// Name implements Codec.
func (c *JPEG2000Codec) Name() string {
	return "jpeg2000"
}

// CanDecode implements Codec.
func (c *JPEG2000Codec) CanDecode(ts TransferSyntax) bool {
	return ts == JPEG2000Lossless || ts == JPEG2000
}

// CanCode implements Codec.
func (c *JPEG2000Codec) CanCode(ts TransferSyntax) bool {
	return c.CanDecode(ts)
}

// HeaderInfo probes stream without decoding it.
func (c *JPEG2000Codec) HeaderInfo(stream []byte) (Header, error) {
	stream, err := c.trim(stream)
	if err != nil {
		return Header{}, err
	}
	return ParseJPEG2000Header(stream)
}

// Decode implements Codec.
func (c *JPEG2000Codec) Decode(img *Image, in PixelData) (PixelData, error) {
	if !in.IsEncapsulated() {
		return PixelData{}, DecodeError("j2k: pixel data is not encapsulated")
	}

	n := img.FrameLength()
	if img.NumberOfDimensions == 2 {
		out := make([]byte, n)
		if err := c.decodeFrame(img, in.Fragments.Buffer(), out); err != nil {
			return PixelData{}, err
		}
		return PixelData{Bytes: out}, nil
	}

	frames := img.Frames()
	if in.Fragments.Len() != frames {
		return PixelData{}, DecodeError(fmt.Sprintf("j2k: %d fragments for %d frames", in.Fragments.Len(), frames))
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

// Code implements Codec.
func (c *JPEG2000Codec) Code(img *Image, in PixelData) (PixelData, error) {
	if in.IsEncapsulated() {
		return PixelData{}, DecodeError("j2k: pixel data is already encapsulated")
	}
	opts, err := c.options(img)
	if err != nil {
		return PixelData{}, err
	}

	n := img.FrameLength()
	if len(in.Bytes) < n*img.Frames() {
		return PixelData{}, DecodeError(fmt.Sprintf("j2k: pixel data holds %d bytes, expected %d", len(in.Bytes), n*img.Frames()))
	}

	fs := &FragmentSequence{}
	for i := 0; i < img.Frames(); i++ {
		m := frameImage(img, in.Bytes[i*n:(i+1)*n])

		var buf bytes.Buffer
		if err := jpeg2000.Encode(&buf, m, opts); err != nil {
			return PixelData{}, errors.Wrapf(err, "j2k: encode frame %d", i)
		}
		stream := buf.Bytes()
		if img.PixelFormat.IsSigned() {
			markSigned(stream)
		}
		fs.Add(Fragment(stream))
	}
	fs.BuildOffsetTable()
	c.lossy = !opts.Lossless
	return PixelData{Fragments: fs}, nil
}

func (c *JPEG2000Codec) options(img *Image) (*jpeg2000.Options, error) {
	pf := img.PixelFormat
	if pf.BitsAllocated%8 != 0 || pf.IsFloat() {
		return nil, UnsupportedError(fmt.Sprintf("j2k: %s samples", pf.ScalarType()))
	}
	if pf.BitsStored > 16 {
		return nil, UnsupportedError(fmt.Sprintf("j2k: %d bits stored", pf.BitsStored))
	}
	if pf.SamplesPerPixel != 1 && pf.SamplesPerPixel != 3 {
		return nil, UnsupportedError(fmt.Sprintf("j2k: %d samples per pixel", pf.SamplesPerPixel))
	}
	if len(c.rates) > 0 && len(c.qualities) > 0 {
		return nil, ConfigurationError("j2k: rate and quality cannot be used together")
	}

	opts := jpeg2000.DefaultOptions()
	opts.Format = jpeg2000.FormatJ2K
	opts.NumResolutions = c.resolutions
	opts.TileSize = c.tile
	opts.Precision = int(pf.BitsStored)
	opts.Lossless = true
	opts.NumLayers = 1

	switch {
	case len(c.rates) > 0:
		rate := c.rates[len(c.rates)-1]
		if rate <= 0 {
			return nil, ConfigurationError(fmt.Sprintf("j2k: invalid rate %g", rate))
		}
		opts.Lossless = false
		opts.NumLayers = len(c.rates)
		opts.Quality = 0
		opts.CompressionRatio = rate
	case len(c.qualities) > 0:
		quality := c.qualities[len(c.qualities)-1]
		if quality < 1 || quality > 100 {
			return nil, ConfigurationError(fmt.Sprintf("j2k: invalid quality %g", quality))
		}
		opts.Lossless = false
		opts.NumLayers = len(c.qualities)
		opts.Quality = int(quality)
	case c.irreversible:
		opts.Lossless = false
	}

	if img.TransferSyntax == JPEG2000Lossless && !opts.Lossless {
		return nil, ConfigurationError("j2k: lossy parameters for a lossless transfer syntax")
	}
	return opts, nil
}

// trim drops the bytes found after the end of codestream marker.
func (c *JPEG2000Codec) trim(stream []byte) ([]byte, error) {
	i := bytes.LastIndex(stream, []byte{mEOC >> 8, mEOC & 0xFF})
	if i < 0 {
		return nil, DecodeError("j2k: missing end of codestream marker")
	}
	if extra := len(stream) - i - 2; extra > 0 {
		c.logger.Debugf("j2k: dropping %d bytes after EOC marker", extra)
	}
	return stream[:i+2], nil
}

func (c *JPEG2000Codec) decodeFrame(img *Image, stream []byte, dst []byte) error {
	stream, err := c.trim(stream)
	if err != nil {
		return err
	}
	if bytes.HasPrefix(stream, []byte(jp2Magic)) {
		c.logger.Warn("j2k: JP2 file format found instead of a raw codestream")
	}

	h, err := ParseJPEG2000Header(stream)
	if err != nil {
		return err
	}
	if err := checkHeader(img.PixelFormat, h); err != nil {
		return err
	}
	c.lossy = !h.Reversible

	m, err := jpeg2000.DecodeConfig(bytes.NewReader(stream), &jpeg2000.Config{ReduceResolution: c.reduce})
	if err != nil {
		return DecodeError(fmt.Sprintf("j2k: %v", err))
	}

	pf := img.PixelFormat
	w, hh := img.Columns(), img.Rows()
	wr, hr := ceilDivPow2(w, c.reduce), ceilDivPow2(hh, c.reduce)
	b := m.Bounds()
	if b.Dx() < wr || b.Dy() < hr {
		return DecodeError(fmt.Sprintf("j2k: decoded %dx%d, expected %dx%d", b.Dx(), b.Dy(), wr, hr))
	}

	spp := int(pf.SamplesPerPixel)
	size := pf.SampleSize()
	prec := int(pf.BitsStored)
	var offset int32
	if pf.IsSigned() {
		offset = 1 << uint(prec-1)
	}
	for s := 0; s < spp; s++ {
		for i := 0; i < wr*hr; i++ {
			x, y := i%wr, i/wr
			v := int32(componentAt(m, b.Min.X+x, b.Min.Y+y, s, prec)) - offset
			p := y*w + x
			putSample(dst[sampleIndex(img.PlanarConfiguration, p, s, spp, w*hh)*size:], size, uint32(v))
		}
	}
	return nil
}

// checkHeader rejects codestreams that disagree with the declared format.
func checkHeader(pf PixelFormat, h Header) error {
	if len(h.Components) != int(pf.SamplesPerPixel) {
		return DecodeError(fmt.Sprintf("j2k: %d components, %d samples per pixel declared", len(h.Components), pf.SamplesPerPixel))
	}
	for i, comp := range h.Components {
		if comp.Precision != int(pf.BitsStored) || comp.Precision-1 != int(pf.HighBit) {
			return DecodeError(fmt.Sprintf("j2k: component %d has precision %d, declared bits stored %d high bit %d", i, comp.Precision, pf.BitsStored, pf.HighBit))
		}
		if comp.Signed != pf.IsSigned() {
			return DecodeError(fmt.Sprintf("j2k: component %d signedness %t, declared pixel representation %d", i, comp.Signed, pf.PixelRepresentation))
		}
	}
	return nil
}

// componentAt returns component s of the pixel at (x, y), scaled back from
// the 8 or 16 bits output of the decoder to prec bits.
func componentAt(m image.Image, x, y, s, prec int) uint32 {
	var v uint32
	depth := 16
	switch m := m.(type) {
	case *image.Gray:
		v, depth = uint32(m.Pix[m.PixOffset(x, y)]), 8
	case *image.Gray16:
		i := m.PixOffset(x, y)
		v = uint32(m.Pix[i])<<8 | uint32(m.Pix[i+1])
	case *image.RGBA:
		v, depth = uint32(m.Pix[m.PixOffset(x, y)+s]), 8
	case *image.NRGBA:
		v, depth = uint32(m.Pix[m.PixOffset(x, y)+s]), 8
	case *image.RGBA64:
		i := m.PixOffset(x, y) + 2*s
		v = uint32(m.Pix[i])<<8 | uint32(m.Pix[i+1])
	case *image.NRGBA64:
		i := m.PixOffset(x, y) + 2*s
		v = uint32(m.Pix[i])<<8 | uint32(m.Pix[i+1])
	default:
		c := color.NRGBA64Model.Convert(m.At(x, y)).(color.NRGBA64)
		v = uint32([3]uint16{c.R, c.G, c.B}[s%3])
	}
	if prec < depth {
		v >>= uint(depth - prec)
	}
	return v
}

// frameImage wraps one native frame in an image the encoder understands.
// Samples narrower than the container are scaled to its full range, signed
// samples are offset to unsigned ones.
func frameImage(img *Image, frame []byte) image.Image {
	pf := img.PixelFormat
	w, h := img.Columns(), img.Rows()
	rect := image.Rect(0, 0, w, h)
	spp := int(pf.SamplesPerPixel)
	size := pf.SampleSize()
	prec := int(pf.BitsStored)
	depth := 8 * size

	mask := uint32(1)<<uint(prec) - 1
	sample := func(p, s int) uint32 {
		v := getSample(frame[sampleIndex(img.PlanarConfiguration, p, s, spp, w*h)*size:], size)
		if pf.IsSigned() {
			v = uint32(signExtend(v, prec) + 1<<uint(prec-1))
		}
		return (v & mask) << uint(depth-prec)
	}

	switch {
	case spp == 1 && size == 1:
		m := image.NewGray(rect)
		for p := 0; p < w*h; p++ {
			m.Pix[p] = uint8(sample(p, 0))
		}
		return m
	case spp == 1:
		m := image.NewGray16(rect)
		for p := 0; p < w*h; p++ {
			binary.BigEndian.PutUint16(m.Pix[2*p:], uint16(sample(p, 0)))
		}
		return m
	case size == 1:
		m := image.NewRGBA(rect)
		for p := 0; p < w*h; p++ {
			for s := 0; s < 3; s++ {
				m.Pix[4*p+s] = uint8(sample(p, s))
			}
			m.Pix[4*p+3] = 0xFF
		}
		return m
	default:
		m := image.NewRGBA64(rect)
		for p := 0; p < w*h; p++ {
			for s := 0; s < 3; s++ {
				binary.BigEndian.PutUint16(m.Pix[8*p+2*s:], uint16(sample(p, s)))
			}
			binary.BigEndian.PutUint16(m.Pix[8*p+6:], 0xFFFF)
		}
		return m
	}
}

// markSigned sets the sign bit of every component in the SIZ marker segment.
func markSigned(stream []byte) {
	if len(stream) < 4+38 || binary.BigEndian.Uint16(stream[2:]) != mSIZ {
		return
	}
	siz := stream[4:]
	csiz := int(binary.BigEndian.Uint16(siz[36:]))
	for i := 0; i < csiz && 38+3*i < len(siz); i++ {
		siz[38+3*i] |= 0x80
	}
}

func setLayer(values []float64, layer int, v float64) []float64 {
	if layer < 0 {
		return values
	}
	for len(values) <= layer {
		values = append(values, v)
	}
	values[layer] = v
	return values
}
