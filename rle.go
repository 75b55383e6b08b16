package dcmpix

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// RLECodec implements RLE Lossless: each frame is one fragment made of a 64
// bytes header followed by one PackBits segment per byte plane, most
// significant byte first, sample after sample.
type RLECodec struct{}

// NewRLECodec returns a RLECodec.
func NewRLECodec() *RLECodec {
	return &RLECodec{}
}

// Name implements Codec.
func (c *RLECodec) Name() string {
	return "rle"
}

// CanDecode implements Codec.
func (c *RLECodec) CanDecode(ts TransferSyntax) bool {
	return ts == RLELossless
}

// CanCode implements Codec.
func (c *RLECodec) CanCode(ts TransferSyntax) bool {
	return ts == RLELossless
}

// Decode implements Codec.
func (c *RLECodec) Decode(img *Image, in PixelData) (PixelData, error) {
	if !in.IsEncapsulated() {
		return PixelData{}, DecodeError("rle: pixel data is not encapsulated")
	}
	frames := img.Frames()
	if in.Fragments.Len() != frames {
		return PixelData{}, DecodeError(fmt.Sprintf("rle: %d fragments for %d frames", in.Fragments.Len(), frames))
	}
	if err := c.check(img); err != nil {
		return PixelData{}, err
	}

	n := img.FrameLength()
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
func (c *RLECodec) Code(img *Image, in PixelData) (PixelData, error) {
	if in.IsEncapsulated() {
		return PixelData{}, DecodeError("rle: pixel data is already encapsulated")
	}
	if err := c.check(img); err != nil {
		return PixelData{}, err
	}
	n := img.FrameLength()
	if len(in.Bytes) < n*img.Frames() {
		return PixelData{}, DecodeError(fmt.Sprintf("rle: pixel data holds %d bytes, expected %d", len(in.Bytes), n*img.Frames()))
	}

	fs := &FragmentSequence{}
	for i := 0; i < img.Frames(); i++ {
		fs.Add(c.codeFrame(img, in.Bytes[i*n:(i+1)*n]))
	}
	fs.BuildOffsetTable()
	return PixelData{Fragments: fs}, nil
}

func (c *RLECodec) check(img *Image) error {
	segments := int(img.PixelFormat.SamplesPerPixel) * img.PixelFormat.SampleSize()
	if segments < 1 || segments > rleMaxSegments {
		return UnsupportedError(fmt.Sprintf("rle: %d segments per frame", segments))
	}
	return nil
}

func (c *RLECodec) decodeFrame(img *Image, frag []byte, dst []byte) error {
	if len(frag) < rleHeaderLen {
		return DecodeError("rle: fragment shorter than its header")
	}

	spp := int(img.PixelFormat.SamplesPerPixel)
	bps := img.PixelFormat.SampleSize()
	npix := img.Columns() * img.Rows()

	nseg := int(binary.LittleEndian.Uint32(frag))
	if nseg != spp*bps {
		return DecodeError(fmt.Sprintf("rle: %d segments, expected %d", nseg, spp*bps))
	}
	offsets := make([]int, nseg+1)
	for i := 0; i < nseg; i++ {
		offsets[i] = int(binary.LittleEndian.Uint32(frag[4+4*i:]))
	}
	offsets[nseg] = len(frag)

	plane := make([]byte, npix)

	for seg := 0; seg < nseg; seg++ {
		start, end := offsets[seg], offsets[seg+1]
		if start < rleHeaderLen || end < start || end > len(frag) {
			return DecodeError(fmt.Sprintf("rle: invalid offset for segment %d", seg))
		}
		n, err := unpackSegment(plane, frag[start:end])
		if err != nil {
			return DecodeError(fmt.Sprintf("rle: segment %d: %v", seg, err))
		}
		if n != npix {
			return DecodeError(fmt.Sprintf("rle: segment %d holds %d bytes, expected %d", seg, n, npix))
		}

		s, b := seg/bps, bps-1-seg%bps // Native samples are little endian.
		for p, v := range plane {
			dst[sampleIndex(img.PlanarConfiguration, p, s, spp, npix)*bps+b] = v
		}
	}
	return nil
}

func (c *RLECodec) codeFrame(img *Image, src []byte) Fragment {
	spp := int(img.PixelFormat.SamplesPerPixel)
	bps := img.PixelFormat.SampleSize()
	npix := img.Columns() * img.Rows()
	nseg := spp * bps

	frag := make([]byte, rleHeaderLen, rleHeaderLen+len(src))
	binary.LittleEndian.PutUint32(frag, uint32(nseg))
	plane := make([]byte, npix)
	for seg := 0; seg < nseg; seg++ {
		s, b := seg/bps, bps-1-seg%bps
		for p := range plane {
			plane[p] = src[sampleIndex(img.PlanarConfiguration, p, s, spp, npix)*bps+b]
		}

		binary.LittleEndian.PutUint32(frag[4+4*seg:], uint32(len(frag)))
		frag = append(frag, packBits(plane)...)
		if len(frag)%2 == 1 {
			frag = append(frag, 0)
		}
	}
	return Fragment(frag)
}

// sampleIndex returns the index of sample s of pixel p in a native buffer.
func sampleIndex(planar, p, s, spp, npix int) int {
	if planar == PlanarSeparate {
		return s*npix + p
	}
	return p*spp + s
}
