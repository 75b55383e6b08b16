package dcmpix

import (
	"fmt"
)

// PixelData is the value of a pixel element: either native bytes or a
// sequence of encoded fragments.
type PixelData struct {
	Bytes     []byte
	Fragments *FragmentSequence
}

// IsEncapsulated reports whether the value is a fragment sequence.
func (pd PixelData) IsEncapsulated() bool {
	return pd.Fragments != nil
}

// IsEmpty reports whether no value is set.
func (pd PixelData) IsEmpty() bool {
	return pd.Fragments == nil && len(pd.Bytes) == 0
}

// Len returns the number of bytes of the value, item headers excluded.
func (pd PixelData) Len() int {
	if pd.Fragments != nil {
		return pd.Fragments.ComputeByteLength()
	}
	return len(pd.Bytes)
}

// An Image gathers the attributes needed to interpret a pixel element.
type Image struct {
	NumberOfDimensions  int // 2 or 3.
	Dimensions          [3]int
	PixelFormat         PixelFormat
	Photometric         PhotometricInterpretation
	PlanarConfiguration int
	TransferSyntax      TransferSyntax
	Lossy               bool
	Geometry            ImageGeometry
	PixelData           PixelData

	// Icon is the optional Icon Image Sequence item.
	Icon *Image
}

// NewImage returns a monochrome image of the given dimensions with a default
// geometry. A third dimension turns it into a multi-frame image.
func NewImage(pf PixelFormat, dims ...int) *Image {
	img := &Image{
		NumberOfDimensions: 2,
		Dimensions:         [3]int{1, 1, 1},
		PixelFormat:        pf,
		Photometric:        Monochrome2,
		TransferSyntax:     ExplicitVRLittleEndian,
		Geometry:           DefaultGeometry(),
	}
	if pf.SamplesPerPixel == 3 {
		img.Photometric = RGB
	}
	for i := 0; i < minInt(len(dims), 3); i++ {
		img.Dimensions[i] = dims[i]
	}
	if len(dims) > 2 {
		img.NumberOfDimensions = 3
	}
	return img
}

// Columns returns the width of a frame.
func (img *Image) Columns() int {
	return img.Dimensions[0]
}

// Rows returns the height of a frame.
func (img *Image) Rows() int {
	return img.Dimensions[1]
}

// Frames returns the Z extent, 1 for a 2D image.
func (img *Image) Frames() int {
	if img.NumberOfDimensions < 3 || img.Dimensions[2] < 1 {
		return 1
	}
	return img.Dimensions[2]
}

// FrameLength returns the number of bytes of one decoded frame.
func (img *Image) FrameLength() int {
	return img.Columns() * img.Rows() * img.PixelFormat.PixelSize()
}

// BufferLength returns the number of bytes of all decoded frames.
func (img *Image) BufferLength() int {
	return img.FrameLength() * img.Frames()
}

// Frame returns the native bytes of frame i.
func (img *Image) Frame(i int) ([]byte, error) {
	if img.PixelData.IsEncapsulated() {
		return nil, UnsupportedError("frame access on encapsulated pixel data")
	}
	if i < 0 || i >= img.Frames() {
		return nil, ConfigurationError(fmt.Sprintf("frame %d out of range [0,%d)", i, img.Frames()))
	}
	n := img.FrameLength()
	if (i+1)*n > len(img.PixelData.Bytes) {
		return nil, DecodeError(fmt.Sprintf("pixel data holds %d bytes, frame %d needs %d", len(img.PixelData.Bytes), i, (i+1)*n))
	}
	return img.PixelData.Bytes[i*n : (i+1)*n], nil
}

// Clone returns a copy of img sharing the pixel data buffers.
func (img *Image) Clone() *Image {
	c := *img
	if img.Icon != nil {
		c.Icon = img.Icon.Clone()
	}
	return &c
}
