package dcmpix

import (
	"fmt"

	"go.uber.org/zap"
)

// A MosaicSplitter turns a composite frame holding NumberOfImages slices into
// a volume of NumberOfImages frames.
//
// Slices are expected contiguous, of equal length and stored in slice order:
// slice i occupies bytes [i*len, (i+1)*len) of the frame. No repacking is
// performed.
type MosaicSplitter struct {
	NumberOfImages int

	logger *zap.SugaredLogger
}

// NewMosaicSplitter returns a splitter for n slices.
func NewMosaicSplitter(n int) *MosaicSplitter {
	return &MosaicSplitter{
		NumberOfImages: n,
		logger:         zap.NewNop().Sugar(),
	}
}

// SetLogger sets the logger.
func (s *MosaicSplitter) SetLogger(l *zap.SugaredLogger) {
	s.logger = l
}

// Split returns the volume described by the mosaic img. The pixel data of
// the volume shares the buffer of img.
func (s *MosaicSplitter) Split(img *Image) (*Image, error) {
	if s.logger == nil {
		s.logger = zap.NewNop().Sugar()
	}
	z := s.NumberOfImages
	if z < 1 {
		return nil, ConfigurationError(fmt.Sprintf("mosaic: invalid number of images %d", z))
	}
	if img.PixelData.IsEncapsulated() {
		return nil, UnsupportedError("mosaic: encapsulated pixel data must be decoded first")
	}
	if img.Frames() != 1 {
		return nil, UnsupportedError(fmt.Sprintf("mosaic: %d frames", img.Frames()))
	}

	total := img.BufferLength()
	if len(img.PixelData.Bytes) < total {
		return nil, DecodeError(fmt.Sprintf("mosaic: pixel data holds %d bytes, expected %d", len(img.PixelData.Bytes), total))
	}
	if total%z != 0 || img.Rows()%z != 0 {
		return nil, DecodeError(fmt.Sprintf("mosaic: %d rows cannot hold %d slices", img.Rows(), z))
	}

	vol := img.Clone()
	vol.NumberOfDimensions = 3
	vol.Dimensions = [3]int{img.Columns(), img.Rows() / z, z}
	vol.PixelData = PixelData{Bytes: img.PixelData.Bytes[:total]}
	if vol.FrameLength() != total/z {
		return nil, DecodeError(fmt.Sprintf("mosaic: slice length %d, expected %d", total/z, vol.FrameLength()))
	}
	s.logger.Debugf("mosaic: %dx%d split into %d slices of %dx%d", img.Columns(), img.Rows(), z, vol.Columns(), vol.Rows())
	return vol, nil
}

// Slices splits img and returns one 2D image per slice, each one located at
// its own origin along the slice normal.
func (s *MosaicSplitter) Slices(img *Image) ([]*Image, error) {
	vol, err := s.Split(img)
	if err != nil {
		return nil, err
	}

	slices := make([]*Image, vol.Frames())
	for i := range slices {
		slices[i], err = Slice(vol, i)
		if err != nil {
			return nil, err
		}
	}
	return slices, nil
}

// Slice returns frame i of vol as a 2D image. Its origin is moved by i times
// the Z spacing along the slice normal; the Z spacing itself is kept.
func Slice(vol *Image, i int) (*Image, error) {
	frame, err := vol.Frame(i)
	if err != nil {
		return nil, err
	}

	slice := vol.Clone()
	slice.NumberOfDimensions = 2
	slice.Dimensions[2] = 1
	slice.Geometry.Origin = vol.Geometry.SliceOrigin(i)
	slice.Geometry.Spacing[2] = vol.Geometry.Spacing[2]
	slice.PixelData = PixelData{Bytes: frame}
	return slice, nil
}
