package dcmpix

import (
	"fmt"
)

// RawCodec handles native (non encapsulated) pixel data.
// Big endian data is byte swapped word by word.
type RawCodec struct{}

// NewRawCodec returns a RawCodec.
func NewRawCodec() *RawCodec {
	return &RawCodec{}
}

// Name implements Codec.
func (c *RawCodec) Name() string {
	return "raw"
}

// CanDecode implements Codec.
func (c *RawCodec) CanDecode(ts TransferSyntax) bool {
	switch ts {
	case ImplicitVRLittleEndian, ExplicitVRLittleEndian, DeflatedExplicitVRLittleEndian, ExplicitVRBigEndian:
		return true
	}
	return false
}

// CanCode implements Codec.
func (c *RawCodec) CanCode(ts TransferSyntax) bool {
	return c.CanDecode(ts)
}

// Decode implements Codec. in is expected in img's transfer syntax.
func (c *RawCodec) Decode(img *Image, in PixelData) (PixelData, error) {
	buf, err := c.copy(img, in)
	if err != nil {
		return PixelData{}, err
	}
	if img.TransferSyntax.IsBigEndian() {
		swapBytes(buf, img.PixelFormat.SampleSize())
	}
	return PixelData{Bytes: buf}, nil
}

// Code implements Codec. img's transfer syntax selects the byte order.
func (c *RawCodec) Code(img *Image, in PixelData) (PixelData, error) {
	buf, err := c.copy(img, in)
	if err != nil {
		return PixelData{}, err
	}
	if img.TransferSyntax.IsBigEndian() {
		swapBytes(buf, img.PixelFormat.SampleSize())
	}
	return PixelData{Bytes: buf}, nil
}

func (c *RawCodec) copy(img *Image, in PixelData) ([]byte, error) {
	if in.IsEncapsulated() {
		return nil, DecodeError("raw codec got encapsulated pixel data")
	}
	n := img.BufferLength()
	if len(in.Bytes) < n {
		return nil, DecodeError(fmt.Sprintf("pixel data holds %d bytes, expected %d", len(in.Bytes), n))
	}
	// Trailing padding byte is dropped.
	buf := make([]byte, n)
	copy(buf, in.Bytes)
	return buf, nil
}

// swapBytes reverses in place the byte order of each word of size bytes.
func swapBytes(buf []byte, size int) {
	if size < 2 {
		return
	}
	for i := 0; i+size <= len(buf); i += size {
		for l, r := i, i+size-1; l < r; l, r = l+1, r-1 {
			buf[l], buf[r] = buf[r], buf[l]
		}
	}
}
