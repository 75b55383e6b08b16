package dcmpix

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/x448/float16"
)

// HDR returns frame i as a linear RGB image. Integer samples are normalized
// to [0, 1] using the range of the pixel format, floating point samples are
// kept as is.
func (img *Image) HDR(i int) (hdr.Image, error) {
	frame, err := img.Frame(i)
	if err != nil {
		return nil, err
	}
	pf := img.PixelFormat
	if pf.SamplesPerPixel != 1 && pf.SamplesPerPixel != 3 {
		return nil, UnsupportedError(fmt.Sprintf("hdr preview of %d samples per pixel", pf.SamplesPerPixel))
	}

	w, h := img.Columns(), img.Rows()
	spp := int(pf.SamplesPerPixel)
	value := img.sampleValue()

	m := hdr.NewRGB(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := y*w + x
			var c [3]float64
			for s := range c {
				c[s] = value(frame, sampleIndex(img.PlanarConfiguration, p, s%spp, spp, w*h))
			}
			if img.Photometric == Monochrome1 && !pf.IsFloat() {
				c = [3]float64{1 - c[0], 1 - c[1], 1 - c[2]}
			}
			m.SetRGB(x, y, hdrcolor.RGB{R: c[0], G: c[1], B: c[2]})
		}
	}
	return m, nil
}

// Preview returns frame i as a 8 or 16 bits standard library image, suitable
// for encoders such as PNG or TIFF.
func (img *Image) Preview(i int) (image.Image, error) {
	m, err := img.HDR(i)
	if err != nil {
		return nil, err
	}

	b := m.Bounds()
	wide := img.PixelFormat.BitsStored > 8 || img.PixelFormat.IsFloat()
	gray := img.PixelFormat.SamplesPerPixel == 1
	clamp := func(v float64, max float64) float64 {
		return math.Round(math.Max(0, math.Min(1, v)) * max)
	}

	switch {
	case gray && wide:
		dst := image.NewGray16(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, _, _, _ := m.HDRAt(x, y).HDRRGBA()
				binary.BigEndian.PutUint16(dst.Pix[dst.PixOffset(x, y):], uint16(clamp(r, 0xFFFF)))
			}
		}
		return dst, nil
	case gray:
		dst := image.NewGray(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, _, _, _ := m.HDRAt(x, y).HDRRGBA()
				dst.Pix[dst.PixOffset(x, y)] = uint8(clamp(r, 0xFF))
			}
		}
		return dst, nil
	case wide:
		dst := image.NewRGBA64(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := m.HDRAt(x, y).HDRRGBA()
				i := dst.PixOffset(x, y)
				binary.BigEndian.PutUint16(dst.Pix[i:], uint16(clamp(r, 0xFFFF)))
				binary.BigEndian.PutUint16(dst.Pix[i+2:], uint16(clamp(g, 0xFFFF)))
				binary.BigEndian.PutUint16(dst.Pix[i+4:], uint16(clamp(bl, 0xFFFF)))
				binary.BigEndian.PutUint16(dst.Pix[i+6:], 0xFFFF)
			}
		}
		return dst, nil
	default:
		dst := image.NewRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := m.HDRAt(x, y).HDRRGBA()
				i := dst.PixOffset(x, y)
				dst.Pix[i] = uint8(clamp(r, 0xFF))
				dst.Pix[i+1] = uint8(clamp(g, 0xFF))
				dst.Pix[i+2] = uint8(clamp(bl, 0xFF))
				dst.Pix[i+3] = 0xFF
			}
		}
		return dst, nil
	}
}

// sampleValue returns a function reading the sample at index i of a native
// frame as a float.
func (img *Image) sampleValue() func(frame []byte, i int) float64 {
	pf := img.PixelFormat
	size := pf.SampleSize()

	switch pf.ScalarType() {
	case FLOAT16:
		return func(frame []byte, i int) float64 {
			return float64(float16.Frombits(binary.LittleEndian.Uint16(frame[i*2:])).Float32())
		}
	case FLOAT32:
		return func(frame []byte, i int) float64 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(frame[i*4:])))
		}
	case FLOAT64:
		return func(frame []byte, i int) float64 {
			return math.Float64frombits(binary.LittleEndian.Uint64(frame[i*8:]))
		}
	}

	prec := int(pf.BitsStored)
	if prec < 1 || prec > 32 {
		prec = 8 * size
	}
	min, max := float64(pf.Min()), float64(pf.Max())
	mask := uint32(1)<<uint(prec) - 1
	if prec == 32 {
		mask = math.MaxUint32
	}
	return func(frame []byte, i int) float64 {
		v := getSample(frame[i*size:], size)
		var f float64
		if pf.IsSigned() {
			f = float64(signExtend(v, prec))
		} else {
			f = float64(v & mask)
		}
		if max == min {
			return 0
		}
		return (f - min) / (max - min)
	}
}
