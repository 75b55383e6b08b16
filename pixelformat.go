package dcmpix

import (
	"fmt"
	"strings"
)

// ScalarType is the storage type of a single sample.
// A signed type is always its unsigned counterpart plus one.
type ScalarType int

const (
	UINT8 ScalarType = iota
	INT8
	UINT12
	INT12
	UINT16
	INT16
	UINT32
	INT32
	FLOAT16
	FLOAT32
	FLOAT64
	UNKNOWN
)

func (st ScalarType) String() string {
	switch st {
	case UINT8:
		return "UINT8"
	case INT8:
		return "INT8"
	case UINT12:
		return "UINT12"
	case INT12:
		return "INT12"
	case UINT16:
		return "UINT16"
	case INT16:
		return "INT16"
	case UINT32:
		return "UINT32"
	case INT32:
		return "INT32"
	case FLOAT16:
		return "FLOAT16"
	case FLOAT32:
		return "FLOAT32"
	case FLOAT64:
		return "FLOAT64"
	default:
		return "UNKNOWN"
	}
}

// Pixel representation values.
const (
	RepresentationUnsigned = 0
	RepresentationSigned   = 1
	RepresentationFloat16  = 2
	RepresentationFloat32  = 3
	RepresentationFloat64  = 4
)

// PixelFormat describes how a sample is stored in the pixel element.
//
// BitsAllocated >= BitsStored >= HighBit+1 is expected but not enforced:
// some files carry a HighBit outside of BitsStored and are still readable.
type PixelFormat struct {
	SamplesPerPixel     uint16
	BitsAllocated       uint16
	BitsStored          uint16
	HighBit             uint16
	PixelRepresentation uint16
}

// NewPixelFormat returns a single sample PixelFormat for st.
func NewPixelFormat(st ScalarType) PixelFormat {
	var pf PixelFormat
	pf.SetScalarType(st)
	return pf
}

// SetScalarType overwrites the whole format with a single sample of type st.
// BitsStored takes the value of BitsAllocated and HighBit is BitsStored-1.
func (pf *PixelFormat) SetScalarType(st ScalarType) {
	pf.SamplesPerPixel = 1
	switch st {
	case UINT8, INT8:
		pf.BitsAllocated = 8
	case UINT12, INT12:
		pf.BitsAllocated = 12
	case UINT16, INT16, FLOAT16:
		pf.BitsAllocated = 16
	case UINT32, INT32, FLOAT32:
		pf.BitsAllocated = 32
	case FLOAT64:
		pf.BitsAllocated = 64
	default:
		pf.BitsAllocated = 0
	}

	switch st {
	case INT8, INT12, INT16, INT32:
		pf.PixelRepresentation = RepresentationSigned
	case FLOAT16:
		pf.PixelRepresentation = RepresentationFloat16
	case FLOAT32:
		pf.PixelRepresentation = RepresentationFloat32
	case FLOAT64:
		pf.PixelRepresentation = RepresentationFloat64
	default:
		pf.PixelRepresentation = RepresentationUnsigned
	}

	pf.BitsStored = pf.BitsAllocated
	pf.HighBit = pf.BitsStored - 1
}

// ScalarType computes the scalar type from BitsAllocated and PixelRepresentation.
func (pf PixelFormat) ScalarType() ScalarType {
	var st ScalarType
	switch pf.BitsAllocated {
	case 8, 24: // 24 bits is an RGB image declared as a single sample.
		st = UINT8
	case 12:
		st = UINT12
	case 16:
		st = UINT16
	case 32, 64:
		st = UINT32
	default:
		return UNKNOWN
	}

	switch pf.PixelRepresentation {
	case RepresentationUnsigned:
		return st
	case RepresentationSigned:
		return st + 1
	case RepresentationFloat16:
		return FLOAT16
	case RepresentationFloat32:
		return FLOAT32
	case RepresentationFloat64:
		return FLOAT64
	default:
		return UNKNOWN
	}
}

// IsSigned reports whether integer samples are two's complement.
func (pf PixelFormat) IsSigned() bool {
	return pf.PixelRepresentation == RepresentationSigned
}

// IsFloat reports whether samples are IEEE floating point values.
func (pf PixelFormat) IsFloat() bool {
	switch pf.PixelRepresentation {
	case RepresentationFloat16, RepresentationFloat32, RepresentationFloat64:
		return true
	}
	return false
}

// PixelSize returns the number of bytes used by one pixel (all samples).
func (pf PixelFormat) PixelSize() int {
	size := int(pf.BitsAllocated) / 8
	if pf.BitsAllocated == 12 {
		size = 2 // Packed in a short.
	}
	return size * int(pf.SamplesPerPixel)
}

// SampleSize returns the number of bytes used by one sample.
func (pf PixelFormat) SampleSize() int {
	if pf.BitsAllocated == 12 {
		return 2
	}
	return int(pf.BitsAllocated) / 8
}

// Min returns the smallest value representable with BitsStored bits.
func (pf PixelFormat) Min() int64 {
	if pf.BitsStored > 32 {
		return 0
	}
	switch pf.PixelRepresentation {
	case RepresentationSigned:
		return int64(^(((uint64(1) << pf.BitsStored) - 1) >> 1))
	default:
		return 0
	}
}

// Max returns the largest value representable with BitsStored bits.
func (pf PixelFormat) Max() int64 {
	if pf.BitsStored > 32 {
		return 0
	}
	switch pf.PixelRepresentation {
	case RepresentationSigned:
		return int64(((uint64(1) << pf.BitsStored) - 1) >> 1)
	case RepresentationUnsigned:
		return int64((uint64(1) << pf.BitsStored) - 1)
	default:
		return 0
	}
}

// Validate checks the structural invariants of the format.
// A 24 bits single sample format is illegal and is rewritten in place as
// 8 bits RGB; Validate still returns false in that case.
func (pf *PixelFormat) Validate() bool {
	if pf.BitsAllocated == 24 {
		pf.BitsAllocated = 8
		pf.BitsStored = 8
		pf.HighBit = 7
		pf.SamplesPerPixel = 3
		return false
	}

	if pf.BitsAllocated < pf.BitsStored || pf.BitsAllocated < pf.HighBit {
		return false
	}
	if pf.PixelRepresentation > RepresentationFloat64 {
		return false
	}
	switch pf.SamplesPerPixel {
	case 1, 3, 4:
	default:
		return false
	}
	return true
}

func (pf PixelFormat) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SamplesPerPixel    :%d\n", pf.SamplesPerPixel)
	fmt.Fprintf(&b, "BitsAllocated      :%d\n", pf.BitsAllocated)
	fmt.Fprintf(&b, "BitsStored         :%d\n", pf.BitsStored)
	fmt.Fprintf(&b, "HighBit            :%d\n", pf.HighBit)
	fmt.Fprintf(&b, "PixelRepresentation:%d\n", pf.PixelRepresentation)
	fmt.Fprintf(&b, "ScalarType found   :%s\n", pf.ScalarType())
	return b.String()
}
