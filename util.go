package dcmpix

import (
	"encoding/binary"
	"fmt"
)

// A ConfigurationError reports contradictory or missing settings.
type ConfigurationError string

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("dcmpix: invalid configuration: %s", string(e))
}

// An UnsupportedError reports that the input uses a valid but
// unimplemented feature.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("dcmpix: unsupported feature: %s", string(e))
}

// A DecodeError reports that pixel data could not be decoded or does not
// match the declared pixel format.
type DecodeError string

func (e DecodeError) Error() string {
	return fmt.Sprintf("dcmpix: decode failure: %s", string(e))
}

// A CapabilityError reports that no codec can handle a transfer syntax.
type CapabilityError string

func (e CapabilityError) Error() string {
	return fmt.Sprintf("dcmpix: capability mismatch: %s", string(e))
}

// An IOError wraps a failure of the underlying reader or writer.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("dcmpix: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error (github.com/pkg/errors).
func (e *IOError) Cause() error {
	return e.Err
}

// minInt returns the smaller of a or b.
func minInt(a, b int) int {
	if a <= b {
		return a
	}
	return b
}

// ceilDivPow2 divides a by 2^b rounding upwards.
func ceilDivPow2(a, b int) int {
	return (a + (1 << uint(b)) - 1) >> uint(b)
}

// getSample reads a little endian sample of size bytes.
func getSample(b []byte, size int) uint32 {
	switch size {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(b))
	default:
		return binary.LittleEndian.Uint32(b)
	}
}

// putSample writes a little endian sample of size bytes.
func putSample(b []byte, size int, v uint32) {
	switch size {
	case 1:
		b[0] = uint8(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	default:
		binary.LittleEndian.PutUint32(b, v)
	}
}

// signExtend interprets the low prec bits of v as a two's complement value.
func signExtend(v uint32, prec int) int32 {
	shift := uint(32 - prec)
	return int32(v<<shift) >> shift
}
