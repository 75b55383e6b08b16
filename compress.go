package dcmpix

import "fmt"

// unpackSegment decodes the PackBits segment src into the byte plane dst and
// returns the number of bytes written. Decoding stops once dst is full so
// that the even-length padding byte of a segment is never read as a header.
//
// The PackBits compression format is described in PS3.5 Annex G.3.1.
func unpackSegment(dst, src []byte) (int, error) {
	var n int
	for i := 0; i < len(src) && n < len(dst); {
		code := int(int8(src[i]))
		i++
		switch {
		case code >= 0: // Literal run of code+1 bytes.
			if i+code+1 > len(src) {
				return n, fmt.Errorf("literal run of %d bytes at offset %d overflows the segment", code+1, i-1)
			}
			n += copy(dst[n:], src[i:i+code+1])
			i += code + 1
		case code == -128:
			// No-op.
		default: // Replicate run of 1-code bytes.
			if i >= len(src) {
				return n, fmt.Errorf("replicate run at offset %d has no value", i-1)
			}
			v := src[i]
			i++
			for end := minInt(n+1-code, len(dst)); n < end; n++ {
				dst[n] = v
			}
		}
	}
	return n, nil
}

// packBits encodes src with PackBits. Runs of two or more bytes become
// replicate runs, everything else is emitted as literal runs of at most
// 128 bytes.
func packBits(src []byte) []byte {
	dst := make([]byte, 0, len(src)+len(src)/128+2)
	for i := 0; i < len(src); {
		j := i + 1
		for j < len(src) && j-i < 128 && src[j] == src[i] {
			j++
		}
		if j-i >= 2 {
			dst = append(dst, byte(int8(1-(j-i))), src[i])
			i = j
			continue
		}

		for j = i; j < len(src) && j-i < 128; j++ {
			if j+2 < len(src) && src[j] == src[j+1] && src[j] == src[j+2] {
				break
			}
		}
		dst = append(dst, byte(j-i-1))
		dst = append(dst, src[i:j]...)
		i = j
	}
	return dst
}
