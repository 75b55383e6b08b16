package dcmpix

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Component describes one component of a JPEG 2000 codestream (SIZ marker).
type Component struct {
	Precision int
	Signed    bool
	DX, DY    int // Sub-sampling factors.
}

// Header is what the SIZ and COD marker segments of a JPEG 2000 codestream
// tell about the image.
type Header struct {
	JP2         bool // The codestream was wrapped in JP2 boxes.
	Width       int
	Height      int
	Components  []Component
	Reversible  bool // 5-3 wavelet transform.
	Layers      int
	Resolutions int
	MCT         bool // Multiple component transform.
}

// ParseJPEG2000Header reads the main header of a J2K codestream or JP2 file.
// Only the SIZ and COD marker segments are interpreted.
func ParseJPEG2000Header(stream []byte) (Header, error) {
	var h Header
	if bytes.HasPrefix(stream, []byte(jp2Magic)) {
		h.JP2 = true
		cs, err := findCodestreamBox(stream)
		if err != nil {
			return h, err
		}
		stream = cs
	}

	if len(stream) < 4 || binary.BigEndian.Uint16(stream) != mSOC {
		return h, DecodeError("j2k: missing SOC marker")
	}

	var hasSIZ, hasCOD bool
	for offset := 2; offset+4 <= len(stream) && !(hasSIZ && hasCOD); {
		marker := binary.BigEndian.Uint16(stream[offset:])
		length := int(binary.BigEndian.Uint16(stream[offset+2:]))
		if marker>>8 != 0xFF || length < 2 || offset+2+length > len(stream) {
			return h, DecodeError(fmt.Sprintf("j2k: invalid marker segment %04X at offset %d", marker, offset))
		}
		segment := stream[offset+4 : offset+2+length]

		switch marker {
		case mSIZ:
			if err := h.readSIZ(segment); err != nil {
				return h, err
			}
			hasSIZ = true
		case mCOD:
			if err := h.readCOD(segment); err != nil {
				return h, err
			}
			hasCOD = true
		case 0xFF90, 0xFF93: // SOT or SOD: end of main header.
			offset = len(stream)
			continue
		}
		offset += 2 + length
	}

	if !hasSIZ {
		return h, DecodeError("j2k: missing SIZ marker")
	}
	if !hasCOD {
		return h, DecodeError("j2k: missing COD marker")
	}
	return h, nil
}

func (h *Header) readSIZ(b []byte) error {
	// Rsiz, Xsiz, Ysiz, XOsiz, YOsiz, XTsiz, YTsiz, XTOsiz, YTOsiz, Csiz
	if len(b) < 2+8*4+2 {
		return DecodeError("j2k: SIZ marker too short")
	}
	xsiz := binary.BigEndian.Uint32(b[2:])
	ysiz := binary.BigEndian.Uint32(b[6:])
	xosiz := binary.BigEndian.Uint32(b[10:])
	yosiz := binary.BigEndian.Uint32(b[14:])
	h.Width = int(xsiz - xosiz)
	h.Height = int(ysiz - yosiz)

	csiz := int(binary.BigEndian.Uint16(b[34:]))
	if len(b) < 36+3*csiz {
		return DecodeError("j2k: SIZ marker too short for its components")
	}
	h.Components = make([]Component, csiz)
	for i := range h.Components {
		ssiz := b[36+3*i]
		h.Components[i] = Component{
			Precision: int(ssiz&0x7F) + 1,
			Signed:    ssiz&0x80 != 0,
			DX:        int(b[37+3*i]),
			DY:        int(b[38+3*i]),
		}
	}
	return nil
}

func (h *Header) readCOD(b []byte) error {
	// Scod, progression order, layers (2), MCT, decomposition levels,
	// code-block width, code-block height, code-block style, transform.
	if len(b) < 10 {
		return DecodeError("j2k: COD marker too short")
	}
	h.Layers = int(binary.BigEndian.Uint16(b[2:]))
	h.MCT = b[4] != 0
	h.Resolutions = int(b[5]) + 1
	h.Reversible = b[9] == wReversible53
	return nil
}

// findCodestreamBox walks the JP2 boxes and returns the content of the
// contiguous codestream box.
func findCodestreamBox(data []byte) ([]byte, error) {
	for offset := 0; offset+8 <= len(data); {
		length := uint64(binary.BigEndian.Uint32(data[offset:]))
		typ := binary.BigEndian.Uint32(data[offset+4:])
		header := uint64(8)
		switch length {
		case 0: // Last box, up to the end of file.
			length = uint64(len(data) - offset)
		case 1:
			if offset+16 > len(data) {
				return nil, DecodeError("jp2: truncated box header")
			}
			length = binary.BigEndian.Uint64(data[offset+8:])
			header = 16
		}
		if length < header || uint64(offset)+length > uint64(len(data)) {
			return nil, DecodeError(fmt.Sprintf("jp2: invalid box length %d", length))
		}

		if typ == boxJP2C {
			return data[uint64(offset)+header : uint64(offset)+length], nil
		}
		offset += int(length)
	}
	return nil, DecodeError("jp2: no codestream box")
}

// PixelFormat maps the components to the narrowest covering scalar type.
func (h Header) PixelFormat() (PixelFormat, error) {
	var pf PixelFormat
	if len(h.Components) == 0 {
		return pf, DecodeError("j2k: no component")
	}
	c := h.Components[0]
	for _, o := range h.Components[1:] {
		if o.Precision != c.Precision || o.Signed != c.Signed {
			return pf, DecodeError("j2k: components do not share precision and signedness")
		}
	}

	switch {
	case c.Precision <= 8:
		pf.SetScalarType(UINT8)
	case c.Precision <= 16:
		pf.SetScalarType(UINT16)
	case c.Precision <= 32:
		pf.SetScalarType(UINT32)
	default:
		return pf, UnsupportedError(fmt.Sprintf("j2k: precision %d", c.Precision))
	}
	pf.SamplesPerPixel = uint16(len(h.Components))
	pf.BitsStored = uint16(c.Precision)
	pf.HighBit = uint16(c.Precision - 1)
	if c.Signed {
		pf.PixelRepresentation = RepresentationSigned
	}
	return pf, nil
}

// Photometric maps the component count to a color interpretation.
func (h Header) Photometric() (PhotometricInterpretation, error) {
	switch len(h.Components) {
	case 1:
		return Monochrome2, nil
	case 3:
		if h.Reversible {
			return YBRRCT, nil
		}
		return YBRICT, nil
	default:
		return "", UnsupportedError(fmt.Sprintf("j2k: %d components", len(h.Components)))
	}
}

// TransferSyntax returns the transfer syntax matching the wavelet transform.
func (h Header) TransferSyntax() TransferSyntax {
	if h.Reversible {
		return JPEG2000Lossless
	}
	return JPEG2000
}

// ApplyTo overwrites the attributes of img with the ones of the codestream.
func (h Header) ApplyTo(img *Image) error {
	pf, err := h.PixelFormat()
	if err != nil {
		return err
	}
	pi, err := h.Photometric()
	if err != nil {
		return err
	}
	img.PixelFormat = pf
	img.Photometric = pi
	img.Dimensions[0] = h.Width
	img.Dimensions[1] = h.Height
	img.TransferSyntax = h.TransferSyntax()
	img.Lossy = !h.Reversible
	return nil
}
