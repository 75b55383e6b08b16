package dcmpix

// A Codec transforms the pixel element of one image between its native
// representation and one or more transfer syntaxes.
//
// The image passed to Decode and Code describes the element: dimensions,
// pixel format and planar configuration. Its transfer syntax is the source
// syntax for Decode and the target syntax for Code. Codecs only read it,
// except for header probes which are authoritative over the declared
// attributes.
//
// Codecs are not safe for concurrent use.
type Codec interface {
	// Name identifies the codec in logs.
	Name() string
	// CanDecode reports whether data encoded with ts can be decoded.
	CanDecode(ts TransferSyntax) bool
	// CanCode reports whether native data can be encoded to ts.
	CanCode(ts TransferSyntax) bool
	// Decode returns the native little endian bytes of in.
	Decode(img *Image, in PixelData) (PixelData, error)
	// Code encodes the native little endian bytes of in.
	Code(img *Image, in PixelData) (PixelData, error)
}

// Codecs is an ordered codec list; the first match wins.
type Codecs []Codec

// DefaultCodecs returns a fresh list of the codecs provided by this package,
// in lookup order.
func DefaultCodecs() Codecs {
	return Codecs{
		NewRawCodec(),
		NewRLECodec(),
		NewJPEGLosslessCodec(),
		NewJPEG2000Codec(),
		NewJPEGLSCodec(),
	}
}

// Encoder returns the first codec able to code ts.
func (cs Codecs) Encoder(ts TransferSyntax) (Codec, bool) {
	for _, c := range cs {
		if c != nil && c.CanCode(ts) {
			return c, true
		}
	}
	return nil, false
}

// Decoder returns the first codec able to decode ts.
func (cs Codecs) Decoder(ts TransferSyntax) (Codec, bool) {
	for _, c := range cs {
		if c != nil && c.CanDecode(ts) {
			return c, true
		}
	}
	return nil, false
}
