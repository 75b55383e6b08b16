package dcmpix

// TransferSyntax identifies the on-disk encoding of a dataset by its UID.
type TransferSyntax string

// Transfer syntaxes known by the codecs of this package.
const (
	ImplicitVRLittleEndian         TransferSyntax = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian         TransferSyntax = "1.2.840.10008.1.2.1"
	DeflatedExplicitVRLittleEndian TransferSyntax = "1.2.840.10008.1.2.1.99"
	ExplicitVRBigEndian            TransferSyntax = "1.2.840.10008.1.2.2"
	JPEGBaseline                   TransferSyntax = "1.2.840.10008.1.2.4.50"
	JPEGLossless                   TransferSyntax = "1.2.840.10008.1.2.4.70"
	JPEGLSLossless                 TransferSyntax = "1.2.840.10008.1.2.4.80"
	JPEGLSNearLossless             TransferSyntax = "1.2.840.10008.1.2.4.81"
	JPEG2000Lossless               TransferSyntax = "1.2.840.10008.1.2.4.90"
	JPEG2000                       TransferSyntax = "1.2.840.10008.1.2.4.91"
	RLELossless                    TransferSyntax = "1.2.840.10008.1.2.5"
)

// Name returns the registered name of the transfer syntax, or the UID itself.
func (ts TransferSyntax) Name() string {
	switch ts {
	case ImplicitVRLittleEndian:
		return "Implicit VR Little Endian"
	case ExplicitVRLittleEndian:
		return "Explicit VR Little Endian"
	case DeflatedExplicitVRLittleEndian:
		return "Deflated Explicit VR Little Endian"
	case ExplicitVRBigEndian:
		return "Explicit VR Big Endian"
	case JPEGBaseline:
		return "JPEG Baseline (Process 1)"
	case JPEGLossless:
		return "JPEG Lossless, Non-Hierarchical, First-Order Prediction"
	case JPEGLSLossless:
		return "JPEG-LS Lossless"
	case JPEGLSNearLossless:
		return "JPEG-LS Lossy (Near-Lossless)"
	case JPEG2000Lossless:
		return "JPEG 2000 Image Compression (Lossless Only)"
	case JPEG2000:
		return "JPEG 2000 Image Compression"
	case RLELossless:
		return "RLE Lossless"
	default:
		return string(ts)
	}
}

func (ts TransferSyntax) String() string {
	return ts.Name()
}

// IsKnown reports whether ts is one of the syntaxes listed above.
func (ts TransferSyntax) IsKnown() bool {
	return ts.Name() != string(ts)
}

// IsEncapsulated reports whether the pixel element is stored as a sequence
// of fragments.
func (ts TransferSyntax) IsEncapsulated() bool {
	switch ts {
	case "", ImplicitVRLittleEndian, ExplicitVRLittleEndian, DeflatedExplicitVRLittleEndian, ExplicitVRBigEndian:
		return false
	}
	return true
}

// IsLossy reports whether the encoding may discard information.
func (ts TransferSyntax) IsLossy() bool {
	switch ts {
	case JPEGBaseline, JPEGLSNearLossless, JPEG2000:
		return true
	}
	return false
}

// IsLossless reports whether the encoding guarantees bit exact samples.
func (ts TransferSyntax) IsLossless() bool {
	return ts.IsKnown() && !ts.IsLossy()
}

// IsImplicitVR reports whether elements are encoded without their VR.
func (ts TransferSyntax) IsImplicitVR() bool {
	return ts == ImplicitVRLittleEndian
}

// IsBigEndian reports whether multi-byte values are stored big endian.
func (ts TransferSyntax) IsBigEndian() bool {
	return ts == ExplicitVRBigEndian
}

// IsDeflated reports whether the dataset is deflate compressed.
func (ts TransferSyntax) IsDeflated() bool {
	return ts == DeflatedExplicitVRLittleEndian
}
