package dcmpix

import "strings"

// PhotometricInterpretation is the color interpretation of the samples.
type PhotometricInterpretation string

const (
	Monochrome1   PhotometricInterpretation = "MONOCHROME1"
	Monochrome2   PhotometricInterpretation = "MONOCHROME2"
	PaletteColor  PhotometricInterpretation = "PALETTE COLOR"
	RGB           PhotometricInterpretation = "RGB"
	ARGB          PhotometricInterpretation = "ARGB" // Retired.
	CMYK          PhotometricInterpretation = "CMYK" // Retired.
	YBRFull       PhotometricInterpretation = "YBR_FULL"
	YBRFull422    PhotometricInterpretation = "YBR_FULL_422"
	YBRPartial420 PhotometricInterpretation = "YBR_PARTIAL_420"
	YBRICT        PhotometricInterpretation = "YBR_ICT"
	YBRRCT        PhotometricInterpretation = "YBR_RCT"
)

// ParsePhotometricInterpretation trims the DICOM padding of s.
func ParsePhotometricInterpretation(s string) PhotometricInterpretation {
	return PhotometricInterpretation(strings.TrimRight(s, " \x00"))
}

// SamplesPerPixel returns the number of samples this interpretation needs,
// or 0 when unknown.
func (pi PhotometricInterpretation) SamplesPerPixel() int {
	switch pi {
	case Monochrome1, Monochrome2, PaletteColor:
		return 1
	case RGB, YBRFull, YBRFull422, YBRPartial420, YBRICT, YBRRCT:
		return 3
	case ARGB, CMYK:
		return 4
	default:
		return 0
	}
}

// IsLossy reports whether the interpretation only appears with lossy encodings.
func (pi PhotometricInterpretation) IsLossy() bool {
	switch pi {
	case YBRFull422, YBRPartial420, YBRICT:
		return true
	}
	return false
}

// IsMonochrome reports whether the samples are gray levels.
func (pi PhotometricInterpretation) IsMonochrome() bool {
	return pi == Monochrome1 || pi == Monochrome2
}
