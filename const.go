package dcmpix

// An encapsulated pixel element is a sequence of items, the first one being
// the basic offset table. Each item is introduced by a 4 bytes tag followed by
// a 4 bytes length (see PS3.5 A.4).

const (
	tagItem             = 0xFFFEE000
	tagItemDelimitation = 0xFFFEE00D
	tagSeqDelimitation  = 0xFFFEE0DD

	undefinedLength = 0xFFFFFFFF
)

// JPEG 2000 codestream markers (ISO/IEC 15444-1 Annex A).
const (
	mSOC = 0xFF4F // Start of codestream.
	mSIZ = 0xFF51 // Image and tile size.
	mCOD = 0xFF52 // Coding style default.
	mEOC = 0xFFD9 // End of codestream.
)

const (
	jp2Magic = "\x00\x00\x00\x0C\x6A\x50\x20\x20\x0D\x0A\x87\x0A" // JP2 signature box.

	boxJP2C = 0x6A703263 // Contiguous codestream box.
)

// Wavelet transform values of the COD marker segment.
const (
	wIrreversible97 = 0 // 9-7 irreversible filter.
	wReversible53   = 1 // 5-3 reversible filter.
)

// RLE Lossless (see PS3.5 Annex G).
const (
	rleHeaderLen   = 64
	rleMaxSegments = 15
)

// Planar configuration values.
const (
	PlanarInterleaved = 0 // R1G1B1R2G2B2...
	PlanarSeparate    = 1 // R1R2...G1G2...B1B2...
)
