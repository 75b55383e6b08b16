package dcmpix

import (
	"encoding/binary"
	"fmt"
)

// A Fragment is one independently encoded byte range of an encapsulated
// pixel element.
type Fragment []byte

// Len returns the length of the fragment padded to an even size.
func (f Fragment) Len() int {
	return len(f) + len(f)%2
}

// A FragmentSequence holds the fragments of an encapsulated pixel element,
// in frame order.
//
// The codecs of this package store exactly one fragment per frame, so the
// fragment index is also the slice index.
type FragmentSequence struct {
	// Table is the basic offset table, empty when absent.
	Table     []uint32
	fragments []Fragment
}

// NewFragmentSequence returns a sequence holding the given fragments.
func NewFragmentSequence(fragments ...Fragment) *FragmentSequence {
	fs := &FragmentSequence{}
	for _, f := range fragments {
		fs.Add(f)
	}
	return fs
}

// Add appends f at the end of the sequence.
func (fs *FragmentSequence) Add(f Fragment) {
	fs.fragments = append(fs.fragments, f)
}

// Len returns the number of fragments.
func (fs *FragmentSequence) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.fragments)
}

// At returns the i-th fragment. The boolean is false when i is out of range.
func (fs *FragmentSequence) At(i int) (Fragment, bool) {
	if i < 0 || i >= fs.Len() {
		return nil, false
	}
	return fs.fragments[i], true
}

// ComputeByteLength returns the length of the payload of all fragments,
// item headers excluded.
func (fs *FragmentSequence) ComputeByteLength() int {
	var n int
	for i := 0; i < fs.Len(); i++ {
		n += fs.fragments[i].Len()
	}
	return n
}

// Buffer returns the concatenation of all fragments.
func (fs *FragmentSequence) Buffer() []byte {
	buf := make([]byte, 0, fs.ComputeByteLength())
	for i := 0; i < fs.Len(); i++ {
		buf = append(buf, fs.fragments[i]...)
	}
	return buf
}

// BuildOffsetTable fills Table with the offset of each fragment item,
// relative to the first fragment item.
func (fs *FragmentSequence) BuildOffsetTable() {
	fs.Table = make([]uint32, fs.Len())
	var offset uint32
	for i := 0; i < fs.Len(); i++ {
		fs.Table[i] = offset
		offset += 8 + uint32(fs.fragments[i].Len())
	}
}

// Bytes encodes the sequence as the value of an undefined length pixel
// element: offset table item, fragment items and sequence delimitation item.
func (fs *FragmentSequence) Bytes() []byte {
	buf := make([]byte, 0, 8*(fs.Len()+2)+4*len(fs.Table)+fs.ComputeByteLength())
	buf = appendItem(buf, tagItem, uint32(4*len(fs.Table)))
	for _, offset := range fs.Table {
		buf = binary.LittleEndian.AppendUint32(buf, offset)
	}
	for i := 0; i < fs.Len(); i++ {
		f := fs.fragments[i]
		buf = appendItem(buf, tagItem, uint32(f.Len()))
		buf = append(buf, f...)
		if len(f)%2 == 1 {
			buf = append(buf, 0)
		}
	}
	return appendItem(buf, tagSeqDelimitation, 0)
}

// ParseFragmentSequence decodes the value of an undefined length pixel element.
// The sequence delimitation item is optional when data ends right after the
// last fragment.
func ParseFragmentSequence(data []byte) (*FragmentSequence, error) {
	fs := &FragmentSequence{}
	first := true
	for offset := 0; offset < len(data); {
		if offset+8 > len(data) {
			return nil, DecodeError(fmt.Sprintf("truncated item header at offset %d", offset))
		}
		tag := uint32(binary.LittleEndian.Uint16(data[offset:]))<<16 | uint32(binary.LittleEndian.Uint16(data[offset+2:]))
		length := binary.LittleEndian.Uint32(data[offset+4:])
		offset += 8

		switch tag {
		case tagSeqDelimitation:
			return fs, nil
		case tagItem:
		default:
			return nil, DecodeError(fmt.Sprintf("unexpected tag %08X in fragment sequence", tag))
		}
		if length == undefinedLength || offset+int(length) > len(data) {
			return nil, DecodeError(fmt.Sprintf("invalid item length %d at offset %d", length, offset-8))
		}

		value := data[offset : offset+int(length)]
		offset += int(length)
		if first {
			first = false
			for i := 0; i+4 <= len(value); i += 4 {
				fs.Table = append(fs.Table, binary.LittleEndian.Uint32(value[i:]))
			}
			continue
		}
		fs.Add(Fragment(value))
	}
	return fs, nil
}

func appendItem(buf []byte, tag, length uint32) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, uint16(tag>>16))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(tag))
	return binary.LittleEndian.AppendUint32(buf, length)
}
