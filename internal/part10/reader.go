package part10

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"

	"github.com/mdouchement/dcmpix"
)

const (
	preambleLen = 128
	magic       = "DICM"
)

// A FormatError reports that the input is not a valid DICOM file.
type FormatError string

func (e FormatError) Error() string {
	return fmt.Sprintf("part10: invalid format: %s", string(e))
}

// File is a DICOM Part 10 file: file meta information and dataset.
type File struct {
	Meta           *Dataset
	Dataset        *Dataset
	TransferSyntax dcmpix.TransferSyntax
}

// ReadFile reads the named DICOM file.
func ReadFile(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, &dcmpix.IOError{Op: "open", Err: err}
	}
	defer f.Close()

	file, err := Read(f)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return file, nil
}

// Read reads a DICOM file from r. Files without preamble are read as a
// bare Implicit VR Little Endian dataset.
func Read(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &dcmpix.IOError{Op: "read", Err: err}
	}

	file := &File{
		Meta:           NewDataset(),
		TransferSyntax: dcmpix.ImplicitVRLittleEndian,
	}
	offset := 0
	if HasPart10Header(data) {
		rd := &reader{data: data, off: preambleLen + len(magic), order: binary.LittleEndian}
		for rd.off+2 <= len(data) && binary.LittleEndian.Uint16(data[rd.off:]) == 0x0002 {
			e, _, err := rd.readElement()
			if err != nil {
				return nil, errors.Wrap(err, "file meta information")
			}
			file.Meta.Put(e)
		}
		offset = rd.off
		if ts := file.Meta.GetString(TagTransferSyntaxUID); ts != "" {
			file.TransferSyntax = dcmpix.TransferSyntax(ts)
		}
	}

	body := data[offset:]
	if file.TransferSyntax.IsDeflated() {
		fr := flate.NewReader(bytes.NewReader(body))
		defer fr.Close()
		if body, err = io.ReadAll(fr); err != nil {
			return nil, &dcmpix.IOError{Op: "inflate", Err: err}
		}
	}

	rd := newReader(body, file.TransferSyntax)
	file.Dataset, err = rd.readDataset(len(body), false)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// HasPart10Header reports whether data starts with the 128 bytes preamble
// followed by "DICM".
func HasPart10Header(data []byte) bool {
	return len(data) >= preambleLen+len(magic) && string(data[preambleLen:preambleLen+len(magic)]) == magic
}

type reader struct {
	data     []byte
	off      int
	implicit bool
	order    binary.ByteOrder
}

func newReader(data []byte, ts dcmpix.TransferSyntax) *reader {
	rd := &reader{
		data:     data,
		implicit: ts.IsImplicitVR(),
		order:    binary.LittleEndian,
	}
	if ts.IsBigEndian() {
		rd.order = binary.BigEndian
	}
	return rd
}

func (rd *reader) need(n int) error {
	if rd.off+n > len(rd.data) {
		return FormatError(fmt.Sprintf("truncated data at offset %d (need %d bytes, %d left)", rd.off, n, len(rd.data)-rd.off))
	}
	return nil
}

func (rd *reader) uint16() uint16 {
	v := rd.order.Uint16(rd.data[rd.off:])
	rd.off += 2
	return v
}

func (rd *reader) uint32() uint32 {
	v := rd.order.Uint32(rd.data[rd.off:])
	rd.off += 4
	return v
}

func (rd *reader) readTag() (Tag, error) {
	if err := rd.need(4); err != nil {
		return 0, err
	}
	group := rd.uint16()
	element := rd.uint16()
	return NewTag(group, element), nil
}

// readDataset reads elements up to end, or up to an item delimitation
// when untilDelimiter is set.
func (rd *reader) readDataset(end int, untilDelimiter bool) (*Dataset, error) {
	ds := NewDataset()
	for rd.off < end {
		e, delimiter, err := rd.readElement()
		if err != nil {
			return nil, err
		}
		if delimiter {
			if untilDelimiter {
				return ds, nil
			}
			continue
		}
		ds.Put(e)
	}
	if untilDelimiter {
		return nil, FormatError("missing item delimitation")
	}
	return ds, nil
}

func (rd *reader) readElement() (*Element, bool, error) {
	tag, err := rd.readTag()
	if err != nil {
		return nil, false, err
	}
	if tag.Group() == 0xFFFE {
		if err := rd.need(4); err != nil {
			return nil, false, err
		}
		rd.off += 4
		if tag == tagItemDelimitation {
			return nil, true, nil
		}
		return nil, false, FormatError(fmt.Sprintf("unexpected %s in dataset", tag))
	}

	e := &Element{Tag: tag}
	var length uint32
	if rd.implicit && tag.Group() != 0x0002 {
		if err := rd.need(4); err != nil {
			return nil, false, err
		}
		e.VR = vrOf(tag)
		length = rd.uint32()
	} else {
		if err := rd.need(4); err != nil {
			return nil, false, err
		}
		e.VR = string(rd.data[rd.off : rd.off+2])
		rd.off += 2
		if isLongVR(e.VR) {
			if err := rd.need(6); err != nil {
				return nil, false, err
			}
			rd.off += 2 // Reserved.
			length = rd.uint32()
		} else {
			length = uint32(rd.uint16())
		}
	}

	switch {
	case length == 0xFFFFFFFF && tag == TagPixelData:
		e.VR = "OB"
		e.Fragments, err = rd.readFragments()
		return e, false, err
	case length == 0xFFFFFFFF:
		e.VR = "SQ"
		e.Items, err = rd.readItems(len(rd.data))
		return e, false, err
	}

	if err := rd.need(int(length)); err != nil {
		return nil, false, err
	}
	if e.VR == "SQ" {
		end := rd.off + int(length)
		e.Items, err = rd.readItems(end)
		rd.off = end
		return e, false, err
	}

	e.Value = rd.data[rd.off : rd.off+int(length)]
	rd.off += int(length)
	if rd.order == binary.BigEndian && tag != TagPixelData {
		e.Value = swap(e.Value, wordSize(e.VR))
	}
	return e, false, nil
}

// readItems reads the items of a sequence up to end or up to the sequence
// delimitation.
func (rd *reader) readItems(end int) ([]*Dataset, error) {
	var items []*Dataset
	for rd.off < end {
		tag, err := rd.readTag()
		if err != nil {
			return nil, err
		}
		if err := rd.need(4); err != nil {
			return nil, err
		}
		length := rd.uint32()

		switch tag {
		case tagSeqDelimitation:
			return items, nil
		case tagItem:
		default:
			return nil, FormatError(fmt.Sprintf("unexpected %s in sequence", tag))
		}

		var item *Dataset
		if length == 0xFFFFFFFF {
			item, err = rd.readDataset(len(rd.data), true)
		} else {
			if err := rd.need(int(length)); err != nil {
				return nil, err
			}
			item, err = rd.readDataset(rd.off+int(length), false)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// readFragments reads an encapsulated pixel element up to and including its
// sequence delimitation.
func (rd *reader) readFragments() (*dcmpix.FragmentSequence, error) {
	start := rd.off
	for {
		tag, err := rd.readTag()
		if err != nil {
			return nil, err
		}
		if err := rd.need(4); err != nil {
			return nil, err
		}
		length := rd.uint32()
		if tag == tagSeqDelimitation {
			break
		}
		if tag != tagItem || length == 0xFFFFFFFF {
			return nil, FormatError(fmt.Sprintf("unexpected %s in encapsulated pixel data", tag))
		}
		if err := rd.need(int(length)); err != nil {
			return nil, err
		}
		rd.off += int(length)
	}
	return dcmpix.ParseFragmentSequence(rd.data[start:rd.off])
}

// swap returns a copy of b with the byte order of each word reversed.
func swap(b []byte, size int) []byte {
	if size < 2 {
		return b
	}
	c := make([]byte, len(b))
	copy(c, b)
	for i := 0; i+size <= len(c); i += size {
		for l, r := i, i+size-1; l < r; l, r = l+1, r-1 {
			c[l], c[r] = c[r], c[l]
		}
	}
	return c
}
