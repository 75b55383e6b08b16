package part10

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"

	"github.com/mdouchement/dcmpix"
)

// Implementation identification written in the file meta information.
const (
	ImplementationClassUID    = "2.25.215961296346911419730383577063398171523"
	ImplementationVersionName = "DCMPIX_1"
)

// WriteFile writes f to the named file.
func WriteFile(name string, f *File) (err error) {
	out, err := os.Create(name)
	if err != nil {
		return &dcmpix.IOError{Op: "create", Err: err}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = &dcmpix.IOError{Op: "close", Err: cerr}
		}
	}()

	return errors.Wrap(f.Write(out), name)
}

// Write encodes f as a Part 10 file: preamble, file meta information in
// Explicit VR Little Endian, then the dataset in f's transfer syntax.
func (f *File) Write(w io.Writer) error {
	meta := f.Meta
	if meta == nil {
		meta = NewDataset()
	}
	meta = meta.Clone()
	meta.Put(&Element{Tag: TagFileMetaInformationVersion, VR: "OB", Value: []byte{0, 1}})
	meta.SetString(TagTransferSyntaxUID, "UI", string(f.TransferSyntax))
	if _, ok := meta.Get(TagMediaStorageSOPClassUID); !ok {
		meta.SetString(TagMediaStorageSOPClassUID, "UI", f.Dataset.GetString(TagSOPClassUID))
	}
	if _, ok := meta.Get(TagMediaStorageSOPInstanceUID); !ok {
		meta.SetString(TagMediaStorageSOPInstanceUID, "UI", f.Dataset.GetString(TagSOPInstanceUID))
	}
	meta.SetString(TagImplementationClassUID, "UI", ImplementationClassUID)
	meta.SetString(TagImplementationVersionName, "SH", ImplementationVersionName)
	meta.Delete(TagFileMetaInformationGroupLength)

	le := &writer{order: binary.LittleEndian}
	group := le.dataset(meta)
	length := make([]byte, 4)
	binary.LittleEndian.PutUint32(length, uint32(len(group)))
	header := le.element(&Element{Tag: TagFileMetaInformationGroupLength, VR: "UL", Value: length})

	buf := bytes.NewBuffer(make([]byte, preambleLen, preambleLen+len(magic)+len(header)+len(group)))
	buf.WriteString(magic)
	buf.Write(header)
	buf.Write(group)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return &dcmpix.IOError{Op: "write", Err: err}
	}

	body := newWriter(f.TransferSyntax).dataset(f.Dataset)
	if f.TransferSyntax.IsDeflated() {
		fw, err := flate.NewWriter(w, flate.DefaultCompression)
		if err != nil {
			return err
		}
		if _, err := fw.Write(body); err != nil {
			return &dcmpix.IOError{Op: "deflate", Err: err}
		}
		if err := fw.Close(); err != nil {
			return &dcmpix.IOError{Op: "deflate", Err: err}
		}
		return nil
	}
	if _, err := w.Write(body); err != nil {
		return &dcmpix.IOError{Op: "write", Err: err}
	}
	return nil
}

type writer struct {
	implicit bool
	order    binary.ByteOrder
}

func newWriter(ts dcmpix.TransferSyntax) *writer {
	wr := &writer{
		implicit: ts.IsImplicitVR(),
		order:    binary.LittleEndian,
	}
	if ts.IsBigEndian() {
		wr.order = binary.BigEndian
	}
	return wr
}

func (wr *writer) dataset(ds *Dataset) []byte {
	var buf []byte
	for _, t := range ds.Tags() {
		e, _ := ds.Get(t)
		buf = append(buf, wr.element(e)...)
	}
	return buf
}

func (wr *writer) element(e *Element) []byte {
	var value []byte
	vr := e.VR
	length := uint32(0xFFFFFFFF)

	switch {
	case e.Fragments != nil:
		vr = "OB"
		value = e.Fragments.Bytes()
	case vr == "SQ" || e.Items != nil:
		vr = "SQ"
		for _, item := range e.Items {
			value = wr.tag(value, tagItem, 0xFFFFFFFF)
			value = append(value, wr.dataset(item)...)
			value = wr.tag(value, tagItemDelimitation, 0)
		}
		value = wr.tag(value, tagSeqDelimitation, 0)
	default:
		value = e.Value
		if len(value)%2 == 1 {
			value = append(append([]byte(nil), value...), 0)
		}
		if wr.order == binary.BigEndian && e.Tag != TagPixelData {
			value = swap(value, wordSize(vr))
		}
		length = uint32(len(value))
	}
	if vr == "" {
		vr = vrOf(e.Tag)
	}
	if !isLongVR(vr) && len(value) > 0xFFFF {
		vr = "UN"
	}

	buf := make([]byte, 0, 12+len(value))
	buf = wr.uint16(buf, e.Tag.Group())
	buf = wr.uint16(buf, e.Tag.Element())
	switch {
	case wr.implicit && e.Tag.Group() != 0x0002:
		buf = wr.uint32(buf, length)
	case isLongVR(vr):
		buf = append(buf, vr...)
		buf = append(buf, 0, 0)
		buf = wr.uint32(buf, length)
	default:
		buf = append(buf, vr...)
		buf = wr.uint16(buf, uint16(length))
	}
	return append(buf, value...)
}

func (wr *writer) tag(buf []byte, t Tag, length uint32) []byte {
	buf = wr.uint16(buf, t.Group())
	buf = wr.uint16(buf, t.Element())
	return wr.uint32(buf, length)
}

func (wr *writer) uint16(buf []byte, v uint16) []byte {
	b := make([]byte, 2)
	wr.order.PutUint16(b, v)
	return append(buf, b...)
}

func (wr *writer) uint32(buf []byte, v uint32) []byte {
	b := make([]byte, 4)
	wr.order.PutUint32(b, v)
	return append(buf, b...)
}
