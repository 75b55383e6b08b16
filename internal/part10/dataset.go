package part10

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mdouchement/dcmpix"
)

// Tag represents a DICOM tag, group in the high 16 bits.
type Tag uint32

// NewTag builds a tag from its group and element.
func NewTag(group, element uint16) Tag {
	return Tag(uint32(group)<<16 | uint32(element))
}

// Group returns the group number.
func (t Tag) Group() uint16 {
	return uint16(t >> 16)
}

// Element returns the element number.
func (t Tag) Element() uint16 {
	return uint16(t)
}

// String returns the tag in (GGGG,EEEE) format.
func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group(), t.Element())
}

// Tags used by this package.
const (
	TagFileMetaInformationGroupLength Tag = 0x00020000
	TagFileMetaInformationVersion     Tag = 0x00020001
	TagMediaStorageSOPClassUID        Tag = 0x00020002
	TagMediaStorageSOPInstanceUID     Tag = 0x00020003
	TagTransferSyntaxUID              Tag = 0x00020010
	TagImplementationClassUID         Tag = 0x00020012
	TagImplementationVersionName      Tag = 0x00020013
	TagSourceApplicationEntityTitle   Tag = 0x00020016

	TagImageType                 Tag = 0x00080008
	TagSOPClassUID               Tag = 0x00080016
	TagSOPInstanceUID            Tag = 0x00080018
	TagSliceThickness            Tag = 0x00180050
	TagSpacingBetweenSlices      Tag = 0x00180088
	TagNumberOfImagesInMosaic    Tag = 0x0019100A // Siemens private.
	TagImagePositionPatient      Tag = 0x00200032
	TagImageOrientationPatient   Tag = 0x00200037
	TagSamplesPerPixel           Tag = 0x00280002
	TagPhotometricInterpretation Tag = 0x00280004
	TagPlanarConfiguration       Tag = 0x00280006
	TagNumberOfFrames            Tag = 0x00280008
	TagRows                      Tag = 0x00280010
	TagColumns                   Tag = 0x00280011
	TagPixelSpacing              Tag = 0x00280030
	TagBitsAllocated             Tag = 0x00280100
	TagBitsStored                Tag = 0x00280101
	TagHighBit                   Tag = 0x00280102
	TagPixelRepresentation       Tag = 0x00280103
	TagLossyImageCompression     Tag = 0x00282110
	TagIconImageSequence         Tag = 0x00880200
	TagPixelData                 Tag = 0x7FE00010

	tagItem             Tag = 0xFFFEE000
	tagItemDelimitation Tag = 0xFFFEE00D
	tagSeqDelimitation  Tag = 0xFFFEE0DD
)

// vrOf returns the VR of the tags an implicit VR dataset may need to
// interpret, UN otherwise.
func vrOf(t Tag) string {
	switch t {
	case TagFileMetaInformationGroupLength:
		return "UL"
	case TagFileMetaInformationVersion:
		return "OB"
	case TagMediaStorageSOPClassUID, TagMediaStorageSOPInstanceUID, TagTransferSyntaxUID,
		TagImplementationClassUID, TagSOPClassUID, TagSOPInstanceUID:
		return "UI"
	case TagImplementationVersionName:
		return "SH"
	case TagSourceApplicationEntityTitle:
		return "AE"
	case TagImageType, TagPhotometricInterpretation, TagLossyImageCompression:
		return "CS"
	case TagSliceThickness, TagSpacingBetweenSlices, TagImagePositionPatient,
		TagImageOrientationPatient, TagPixelSpacing:
		return "DS"
	case TagNumberOfFrames:
		return "IS"
	case TagNumberOfImagesInMosaic, TagSamplesPerPixel, TagPlanarConfiguration, TagRows, TagColumns,
		TagBitsAllocated, TagBitsStored, TagHighBit, TagPixelRepresentation:
		return "US"
	case TagIconImageSequence:
		return "SQ"
	case TagPixelData:
		return "OW"
	}
	if t.Element() == 0 {
		return "UL" // Group length.
	}
	return "UN"
}

// isLongVR reports whether the explicit VR header carries a 32 bits length.
func isLongVR(vr string) bool {
	switch vr {
	case "OB", "OD", "OF", "OL", "OW", "SQ", "UC", "UR", "UT", "UN", "OV", "SV", "UV":
		return true
	}
	return false
}

// wordSize returns the size of the binary words of vr, 1 for text and bytes.
func wordSize(vr string) int {
	switch vr {
	case "US", "SS", "OW", "AT":
		return 2
	case "UL", "SL", "FL", "OL", "OF":
		return 4
	case "FD", "OD", "SV", "UV", "OV":
		return 8
	}
	return 1
}

// Element represents a DICOM data element.
//
// Value is little endian, except for the pixel data that keeps the byte
// order of the transfer syntax it was read with.
type Element struct {
	Tag       Tag
	VR        string
	Value     []byte
	Items     []*Dataset               // SQ items.
	Fragments *dcmpix.FragmentSequence // Encapsulated pixel data.
}

// Dataset represents a collection of DICOM elements.
type Dataset struct {
	elements map[Tag]*Element
}

// NewDataset creates a new empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		elements: make(map[Tag]*Element),
	}
}

// Put adds or replaces an element.
func (d *Dataset) Put(e *Element) {
	d.elements[e.Tag] = e
}

// Get returns an element by tag.
func (d *Dataset) Get(t Tag) (*Element, bool) {
	e, ok := d.elements[t]
	return e, ok
}

// Delete removes an element.
func (d *Dataset) Delete(t Tag) {
	delete(d.elements, t)
}

// Len returns the number of elements.
func (d *Dataset) Len() int {
	return len(d.elements)
}

// Tags returns the tags of the dataset in ascending order.
func (d *Dataset) Tags() []Tag {
	tags := make([]Tag, 0, len(d.elements))
	for t := range d.elements {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Clone returns a deep copy of the dataset structure. Values are shared.
func (d *Dataset) Clone() *Dataset {
	c := NewDataset()
	for t, e := range d.elements {
		ce := *e
		if e.Items != nil {
			ce.Items = make([]*Dataset, len(e.Items))
			for i, item := range e.Items {
				ce.Items[i] = item.Clone()
			}
		}
		c.elements[t] = &ce
	}
	return c
}

// GetString returns a string value for a tag.
func (d *Dataset) GetString(t Tag) string {
	if e, ok := d.elements[t]; ok {
		return strings.TrimRight(string(e.Value), " \x00")
	}
	return ""
}

// GetStrings returns the backslash separated values for a tag.
func (d *Dataset) GetStrings(t Tag) []string {
	s := d.GetString(t)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "\\")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

// GetFloats parses the decimal strings of a tag.
func (d *Dataset) GetFloats(t Tag) ([]float64, bool) {
	parts := d.GetStrings(t)
	if len(parts) == 0 {
		return nil, false
	}
	values := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// GetUint16 returns the first value of a US element.
func (d *Dataset) GetUint16(t Tag) (uint16, bool) {
	e, ok := d.elements[t]
	if !ok || len(e.Value) < 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(e.Value), true
}

// GetInt returns the first value of a US or IS element.
func (d *Dataset) GetInt(t Tag) (int, bool) {
	e, ok := d.elements[t]
	if !ok {
		return 0, false
	}
	if e.VR == "US" {
		v, ok := d.GetUint16(t)
		return int(v), ok
	}
	parts := d.GetStrings(t)
	if len(parts) == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(parts[0])
	return v, err == nil
}

// SetString sets a text element, padded to an even length.
func (d *Dataset) SetString(t Tag, vr, s string) {
	if len(s)%2 == 1 {
		if vr == "UI" {
			s += "\x00"
		} else {
			s += " "
		}
	}
	d.Put(&Element{Tag: t, VR: vr, Value: []byte(s)})
}

// SetUint16 sets a US element.
func (d *Dataset) SetUint16(t Tag, v uint16) {
	value := make([]byte, 2)
	binary.LittleEndian.PutUint16(value, v)
	d.Put(&Element{Tag: t, VR: "US", Value: value})
}

// SetFloats sets a DS element.
func (d *Dataset) SetFloats(t Tag, values ...float64) {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatDS(v)
	}
	d.SetString(t, "DS", strings.Join(parts, "\\"))
}

// formatDS formats v in at most 16 characters.
func formatDS(v float64) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	for prec := 16; prec > 0; prec-- {
		s := strconv.FormatFloat(v, 'g', prec, 64)
		if len(s) <= 16 {
			return s
		}
	}
	return "0"
}
