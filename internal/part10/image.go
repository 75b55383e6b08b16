package part10

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mdouchement/dcmpix"
)

// Image builds the image described by the dataset of f.
func (f *File) Image() (*dcmpix.Image, error) {
	return datasetImage(f.Dataset, f.TransferSyntax)
}

// SetImage writes the attributes and the pixel data of img in the dataset
// of f and switches f to img's transfer syntax.
func (f *File) SetImage(img *dcmpix.Image) {
	if f.Dataset == nil {
		f.Dataset = NewDataset()
	}
	setDatasetImage(f.Dataset, img)
	setDatasetGeometry(f.Dataset, img.Geometry)
	f.TransferSyntax = img.TransferSyntax
}

// NumberOfImagesInMosaic returns the number of slices of a Siemens mosaic.
func (f *File) NumberOfImagesInMosaic() (int, bool) {
	n, ok := f.Dataset.GetInt(TagNumberOfImagesInMosaic)
	return n, ok && n > 0
}

// IsMosaic reports whether Image Type flags the image as a mosaic.
func (f *File) IsMosaic() bool {
	for _, v := range f.Dataset.GetStrings(TagImageType) {
		if v == "MOSAIC" {
			return true
		}
	}
	return false
}

func datasetImage(ds *Dataset, ts dcmpix.TransferSyntax) (*dcmpix.Image, error) {
	pd, ok := ds.Get(TagPixelData)
	if !ok {
		return nil, FormatError("no pixel data")
	}

	var pf dcmpix.PixelFormat
	fields := []struct {
		tag Tag
		dst *uint16
	}{
		{TagSamplesPerPixel, &pf.SamplesPerPixel},
		{TagBitsAllocated, &pf.BitsAllocated},
		{TagBitsStored, &pf.BitsStored},
		{TagHighBit, &pf.HighBit},
		{TagPixelRepresentation, &pf.PixelRepresentation},
	}
	for _, field := range fields {
		v, ok := ds.GetUint16(field.tag)
		if !ok {
			return nil, FormatError(fmt.Sprintf("missing %s", field.tag))
		}
		*field.dst = v
	}

	columns, ok1 := ds.GetUint16(TagColumns)
	rows, ok2 := ds.GetUint16(TagRows)
	if !ok1 || !ok2 {
		return nil, FormatError("missing image dimensions")
	}

	img := &dcmpix.Image{
		NumberOfDimensions: 2,
		Dimensions:         [3]int{int(columns), int(rows), 1},
		PixelFormat:        pf,
		Photometric:        dcmpix.ParsePhotometricInterpretation(ds.GetString(TagPhotometricInterpretation)),
		TransferSyntax:     ts,
		Lossy:              ds.GetString(TagLossyImageCompression) == "01",
		Geometry:           datasetGeometry(ds),
	}
	if pc, ok := ds.GetUint16(TagPlanarConfiguration); ok {
		img.PlanarConfiguration = int(pc)
	}
	if frames, ok := ds.GetInt(TagNumberOfFrames); ok && frames > 1 {
		img.NumberOfDimensions = 3
		img.Dimensions[2] = frames
	}

	if pd.Fragments != nil {
		img.PixelData = dcmpix.PixelData{Fragments: pd.Fragments}
	} else {
		img.PixelData = dcmpix.PixelData{Bytes: pd.Value}
		if ts.IsEncapsulated() {
			img.TransferSyntax = dcmpix.ExplicitVRLittleEndian // Uncompressed icon.
		}
	}

	if icon, ok := ds.Get(TagIconImageSequence); ok && len(icon.Items) > 0 {
		var err error
		if img.Icon, err = datasetImage(icon.Items[0], ts); err != nil {
			return nil, errors.Wrap(err, "icon image")
		}
	}
	return img, nil
}

func datasetGeometry(ds *Dataset) dcmpix.ImageGeometry {
	g := dcmpix.DefaultGeometry()
	if v, ok := ds.GetFloats(TagImagePositionPatient); ok && len(v) == 3 {
		g.Origin = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}
	if v, ok := ds.GetFloats(TagImageOrientationPatient); ok && len(v) == 6 {
		g.Cosines = dcmpix.NewDirectionCosines([6]float64{v[0], v[1], v[2], v[3], v[4], v[5]})
	}
	if v, ok := ds.GetFloats(TagPixelSpacing); ok && len(v) == 2 {
		g.Spacing[0], g.Spacing[1] = v[1], v[0] // Row spacing first.
	}
	if v, ok := ds.GetFloats(TagSpacingBetweenSlices); ok && len(v) == 1 {
		g.Spacing[2] = v[0]
	} else if v, ok := ds.GetFloats(TagSliceThickness); ok && len(v) == 1 {
		g.Spacing[2] = v[0]
	}
	return g
}

func setDatasetImage(ds *Dataset, img *dcmpix.Image) {
	pf := img.PixelFormat
	ds.SetUint16(TagSamplesPerPixel, pf.SamplesPerPixel)
	ds.SetString(TagPhotometricInterpretation, "CS", string(img.Photometric))
	if pf.SamplesPerPixel > 1 {
		ds.SetUint16(TagPlanarConfiguration, uint16(img.PlanarConfiguration))
	} else {
		ds.Delete(TagPlanarConfiguration)
	}
	if img.NumberOfDimensions == 3 {
		ds.SetString(TagNumberOfFrames, "IS", strconv.Itoa(img.Frames()))
	} else {
		ds.Delete(TagNumberOfFrames)
	}
	ds.SetUint16(TagColumns, uint16(img.Columns()))
	ds.SetUint16(TagRows, uint16(img.Rows()))
	ds.SetUint16(TagBitsAllocated, pf.BitsAllocated)
	ds.SetUint16(TagBitsStored, pf.BitsStored)
	ds.SetUint16(TagHighBit, pf.HighBit)
	ds.SetUint16(TagPixelRepresentation, pf.PixelRepresentation)
	if img.Lossy {
		ds.SetString(TagLossyImageCompression, "CS", "01")
	}

	pd := &Element{Tag: TagPixelData, VR: "OW"}
	if img.PixelData.IsEncapsulated() {
		pd.VR = "OB"
		pd.Fragments = img.PixelData.Fragments
	} else {
		if pf.BitsAllocated <= 8 {
			pd.VR = "OB"
		}
		pd.Value = img.PixelData.Bytes
	}
	ds.Put(pd)

	if img.Icon != nil {
		icon := NewDataset()
		setDatasetImage(icon, img.Icon)
		ds.Put(&Element{Tag: TagIconImageSequence, VR: "SQ", Items: []*Dataset{icon}})
	} else {
		ds.Delete(TagIconImageSequence)
	}
}

func setDatasetGeometry(ds *Dataset, g dcmpix.ImageGeometry) {
	ds.SetFloats(TagImagePositionPatient, g.Origin.X, g.Origin.Y, g.Origin.Z)
	dc := g.Cosines.Values()
	ds.SetFloats(TagImageOrientationPatient, dc[:]...)
	ds.SetFloats(TagPixelSpacing, g.Spacing[1], g.Spacing[0])
	ds.SetFloats(TagSpacingBetweenSlices, g.Spacing[2])
}
