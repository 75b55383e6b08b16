package dcmpix

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DirectionCosines holds the row and column direction of the first pixel
// row and column, in patient coordinates (Image Orientation (Patient)).
type DirectionCosines struct {
	Row    r3.Vec
	Column r3.Vec
}

// IdentityCosines returns the axial orientation 1\0\0\0\1\0.
func IdentityCosines() DirectionCosines {
	return DirectionCosines{
		Row:    r3.Vec{X: 1},
		Column: r3.Vec{Y: 1},
	}
}

// NewDirectionCosines builds cosines from the 6 values of Image Orientation (Patient).
func NewDirectionCosines(v [6]float64) DirectionCosines {
	return DirectionCosines{
		Row:    r3.Vec{X: v[0], Y: v[1], Z: v[2]},
		Column: r3.Vec{X: v[3], Y: v[4], Z: v[5]},
	}
}

// Values returns the 6 values of Image Orientation (Patient).
func (dc DirectionCosines) Values() [6]float64 {
	return [6]float64{dc.Row.X, dc.Row.Y, dc.Row.Z, dc.Column.X, dc.Column.Y, dc.Column.Z}
}

// Cross returns the slice normal, row x column.
func (dc DirectionCosines) Cross() r3.Vec {
	return r3.Cross(dc.Row, dc.Column)
}

// IsValid reports whether both directions are unit vectors and orthogonal.
func (dc DirectionCosines) IsValid() bool {
	const epsilon = 1e-3
	if math.Abs(r3.Norm(dc.Row)-1) > epsilon || math.Abs(r3.Norm(dc.Column)-1) > epsilon {
		return false
	}
	return math.Abs(r3.Dot(dc.Row, dc.Column)) < epsilon
}

// ImageGeometry locates an image in patient coordinates.
type ImageGeometry struct {
	Origin  r3.Vec
	Spacing [3]float64
	Cosines DirectionCosines
}

// DefaultGeometry returns the geometry used when a dataset carries none.
func DefaultGeometry() ImageGeometry {
	return ImageGeometry{
		Spacing: [3]float64{1, 1, 1},
		Cosines: IdentityCosines(),
	}
}

// SliceOrigin returns the origin of the i-th slice, i.e. i times the Z
// spacing along the slice normal.
func (g ImageGeometry) SliceOrigin(i int) r3.Vec {
	return r3.Add(g.Origin, r3.Scale(float64(i)*g.Spacing[2], g.Cosines.Cross()))
}
