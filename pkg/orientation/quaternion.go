package orientation

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Quaternion holds the qform parameters of an affine as stored in a NIfTI-1
// header: the b, c, d quaternion components, the row-flip factor, the
// translation offsets and the per-axis voxel sizes.
type Quaternion struct {
	B, C, D float64
	QFac    float64
	Offset  [3]float64
	PixDim  [3]float64
}

// Quaternion decomposes the affine following the NIfTI-1 reference
// mat44-to-quatern procedure: column norms become voxel sizes, the
// normalized columns form a rotation whose handedness is absorbed into
// qfac, and the rotation is encoded as a unit quaternion with a
// non-negative scalar part.
func (o *NIfTIOrient) Quaternion() Quaternion {
	var q Quaternion
	q.Offset = [3]float64{o.q44.At(0, 3), o.q44.At(1, 3), o.q44.At(2, 3)}

	r := mat.NewDense(3, 3, nil)
	for j := 0; j < 3; j++ {
		colNorm := math.Sqrt(o.q44.At(0, j)*o.q44.At(0, j) +
			o.q44.At(1, j)*o.q44.At(1, j) +
			o.q44.At(2, j)*o.q44.At(2, j))
		if colNorm == 0 {
			colNorm = 1
		}
		q.PixDim[j] = colNorm
		for i := 0; i < 3; i++ {
			r.Set(i, j, o.q44.At(i, j)/colNorm)
		}
	}

	q.QFac = 1
	if mat.Det(r) < 0 {
		q.QFac = -1
		for i := 0; i < 3; i++ {
			r.Set(i, 2, -r.At(i, 2))
		}
	}

	// Rotation matrix to quaternion, scalar part kept non-negative.
	a := r.At(0, 0) + r.At(1, 1) + r.At(2, 2) + 1
	var b, c, d float64
	if a > 0.5 {
		a = 0.5 * math.Sqrt(a)
		b = 0.25 * (r.At(2, 1) - r.At(1, 2)) / a
		c = 0.25 * (r.At(0, 2) - r.At(2, 0)) / a
		d = 0.25 * (r.At(1, 0) - r.At(0, 1)) / a
	} else {
		xd := 1 + r.At(0, 0) - r.At(1, 1) - r.At(2, 2)
		yd := 1 - r.At(0, 0) + r.At(1, 1) - r.At(2, 2)
		zd := 1 - r.At(0, 0) - r.At(1, 1) + r.At(2, 2)
		switch {
		case xd > 1:
			b = 0.5 * math.Sqrt(xd)
			c = 0.25 * (r.At(0, 1) + r.At(1, 0)) / b
			d = 0.25 * (r.At(0, 2) + r.At(2, 0)) / b
			a = 0.25 * (r.At(2, 1) - r.At(1, 2)) / b
		case yd > 1:
			c = 0.5 * math.Sqrt(yd)
			b = 0.25 * (r.At(0, 1) + r.At(1, 0)) / c
			d = 0.25 * (r.At(1, 2) + r.At(2, 1)) / c
			a = 0.25 * (r.At(0, 2) - r.At(2, 0)) / c
		default:
			d = 0.5 * math.Sqrt(zd)
			b = 0.25 * (r.At(0, 2) + r.At(2, 0)) / d
			c = 0.25 * (r.At(1, 2) + r.At(2, 1)) / d
			a = 0.25 * (r.At(1, 0) - r.At(0, 1)) / d
		}
		if a < 0 {
			a, b, c, d = -a, -b, -c, -d
		}
	}
	q.B, q.C, q.D = b, c, d
	return q
}
