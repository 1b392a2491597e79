// Package orientation derives the 4x4 voxel-to-patient-space affine for an
// acquisition from vendor geometry fields.
//
// The construction mirrors the scanner's own gradient logic: the slice
// normal is classified into its principal orientation, a right-handed
// phase-encode/readout basis is built for that case, the basis is rotated
// about the normal by the in-plane rotation, and the resulting direction
// cosines are assembled into an affine in the manner of dcm2niix, with the
// LPS to RAS sign flip applied to the first two rows.
package orientation

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/shui5/spec2nii/pkg/converr"
)

// degenerateNorm is the magnitude below which a slice normal is rejected as
// carrying no orientation information.
const degenerateNorm = 1e-9

// fallbackScale is the voxel size of the fallback affine used when the
// source carries no spatial localization. Large enough that any viewer
// treats the position as undefined, while keeping the matrix invertible.
const fallbackScale = 10000.0

// Frame collects the vendor geometry fields that determine an acquisition's
// spatial placement.
type Frame struct {
	// Normal holds the slice-normal direction cosines (sagittal, coronal,
	// transverse components).
	Normal [3]float64

	// InPlaneRot is the in-plane rotation about the normal, in radians.
	InPlaneRot float64

	// PhaseFOV and ReadoutFOV are the phase-encode and readout direction
	// fields of view in mm.
	PhaseFOV   float64
	ReadoutFOV float64

	// Thickness is the slice thickness in mm.
	Thickness float64

	// Position is the voxel centre position in patient space, mm. Table
	// position offsets are already folded in by the adapter.
	Position [3]float64
}

// NIfTIOrient wraps the finished 4x4 affine. It is immutable once built.
type NIfTIOrient struct {
	q44 *mat.Dense
}

// Q44 returns the affine. Callers must not mutate the returned matrix.
func (o *NIfTIOrient) Q44() *mat.Dense { return o.q44 }

// Row returns row i of the affine as a 4-element array.
func (o *NIfTIOrient) Row(i int) [4]float64 {
	return [4]float64{o.q44.At(i, 0), o.q44.At(i, 1), o.q44.At(i, 2), o.q44.At(i, 3)}
}

// FromAffine wraps an externally supplied affine, e.g. one read from an
// affine override file.
func FromAffine(rows [4][4]float64) *NIfTIOrient {
	q := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			q.Set(i, j, rows[i][j])
		}
	}
	return &NIfTIOrient{q44: q}
}

// Fallback returns the affine used when the source format carries no
// spatial localization: a pure scaling by a very large voxel size with zero
// translation, sign-flipped like every other affine this package produces.
func Fallback() *NIfTIOrient {
	q := mat.NewDense(4, 4, nil)
	q.Set(0, 0, -fallbackScale)
	q.Set(1, 1, -fallbackScale)
	q.Set(2, 2, fallbackScale)
	q.Set(3, 3, 1)
	return &NIfTIOrient{q44: q}
}

// FromFrame computes the affine for a spatially localized acquisition.
// file names the source acquisition in error reports.
func FromFrame(f Frame, file string) (*NIfTIOrient, error) {
	norm := math.Sqrt(f.Normal[0]*f.Normal[0] + f.Normal[1]*f.Normal[1] + f.Normal[2]*f.Normal[2])
	if norm < degenerateNorm {
		return nil, converr.NewUnsupportedGeometry(file, "Normal", "slice normal has zero magnitude")
	}
	if f.PhaseFOV <= 0 {
		return nil, converr.NewUnsupportedGeometry(file, "PhaseFOV", "field of view must be positive")
	}
	if f.ReadoutFOV <= 0 {
		return nil, converr.NewUnsupportedGeometry(file, "ReadoutFOV", "field of view must be positive")
	}
	if f.Thickness <= 0 {
		return nil, converr.NewUnsupportedGeometry(file, "Thickness", "slice thickness must be positive")
	}

	gs := [3]float64{f.Normal[0] / norm, f.Normal[1] / norm, f.Normal[2] / norm}
	gp, gr := calcPRS(gs, f.InPlaneRot)

	// Direction cosines as in a DICOM ImageOrientationPatient pair:
	// row direction is the readout vector, column direction the phase
	// encode vector.
	return dicomToNIfTI(gr, gp, f.Position, [3]float64{f.PhaseFOV, f.ReadoutFOV, f.Thickness}), nil
}

// dicomToNIfTI assembles the affine from row/column direction cosines, a
// position and per-axis spacings, then flips the first two rows to move
// from the DICOM LPS convention to the NIfTI RAS convention.
func dicomToNIfTI(row, col, pos [3]float64, spacing [3]float64) *NIfTIOrient {
	normal := cross(row, col)

	q := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		q.Set(i, 0, row[i]*spacing[0])
		q.Set(i, 1, col[i]*spacing[1])
		q.Set(i, 2, normal[i]*spacing[2])
		q.Set(i, 3, pos[i])
	}
	q.Set(3, 3, 1)

	for j := 0; j < 4; j++ {
		q.Set(0, j, -q.At(0, j))
		q.Set(1, j, -q.At(1, j))
	}
	return &NIfTIOrient{q44: q}
}

// Principal slice orientations.
const (
	oriSagittal = iota
	oriCoronal
	oriTransverse
)

// classifyOri returns the principal orientation of a unit slice normal: the
// axis with the largest absolute component, transverse winning ties.
func classifyOri(gs [3]float64) int {
	absSag := math.Abs(gs[0])
	absCor := math.Abs(gs[1])
	absTra := math.Abs(gs[2])
	switch {
	case absSag > absCor && absSag > absTra:
		return oriSagittal
	case absCor > absSag && absCor > absTra:
		return oriCoronal
	default:
		return oriTransverse
	}
}

// calcPRS derives the phase-encode (gp) and readout (gr) direction vectors
// for a unit slice normal gs and in-plane rotation phi. The case analysis
// fixes the un-rotated phase direction per principal orientation; the
// readout direction completes the right-handed triple gs, gp, gr.
func calcPRS(gs [3]float64, phi float64) (gp, gr [3]float64) {
	switch classifyOri(gs) {
	case oriTransverse:
		d := math.Sqrt(1 / (gs[1]*gs[1] + gs[2]*gs[2]))
		gp = [3]float64{0, gs[2] * d, -gs[1] * d}
	case oriCoronal:
		d := math.Sqrt(1 / (gs[0]*gs[0] + gs[1]*gs[1]))
		gp = [3]float64{gs[1] * d, -gs[0] * d, 0}
	case oriSagittal:
		d := math.Sqrt(1 / (gs[0]*gs[0] + gs[1]*gs[1]))
		gp = [3]float64{-gs[1] * d, gs[0] * d, 0}
	}

	gr = cross(gs, gp)

	if phi != 0 {
		sin, cos := math.Sin(phi), math.Cos(phi)
		rotP := [3]float64{
			cos*gp[0] - sin*gr[0],
			cos*gp[1] - sin*gr[1],
			cos*gp[2] - sin*gr[2],
		}
		rotR := [3]float64{
			sin*gp[0] + cos*gr[0],
			sin*gp[1] + cos*gr[1],
			sin*gp[2] + cos*gr[2],
		}
		gp, gr = rotP, rotR
	}
	return gp, gr
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
