// Package nifti defines the in-memory NIfTI-MRS output container and writes
// it as a single-file NIfTI-1 image with the MRS header extension.
package nifti

import (
	"fmt"

	"github.com/shui5/spec2nii/internal/models"
	"github.com/shui5/spec2nii/pkg/hdrext"
	"github.com/shui5/spec2nii/pkg/orientation"
)

// MRS is one output container: a rank >=4 complex array, its affine, the
// sampling dwell time and the completed header extension. Containers are
// never mutated after creation.
type MRS struct {
	// Data has shape [x, y, z, time, extra...], x varying over axis 0.
	Data *models.CArray

	// Orient carries the voxel-to-patient-space affine.
	Orient *orientation.NIfTIOrient

	// DwellTime is the sampling interval of the time axis, seconds.
	DwellTime float64

	// Ext is the header extension shared by all containers of one
	// conversion. It is frozen before attachment.
	Ext *hdrext.Ext
}

// NewMRS builds a container, enforcing the output shape contract: rank at
// least 4 with three leading spatial axes, and at most 7 axes total (the
// NIfTI dimension limit).
func NewMRS(data *models.CArray, orient *orientation.NIfTIOrient, dwellTime float64, ext *hdrext.Ext) (*MRS, error) {
	if data.Rank() < 4 {
		return nil, fmt.Errorf("output container requires rank >= 4, got %d", data.Rank())
	}
	if data.Rank() > 7 {
		return nil, fmt.Errorf("output container exceeds the 7-dimension NIfTI limit (rank %d)", data.Rank())
	}
	if dwellTime <= 0 {
		return nil, fmt.Errorf("dwell time must be positive, got %g", dwellTime)
	}
	ext.Complete()
	return &MRS{Data: data, Orient: orient, DwellTime: dwellTime, Ext: ext}, nil
}
