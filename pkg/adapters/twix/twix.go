// Package twix converts Siemens TWIX single-voxel acquisitions into
// NIfTI-MRS containers. The proprietary binary decode happens upstream; the
// adapter receives the complex array and the flattened header fields and
// drives the orientation, dimension and metadata engines.
package twix

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/shui5/spec2nii/internal/models"
	"github.com/shui5/spec2nii/pkg/assembler"
	"github.com/shui5/spec2nii/pkg/converr"
	"github.com/shui5/spec2nii/pkg/dimensions"
	"github.com/shui5/spec2nii/pkg/orientation"
)

// Header field paths. The VoI block carries the spectroscopy geometry; the
// scan-region fields hold the table position addend.
const (
	pathNormalSag   = "MeasYaps.sSpecPara.sVoI.sNormal.dSag"
	pathNormalCor   = "MeasYaps.sSpecPara.sVoI.sNormal.dCor"
	pathNormalTra   = "MeasYaps.sSpecPara.sVoI.sNormal.dTra"
	pathInPlaneRot  = "MeasYaps.sSpecPara.sVoI.dInPlaneRot"
	pathReadoutFOV  = "MeasYaps.sSpecPara.sVoI.dReadoutFOV"
	pathPhaseFOV    = "MeasYaps.sSpecPara.sVoI.dPhaseFOV"
	pathThickness   = "MeasYaps.sSpecPara.sVoI.dThickness"
	pathPosSag      = "MeasYaps.sSpecPara.sVoI.sPosition.dSag"
	pathPosCor      = "MeasYaps.sSpecPara.sVoI.sPosition.dCor"
	pathPosTra      = "MeasYaps.sSpecPara.sVoI.sPosition.dTra"
	pathTablePosSag = "MeasYaps.lScanRegionPosSag"
	pathTablePosCor = "MeasYaps.lScanRegionPosCor"
	pathTablePosTra = "MeasYaps.lScanRegionPosTra"

	pathDwellTime = "MeasYaps.sRXSPEC.alDwellTime.0"

	pathMatrixPhase = "Meas.lFinalMatrixSizePhase"
	pathMatrixRead  = "Meas.lFinalMatrixSizeRead"
	pathMatrixSlice = "Meas.lFinalMatrixSizeSlice"
)

// Process converts one TWIX acquisition. It discriminates single-voxel from
// imaging acquisitions by the reconstruction matrix size and dispatches
// accordingly.
func Process(acq *models.RawAcquisition, baseName string, ov dimensions.Overrides) ([]assembler.Output, error) {
	sizes, err := acq.Header.ExtractFloats([]models.FieldSpec{
		{Path: pathMatrixPhase},
		{Path: pathMatrixRead},
		{Path: pathMatrixSlice},
	})
	if err != nil {
		return nil, converr.NewMalformedInput(acq.SourceFile, "FinalMatrixSize", err.Error())
	}

	nVoxels := 1.0
	switch {
	case sizes[0] != 0 && sizes[1] != 0:
		nVoxels = sizes[0] * sizes[1] * max1(sizes[2])
	case sizes[2] != 0:
		nVoxels = sizes[2]
	}
	// Unusually filled headers leave all matrix sizes empty; assume a
	// single voxel as unlocalised acquisitions hit the same path.

	if nVoxels > 1 {
		return nil, fmt.Errorf("converting %s: MRSI pathway not yet implemented", acq.SourceFile)
	}
	return ProcessSVS(acq, baseName, ov)
}

// ProcessSVS converts a single-voxel TWIX acquisition into one or more
// output containers.
func ProcessSVS(acq *models.RawAcquisition, baseName string, ov dimensions.Overrides) ([]assembler.Output, error) {
	log.Debugf("found data of size %v", acq.Data.Shape)

	// TWIX phase convention is conjugated relative to NIfTI-MRS.
	data := acq.Data.Conj()

	frame, err := extractFrame(acq)
	if err != nil {
		return nil, err
	}
	orient, err := orientation.FromFrame(*frame, acq.SourceFile)
	if err != nil {
		return nil, err
	}
	log.Debugf("affine row 0 %v", orient.Row(0))

	if !acq.Header.Has(pathDwellTime) {
		return nil, converr.NewMalformedInput(acq.SourceFile, pathDwellTime, "dwell time not present")
	}
	dwellNs, err := acq.Header.Float(pathDwellTime)
	if err != nil {
		return nil, converr.NewMalformedInput(acq.SourceFile, pathDwellTime, err.Error())
	}
	dwellTime := dwellNs / 1e9

	ext, err := extractMetadata(acq)
	if err != nil {
		return nil, err
	}

	plan, err := dimensions.Resolve(acq.AxisNames, acq.Revision, ov, acq.SourceFile)
	if err != nil {
		return nil, err
	}
	log.Debugf("resolved dimension order %v with tags %v", plan.Order, plan.Tags)

	reord, err := data.Transpose(plan.Perm)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", acq.SourceFile, err)
	}

	if baseName == "" {
		baseName = strings.SplitN(acq.SourceFile, ".", 2)[0]
	}
	return assembler.Assemble(reord, orient, dwellTime, ext, plan.Tags, baseName)
}

// extractFrame reads the geometry fields. Normal components, rotation and
// positions default to zero; the fields of view and thickness are required
// whenever the acquisition claims spatial localization.
func extractFrame(acq *models.RawAcquisition) (*orientation.Frame, error) {
	h := acq.Header

	for _, p := range []string{pathReadoutFOV, pathPhaseFOV, pathThickness} {
		if !h.Has(p) {
			return nil, converr.NewMalformedInput(acq.SourceFile, p, "required geometry field not present")
		}
	}

	vals, err := h.ExtractFloats([]models.FieldSpec{
		{Path: pathNormalSag},
		{Path: pathNormalCor},
		{Path: pathNormalTra},
		{Path: pathInPlaneRot},
		{Path: pathReadoutFOV, Required: true},
		{Path: pathPhaseFOV, Required: true},
		{Path: pathThickness, Required: true},
		{Path: pathPosSag},
		{Path: pathPosCor},
		{Path: pathPosTra},
		{Path: pathTablePosSag},
		{Path: pathTablePosCor},
		{Path: pathTablePosTra},
	})
	if err != nil {
		return nil, converr.NewMalformedInput(acq.SourceFile, "VoI geometry", err.Error())
	}

	return &orientation.Frame{
		Normal:     [3]float64{vals[0], vals[1], vals[2]},
		InPlaneRot: vals[3],
		ReadoutFOV: vals[4],
		PhaseFOV:   vals[5],
		Thickness:  vals[6],
		Position: [3]float64{
			vals[7] + vals[10],
			vals[8] + vals[11],
			vals[9] + vals[12],
		},
	}, nil
}

func max1(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
