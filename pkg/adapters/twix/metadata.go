package twix

import (
	"github.com/shui5/spec2nii/internal/models"
	"github.com/shui5/spec2nii/pkg/converr"
	"github.com/shui5/spec2nii/pkg/hdrext"
)

// Header paths for the standard metadata block.
const (
	pathFrequency = "Meas.Frequency"
	pathNucleus   = "Meas.ResonantNucleus"

	pathEchoTime      = "Phoenix.alTE.0"
	pathTRTime        = "Meas.TR_Time"
	pathTR            = "Meas.TR"
	pathTITime        = "Meas.TI_Time"
	pathFlipAngle     = "Meas.FlipAngle"
	pathDeltaFreq     = "Meas.dDeltaFrequency"
	pathPatientWeight = "Meas.flUsedPatientWeight"
	pathPatientSex    = "Meas.PatientSex"

	pathRxCoilA = "MeasYaps.sCoilSelectMeas.aRxCoilSelectData.0.asList.0.sCoilElementID.tCoilID"
	pathRxCoilB = "MeasYaps.asCoilSelectMeas.0.asList.0.sCoilElementID.tCoilID"

	pathSequenceFile = "Config.SequenceFileName"
	pathIceProgram   = "Meas.tICEProgramName"
)

// stringDefs maps standard string keys to their header paths, in the order
// the keys serialize.
var stringDefs = []struct {
	key  string
	path string
}{
	{"Manufacturer", "Dicom.Manufacturer"},
	{"ManufacturersModelName", "Dicom.ManufacturersModelName"},
	{"DeviceSerialNumber", "Dicom.DeviceSerialNumber"},
	{"SoftwareVersions", "Dicom.SoftwareVersions"},
	{"InstitutionName", "Dicom.InstitutionName"},
	{"InstitutionAddress", "Dicom.InstitutionAddress"},
	{"SequenceName", "Meas.tSequenceString"},
	{"ProtocolName", "Dicom.tProtocolName"},
	{"PatientPosition", "Meas.PatientPosition"},
	{"PatientName", "Meas.PatientName"},
	{"PatientDoB", "Meas.PatientBirthDay"},
}

// extractMetadata builds the header extension from the acquisition header.
// Spectrometer frequency and nucleus are mandatory; everything else is set
// when the header provides it.
func extractMetadata(acq *models.RawAcquisition) (*hdrext.Ext, error) {
	h := acq.Header

	freq, err := h.Float(pathFrequency)
	if err != nil {
		return nil, converr.NewMalformedInput(acq.SourceFile, pathFrequency, err.Error())
	}
	nucleus, err := h.String(pathNucleus)
	if err != nil {
		return nil, converr.NewMalformedInput(acq.SourceFile, pathNucleus, err.Error())
	}

	ext := hdrext.New(freq/1e6, nucleus, acq.SourceFile)

	te, err := h.Float(pathEchoTime)
	if err != nil {
		return nil, converr.NewMalformedInput(acq.SourceFile, pathEchoTime, err.Error())
	}
	if err := ext.SetStandard("EchoTime", te*1e-6); err != nil {
		return nil, err
	}

	// VD-line headers expose TR_Time, older baselines plain TR, both in us.
	trPath := pathTRTime
	if !h.Has(trPath) {
		trPath = pathTR
	}
	tr, err := h.Float(trPath)
	if err != nil {
		return nil, converr.NewMalformedInput(acq.SourceFile, trPath, err.Error())
	}
	if err := ext.SetStandard("RepetitionTime", tr/1e6); err != nil {
		return nil, err
	}

	if h.Has(pathTITime) {
		ti, err := h.Float(pathTITime)
		if err != nil {
			return nil, converr.NewMalformedInput(acq.SourceFile, pathTITime, err.Error())
		}
		if err := ext.SetStandard("InversionTime", ti); err != nil {
			return nil, err
		}
	}

	if h.Has(pathFlipAngle) {
		fa, err := h.Float(pathFlipAngle)
		if err != nil {
			return nil, converr.NewMalformedInput(acq.SourceFile, pathFlipAngle, err.Error())
		}
		if err := ext.SetStandard("ExcitationFlipAngle", fa); err != nil {
			return nil, err
		}
	}

	if h.Has(pathDeltaFreq) {
		// Empty string means an unset transmitter offset on some baselines.
		off, err := h.Float(pathDeltaFreq)
		if err != nil {
			return nil, converr.NewMalformedInput(acq.SourceFile, pathDeltaFreq, err.Error())
		}
		if err := ext.SetStandard("TxOffset", off); err != nil {
			return nil, err
		}
	}

	for _, def := range stringDefs {
		if !h.Has(def.path) {
			continue
		}
		v, err := h.String(def.path)
		if err != nil {
			return nil, converr.NewMalformedInput(acq.SourceFile, def.path, err.Error())
		}
		if err := ext.SetStandard(def.key, v); err != nil {
			return nil, err
		}
	}

	if h.Has(pathRxCoilA) || h.Has(pathRxCoilB) {
		p := pathRxCoilA
		if !h.Has(p) {
			p = pathRxCoilB
		}
		coil, err := h.String(p)
		if err != nil {
			return nil, converr.NewMalformedInput(acq.SourceFile, p, err.Error())
		}
		if err := ext.SetStandard("RxCoil", coil); err != nil {
			return nil, err
		}
	}

	if h.Has(pathPatientWeight) {
		w, err := h.Float(pathPatientWeight)
		if err != nil {
			return nil, converr.NewMalformedInput(acq.SourceFile, pathPatientWeight, err.Error())
		}
		if err := ext.SetStandard("PatientWeight", w); err != nil {
			return nil, err
		}
	}

	if h.Has(pathPatientSex) {
		code, err := h.Float(pathPatientSex)
		if err != nil {
			return nil, converr.NewMalformedInput(acq.SourceFile, pathPatientSex, err.Error())
		}
		sex := "O"
		switch code {
		case 1:
			sex = "M"
		case 2:
			sex = "F"
		}
		if err := ext.SetStandard("PatientSex", sex); err != nil {
			return nil, err
		}
	}

	if err := ext.SetStandard("kSpace", []bool{false, false, false}); err != nil {
		return nil, err
	}

	if h.Has(pathSequenceFile) {
		v, err := h.String(pathSequenceFile)
		if err != nil {
			return nil, converr.NewMalformedInput(acq.SourceFile, pathSequenceFile, err.Error())
		}
		if err := ext.SetUser("PulseSequenceFile", v, "Sequence binary path."); err != nil {
			return nil, err
		}
	}
	if h.Has(pathIceProgram) {
		v, err := h.String(pathIceProgram)
		if err != nil {
			return nil, converr.NewMalformedInput(acq.SourceFile, pathIceProgram, err.Error())
		}
		if err := ext.SetUser("IceProgramFile", v, "Reconstruction binary path."); err != nil {
			return nil, err
		}
	}

	return ext, nil
}
