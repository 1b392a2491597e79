package twix

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/shui5/spec2nii/internal/models"
	"github.com/shui5/spec2nii/pkg/converr"
	"github.com/shui5/spec2nii/pkg/dimensions"
)

// testAcquisition builds a transverse single-voxel acquisition with 8 samples,
// 2 coils and 3 averages.
func testAcquisition(t *testing.T) *models.RawAcquisition {
	t.Helper()

	data := make([]complex128, 8*2*3)
	for i := range data {
		data[i] = complex(float64(i), float64(i)+0.5)
	}
	arr, err := models.FromComplex(data, 8, 2, 3)
	if err != nil {
		t.Fatalf("FromComplex failed: %v", err)
	}

	return &models.RawAcquisition{
		Data:      arr,
		AxisNames: []string{"Col", "Cha", "Set"},
		Revision:  models.RevVB,
		Header: models.Header{
			pathNormalTra:  1.0,
			pathReadoutFOV: 20.0,
			pathPhaseFOV:   20.0,
			pathThickness:  20.0,
			pathPosSag:     -5.0,
			pathPosCor:     10.0,
			pathPosTra:     15.0,

			pathDwellTime: 200000.0,

			pathFrequency: 123250000.0,
			pathNucleus:   "1H",
			pathEchoTime:  30000.0,
			pathTRTime:    2000000.0,

			"Meas.PatientSex": 2.0,
		},
		SourceFile: "meas_MID00123_svs_se_FID45678.dat",
	}
}

func TestProcessSVS(t *testing.T) {
	acq := testAcquisition(t)

	outs, err := ProcessSVS(acq, "", dimensions.Overrides{})
	if err != nil {
		t.Fatalf("ProcessSVS failed: %v", err)
	}
	if len(outs) != 1 {
		t.Fatalf("Expected 1 output, got %d", len(outs))
	}

	if outs[0].Name != "meas_MID00123_svs_se_FID45678" {
		t.Errorf("Expected name derived from the source file, got %q", outs[0].Name)
	}

	img := outs[0].Image
	if img.DwellTime != 0.0002 {
		t.Errorf("Expected dwell time 0.0002 s, got %v", img.DwellTime)
	}

	want := []int{1, 1, 1, 8, 2, 3}
	if len(img.Data.Shape) != len(want) {
		t.Fatalf("Expected shape %v, got %v", want, img.Data.Shape)
	}
	for i, s := range want {
		if img.Data.Shape[i] != s {
			t.Fatalf("Expected shape %v, got %v", want, img.Data.Shape)
		}
	}

	// Phase convention flips relative to the raw data
	v, err := img.Data.At(0, 0, 0, 1, 0, 0)
	if err != nil {
		t.Fatalf("At failed: %v", err)
	}
	raw, _ := acq.Data.At(1, 0, 0)
	if real(v) != real(raw) || imag(v) != -imag(raw) {
		t.Errorf("Expected conjugate of %v, got %v", raw, v)
	}

	if img.Ext.Frequency() != 123.25 {
		t.Errorf("Expected 123.25 MHz, got %v", img.Ext.Frequency())
	}
	if img.Ext.DimTag(0) != dimensions.TagCoil || img.Ext.DimTag(1) != dimensions.TagDyn {
		t.Errorf("Expected coil and dynamic tags, got %q %q",
			img.Ext.DimTag(0), img.Ext.DimTag(1))
	}

	if te, ok := img.Ext.Value("EchoTime"); !ok || string(te) != "0.03" {
		t.Errorf("EchoTime = %s, want 0.03", te)
	}
	if tr, ok := img.Ext.Value("RepetitionTime"); !ok || string(tr) != "2" {
		t.Errorf("RepetitionTime = %s, want 2", tr)
	}
	if sex, ok := img.Ext.Value("PatientSex"); !ok || string(sex) != `"F"` {
		t.Errorf(`PatientSex = %s, want "F"`, sex)
	}
}

func TestProcessSVSAffine(t *testing.T) {
	acq := testAcquisition(t)

	outs, err := ProcessSVS(acq, "svs", dimensions.Overrides{})
	if err != nil {
		t.Fatalf("ProcessSVS failed: %v", err)
	}

	// Pure transverse voxel at (-5, 10, 15) mm with 20 mm sides
	wantAffine := [4][4]float64{
		{20, 0, 0, 5},
		{0, -20, 0, -10},
		{0, 0, -20, 15},
		{0, 0, 0, 1},
	}
	orient := outs[0].Image.Orient
	for i := 0; i < 4; i++ {
		row := orient.Row(i)
		for j := 0; j < 4; j++ {
			if math.Abs(row[j]-wantAffine[i][j]) > 1e-12 {
				t.Errorf("Affine [%d][%d] = %v, want %v", i, j, row[j], wantAffine[i][j])
			}
		}
	}
}

func TestProcessSVSMissingFields(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"no thickness", pathThickness},
		{"no dwell time", pathDwellTime},
		{"no frequency", pathFrequency},
		{"no nucleus", pathNucleus},
		{"no echo time", pathEchoTime},
	}
	for _, tt := range tests {
		acq := testAcquisition(t)
		delete(acq.Header, tt.path)

		_, err := ProcessSVS(acq, "", dimensions.Overrides{})
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !errors.Is(err, converr.ErrMalformedInput) {
			t.Errorf("%s: expected malformed input error, got %v", tt.name, err)
		}
	}
}

func TestProcessDispatch(t *testing.T) {
	// Empty matrix sizes fall through to the single-voxel pathway
	acq := testAcquisition(t)
	outs, err := Process(acq, "svs", dimensions.Overrides{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(outs) != 1 {
		t.Fatalf("Expected 1 output, got %d", len(outs))
	}

	// A reconstruction matrix larger than one voxel is an imaging
	// acquisition and is rejected
	acq = testAcquisition(t)
	acq.Header[pathMatrixPhase] = 8.0
	acq.Header[pathMatrixRead] = 8.0
	acq.Header[pathMatrixSlice] = 1.0

	_, err = Process(acq, "csi", dimensions.Overrides{})
	if err == nil {
		t.Fatalf("Expected error for an MRSI acquisition")
	}
	if !strings.Contains(err.Error(), "not yet implemented") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestProcessSVSTagOverride(t *testing.T) {
	acq := testAcquisition(t)

	ov := dimensions.Overrides{}
	ov.Tags[1] = "DIM_USER_0"
	outs, err := ProcessSVS(acq, "", ov)
	if err != nil {
		t.Fatalf("ProcessSVS failed: %v", err)
	}
	if got := outs[0].Image.Ext.DimTag(1); got != "DIM_USER_0" {
		t.Errorf("Expected overridden tag DIM_USER_0, got %q", got)
	}
}
