package assembler

import (
	"fmt"
	"testing"

	"github.com/shui5/spec2nii/internal/models"
	"github.com/shui5/spec2nii/pkg/hdrext"
	"github.com/shui5/spec2nii/pkg/orientation"
)

func newExt() *hdrext.Ext {
	return hdrext.New(123.25, "1H", "acq.dat")
}

// TestAssembleSingleContainer covers the rank <= 4 path: one container with
// the three singleton spatial axes prepended and the extra axes kept inside
func TestAssembleSingleContainer(t *testing.T) {
	data, _ := models.NewCArray(8, 2, 3)
	ext := newExt()

	outs, err := Assemble(data, orientation.Fallback(), 0.0002, ext,
		[]string{"DIM_COIL", "DIM_DYN"}, "base")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(outs) != 1 {
		t.Fatalf("Expected 1 output, got %d", len(outs))
	}
	if outs[0].Name != "base" {
		t.Errorf("Expected base name, got %q", outs[0].Name)
	}

	want := []int{1, 1, 1, 8, 2, 3}
	shape := outs[0].Image.Data.Shape
	if len(shape) != len(want) {
		t.Fatalf("Expected shape %v, got %v", want, shape)
	}
	for i, s := range want {
		if shape[i] != s {
			t.Errorf("Expected shape %v, got %v", want, shape)
			break
		}
	}

	if ext.DimTag(0) != "DIM_COIL" || ext.DimTag(1) != "DIM_DYN" {
		t.Errorf("Dimension tags not attached: %q %q", ext.DimTag(0), ext.DimTag(1))
	}
	if !ext.Completed() {
		t.Errorf("Extension not frozen after attachment")
	}
}

// TestAssembleEnumerates covers slicing of axes a container cannot hold:
// two enumerated axes of sizes 4 and 3 produce 12 singleton-extended
// containers with tag and zero-padded index suffixes
func TestAssembleEnumerates(t *testing.T) {
	data, _ := models.NewCArray(16, 1, 1, 1, 4, 3)
	for i := range data.Data {
		data.Data[i] = complex(float64(i), 0)
	}
	tags := []string{"x", "y", "z", "DIM_DYN", "DIM_EDIT"}

	outs, err := Assemble(data, orientation.Fallback(), 0.0001, newExt(), tags, "sub-01")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(outs) != 12 {
		t.Fatalf("Expected 4*3 = 12 outputs, got %d", len(outs))
	}

	// Row-major order: the earlier axis varies slowest
	n := 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			wantName := fmt.Sprintf("sub-01_DIM_DYN%03d_DIM_EDIT%03d", i, j)
			if outs[n].Name != wantName {
				t.Errorf("Output %d named %q, want %q", n, outs[n].Name, wantName)
			}

			shape := outs[n].Image.Data.Shape
			want := []int{1, 1, 1, 16, 1, 1, 1}
			for k, s := range want {
				if shape[k] != s {
					t.Errorf("Output %d shape %v, want %v", n, shape, want)
					break
				}
			}

			// Spot check the sliced data against the source layout
			got, err := outs[n].Image.Data.At(0, 0, 0, 5, 0, 0, 0)
			if err != nil {
				t.Fatalf("At failed: %v", err)
			}
			wantVal, _ := data.At(5, 0, 0, 0, i, j)
			if got != wantVal {
				t.Errorf("Output %d data mismatch: got %v, want %v", n, got, wantVal)
			}
			n++
		}
	}
}

// TestAssembleCountingInvariant checks the emitted-container count equals
// the product of the enumerated axis sizes
func TestAssembleCountingInvariant(t *testing.T) {
	data, _ := models.NewCArray(4, 1, 1, 2, 3, 2)
	tags := []string{"a", "b", "c", "d", "e"}

	outs, err := Assemble(data, orientation.Fallback(), 0.0001, newExt(), tags, "x")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(outs) != 6 {
		t.Errorf("Expected 3*2 = 6 outputs, got %d", len(outs))
	}
	// Each output keeps the four leading raw axes; the enumerated axes
	// are reduced away entirely
	want := []int{1, 1, 1, 4, 1, 1, 2}
	for _, out := range outs {
		shape := out.Image.Data.Shape
		if len(shape) != len(want) {
			t.Errorf("Output shape %v, want %v", shape, want)
			continue
		}
		for i, s := range want {
			if shape[i] != s {
				t.Errorf("Output shape %v, want %v", shape, want)
				break
			}
		}
	}
}

// TestAssembleTagCountMismatch rejects a tag list that does not cover the
// non-time axes
func TestAssembleTagCountMismatch(t *testing.T) {
	data, _ := models.NewCArray(8, 2)
	_, err := Assemble(data, orientation.Fallback(), 0.0001, newExt(), nil, "x")
	if err == nil {
		t.Errorf("Expected error for missing dimension tags")
	}
}
