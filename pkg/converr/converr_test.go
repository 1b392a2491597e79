package converr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"malformed input", NewMalformedInput("fid.dat", "Meas.Frequency", "not present"),
			ErrMalformedInput, "fid.dat"},
		{"unsupported geometry", NewUnsupportedGeometry("fid.dat", "Normal", "zero magnitude"),
			ErrUnsupportedGeometry, "Normal"},
		{"schema violation", NewSchemaViolation("EchoTime", "expected a number"),
			ErrSchemaViolation, "EchoTime"},
		{"override conflict", NewOverrideConflict("Ave", "axis not present"),
			ErrOverrideConflict, "Ave"},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.sentinel) {
			t.Errorf("%s: errors.Is against its sentinel failed", tt.name)
		}
		if !strings.Contains(tt.err.Error(), tt.contains) {
			t.Errorf("%s: message %q missing %q", tt.name, tt.err.Error(), tt.contains)
		}
	}
}

func TestCategoriesAreDistinct(t *testing.T) {
	err := NewMalformedInput("fid.dat", "Meas.Frequency", "not present")
	for _, sentinel := range []error{ErrUnsupportedGeometry, ErrSchemaViolation, ErrOverrideConflict} {
		if errors.Is(err, sentinel) {
			t.Errorf("malformed input matched %v", sentinel)
		}
	}
}

func TestWrappingSurvivesAnnotation(t *testing.T) {
	inner := NewOverrideConflict("Eco", "axis not present")
	err := fmt.Errorf("converting fid.dat: %w", inner)

	if !errors.Is(err, ErrOverrideConflict) {
		t.Errorf("annotation broke the category match")
	}

	var oc *OverrideConflictError
	if !errors.As(err, &oc) {
		t.Fatalf("errors.As failed to recover the typed error")
	}
	if oc.Axis != "Eco" {
		t.Errorf("Axis = %q, want Eco", oc.Axis)
	}
}
