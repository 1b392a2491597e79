package models

import (
	"testing"
)

// TestHeaderFloat covers the loose typing vendor headers exhibit
func TestHeaderFloat(t *testing.T) {
	h := Header{
		"a": 1.5,
		"b": 3,
		"c": "",
		"d": "text",
	}

	tests := []struct {
		path    string
		want    float64
		wantErr bool
	}{
		{"a", 1.5, false},
		{"b", 3, false},
		{"c", 0, false}, // empty string means zero on some baselines
		{"d", 0, true},
		{"missing", 0, true},
	}

	for _, tt := range tests {
		got, err := h.Float(tt.path)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Float(%q): expected error", tt.path)
			}
			continue
		}
		if err != nil {
			t.Errorf("Float(%q): unexpected error %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Float(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

// TestExtractFloats verifies the declarative field table evaluation
func TestExtractFloats(t *testing.T) {
	h := Header{
		"geom.normal.sag": 0.5,
		"geom.thickness":  20.0,
	}

	vals, err := h.ExtractFloats([]FieldSpec{
		{Path: "geom.normal.sag"},
		{Path: "geom.normal.cor"}, // absent, defaults to 0
		{Path: "geom.thickness", Required: true},
	})
	if err != nil {
		t.Fatalf("ExtractFloats failed: %v", err)
	}
	if vals[0] != 0.5 || vals[1] != 0 || vals[2] != 20 {
		t.Errorf("Expected [0.5 0 20], got %v", vals)
	}

	// A required field that is absent must abort the extraction
	_, err = h.ExtractFloats([]FieldSpec{
		{Path: "geom.fov", Required: true},
	})
	if err == nil {
		t.Errorf("Expected error for missing required field")
	}
}
