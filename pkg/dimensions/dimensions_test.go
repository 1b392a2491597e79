package dimensions

import (
	"errors"
	"testing"

	"github.com/shui5/spec2nii/internal/models"
	"github.com/shui5/spec2nii/pkg/converr"
)

// TestResolveDefaults maps VB axes through the default table with no
// overrides
func TestResolveDefaults(t *testing.T) {
	plan, err := Resolve([]string{"Col", "Cha", "Set"}, models.RevVB, Overrides{}, "test.dat")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	wantTags := []string{TagCoil, TagDyn}
	if len(plan.Tags) != len(wantTags) {
		t.Fatalf("Expected %d tags, got %d", len(wantTags), len(plan.Tags))
	}
	for i, w := range wantTags {
		if plan.Tags[i] != w {
			t.Errorf("Tag %d = %q, want %q", i, plan.Tags[i], w)
		}
	}

	wantPerm := []int{0, 1, 2}
	for i, w := range wantPerm {
		if plan.Perm[i] != w {
			t.Errorf("Perm %d = %d, want %d", i, plan.Perm[i], w)
		}
	}
}

// TestResolveDimOverrideSwap requests an existing axis at position 0 and
// expects the axis and its tag to swap together
func TestResolveDimOverrideSwap(t *testing.T) {
	ov := Overrides{Dims: [3]string{"Set", "", ""}}
	plan, err := Resolve([]string{"Col", "Cha", "Set"}, models.RevVB, ov, "test.dat")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if plan.Order[0] != "Set" || plan.Order[1] != "Cha" {
		t.Errorf("Expected order [Set Cha], got %v", plan.Order)
	}
	if plan.Tags[0] != TagDyn || plan.Tags[1] != TagCoil {
		t.Errorf("Expected tags [%s %s], got %v", TagDyn, TagCoil, plan.Tags)
	}

	// Output axis 1 should take source axis 2 (Set) and vice versa
	wantPerm := []int{0, 2, 1}
	for i, w := range wantPerm {
		if plan.Perm[i] != w {
			t.Errorf("Perm %d = %d, want %d", i, plan.Perm[i], w)
		}
	}
}

// TestResolveVDRevision uses the VD table, where Ave and Eco are mapped
func TestResolveVDRevision(t *testing.T) {
	plan, err := Resolve([]string{"Col", "Cha", "Ave", "Eco"}, models.RevVD, Overrides{}, "test.dat")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := []string{TagCoil, TagDyn, TagEdit}
	for i, w := range want {
		if plan.Tags[i] != w {
			t.Errorf("Tag %d = %q, want %q", i, plan.Tags[i], w)
		}
	}
}

// TestResolveUnknownCounter assigns DIM_USER_N per distinct unmapped name
// in first-seen order
func TestResolveUnknownCounter(t *testing.T) {
	plan, err := Resolve([]string{"Col", "Ida", "Cha", "Idb"}, models.RevVB, Overrides{}, "test.dat")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := []string{"DIM_USER_0", TagCoil, "DIM_USER_1"}
	for i, w := range want {
		if plan.Tags[i] != w {
			t.Errorf("Tag %d = %q, want %q", i, plan.Tags[i], w)
		}
	}
}

// TestResolveTagOverride replaces a computed tag outright
func TestResolveTagOverride(t *testing.T) {
	ov := Overrides{Tags: [3]string{"", "DIM_EDIT", ""}}
	plan, err := Resolve([]string{"Col", "Cha", "Set"}, models.RevVB, ov, "test.dat")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if plan.Tags[0] != TagCoil || plan.Tags[1] != "DIM_EDIT" {
		t.Errorf("Expected tags [%s DIM_EDIT], got %v", TagCoil, plan.Tags)
	}
}

// TestResolveWrongTimeAxis rejects acquisitions whose first axis is not the
// time axis
func TestResolveWrongTimeAxis(t *testing.T) {
	_, err := Resolve([]string{"Cha", "Col"}, models.RevVB, Overrides{}, "test.dat")
	if err == nil {
		t.Fatalf("Expected error for non-time first axis")
	}
	if !errors.Is(err, converr.ErrMalformedInput) {
		t.Errorf("Expected malformed input error, got %v", err)
	}
}

// TestResolveAbsentOverride rejects an override naming an axis the
// acquisition does not have
func TestResolveAbsentOverride(t *testing.T) {
	ov := Overrides{Dims: [3]string{"Eco", "", ""}}
	_, err := Resolve([]string{"Col", "Cha", "Set"}, models.RevVB, ov, "test.dat")
	if err == nil {
		t.Fatalf("Expected error for absent override axis")
	}
	if !errors.Is(err, converr.ErrOverrideConflict) {
		t.Errorf("Expected override conflict error, got %v", err)
	}
}

// TestResolveOverridePositionBeyondAxes rejects an override position past
// the acquisition's axis count
func TestResolveOverridePositionBeyondAxes(t *testing.T) {
	ov := Overrides{Dims: [3]string{"", "Cha", ""}}
	_, err := Resolve([]string{"Col", "Cha"}, models.RevVB, ov, "test.dat")
	if err == nil {
		t.Fatalf("Expected error for override position beyond axis count")
	}
	if !errors.Is(err, converr.ErrOverrideConflict) {
		t.Errorf("Expected override conflict error, got %v", err)
	}
}

// TestResolveUnknownRevision rejects revisions without a default table
func TestResolveUnknownRevision(t *testing.T) {
	_, err := Resolve([]string{"Col"}, models.Revision("xq"), Overrides{}, "test.dat")
	if err == nil {
		t.Fatalf("Expected error for unknown revision")
	}
	if !errors.Is(err, converr.ErrMalformedInput) {
		t.Errorf("Expected malformed input error, got %v", err)
	}
}
