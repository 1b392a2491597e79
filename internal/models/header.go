package models

import (
	"fmt"
)

// Header holds the key-value fields extracted from a vendor acquisition
// header by an adapter. Keys are flattened dotted paths, e.g.
// "MeasYaps.sSpecPara.sVoI.sNormal.dSag" or "Meas.Frequency", so that
// arbitrarily nested vendor structures collapse into a single lookup.
//
// The header is owned by the adapter and treated as read-only by the core
// conversion packages.
type Header map[string]any

// FieldSpec describes one header field to extract: where it lives, what to
// substitute when it is absent, and whether absence is an error. A table of
// FieldSpec entries replaces scattered per-field presence checks.
type FieldSpec struct {
	// Path is the flattened dotted key of the field.
	Path string

	// Default is substituted when the field is absent. Ignored when
	// Required is set.
	Default float64

	// Required marks fields whose absence is a malformed-input condition.
	Required bool
}

// Has reports whether the header contains a value at path.
func (h Header) Has(path string) bool {
	_, ok := h[path]
	return ok
}

// Float returns the numeric value at path. Vendor headers are loosely typed:
// integers, floats and empty strings (used by some Siemens revisions to mean
// zero) all appear where a number is expected.
func (h Header) Float(path string) (float64, error) {
	v, ok := h[path]
	if !ok {
		return 0, fmt.Errorf("header field %q not present", path)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		if n == "" {
			return 0, nil
		}
		return 0, fmt.Errorf("header field %q holds non-numeric string %q", path, n)
	default:
		return 0, fmt.Errorf("header field %q has unexpected type %T", path, v)
	}
}

// FloatOr returns the numeric value at path, or def when the field is
// absent.
func (h Header) FloatOr(path string, def float64) (float64, error) {
	if !h.Has(path) {
		return def, nil
	}
	return h.Float(path)
}

// String returns the string value at path.
func (h Header) String(path string) (string, error) {
	v, ok := h[path]
	if !ok {
		return "", fmt.Errorf("header field %q not present", path)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("header field %q has unexpected type %T", path, v)
	}
	return s, nil
}

// ExtractFloats evaluates a FieldSpec table against the header in one pass.
// The returned slice is ordered as the spec table. A missing required field
// aborts the extraction with an error naming the field path.
func (h Header) ExtractFloats(specs []FieldSpec) ([]float64, error) {
	out := make([]float64, len(specs))
	for i, s := range specs {
		if !h.Has(s.Path) {
			if s.Required {
				return nil, fmt.Errorf("required header field %q not present", s.Path)
			}
			out[i] = s.Default
			continue
		}
		v, err := h.Float(s.Path)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
