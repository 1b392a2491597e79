// Package converr provides conversion-specific error types so callers can
// distinguish bad input data from schema misuse and override conflicts.
package converr

import (
	"errors"
	"fmt"
)

// Category sentinels for errors.Is checks.
var (
	ErrMalformedInput      = errors.New("spec2nii: malformed input")
	ErrUnsupportedGeometry = errors.New("spec2nii: unsupported geometry")
	ErrSchemaViolation     = errors.New("spec2nii: metadata schema violation")
	ErrOverrideConflict    = errors.New("spec2nii: dimension override conflict")
)

// MalformedInputError reports a required header field that is missing with
// no defined default, or an acquisition whose first axis is not the expected
// time axis.
type MalformedInputError struct {
	File  string
	Field string
	Msg   string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input in %s: field %q: %s", e.File, e.Field, e.Msg)
}

func (e *MalformedInputError) Unwrap() error { return ErrMalformedInput }

// NewMalformedInput builds a MalformedInputError.
func NewMalformedInput(file, field, msg string) *MalformedInputError {
	return &MalformedInputError{File: file, Field: field, Msg: msg}
}

// UnsupportedGeometryError reports geometry fields that cannot produce a
// valid affine: a degenerate slice normal or a non-positive field of view or
// slice thickness.
type UnsupportedGeometryError struct {
	File  string
	Field string
	Msg   string
}

func (e *UnsupportedGeometryError) Error() string {
	return fmt.Sprintf("unsupported geometry in %s: field %q: %s", e.File, e.Field, e.Msg)
}

func (e *UnsupportedGeometryError) Unwrap() error { return ErrUnsupportedGeometry }

// NewUnsupportedGeometry builds an UnsupportedGeometryError.
func NewUnsupportedGeometry(file, field, msg string) *UnsupportedGeometryError {
	return &UnsupportedGeometryError{File: file, Field: field, Msg: msg}
}

// SchemaViolationError reports a standard metadata key assigned a value of
// the wrong type, or a user key colliding with a standard key name.
type SchemaViolationError struct {
	Key string
	Msg string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("metadata schema violation for key %q: %s", e.Key, e.Msg)
}

func (e *SchemaViolationError) Unwrap() error { return ErrSchemaViolation }

// NewSchemaViolation builds a SchemaViolationError.
func NewSchemaViolation(key, msg string) *SchemaViolationError {
	return &SchemaViolationError{Key: key, Msg: msg}
}

// OverrideConflictError reports a user axis override that cannot be resolved
// against the acquisition's axis set.
type OverrideConflictError struct {
	Axis string
	Msg  string
}

func (e *OverrideConflictError) Error() string {
	return fmt.Sprintf("dimension override conflict for axis %q: %s", e.Axis, e.Msg)
}

func (e *OverrideConflictError) Unwrap() error { return ErrOverrideConflict }

// NewOverrideConflict builds an OverrideConflictError.
func NewOverrideConflict(axis, msg string) *OverrideConflictError {
	return &OverrideConflictError{Axis: axis, Msg: msg}
}
