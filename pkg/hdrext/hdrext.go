// Package hdrext builds the structured metadata extension embedded in every
// output container. Standard keys are validated against the fixed key-type
// schema at set time; user keys carry a free-form value plus a documentation
// string. Serialization is compact, insertion-ordered JSON, so that
// serialize, parse, serialize is byte-identical.
package hdrext

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shui5/spec2nii/pkg/converr"
)

// Version is the converter version stamped into output provenance.
const Version = "1.0.0"

// Dimension tag keys of the serialized extension. Axis index 0 of the
// builder corresponds to dim_5, the first non-spatial, non-time data axis.
const (
	maxDims    = 3
	dimKeyBase = 5
)

type valueKind int

const (
	kindFloat valueKind = iota
	kindString
	kindBool
	kindStringList
	kindBoolList
)

// standardDefs is the fixed schema of standard-defined keys.
var standardDefs = map[string]valueKind{
	// MRS sequence timing
	"EchoTime":             kindFloat,
	"RepetitionTime":       kindFloat,
	"InversionTime":        kindFloat,
	"MixingTime":           kindFloat,
	"ExcitationFlipAngle":  kindFloat,
	"TxOffset":             kindFloat,
	"WaterSuppressed":      kindBool,
	"WaterSuppressionType": kindString,
	"SequenceTriggered":    kindBool,
	// Scanner information
	"Manufacturer":           kindString,
	"ManufacturersModelName": kindString,
	"DeviceSerialNumber":     kindString,
	"SoftwareVersions":       kindString,
	"InstitutionName":        kindString,
	"InstitutionAddress":     kindString,
	"TxCoil":                 kindString,
	"RxCoil":                 kindString,
	// Sequence information
	"SequenceName": kindString,
	"ProtocolName": kindString,
	// Patient information
	"PatientPosition": kindString,
	"PatientName":     kindString,
	"PatientID":       kindString,
	"PatientWeight":   kindFloat,
	"PatientDoB":      kindString,
	"PatientSex":      kindString,
	// Provenance and conversion
	"ConversionMethod": kindString,
	"ConversionTime":   kindString,
	"OriginalFile":     kindStringList,
	// Spatial information
	"kSpace": kindBoolList,
}

// entry is one serialized key in insertion order. Values are held as
// compact raw JSON so re-serialization reproduces input bytes exactly.
type entry struct {
	key  string
	raw  json.RawMessage
	doc  string
	user bool
}

// Ext accumulates the header extension of one conversion. The central
// frequency and nucleus are fixed at construction; standard and user keys
// are added incrementally; Complete freezes the instance once it is
// attached to an output container.
type Ext struct {
	freq    float64 // spectrometer frequency, MHz
	nucleus string

	entries []entry
	index   map[string]int
	dims    [maxDims]string

	completed bool
}

// New creates an extension for an acquisition with the given spectrometer
// frequency (MHz) and resonant nucleus label, and stamps it with the
// conversion provenance: tool identity, a millisecond ISO-8601 timestamp
// and the source file base name as a one-element list.
func New(frequencyMHz float64, nucleus, sourceFile string) *Ext {
	e := &Ext{
		freq:    frequencyMHz,
		nucleus: nucleus,
		index:   make(map[string]int),
	}
	// The stamps go through the schema path like any other standard key;
	// none of them can fail validation.
	e.SetStandard("ConversionMethod", fmt.Sprintf("spec2nii v%s", Version))
	e.SetStandard("ConversionTime", time.Now().Format("2006-01-02T15:04:05.000"))
	e.SetStandard("OriginalFile", []string{sourceFile})
	return e
}

// Frequency returns the spectrometer frequency in MHz.
func (e *Ext) Frequency() float64 { return e.freq }

// Nucleus returns the resonant nucleus label.
func (e *Ext) Nucleus() string { return e.nucleus }

// DimTag returns the tag assigned to extension axis i, or "" if unset.
func (e *Ext) DimTag(i int) string {
	if i < 0 || i >= maxDims {
		return ""
	}
	return e.dims[i]
}

// Complete freezes the extension. Any further write returns an error.
func (e *Ext) Complete() { e.completed = true }

// Completed reports whether the extension has been frozen.
func (e *Ext) Completed() bool { return e.completed }

// SetStandard assigns a standard-defined key, validating the value against
// the schema's expected type. Assigning an existing key replaces its value
// in place, keeping the original position in the serialization order.
func (e *Ext) SetStandard(key string, value any) error {
	if e.completed {
		return converr.NewSchemaViolation(key, "extension already attached to an output container")
	}
	kind, ok := standardDefs[key]
	if !ok {
		return converr.NewSchemaViolation(key, "not a standard-defined key")
	}
	if err := checkKind(key, kind, value); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return converr.NewSchemaViolation(key, err.Error())
	}
	e.put(entry{key: key, raw: raw})
	return nil
}

// SetUser assigns a user-defined key with an accompanying documentation
// string. The value type is unrestricted but the key must not shadow a
// standard-defined key.
func (e *Ext) SetUser(key string, value any, doc string) error {
	if e.completed {
		return converr.NewSchemaViolation(key, "extension already attached to an output container")
	}
	if _, ok := standardDefs[key]; ok {
		return converr.NewSchemaViolation(key, "collides with a standard-defined key")
	}
	if key == "SpectrometerFrequency" || key == "ResonantNucleus" || strings.HasPrefix(key, "dim_") {
		return converr.NewSchemaViolation(key, "reserved key name")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return converr.NewSchemaViolation(key, err.Error())
	}
	e.put(entry{key: key, raw: raw, doc: doc, user: true})
	return nil
}

// SetDimInfo assigns the canonical tag of extension axis i (0 based; axis 0
// serializes as dim_5).
func (e *Ext) SetDimInfo(i int, tag string) error {
	if e.completed {
		return converr.NewSchemaViolation(fmt.Sprintf("dim_%d", dimKeyBase+i),
			"extension already attached to an output container")
	}
	if i < 0 || i >= maxDims {
		return converr.NewSchemaViolation(fmt.Sprintf("dim_%d", dimKeyBase+i),
			fmt.Sprintf("dimension index %d out of range", i))
	}
	e.dims[i] = tag
	return nil
}

func (e *Ext) put(en entry) {
	if i, ok := e.index[en.key]; ok {
		e.entries[i] = en
		return
	}
	e.index[en.key] = len(e.entries)
	e.entries = append(e.entries, en)
}

// Value returns the raw JSON value stored for key.
func (e *Ext) Value(key string) (json.RawMessage, bool) {
	i, ok := e.index[key]
	if !ok {
		return nil, false
	}
	return e.entries[i].raw, true
}

func checkKind(key string, kind valueKind, value any) error {
	switch kind {
	case kindFloat:
		if _, ok := value.(float64); !ok {
			return converr.NewSchemaViolation(key, fmt.Sprintf("expected float64, got %T", value))
		}
	case kindString:
		if _, ok := value.(string); !ok {
			return converr.NewSchemaViolation(key, fmt.Sprintf("expected string, got %T", value))
		}
	case kindBool:
		if _, ok := value.(bool); !ok {
			return converr.NewSchemaViolation(key, fmt.Sprintf("expected bool, got %T", value))
		}
	case kindStringList:
		if _, ok := value.([]string); !ok {
			return converr.NewSchemaViolation(key, fmt.Sprintf("expected []string, got %T", value))
		}
	case kindBoolList:
		if _, ok := value.([]bool); !ok {
			return converr.NewSchemaViolation(key, fmt.Sprintf("expected []bool, got %T", value))
		}
	}
	return nil
}
