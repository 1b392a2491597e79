package models

// Revision identifies the vendor software baseline of an acquisition. It
// selects which default axis-name to dimension-tag table applies.
type Revision string

const (
	// RevVB covers Siemens VB-line software baselines.
	RevVB Revision = "vb"

	// RevVD covers Siemens VD/VE-line software baselines.
	RevVD Revision = "vd"
)

// RawAcquisition is the adapter-to-core handoff: a fully buffered complex
// array plus the keyed header fields extracted from the vendor format.
// It is read-only to the conversion core.
type RawAcquisition struct {
	// Data is the complex acquisition array. Axis 0 carries the
	// time/frequency signal samples.
	Data *CArray

	// AxisNames names every data axis in order, axis 0 included.
	AxisNames []string

	// Header holds the extracted vendor header fields.
	Header Header

	// Revision selects the default dimension-tag table.
	Revision Revision

	// SourceFile is the base name of the originating file, recorded in the
	// output provenance metadata and in error reports.
	SourceFile string
}
