// Package assembler turns one resolved acquisition into its output
// containers. Data arrives with axis 0 as the time axis and any further
// axes already permuted into their resolved order; the assembler pads the
// three singleton spatial axes, keeps up to three tagged axes inside each
// container, and enumerates anything beyond that into separate outputs.
package assembler

import (
	"fmt"

	"github.com/shui5/spec2nii/internal/models"
	"github.com/shui5/spec2nii/pkg/hdrext"
	"github.com/shui5/spec2nii/pkg/nifti"
	"github.com/shui5/spec2nii/pkg/orientation"
)

// keptAxes is the number of raw axes (time plus up to three tagged extras)
// a single container can hold. Axes beyond these are enumerated.
const keptAxes = 4

// Output pairs an assembled container with its output identifier.
type Output struct {
	Image *nifti.MRS
	Name  string
}

// Assemble builds the container list for one acquisition. tags holds the
// canonical tag of every data axis beyond axis 0, in axis order. Assembly
// is atomic: on any error no outputs are returned.
//
// The per-container slicing loop has no data dependency between iterations;
// conversions of separate acquisitions share no state at all.
func Assemble(data *models.CArray, orient *orientation.NIfTIOrient, dwellTime float64,
	ext *hdrext.Ext, tags []string, baseName string) ([]Output, error) {

	if data.Rank() < 1 {
		return nil, fmt.Errorf("assembling %s: data has no axes", baseName)
	}
	if len(tags) != data.Rank()-1 {
		return nil, fmt.Errorf("assembling %s: %d dimension tags for %d non-time axes",
			baseName, len(tags), data.Rank()-1)
	}

	// The tags of the kept extra axes become dim_5..dim_7 of the shared
	// extension.
	for i := 0; i < data.Rank()-1 && i < keptAxes-1; i++ {
		if err := ext.SetDimInfo(i, tags[i]); err != nil {
			return nil, fmt.Errorf("assembling %s: %w", baseName, err)
		}
	}

	if data.Rank() <= keptAxes {
		padded, err := data.PadLeadingAxes(3)
		if err != nil {
			return nil, fmt.Errorf("assembling %s: %w", baseName, err)
		}
		img, err := nifti.NewMRS(padded, orient, dwellTime, ext)
		if err != nil {
			return nil, fmt.Errorf("assembling %s: %w", baseName, err)
		}
		return []Output{{Image: img, Name: baseName}}, nil
	}

	// Row-major enumeration over the axes a container cannot hold: the
	// earliest enumerated axis varies slowest, matching the tag order.
	outs := make([]Output, 0)
	it := models.NewIndexIterator(data.Shape[keptAxes:])
	for idx := it.Next(); idx != nil; idx = it.Next() {
		sliced, err := data.SliceTrailing(idx)
		if err != nil {
			return nil, fmt.Errorf("assembling %s: %w", baseName, err)
		}
		padded, err := sliced.PadLeadingAxes(3)
		if err != nil {
			return nil, fmt.Errorf("assembling %s: %w", baseName, err)
		}
		img, err := nifti.NewMRS(padded, orient, dwellTime, ext)
		if err != nil {
			return nil, fmt.Errorf("assembling %s: %w", baseName, err)
		}

		name := baseName
		for i, ix := range idx {
			name += fmt.Sprintf("_%s%03d", tags[keptAxes-1+i], ix)
		}
		outs = append(outs, Output{Image: img, Name: name})
	}
	return outs, nil
}
