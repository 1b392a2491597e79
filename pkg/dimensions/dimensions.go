// Package dimensions maps vendor acquisition axis names onto the canonical
// dimension tag vocabulary and computes the axis permutation needed to put
// the data into the resolved order.
package dimensions

import (
	"fmt"

	"github.com/shui5/spec2nii/internal/models"
	"github.com/shui5/spec2nii/pkg/converr"
)

// Canonical dimension tags.
const (
	TagTime = "time"
	TagX    = "x"
	TagY    = "y"
	TagZ    = "z"
	TagCoil = "DIM_COIL"
	TagDyn  = "DIM_DYN"
	TagEdit = "DIM_EDIT"

	// userTagPrefix prefixes the disambiguating counter given to axes the
	// revision's default table does not know.
	userTagPrefix = "DIM_USER_"
)

// Default spatial x,y,z axes are Lin, Phs, Seg on VB baselines but Lin,
// Par, Seg on VD/VE. VB uses Set as the repetition direction whilst VD
// uses Ave, though some sequences on VD still follow the VB habit, so
// both Set and Rep stay mapped on either baseline.
var defaultTags = map[models.Revision]map[string]string{
	models.RevVB: {
		"Col": TagTime,
		"Lin": TagX,
		"Phs": TagY,
		"Seg": TagZ,
		"Cha": TagCoil,
		"Set": TagDyn,
		"Rep": TagDyn,
	},
	models.RevVD: {
		"Col": TagTime,
		"Lin": TagX,
		"Par": TagY,
		"Seg": TagZ,
		"Cha": TagCoil,
		"Ave": TagDyn,
		"Set": TagDyn,
		"Rep": TagDyn,
		"Eco": TagEdit,
	},
}

// Overrides carries the user-requested adjustments to the resolved order:
// up to three positional axis names, and up to three explicit tag strings
// keyed by output position. Empty entries are inactive.
type Overrides struct {
	Dims [3]string
	Tags [3]string
}

// Plan is the resolved dimension layout of one acquisition.
type Plan struct {
	// Order names the axes beyond axis 0 in their output order.
	Order []string

	// Tags holds the canonical tag of each axis in Order.
	Tags []string

	// Perm is the full axis permutation to apply to the raw array:
	// output axis i takes source axis Perm[i]. Perm[0] is always 0.
	Perm []int
}

// Resolve maps the acquisition's axis names through the revision's default
// table, applies user overrides, and computes the permutation. axisNames
// includes axis 0, which must be the revision's time axis. file names the
// acquisition in error reports.
func Resolve(axisNames []string, rev models.Revision, ov Overrides, file string) (*Plan, error) {
	table, ok := defaultTags[rev]
	if !ok {
		return nil, converr.NewMalformedInput(file, "Revision", fmt.Sprintf("unknown software revision %q", rev))
	}
	if len(axisNames) == 0 {
		return nil, converr.NewMalformedInput(file, "AxisNames", "acquisition has no axes")
	}
	if table[axisNames[0]] != TagTime {
		return nil, converr.NewMalformedInput(file, axisNames[0],
			"first axis is not the time/frequency axis expected by this revision")
	}

	order := append([]string(nil), axisNames[1:]...)
	tags := make([]string, len(order))

	// One forward pass assigns user tags to unmapped names in first-seen
	// order. The assignment map is local to this acquisition.
	userTags := make(map[string]string)
	unknownCounter := 0
	for i, name := range order {
		if tag, ok := table[name]; ok {
			tags[i] = tag
			continue
		}
		if tag, ok := userTags[name]; ok {
			tags[i] = tag
			continue
		}
		tag := fmt.Sprintf("%s%d", userTagPrefix, unknownCounter)
		userTags[name] = tag
		unknownCounter++
		tags[i] = tag
	}

	// Positional axis-name overrides: swap the requested axis into place,
	// keeping its tag paired with it.
	for i, want := range ov.Dims {
		if want == "" {
			continue
		}
		if i >= len(order) {
			return nil, converr.NewOverrideConflict(want,
				fmt.Sprintf("override position %d exceeds the acquisition's %d non-time axes", i, len(order)))
		}
		cur := indexOf(order, want)
		if cur < 0 {
			return nil, converr.NewOverrideConflict(want, "axis not present in this acquisition")
		}
		order[i], order[cur] = order[cur], order[i]
		tags[i], tags[cur] = tags[cur], tags[i]
	}

	// Explicit tag strings replace the computed tag outright.
	for i, tag := range ov.Tags {
		if tag == "" {
			continue
		}
		if i >= len(tags) {
			return nil, converr.NewOverrideConflict(tag,
				fmt.Sprintf("tag override position %d exceeds the acquisition's %d non-time axes", i, len(tags)))
		}
		tags[i] = tag
	}

	perm := make([]int, len(axisNames))
	for i, name := range order {
		src := indexOf(axisNames, name)
		if src < 0 {
			return nil, converr.NewOverrideConflict(name, "axis vanished during resolution")
		}
		perm[i+1] = src
	}

	return &Plan{Order: order, Tags: tags, Perm: perm}, nil
}

func indexOf(names []string, want string) int {
	for i, n := range names {
		if n == want {
			return i
		}
	}
	return -1
}
