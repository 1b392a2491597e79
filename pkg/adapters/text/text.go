// Package text converts plain two-column ASCII data and LCModel .RAW (and
// .H2O) files. These single-FID formats carry no spatial localization, so
// outputs use the fallback affine unless the caller supplies an affine
// override.
package text

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/shui5/spec2nii/internal/models"
	"github.com/shui5/spec2nii/pkg/assembler"
	"github.com/shui5/spec2nii/pkg/converr"
	"github.com/shui5/spec2nii/pkg/hdrext"
	"github.com/shui5/spec2nii/pkg/orientation"
)

// Options carries the optional conversion inputs shared by the formats of
// this package.
type Options struct {
	// BaseName overrides the output base name. Empty derives it from the
	// source file name.
	BaseName string

	// Affine, when non-nil, replaces the fallback affine.
	Affine *orientation.NIfTIOrient
}

// Text converts columns of "real imaginary" samples. frequencyMHz, nucleus
// and bandwidth come from the caller since the format itself carries no
// header.
func Text(r io.Reader, sourceFile string, frequencyMHz float64, nucleus string,
	bandwidth float64, opts Options) ([]assembler.Output, error) {

	if bandwidth <= 0 {
		return nil, converr.NewMalformedInput(sourceFile, "bandwidth", "bandwidth must be positive")
	}

	data, err := readColumns(r, sourceFile)
	if err != nil {
		return nil, err
	}
	log.Debugf("read %d samples from %s", len(data), sourceFile)

	arr, err := models.FromComplex(data, len(data))
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", sourceFile, err)
	}

	ext := hdrext.New(frequencyMHz, nucleus, sourceFile)

	return assembler.Assemble(arr, orientOrFallback(opts), 1.0/bandwidth, ext, nil, baseName(opts, sourceFile))
}

// LCMRaw converts an LCModel .RAW file: a $-delimited header block holding
// at least the spectrometer frequency and dwell time, followed by
// interleaved real/imaginary samples. One FID per file.
func LCMRaw(r io.Reader, sourceFile, nucleus string, opts Options) ([]assembler.Output, error) {
	data, hdr, err := ReadLCMRaw(r, sourceFile, true)
	if err != nil {
		return nil, err
	}
	log.Debugf("read %d samples from %s", len(data), sourceFile)

	if hdr.CentralFrequency == 0 {
		return nil, converr.NewMalformedInput(sourceFile, "HZPPPM", "central frequency not present")
	}
	if hdr.DwellTime == 0 {
		return nil, converr.NewMalformedInput(sourceFile, "DELTAT", "dwell time not present")
	}

	arr, err := models.FromComplex(data, len(data))
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", sourceFile, err)
	}

	ext := hdrext.New(hdr.CentralFrequency/1e6, nucleus, sourceFile)
	if hdr.EchoTime != 0 {
		if err := ext.SetStandard("EchoTime", hdr.EchoTime); err != nil {
			return nil, err
		}
	}

	return assembler.Assemble(arr, orientOrFallback(opts), hdr.DwellTime, ext, nil, baseName(opts, sourceFile))
}

// LCMHeader holds the fields recognized in an LCModel header block.
type LCMHeader struct {
	// CentralFrequency is the spectrometer frequency in Hz (HZPPPM * 1e6).
	CentralFrequency float64

	// DwellTime is the sampling interval in seconds (DELTAT, DWELLTIME or
	// BADELT).
	DwellTime float64

	// Bandwidth is the reciprocal of DwellTime.
	Bandwidth float64

	// EchoTime is the echo time in seconds (ECHOT, given in ms).
	EchoTime float64
}

// ReadLCMRaw parses an LCModel .RAW stream into its complex samples and
// header fields. LCModel stores conjugated data; conjugate restores the
// output phase convention.
func ReadLCMRaw(r io.Reader, sourceFile string, conjugate bool) ([]complex128, *LCMHeader, error) {
	var headerLines []string
	var values []float64

	inHeader := false
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.Index(line, "$") > 0 {
			inHeader = true
		}
		if inHeader {
			headerLines = append(headerLines, line)
		} else {
			for _, field := range strings.Fields(line) {
				v, err := strconv.ParseFloat(field, 64)
				if err != nil {
					return nil, nil, converr.NewMalformedInput(sourceFile, "data",
						fmt.Sprintf("non-numeric sample %q", field))
				}
				values = append(values, v)
			}
		}
		if strings.Contains(line, "$END") {
			inHeader = false
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", sourceFile, err)
	}
	if len(values)%2 != 0 {
		return nil, nil, converr.NewMalformedInput(sourceFile, "data",
			"odd number of values; expected interleaved real/imaginary pairs")
	}

	data := make([]complex128, len(values)/2)
	for i := range data {
		im := values[2*i+1]
		if conjugate {
			im = -im
		}
		data[i] = complex(values[2*i], im)
	}

	return data, parseLCMHeader(headerLines), nil
}

// parseLCMHeader extracts the recognized fields. Keys are matched
// case-insensitively anywhere in the line; the value is the last
// whitespace-separated token with commas stripped.
func parseLCMHeader(lines []string) *LCMHeader {
	hdr := &LCMHeader{}
	for _, line := range lines {
		tidy := strings.ReplaceAll(strings.ToLower(line), ",", "")
		fields := strings.Fields(tidy)
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			continue
		}
		switch {
		case strings.Contains(tidy, "hzpppm"):
			hdr.CentralFrequency = v * 1e6
		case strings.Contains(tidy, "dwelltime"),
			strings.Contains(tidy, "deltat"),
			strings.Contains(tidy, "badelt"):
			hdr.DwellTime = v
			hdr.Bandwidth = 1 / v
		case strings.Contains(tidy, "echot"):
			hdr.EchoTime = v / 1e3
		}
	}
	return hdr
}

// readColumns reads "real imaginary" rows.
func readColumns(r io.Reader, sourceFile string) ([]complex128, error) {
	var data []complex128
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, converr.NewMalformedInput(sourceFile, "data",
				fmt.Sprintf("expected two columns, got %d", len(fields)))
		}
		re, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, converr.NewMalformedInput(sourceFile, "data", err.Error())
		}
		im, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, converr.NewMalformedInput(sourceFile, "data", err.Error())
		}
		data = append(data, complex(re, im))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", sourceFile, err)
	}
	if len(data) == 0 {
		return nil, converr.NewMalformedInput(sourceFile, "data", "no samples found")
	}
	return data, nil
}

func orientOrFallback(opts Options) *orientation.NIfTIOrient {
	if opts.Affine != nil {
		return opts.Affine
	}
	return orientation.Fallback()
}

func baseName(opts Options, sourceFile string) string {
	if opts.BaseName != "" {
		return opts.BaseName
	}
	name := sourceFile
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}
