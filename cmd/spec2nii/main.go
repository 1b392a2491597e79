package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/shui5/spec2nii/pkg/adapters/text"
	"github.com/shui5/spec2nii/pkg/assembler"
	"github.com/shui5/spec2nii/pkg/config"
	"github.com/shui5/spec2nii/pkg/dimensions"
	"github.com/shui5/spec2nii/pkg/hdrext"
	"github.com/shui5/spec2nii/pkg/orientation"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: spec2nii [flags] <format> <file>\n")
	fmt.Fprintf(os.Stderr, "Formats: text, raw (LCModel .RAW/.H2O)\n\n")
	flag.PrintDefaults()
}

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "", "Path to YAML configuration file")
	outName := flag.String("o", "", "Output base name (default: input file name)")
	outDir := flag.String("out", "", "Output directory")
	affinePath := flag.String("j", "", "Path to a 4x4 affine override file")
	freq := flag.Float64("f", 0, "Spectrometer frequency in MHz (text format)")
	bandwidth := flag.Float64("b", 0, "Acquisition bandwidth in Hz (text format)")
	nucleus := flag.String("n", "", "Resonant nucleus label, e.g. 1H")
	dim1 := flag.String("d1", "", "Axis name to place at dimension position 1")
	dim2 := flag.String("d2", "", "Axis name to place at dimension position 2")
	dim3 := flag.String("d3", "", "Axis name to place at dimension position 3")
	tag1 := flag.String("t1", "", "Tag override for dimension position 1")
	tag2 := flag.String("t2", "", "Tag override for dimension position 2")
	tag3 := flag.String("t3", "", "Tag override for dimension position 3")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
		os.Exit(1)
	}
	format := flag.Arg(0)
	inputPath := flag.Arg(1)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	applyDefaults(cfg, freq, bandwidth, nucleus, outDir, verbose)

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	overrides := dimensions.Overrides{
		Dims: [3]string{*dim1, *dim2, *dim3},
		Tags: [3]string{*tag1, *tag2, *tag3},
	}
	mergeConfigOverrides(&overrides, cfg)

	opts := text.Options{BaseName: *outName}
	if *affinePath != "" {
		orient, err := loadAffine(*affinePath)
		if err != nil {
			log.Fatalf("Failed to read affine file: %v", err)
		}
		opts.Affine = orient
	}

	f, err := os.Open(inputPath)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer f.Close()
	sourceFile := filepath.Base(inputPath)

	var outputs []assembler.Output
	switch format {
	case "text", "raw":
		// Single-FID formats have no axes the overrides could reorder.
		if overrides != (dimensions.Overrides{}) {
			log.Fatalf("Dimension overrides do not apply to the %s format", format)
		}
		if format == "text" {
			outputs, err = text.Text(f, sourceFile, *freq, *nucleus, *bandwidth, opts)
		} else {
			outputs, err = text.LCMRaw(f, sourceFile, *nucleus, opts)
		}
	default:
		// The TWIX pathway needs the upstream binary decoder and is only
		// reachable through the library API.
		log.Fatalf("Unknown format %q", format)
	}
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}

	for _, out := range outputs {
		path := filepath.Join(*outDir, out.Name+".nii")
		if err := out.Image.WriteFile(path); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	fmt.Printf("Converted %s with spec2nii v%s (%d output container(s))\n",
		sourceFile, hdrext.Version, len(outputs))
}

// applyDefaults fills unset flags from the configuration file.
func applyDefaults(cfg *config.Config, freq, bandwidth *float64, nucleus, outDir *string, verbose *bool) {
	if *freq == 0 {
		*freq = cfg.Conversion.FrequencyMHz
	}
	if *bandwidth == 0 {
		*bandwidth = cfg.Conversion.Bandwidth
	}
	if *nucleus == "" {
		*nucleus = cfg.Conversion.Nucleus
	}
	if *outDir == "" {
		*outDir = cfg.Output.Dir
	}
	if cfg.Output.Verbose {
		*verbose = true
	}
}

// mergeConfigOverrides fills override positions left empty on the command
// line from the configuration file.
func mergeConfigOverrides(ov *dimensions.Overrides, cfg *config.Config) {
	for i, d := range cfg.Overrides.Dims {
		if i < len(ov.Dims) && ov.Dims[i] == "" {
			ov.Dims[i] = d
		}
	}
	for i, t := range cfg.Overrides.Tags {
		if i < len(ov.Tags) && ov.Tags[i] == "" {
			ov.Tags[i] = t
		}
	}
}

// loadAffine reads a whitespace-separated 4x4 matrix.
func loadAffine(path string) (*orientation.NIfTIOrient, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(string(raw))
	if len(fields) != 16 {
		return nil, fmt.Errorf("affine file must hold 16 values, found %d", len(fields))
	}
	var rows [4][4]float64
	for i, fstr := range fields {
		v, err := strconv.ParseFloat(fstr, 64)
		if err != nil {
			return nil, fmt.Errorf("affine value %q: %w", fstr, err)
		}
		rows[i/4][i%4] = v
	}
	return orientation.FromAffine(rows), nil
}
