package analyzer

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultDetector is used when no variant is configured
const DefaultDetector = "contrast"

// ErrUnknownDetector is returned for variants missing from the registry
var ErrUnknownDetector = errors.New("unknown detector")

var detectors = map[string]func() Detector{
	"contrast": func() Detector { return NewContrastDetector() },
	// thin line art and light captions
	"sensitive": func() Detector {
		d := NewContrastDetector()
		d.EdgeThreshold = 15
		d.MinBlockArea = 150
		d.DilatePasses = 3
		return d
	},
}

// NewDetector builds the detector registered under variant. An empty
// variant selects DefaultDetector.
func NewDetector(variant string) (Detector, error) {
	if variant == "" {
		variant = DefaultDetector
	}
	build, ok := detectors[variant]
	if !ok {
		return nil, fmt.Errorf("%w %q, want one of %v", ErrUnknownDetector, variant, DetectorVariants())
	}
	return build(), nil
}

// DetectorVariants lists the registered variant names in order
func DetectorVariants() []string {
	names := make([]string, 0, len(detectors))
	for name := range detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
