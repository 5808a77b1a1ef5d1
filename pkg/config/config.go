// Package config holds the tuning knobs of the boolean engine and the
// tessellator. Options are read from git-config style INI text:
//
//	[fast-csg]
//	repair-before-boolean = false
//	retry-after-repair = true
//	trust-corefinement = false
//	check-shared-vertices = true
//	verbose = false
//	dump-dir = /tmp
//
//	[tessellation]
//	normal-epsilon = 1e-12
//
// Keys that are not set keep their Default value.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/gcfg.v1"
)

// FastCSG configures the corefinement fast path.
type FastCSG struct {
	// RepairBeforeBoolean repairs non-closed or non-manifold operands
	// before corefinement instead of falling back to the volume path.
	RepairBeforeBoolean bool `gcfg:"repair-before-boolean"`
	// RetryAfterRepair retries a soft corefinement failure once after
	// repairing both operands.
	RetryAfterRepair bool `gcfg:"retry-after-repair"`
	// TrustCorefinement skips the closed and manifold pre-check.
	TrustCorefinement bool `gcfg:"trust-corefinement"`
	// CheckSharedVertices sends operands sharing a vertex to the volume
	// path.
	CheckSharedVertices bool `gcfg:"check-shared-vertices"`
	// Verbose logs operand descriptions and dumps operands to DumpDir.
	Verbose bool   `gcfg:"verbose"`
	DumpDir string `gcfg:"dump-dir"`
}

// Tessellation configures polygon tessellation.
type Tessellation struct {
	// NormalEpsilon is the squared normal length below which a polygon
	// is reported as nearly degenerate.
	NormalEpsilon float64 `gcfg:"normal-epsilon"`
}

// Options is the complete engine configuration.
type Options struct {
	FastCSG      FastCSG      `gcfg:"fast-csg"`
	Tessellation Tessellation `gcfg:"tessellation"`
}

// Default returns the built-in configuration.
func Default() Options {
	return Options{
		FastCSG: FastCSG{
			RetryAfterRepair:    true,
			CheckSharedVertices: true,
			DumpDir:             os.TempDir(),
		},
		Tessellation: Tessellation{NormalEpsilon: 1e-12},
	}
}

// Load reads options from an INI file on top of Default.
func Load(path string) (Options, error) {
	o := Default()
	if err := gcfg.ReadFileInto(&o, path); err != nil {
		return Options{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return o, o.Check()
}

// Parse reads options from INI text on top of Default.
func Parse(text string) (Options, error) {
	o := Default()
	if err := gcfg.ReadStringInto(&o, text); err != nil {
		return Options{}, fmt.Errorf("config: %w", err)
	}
	return o, o.Check()
}

// Check validates option values.
func (o Options) Check() error {
	eps := o.Tessellation.NormalEpsilon
	if eps < 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
		return fmt.Errorf("config: normal-epsilon must be a finite non-negative number, but is %g", eps)
	}
	if o.FastCSG.Verbose && o.FastCSG.DumpDir == "" {
		return fmt.Errorf("config: verbose mode needs a dump-dir")
	}
	return nil
}
