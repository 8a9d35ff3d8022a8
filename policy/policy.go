// package policy encodes which workflow operations are legal for each
// proof system variant, and the structural wire-offset conventions that
// differ between them.
package policy

import (
	"errors"
	"fmt"
)

// System identifies a proof system variant.
type System int

const (
	Groth16 System = iota
	Plonk
)

// Operation identifies one of the tool's workflows.
type Operation int

const (
	Setup Operation = iota
	Prove
	Verify
	GenerateVerifier
	ExportKeys
	DumpLagrange
)

// ErrUnsupported is wrapped by every UnsupportedError.
var ErrUnsupported = errors.New("operation not supported for proof system")

// UnsupportedError reports a (system, operation) pair that the tool does
// not implement. It is fatal: callers must abort before any file I/O.
type UnsupportedError struct {
	System    System
	Operation Operation
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not supported for %s", e.Operation, e.System)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// supported is the capability table. Groth16 is the legacy system: it keeps
// setup and key/verifier export but its prove and verify paths are retired.
// Plonk is the migration target: it proves and verifies against a universal
// SRS but has no per-circuit setup and no key export.
var supported = map[System]map[Operation]bool{
	Groth16: {
		Setup:            true,
		Prove:            false,
		Verify:           false,
		GenerateVerifier: true,
		ExportKeys:       true,
		DumpLagrange:     false,
	},
	Plonk: {
		Setup:            false,
		Prove:            true,
		Verify:           true,
		GenerateVerifier: false,
		ExportKeys:       false,
		DumpLagrange:     true,
	},
}

// Check returns nil if op is implemented for sys, and an *UnsupportedError
// otherwise. Workflows call it once, before touching the filesystem.
func Check(sys System, op Operation) error {
	if supported[sys][op] {
		return nil
	}
	return &UnsupportedError{System: sys, Operation: op}
}

// AuxOffset returns the number of implicit constant-one wires that precede
// the witness section when the constraint system is built for sys. The
// legacy Groth16 wire layout keeps the circom constant wire at index 0;
// the Plonk sparse system has no constant wire, so public wires start at
// index 0.
func AuxOffset(sys System) int {
	if sys == Groth16 {
		return 1
	}
	return 0
}

// Parse maps a CLI proof system name to a System.
func Parse(name string) (System, error) {
	switch name {
	case "groth16":
		return Groth16, nil
	case "plonk":
		return Plonk, nil
	default:
		return 0, fmt.Errorf("unknown proof system %q (want groth16 or plonk)", name)
	}
}

func (s System) String() string {
	switch s {
	case Groth16:
		return "groth16"
	case Plonk:
		return "plonk"
	default:
		return fmt.Sprintf("System(%d)", int(s))
	}
}

func (op Operation) String() string {
	switch op {
	case Setup:
		return "setup"
	case Prove:
		return "prove"
	case Verify:
		return "verify"
	case GenerateVerifier:
		return "generate-verifier"
	case ExportKeys:
		return "export-keys"
	case DumpLagrange:
		return "dump-lagrange"
	default:
		return fmt.Sprintf("Operation(%d)", int(op))
	}
}
