package circuit

import (
	"os"
	"strings"
)

// Default circuit file names probed when no explicit path is given.
const (
	DefaultBinaryName = "circuit.r1cs"
	DefaultJSONName   = "circuit.json"
)

// Format tags the on-disk serialization of a circuit file. It is resolved
// once, when the file is located, and carried on the Descriptor.
type Format int

const (
	// FormatBinary is the r1cs binary container with a wire-to-label map.
	FormatBinary Format = iota
	// FormatJSON is the legacy circom JSON constraint dump.
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "binary"
}

// Locator resolves which circuit file a workflow should load. The existence
// probe is injectable so the fallback order is testable without touching
// the real filesystem; the zero value probes with os.Stat.
type Locator struct {
	Exists func(path string) bool
}

// Resolve returns the circuit path to load. An explicit path is returned
// unchanged, without an existence check; missing files surface at load
// time. With no explicit path the binary default wins if present, then the
// JSON default, and if neither exists the binary default is still returned
// so the load step reports the missing file.
func (l Locator) Resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}
	exists := l.Exists
	if exists == nil {
		exists = func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		}
	}
	if exists(DefaultBinaryName) {
		return DefaultBinaryName
	}
	if exists(DefaultJSONName) {
		return DefaultJSONName
	}
	return DefaultBinaryName
}

// DetectFormat tags a circuit path: a .json suffix means the legacy JSON
// dump, everything else is the binary container.
func DetectFormat(path string) Format {
	if strings.HasSuffix(path, ".json") {
		return FormatJSON
	}
	return FormatBinary
}
