// package srs handles the universal structured reference string for the
// Plonk workflows: loading the monomial form (gnark binary or a
// powers-of-tau ceremony transcript), deriving the circuit-sized lagrange
// form from it, and persisting both.
package srs

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
	kzg_bn254 "github.com/consensys/gnark-crypto/ecc/bn254/kzg"
	"github.com/consensys/gnark/constraint"
	ptau "github.com/mdehoog/gnark-ptau"
)

// Inclusive bounds on the power-of-two setup size a caller may request.
const (
	SetupMinPow2 = 10
	SetupMaxPow2 = 26
)

// RangeError reports a requested setup size outside the supported bounds.
// It is raised before any engine work begins.
type RangeError struct {
	Pow2 int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("setup size 2^%d out of supported range 2^%d..2^%d",
		e.Pow2, SetupMinPow2, SetupMaxPow2)
}

// ValidateSizePow2 checks a user-supplied setup power against the
// supported inclusive bounds.
func ValidateSizePow2(pow int) error {
	if pow < SetupMinPow2 || pow > SetupMaxPow2 {
		return &RangeError{Pow2: pow}
	}
	return nil
}

// CircuitDomain returns the evaluation domain size for a compiled circuit:
// the next power of two of its gate count. The lagrange-form SRS must be
// rebuilt whenever this value changes.
func CircuitDomain(ccs constraint.ConstraintSystem) uint64 {
	n := uint64(ccs.GetNbConstraints() + ccs.GetNbPublicVariables())
	return ecc.NextPowerOfTwo(n)
}

// LoadMonomial reads a monomial-form SRS. Files with a .ptau suffix are
// parsed as powers-of-tau ceremony transcripts; everything else is the
// gnark binary serialization.
func LoadMonomial(path string) (*kzg_bn254.SRS, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening SRS file %s: %v", path, err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".ptau") {
		srs, err := ptau.ToSRS(f)
		if err != nil {
			return nil, fmt.Errorf("error converting %s to SRS: %v", path, err)
		}
		return srs, nil
	}
	var srs kzg_bn254.SRS
	if _, err := srs.ReadFrom(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("error reading SRS from %s: %v", path, err)
	}
	return &srs, nil
}

// LoadLagrange reads a lagrange-form SRS previously written by Save.
func LoadLagrange(path string) (*kzg_bn254.SRS, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening lagrange SRS file %s: %v", path, err)
	}
	defer f.Close()

	var srs kzg_bn254.SRS
	if _, err := srs.ReadFrom(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("error reading lagrange SRS from %s: %v", path, err)
	}
	return &srs, nil
}

// Derive converts the first size powers of a monomial-form SRS into
// lagrange form over the evaluation domain of that size. The lagrange form
// is always derivable this way; it is never the source of truth.
func Derive(monomial *kzg_bn254.SRS, size uint64) (*kzg_bn254.SRS, error) {
	if size == 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("lagrange size %d is not a power of two", size)
	}
	if uint64(len(monomial.Pk.G1)) < size {
		return nil, fmt.Errorf("SRS has %d G1 powers, need %d",
			len(monomial.Pk.G1), size)
	}
	g1, err := kzg_bn254.ToLagrangeG1(monomial.Pk.G1[:size])
	if err != nil {
		return nil, fmt.Errorf("error converting SRS to lagrange form: %v", err)
	}
	lagrange := &kzg_bn254.SRS{Vk: monomial.Vk}
	lagrange.Pk.G1 = g1
	return lagrange, nil
}

// Save writes an SRS (either form) in the gnark binary serialization.
func Save(srs *kzg_bn254.SRS, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating SRS file %s: %v", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := srs.WriteTo(w); err != nil {
		return fmt.Errorf("error writing SRS to %s: %v", path, err)
	}
	return w.Flush()
}
