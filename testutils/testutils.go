// package testutils provides circuit fixtures and file writers shared by
// the package tests: tiny hand-built constraint systems in both on-disk
// formats, with matching witnesses.
package testutils

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"

	"github.com/snarkops/snarkctl/circuit"
)

// CubicDescriptor is the classic x^3 + x + 5 == y circuit in the legacy
// wire layout: wire 0 is the constant one, wire 1 the public output y,
// wires 2..4 are x and the two intermediate products.
func CubicDescriptor() *circuit.Descriptor {
	one := big.NewInt(1)
	five := big.NewInt(5)
	return &circuit.Descriptor{
		NVars:      5,
		NOutputs:   1,
		NPrvInputs: 1,
		Constraints: []circuit.Constraint{
			{ // x * x = v0
				A: lc(2, one), B: lc(2, one), C: lc(3, one),
			},
			{ // v0 * x = v1
				A: lc(3, one), B: lc(2, one), C: lc(4, one),
			},
			{ // (5 + x + v1) * 1 = y
				A: circuit.LinearCombination{
					{Wire: 0, Coeff: five},
					{Wire: 2, Coeff: one},
					{Wire: 4, Coeff: one},
				},
				B: lc(0, one), C: lc(1, one),
			},
		},
		Format: circuit.FormatJSON,
	}
}

// CubicWitness is the satisfying assignment for CubicDescriptor with
// x = 3: [1, y=35, x=3, x^2=9, x^3=27].
func CubicWitness() []*big.Int {
	return bigs(1, 35, 3, 9, 27)
}

// CubeDescriptor is x^3 == y without additive constants, in the
// constant-free wire layout used by the Plonk lineage: wire 0 is the
// public output y, wire 1 is x, wire 2 the intermediate square.
func CubeDescriptor() *circuit.Descriptor {
	one := big.NewInt(1)
	return &circuit.Descriptor{
		NVars:      3,
		NOutputs:   1,
		NPrvInputs: 1,
		Constraints: []circuit.Constraint{
			{ // x * x = v0
				A: lc(1, one), B: lc(1, one), C: lc(2, one),
			},
			{ // v0 * x = y
				A: lc(2, one), B: lc(1, one), C: lc(0, one),
			},
		},
		Format: circuit.FormatJSON,
	}
}

// CubeWitness is the satisfying assignment for CubeDescriptor with x = 3:
// [y=27, x=3, x^2=9].
func CubeWitness() []*big.Int {
	return bigs(27, 3, 9)
}

func lc(wire int, coeff *big.Int) circuit.LinearCombination {
	return circuit.LinearCombination{{Wire: wire, Coeff: coeff}}
}

func bigs(vs ...int64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = big.NewInt(v)
	}
	return out
}

// WriteJSONCircuit writes desc in the legacy JSON format and returns the
// file path.
func WriteJSONCircuit(dir, name string, desc *circuit.Descriptor) (string, error) {
	toMap := func(l circuit.LinearCombination) map[string]string {
		m := make(map[string]string, len(l))
		for _, t := range l {
			m[fmt.Sprint(t.Wire)] = t.Coeff.String()
		}
		return m
	}
	constraints := make([][3]map[string]string, len(desc.Constraints))
	for i, c := range desc.Constraints {
		constraints[i] = [3]map[string]string{toMap(c.A), toMap(c.B), toMap(c.C)}
	}
	blob, err := json.Marshal(map[string]interface{}{
		"nVars":       desc.NVars,
		"nPubInputs":  desc.NPubInputs,
		"nOutputs":    desc.NOutputs,
		"nPrvInputs":  desc.NPrvInputs,
		"constraints": constraints,
	})
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	return path, os.WriteFile(path, blob, 0644)
}

// WriteWitnessJSON writes a witness as a JSON array of decimal strings.
func WriteWitnessJSON(dir, name string, values []*big.Int) (string, error) {
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = v.String()
	}
	blob, err := json.Marshal(strs)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	return path, os.WriteFile(path, blob, 0644)
}

// WriteBinaryCircuit writes desc in the binary r1cs container format and
// returns the file path. Wire labels are the identity map.
func WriteBinaryCircuit(dir, name string, desc *circuit.Descriptor) (string, error) {
	const fieldSize = 32
	prime := make([]byte, fieldSize)
	lePut(prime, ecc.BN254.ScalarField())

	header := make([]byte, 0, 4+fieldSize+4*4+8+4)
	header = le32(header, fieldSize)
	header = append(header, prime...)
	header = le32(header, uint32(desc.NVars))
	header = le32(header, uint32(desc.NOutputs))
	header = le32(header, uint32(desc.NPubInputs))
	header = le32(header, uint32(desc.NPrvInputs))
	header = le64(header, uint64(desc.NVars))
	header = le32(header, uint32(len(desc.Constraints)))

	var constraints []byte
	writeLC := func(l circuit.LinearCombination) {
		constraints = le32(constraints, uint32(len(l)))
		for _, t := range l {
			constraints = le32(constraints, uint32(t.Wire))
			coeff := make([]byte, fieldSize)
			lePut(coeff, t.Coeff)
			constraints = append(constraints, coeff...)
		}
	}
	for _, c := range desc.Constraints {
		writeLC(c.A)
		writeLC(c.B)
		writeLC(c.C)
	}

	var labels []byte
	for i := 0; i < desc.NVars; i++ {
		labels = le64(labels, uint64(i))
	}

	var out []byte
	out = le32(out, 0x73633172) // "r1cs"
	out = le32(out, 1)          // version
	out = le32(out, 3)          // sections
	for _, s := range []struct {
		typ  uint32
		body []byte
	}{{1, header}, {2, constraints}, {3, labels}} {
		out = le32(out, s.typ)
		out = le64(out, uint64(len(s.body)))
		out = append(out, s.body...)
	}
	path := filepath.Join(dir, name)
	return path, os.WriteFile(path, out, 0644)
}

func le32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func le64(b []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(b, v)
}

// lePut writes v little-endian into the full length of b.
func lePut(b []byte, v *big.Int) {
	be := v.Bytes()
	for i, x := range be {
		b[len(be)-1-i] = x
	}
}
