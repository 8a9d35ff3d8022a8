// package circuit locates, loads and compiles constraint systems produced
// by external circuit compilers. Two on-disk formats are supported: the
// legacy circom JSON dump and the binary r1cs container. Loading yields a
// Descriptor, a plain data form of the circuit that the workflows hand to
// the proving engine.
package circuit

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
)

// Term is a single wire reference with its coefficient inside a linear
// combination.
type Term struct {
	Wire  int
	Coeff *big.Int
}

// LinearCombination is a sum of coefficient-weighted wires.
type LinearCombination []Term

// Constraint is one rank-1 constraint: A * B = C.
type Constraint struct {
	A, B, C LinearCombination
}

// Descriptor is a loaded circuit: the raw constraint system, an optional
// witness, and its format provenance. It is built fresh per invocation and
// never written back to disk.
type Descriptor struct {
	NVars      int
	NPubInputs int
	NOutputs   int
	NPrvInputs int

	Constraints []Constraint

	// Witness holds one value per wire, in file wire order, or nil when
	// the circuit was loaded without an assignment.
	Witness []*big.Int

	Format Format

	// WireLabels is the wire-to-label map carried by the binary format.
	// No workflow consumes it; it is kept on the descriptor so callers
	// that need the original label numbering can still reach it.
	WireLabels []uint64
}

// NumPublic returns the number of public wires declared by the circuit,
// excluding any implicit constant wire.
func (d *Descriptor) NumPublic() int {
	return d.NOutputs + d.NPubInputs
}

// Load reads the circuit at path, detecting the format from the file name.
// witnessPath may be empty to load the circuit without an assignment.
func Load(path string, witnessPath string) (*Descriptor, error) {
	var (
		desc *Descriptor
		err  error
	)
	switch DetectFormat(path) {
	case FormatJSON:
		desc, err = loadJSON(path)
	default:
		desc, err = loadBinary(path)
	}
	if err != nil {
		return nil, err
	}
	if witnessPath != "" {
		desc.Witness, err = loadWitnessJSON(witnessPath)
		if err != nil {
			return nil, err
		}
		if len(desc.Witness) != desc.NVars {
			return nil, fmt.Errorf("witness has %d values, circuit has %d wires",
				len(desc.Witness), desc.NVars)
		}
	}
	return desc, nil
}

// replay is a gnark circuit that re-emits the raw constraints of a
// Descriptor through the frontend API. The aux offset is the number of
// implicit constant-one wires preceding the witness section in the file's
// wire numbering.
type replay struct {
	Public []frontend.Variable `gnark:",public"`
	Aux    []frontend.Variable

	desc      *Descriptor
	auxOffset int
}

func (c *replay) Define(api frontend.API) error {
	nPub := c.desc.NumPublic()
	wire := func(id int) (frontend.Variable, error) {
		switch {
		case id < 0 || id >= c.desc.NVars:
			return nil, fmt.Errorf("wire %d out of range (circuit has %d wires)",
				id, c.desc.NVars)
		case id < c.auxOffset:
			return 1, nil
		case id < c.auxOffset+nPub:
			return c.Public[id-c.auxOffset], nil
		default:
			return c.Aux[id-c.auxOffset-nPub], nil
		}
	}
	eval := func(lc LinearCombination) (frontend.Variable, error) {
		acc := frontend.Variable(0)
		for _, t := range lc {
			w, err := wire(t.Wire)
			if err != nil {
				return nil, err
			}
			acc = api.Add(acc, api.Mul(t.Coeff, w))
		}
		return acc, nil
	}
	for i, cs := range c.desc.Constraints {
		a, err := eval(cs.A)
		if err != nil {
			return fmt.Errorf("constraint %d: %v", i, err)
		}
		b, err := eval(cs.B)
		if err != nil {
			return fmt.Errorf("constraint %d: %v", i, err)
		}
		o, err := eval(cs.C)
		if err != nil {
			return fmt.Errorf("constraint %d: %v", i, err)
		}
		api.AssertIsEqual(api.Mul(a, b), o)
	}
	return nil
}

// Compile builds a gnark constraint system from the descriptor. The
// builder selects the constraint flavor (r1cs for Groth16, scs for Plonk)
// and auxOffset the wire numbering convention of the target system.
func (d *Descriptor) Compile(field *big.Int, builder frontend.NewBuilder,
	auxOffset int) (constraint.ConstraintSystem, error) {

	nAux := d.NVars - d.NumPublic() - auxOffset
	if nAux < 0 {
		return nil, fmt.Errorf("circuit declares %d public wires but only has %d wires",
			d.NumPublic(), d.NVars)
	}
	circ := &replay{
		Public:    make([]frontend.Variable, d.NumPublic()),
		Aux:       make([]frontend.Variable, nAux),
		desc:      d,
		auxOffset: auxOffset,
	}
	ccs, err := frontend.Compile(field, builder, circ)
	if err != nil {
		return nil, fmt.Errorf("error compiling circuit: %v", err)
	}
	return ccs, nil
}

// Assignment returns the witness assignment matching Compile's shape,
// built from the descriptor's loaded witness values.
func (d *Descriptor) Assignment(auxOffset int) (frontend.Circuit, error) {
	if d.Witness == nil {
		return nil, fmt.Errorf("circuit was loaded without a witness")
	}
	nPub := d.NumPublic()
	if auxOffset == 1 && d.Witness[0].Cmp(big.NewInt(1)) != 0 {
		return nil, fmt.Errorf("witness constant wire is %v, want 1", d.Witness[0])
	}
	public := make([]frontend.Variable, nPub)
	for i := range public {
		public[i] = d.Witness[auxOffset+i]
	}
	aux := make([]frontend.Variable, d.NVars-nPub-auxOffset)
	for i := range aux {
		aux[i] = d.Witness[auxOffset+nPub+i]
	}
	return &replay{Public: public, Aux: aux}, nil
}
