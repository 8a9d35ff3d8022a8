package circuit

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strconv"
)

// jsonR1CS mirrors the legacy circom JSON constraint dump. Each constraint
// is a triple of maps from decimal wire index to decimal coefficient.
type jsonR1CS struct {
	NVars       int                             `json:"nVars"`
	NPubInputs  int                             `json:"nPubInputs"`
	NOutputs    int                             `json:"nOutputs"`
	NPrvInputs  int                             `json:"nPrvInputs"`
	Constraints [][3]map[string]json.RawMessage `json:"constraints"`
}

func loadJSON(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading circuit file %s: %v", path, err)
	}
	var raw jsonR1CS
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing circuit JSON %s: %v", path, err)
	}
	desc := &Descriptor{
		NVars:       raw.NVars,
		NPubInputs:  raw.NPubInputs,
		NOutputs:    raw.NOutputs,
		NPrvInputs:  raw.NPrvInputs,
		Constraints: make([]Constraint, len(raw.Constraints)),
		Format:      FormatJSON,
	}
	for i, triple := range raw.Constraints {
		a, err := jsonLC(triple[0])
		if err != nil {
			return nil, fmt.Errorf("constraint %d of %s: %v", i, path, err)
		}
		b, err := jsonLC(triple[1])
		if err != nil {
			return nil, fmt.Errorf("constraint %d of %s: %v", i, path, err)
		}
		c, err := jsonLC(triple[2])
		if err != nil {
			return nil, fmt.Errorf("constraint %d of %s: %v", i, path, err)
		}
		desc.Constraints[i] = Constraint{A: a, B: b, C: c}
	}
	return desc, nil
}

// jsonLC converts one wire-to-coefficient map, sorting by wire index so the
// constraint system is built deterministically regardless of map order.
func jsonLC(m map[string]json.RawMessage) (LinearCombination, error) {
	lc := make(LinearCombination, 0, len(m))
	for wireStr, coeffRaw := range m {
		wire, err := strconv.Atoi(wireStr)
		if err != nil {
			return nil, fmt.Errorf("bad wire index %q: %v", wireStr, err)
		}
		coeff, err := jsonBigInt(coeffRaw)
		if err != nil {
			return nil, fmt.Errorf("bad coefficient for wire %s: %v", wireStr, err)
		}
		lc = append(lc, Term{Wire: wire, Coeff: coeff})
	}
	sort.Slice(lc, func(i, j int) bool { return lc[i].Wire < lc[j].Wire })
	return lc, nil
}

// jsonBigInt accepts both quoted decimal strings and bare JSON numbers;
// old circom releases emitted either.
func jsonBigInt(raw json.RawMessage) (*big.Int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("neither string nor number: %s", raw)
		}
		s = n.String()
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer: %q", s)
	}
	return v, nil
}

// loadWitnessJSON reads a witness file: a JSON array with one decimal
// value per wire, wire 0 first.
func loadWitnessJSON(path string) ([]*big.Int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading witness file %s: %v", path, err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing witness JSON %s: %v", path, err)
	}
	values := make([]*big.Int, len(raw))
	for i, r := range raw {
		values[i], err = jsonBigInt(r)
		if err != nil {
			return nil, fmt.Errorf("witness value %d of %s: %v", i, path, err)
		}
	}
	return values, nil
}
