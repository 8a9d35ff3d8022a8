package verifier

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/witness"
)

// snarkjs point encoding: G1 as [x, y, "1"], G2 as [[x0, x1], [y0, y1],
// ["1", "0"]], coordinates as decimal strings. The curve is reported under
// its snarkjs name, bn128.
const snarkjsCurve = "bn128"

// VerificationKeyJSON is the snarkjs verification_key.json shape.
type VerificationKeyJSON struct {
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve"`
	NPublic  int        `json:"nPublic"`
	VkAlpha1 []string   `json:"vk_alpha_1"`
	VkBeta2  [][]string `json:"vk_beta_2"`
	VkGamma2 [][]string `json:"vk_gamma_2"`
	VkDelta2 [][]string `json:"vk_delta_2"`
	IC       [][]string `json:"IC"`
}

// ProvingKeyJSON carries the Groth16 proving key query points.
type ProvingKeyJSON struct {
	Protocol string       `json:"protocol"`
	Curve    string       `json:"curve"`
	NPublic  int          `json:"nPublic"`
	A        [][]string   `json:"A"`
	B1       [][]string   `json:"B1"`
	B2       [][][]string `json:"B2"`
	C        [][]string   `json:"C"`
	Z        [][]string   `json:"Z"`
	VkAlpha1 []string     `json:"vk_alfa_1"`
	VkBeta1  []string     `json:"vk_beta_1"`
	VkDelta1 []string     `json:"vk_delta_1"`
	VkBeta2  [][]string   `json:"vk_beta_2"`
	VkDelta2 [][]string   `json:"vk_delta_2"`
}

// ProofJSON is the snarkjs proof.json shape.
type ProofJSON struct {
	PiA      []string   `json:"pi_a"`
	PiB      [][]string `json:"pi_b"`
	PiC      []string   `json:"pi_c"`
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve"`
}

func g1JSON(p curve.G1Affine) []string {
	return []string{p.X.String(), p.Y.String(), "1"}
}

func g2JSON(p curve.G2Affine) [][]string {
	return [][]string{
		{p.X.A0.String(), p.X.A1.String()},
		{p.Y.A0.String(), p.Y.A1.String()},
		{"1", "0"},
	}
}

func g1SliceJSON(ps []curve.G1Affine) [][]string {
	out := make([][]string, len(ps))
	for i, p := range ps {
		out[i] = g1JSON(p)
	}
	return out
}

func g2SliceJSON(ps []curve.G2Affine) [][][]string {
	out := make([][][]string, len(ps))
	for i, p := range ps {
		out[i] = g2JSON(p)
	}
	return out
}

// WriteVerificationKeyJSON writes a Groth16 verification key in the
// snarkjs shape.
func WriteVerificationKeyJSON(vk groth16.VerifyingKey, w io.Writer) error {
	cvk, ok := vk.(*groth16_bn254.VerifyingKey)
	if !ok {
		return fmt.Errorf("unsupported verification key type %T", vk)
	}
	out := VerificationKeyJSON{
		Protocol: "groth16",
		Curve:    snarkjsCurve,
		NPublic:  len(cvk.G1.K) - 1,
		VkAlpha1: g1JSON(cvk.G1.Alpha),
		VkBeta2:  g2JSON(cvk.G2.Beta),
		VkGamma2: g2JSON(cvk.G2.Gamma),
		VkDelta2: g2JSON(cvk.G2.Delta),
		IC:       g1SliceJSON(cvk.G1.K),
	}
	return writeJSON(w, out)
}

// WriteProvingKeyJSON writes a Groth16 proving key's query points as JSON.
func WriteProvingKeyJSON(pk groth16.ProvingKey, vk groth16.VerifyingKey, w io.Writer) error {
	cpk, ok := pk.(*groth16_bn254.ProvingKey)
	if !ok {
		return fmt.Errorf("unsupported proving key type %T", pk)
	}
	cvk, ok := vk.(*groth16_bn254.VerifyingKey)
	if !ok {
		return fmt.Errorf("unsupported verification key type %T", vk)
	}
	out := ProvingKeyJSON{
		Protocol: "groth16",
		Curve:    snarkjsCurve,
		NPublic:  len(cvk.G1.K) - 1,
		A:        g1SliceJSON(cpk.G1.A),
		B1:       g1SliceJSON(cpk.G1.B),
		B2:       g2SliceJSON(cpk.G2.B),
		C:        g1SliceJSON(cpk.G1.K),
		Z:        g1SliceJSON(cpk.G1.Z),
		VkAlpha1: g1JSON(cpk.G1.Alpha),
		VkBeta1:  g1JSON(cpk.G1.Beta),
		VkDelta1: g1JSON(cpk.G1.Delta),
		VkBeta2:  g2JSON(cpk.G2.Beta),
		VkDelta2: g2JSON(cpk.G2.Delta),
	}
	return writeJSON(w, out)
}

// WriteProofJSON writes a Groth16 proof in the snarkjs shape. This is the
// legacy proof artifact format, paired with a separate public inputs file.
func WriteProofJSON(proof groth16.Proof, w io.Writer) error {
	cp, ok := proof.(*groth16_bn254.Proof)
	if !ok {
		return fmt.Errorf("unsupported proof type %T", proof)
	}
	out := ProofJSON{
		PiA:      g1JSON(cp.Ar),
		PiB:      g2JSON(cp.Bs),
		PiC:      g1JSON(cp.Krs),
		Protocol: "groth16",
		Curve:    snarkjsCurve,
	}
	return writeJSON(w, out)
}

// ReadProofJSON parses a snarkjs-shape Groth16 proof.
func ReadProofJSON(r io.Reader) (groth16.Proof, error) {
	var in ProofJSON
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("error parsing proof JSON: %v", err)
	}
	proof := &groth16_bn254.Proof{}
	if err := g1FromJSON(&proof.Ar, in.PiA); err != nil {
		return nil, fmt.Errorf("pi_a: %v", err)
	}
	if err := g2FromJSON(&proof.Bs, in.PiB); err != nil {
		return nil, fmt.Errorf("pi_b: %v", err)
	}
	if err := g1FromJSON(&proof.Krs, in.PiC); err != nil {
		return nil, fmt.Errorf("pi_c: %v", err)
	}
	return proof, nil
}

func g1FromJSON(p *curve.G1Affine, coords []string) error {
	if len(coords) < 2 {
		return fmt.Errorf("want at least 2 coordinates, got %d", len(coords))
	}
	if _, err := p.X.SetString(coords[0]); err != nil {
		return fmt.Errorf("bad x coordinate %q: %v", coords[0], err)
	}
	if _, err := p.Y.SetString(coords[1]); err != nil {
		return fmt.Errorf("bad y coordinate %q: %v", coords[1], err)
	}
	return nil
}

func g2FromJSON(p *curve.G2Affine, coords [][]string) error {
	if len(coords) < 2 || len(coords[0]) < 2 || len(coords[1]) < 2 {
		return fmt.Errorf("malformed G2 point")
	}
	if _, err := p.X.A0.SetString(coords[0][0]); err != nil {
		return err
	}
	if _, err := p.X.A1.SetString(coords[0][1]); err != nil {
		return err
	}
	if _, err := p.Y.A0.SetString(coords[1][0]); err != nil {
		return err
	}
	if _, err := p.Y.A1.SetString(coords[1][1]); err != nil {
		return err
	}
	return nil
}

// WritePublicInputsJSON writes the public section of a witness as a JSON
// array of decimal strings, the shape external verifiers expect next to a
// legacy proof.
func WritePublicInputsJSON(public witness.Witness, w io.Writer) error {
	vec, ok := public.Vector().(fr.Vector)
	if !ok {
		return fmt.Errorf("unsupported witness vector type %T", public.Vector())
	}
	values := make([]string, len(vec))
	for i := range vec {
		values[i] = vec[i].String()
	}
	return writeJSON(w, values)
}

// ReadPublicInputsJSON parses a public inputs JSON array into field
// elements.
func ReadPublicInputsJSON(r io.Reader) ([]fr.Element, error) {
	var values []string
	if err := json.NewDecoder(r).Decode(&values); err != nil {
		return nil, fmt.Errorf("error parsing public inputs JSON: %v", err)
	}
	out := make([]fr.Element, len(values))
	for i, s := range values {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("public input %d is not a decimal integer: %q", i, s)
		}
		out[i].SetBigInt(v)
	}
	return out, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("error encoding JSON: %v", err)
	}
	return nil
}
