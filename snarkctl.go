// package snarkctl orchestrates the lifecycle of zk-SNARK artifacts
// produced from a compiled arithmetic circuit: trusted-setup parameters,
// proving and verification keys, proofs, and export formats for external
// verifiers. All cryptography is delegated to gnark; this layer decides
// which workflow is legal for which proof system, which circuit file to
// load, and in which order artifacts are read and written.
package snarkctl

import (
	"errors"
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/rs/zerolog"

	"github.com/snarkops/snarkctl/circuit"
	"github.com/snarkops/snarkctl/policy"
	"github.com/snarkops/snarkctl/srs"
	"github.com/snarkops/snarkctl/verifier"
)

// ErrProofInvalid is returned by Verify when the proof does not check out.
// It is an expected negative result, not an internal failure; the CLI maps
// it to its own exit status.
var ErrProofInvalid = errors.New("proof is invalid")

// Orchestrator runs the tool's workflows for one proof system. Each
// workflow is a single linear attempt: any failing step aborts the rest,
// and artifacts written before the failure are left in place.
type Orchestrator struct {
	System  policy.System
	Locator circuit.Locator
	Log     zerolog.Logger
}

// loadCircuit resolves and loads the circuit for the current invocation.
// witnessPath is empty for workflows that run without an assignment.
func (o *Orchestrator) loadCircuit(explicit, witnessPath string) (*circuit.Descriptor, string, error) {
	path := o.Locator.Resolve(explicit)
	o.Log.Info().Str("circuit", path).Str("format", circuit.DetectFormat(path).String()).
		Msg("loading circuit")
	desc, err := circuit.Load(path, witnessPath)
	if err != nil {
		return nil, path, err
	}
	return desc, path, nil
}

// Setup generates Groth16 trusted-setup parameters bound to a circuit and
// writes them to paramsPath. circuitPath may be empty to use the default
// lookup.
func (o *Orchestrator) Setup(paramsPath, circuitPath string) error {
	if err := policy.Check(o.System, policy.Setup); err != nil {
		return err
	}
	desc, _, err := o.loadCircuit(circuitPath, "")
	if err != nil {
		return err
	}
	ccs, err := desc.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder,
		policy.AuxOffset(o.System))
	if err != nil {
		return err
	}
	o.Log.Info().Int("constraints", ccs.GetNbConstraints()).
		Msg("generating trusted setup parameters")
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return fmt.Errorf("error generating setup parameters: %v", err)
	}
	if err := SaveGroth16Params(pk, vk, paramsPath); err != nil {
		return err
	}
	o.Log.Info().Str("params", paramsPath).Msg("saved setup parameters")
	return nil
}

// ProveOptions collects the inputs and outputs of the Prove workflow.
type ProveOptions struct {
	SRSMonomialPath string
	SRSLagrangePath string // optional: derived from the monomial form when empty
	CircuitPath     string // optional: default lookup when empty
	WitnessPath     string
	ProofPath       string
	PublicPath      string // optional: public inputs JSON for external verifiers
	VKPath          string // verification key written next to the proof
	SizePow2        int    // optional: 0 means derive from the circuit
}

// Prove produces a Plonk proof for a circuit and witness against the
// universal SRS, and persists the proof, the derived verification key and,
// when requested, the public inputs.
func (o *Orchestrator) Prove(opts ProveOptions) error {
	if err := policy.Check(o.System, policy.Prove); err != nil {
		return err
	}
	if opts.SizePow2 != 0 {
		if err := srs.ValidateSizePow2(opts.SizePow2); err != nil {
			return err
		}
	}
	desc, _, err := o.loadCircuit(opts.CircuitPath, opts.WitnessPath)
	if err != nil {
		return err
	}
	ccs, err := desc.Compile(ecc.BN254.ScalarField(), scs.NewBuilder,
		policy.AuxOffset(o.System))
	if err != nil {
		return err
	}
	domain := srs.CircuitDomain(ccs)
	if opts.SizePow2 != 0 && domain > uint64(1)<<opts.SizePow2 {
		return fmt.Errorf("circuit needs a domain of %d gates, larger than the requested 2^%d setup",
			domain, opts.SizePow2)
	}

	o.Log.Info().Str("srs", opts.SRSMonomialPath).Msg("loading universal SRS")
	monomial, err := srs.LoadMonomial(opts.SRSMonomialPath)
	if err != nil {
		return err
	}
	if uint64(len(monomial.Pk.G1)) < domain+3 {
		return fmt.Errorf("SRS has %d G1 powers, circuit needs %d",
			len(monomial.Pk.G1), domain+3)
	}
	lagrange := monomial
	if opts.SRSLagrangePath != "" {
		lagrange, err = srs.LoadLagrange(opts.SRSLagrangePath)
		if err != nil {
			return err
		}
	} else {
		o.Log.Info().Uint64("domain", domain).Msg("deriving lagrange-form SRS")
		lagrange, err = srs.Derive(monomial, domain)
		if err != nil {
			return err
		}
	}

	pk, vk, err := plonk.Setup(ccs, monomial, lagrange)
	if err != nil {
		return fmt.Errorf("error preparing proving key: %v", err)
	}
	assignment, err := desc.Assignment(policy.AuxOffset(o.System))
	if err != nil {
		return err
	}
	fullWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return fmt.Errorf("error building witness: %v", err)
	}
	o.Log.Info().Msg("proving")
	proof, err := plonk.Prove(ccs, pk, fullWitness)
	if err != nil {
		return fmt.Errorf("error generating proof: %v", err)
	}
	public, err := fullWitness.Public()
	if err != nil {
		return fmt.Errorf("error extracting public inputs: %v", err)
	}

	if err := SavePlonkProof(proof, public, opts.ProofPath); err != nil {
		return err
	}
	if err := SavePlonkVerifyingKey(vk, opts.VKPath); err != nil {
		return err
	}
	if opts.PublicPath != "" {
		if err := writeFileWith(opts.PublicPath, func(f *os.File) error {
			return verifier.WritePublicInputsJSON(public, f)
		}); err != nil {
			return err
		}
	}
	o.Log.Info().Str("proof", opts.ProofPath).Str("vk", opts.VKPath).
		Msg("saved proof artifacts")
	return nil
}

// Verify checks a Plonk proof against a verification key. A negative
// result, including a proof artifact that no longer parses, is reported
// as ErrProofInvalid; it is an expected outcome, not an internal error.
func (o *Orchestrator) Verify(proofPath, vkPath string) error {
	if err := policy.Check(o.System, policy.Verify); err != nil {
		return err
	}
	vk, err := LoadPlonkVerifyingKey(vkPath)
	if err != nil {
		return err
	}
	proof, public, err := LoadPlonkProof(proofPath)
	if err != nil {
		// a tampered artifact must report as invalid, not crash
		o.Log.Warn().Err(err).Msg("proof artifact does not parse")
		return fmt.Errorf("%w: %v", ErrProofInvalid, err)
	}
	if err := plonk.Verify(proof, vk, public); err != nil {
		return fmt.Errorf("%w: %v", ErrProofInvalid, err)
	}
	o.Log.Info().Msg("proof is correct")
	return nil
}

// GenerateVerifier emits a Solidity verifier contract for Groth16 setup
// parameters.
func (o *Orchestrator) GenerateVerifier(paramsPath, outputPath string) error {
	if err := policy.Check(o.System, policy.GenerateVerifier); err != nil {
		return err
	}
	_, vk, err := LoadGroth16Params(paramsPath)
	if err != nil {
		return err
	}
	if err := writeFileWith(outputPath, func(f *os.File) error {
		return verifier.WriteSolidity(vk, f)
	}); err != nil {
		return err
	}
	o.Log.Info().Str("verifier", outputPath).Msg("created verifier contract")
	return nil
}

// ExportKeys derives proving and verification keys from Groth16 setup
// parameters and writes them in the snarkjs-interoperable JSON shape. The
// two files are written independently: a failure on the second leaves the
// first in place.
func (o *Orchestrator) ExportKeys(paramsPath, circuitPath, pkOut, vkOut string) error {
	if err := policy.Check(o.System, policy.ExportKeys); err != nil {
		return err
	}
	pk, vk, err := LoadGroth16Params(paramsPath)
	if err != nil {
		return err
	}
	desc, _, err := o.loadCircuit(circuitPath, "")
	if err != nil {
		return err
	}
	// the parameters are bound to one circuit; catch an obvious mismatch
	// before writing anything
	if nbPub := vk.NbPublicWitness(); nbPub != desc.NumPublic() {
		return fmt.Errorf("setup parameters expect %d public inputs, circuit declares %d",
			nbPub, desc.NumPublic())
	}
	if err := writeFileWith(pkOut, func(f *os.File) error {
		return verifier.WriteProvingKeyJSON(pk, vk, f)
	}); err != nil {
		return err
	}
	if err := writeFileWith(vkOut, func(f *os.File) error {
		return verifier.WriteVerificationKeyJSON(vk, f)
	}); err != nil {
		return err
	}
	o.Log.Info().Str("pk", pkOut).Str("vk", vkOut).Msg("exported keys")
	return nil
}

// DumpLagrange derives the lagrange-form SRS for a circuit from the
// monomial-form universal SRS and persists it, so later Prove runs can
// skip the on-the-fly derivation.
func (o *Orchestrator) DumpLagrange(monomialPath, lagrangePath, circuitPath, witnessPath string) error {
	if err := policy.Check(o.System, policy.DumpLagrange); err != nil {
		return err
	}
	desc, _, err := o.loadCircuit(circuitPath, witnessPath)
	if err != nil {
		return err
	}
	ccs, err := desc.Compile(ecc.BN254.ScalarField(), scs.NewBuilder,
		policy.AuxOffset(o.System))
	if err != nil {
		return err
	}
	monomial, err := srs.LoadMonomial(monomialPath)
	if err != nil {
		return err
	}
	domain := srs.CircuitDomain(ccs)
	o.Log.Info().Uint64("domain", domain).Msg("deriving lagrange-form SRS")
	lagrange, err := srs.Derive(monomial, domain)
	if err != nil {
		return err
	}
	if err := srs.Save(lagrange, lagrangePath); err != nil {
		return err
	}
	o.Log.Info().Str("srs", lagrangePath).Msg("saved lagrange-form SRS")
	return nil
}

// writeFileWith creates path and runs write against it, closing the file
// on both success and failure.
func writeFileWith(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file %s: %v", path, err)
	}
	defer f.Close()
	return write(f)
}
