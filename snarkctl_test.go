package snarkctl_test

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kzg_bn254 "github.com/consensys/gnark-crypto/ecc/bn254/kzg"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/snarkops/snarkctl"
	"github.com/snarkops/snarkctl/policy"
	"github.com/snarkops/snarkctl/srs"
	"github.com/snarkops/snarkctl/testutils"
	"github.com/snarkops/snarkctl/verifier"
)

func newOrchestrator(sys policy.System) *snarkctl.Orchestrator {
	return &snarkctl.Orchestrator{System: sys, Log: zerolog.Nop()}
}

// writeSRS generates a small universal SRS and saves it in the gnark
// binary form. The tau is not secret; these are test artifacts.
func writeSRS(t *testing.T, dir string, powers uint64) string {
	t.Helper()
	s, err := kzg_bn254.NewSRS(powers, big.NewInt(-1))
	require.NoError(t, err)
	path := filepath.Join(dir, "srs.bin")
	require.NoError(t, srs.Save(s, path))
	return path
}

func writeCubic(t *testing.T, dir string) string {
	t.Helper()
	path, err := testutils.WriteJSONCircuit(dir, "circuit.json", testutils.CubicDescriptor())
	require.NoError(t, err)
	return path
}

func writeCube(t *testing.T, dir string) (circuitPath, witnessPath string) {
	t.Helper()
	circuitPath, err := testutils.WriteJSONCircuit(dir, "circuit.json", testutils.CubeDescriptor())
	require.NoError(t, err)
	witnessPath, err = testutils.WriteWitnessJSON(dir, "witness.json", testutils.CubeWitness())
	require.NoError(t, err)
	return circuitPath, witnessPath
}

func TestGroth16SetupExportVerifier(t *testing.T) {
	dir := t.TempDir()
	circuitPath := writeCubic(t, dir)
	paramsPath := filepath.Join(dir, "params.bin")

	o := newOrchestrator(policy.Groth16)
	require.NoError(t, o.Setup(paramsPath, circuitPath))

	// the parameters file must round-trip on its own
	_, vk, err := snarkctl.LoadGroth16Params(paramsPath)
	require.NoError(t, err)
	require.Equal(t, 1, vk.NbPublicWitness())

	verifierPath := filepath.Join(dir, "verifier.sol")
	require.NoError(t, o.GenerateVerifier(paramsPath, verifierPath))
	src, err := os.ReadFile(verifierPath)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(src), "pragma solidity"))

	pkPath := filepath.Join(dir, "pk.json")
	vkPath := filepath.Join(dir, "vk.json")
	require.NoError(t, o.ExportKeys(paramsPath, circuitPath, pkPath, vkPath))

	var vkJSON verifier.VerificationKeyJSON
	data, err := os.ReadFile(vkPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &vkJSON))
	require.Equal(t, "groth16", vkJSON.Protocol)
	require.Equal(t, 1, vkJSON.NPublic)
	require.Len(t, vkJSON.IC, 2)

	var pkJSON verifier.ProvingKeyJSON
	data, err = os.ReadFile(pkPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &pkJSON))
	require.Equal(t, "bn128", pkJSON.Curve)
	require.NotEmpty(t, pkJSON.A)
}

func TestExportKeysCircuitMismatch(t *testing.T) {
	dir := t.TempDir()
	paramsPath := filepath.Join(dir, "params.bin")
	o := newOrchestrator(policy.Groth16)
	require.NoError(t, o.Setup(paramsPath, writeCubic(t, dir)))

	// a circuit with a different public count must be rejected before any
	// key file is written
	otherDir := t.TempDir()
	other := testutils.CubicDescriptor()
	other.NOutputs = 2
	other.NVars = 6
	otherPath, err := testutils.WriteJSONCircuit(otherDir, "circuit.json", other)
	require.NoError(t, err)

	pkPath := filepath.Join(dir, "pk.json")
	err = o.ExportKeys(paramsPath, otherPath, pkPath, filepath.Join(dir, "vk.json"))
	require.Error(t, err)
	_, statErr := os.Stat(pkPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestPlonkProveVerify(t *testing.T) {
	dir := t.TempDir()
	circuitPath, witnessPath := writeCube(t, dir)
	srsPath := writeSRS(t, dir, 64+3)

	proofPath := filepath.Join(dir, "proof.bin")
	vkPath := filepath.Join(dir, "vk.bin")
	o := newOrchestrator(policy.Plonk)
	require.NoError(t, o.Prove(snarkctl.ProveOptions{
		SRSMonomialPath: srsPath,
		CircuitPath:     circuitPath,
		WitnessPath:     witnessPath,
		ProofPath:       proofPath,
		PublicPath:      filepath.Join(dir, "public.json"),
		VKPath:          vkPath,
	}))

	require.NoError(t, o.Verify(proofPath, vkPath))

	// the public inputs file carries the circuit output
	f, err := os.Open(filepath.Join(dir, "public.json"))
	require.NoError(t, err)
	defer f.Close()
	public, err := verifier.ReadPublicInputsJSON(f)
	require.NoError(t, err)
	require.Len(t, public, 1)
	require.Equal(t, "27", public[0].String())
}

func TestVerifyTamperedProof(t *testing.T) {
	dir := t.TempDir()
	circuitPath, witnessPath := writeCube(t, dir)
	srsPath := writeSRS(t, dir, 64+3)

	proofPath := filepath.Join(dir, "proof.bin")
	vkPath := filepath.Join(dir, "vk.bin")
	o := newOrchestrator(policy.Plonk)
	require.NoError(t, o.Prove(snarkctl.ProveOptions{
		SRSMonomialPath: srsPath,
		CircuitPath:     circuitPath,
		WitnessPath:     witnessPath,
		ProofPath:       proofPath,
		VKPath:          vkPath,
	}))

	// flip one byte in the proof section; verification must report an
	// invalid proof even if the artifact no longer parses
	blob, err := os.ReadFile(proofPath)
	require.NoError(t, err)
	blob[len(blob)-1] ^= 0xff
	require.NoError(t, os.WriteFile(proofPath, blob, 0o644))

	err = o.Verify(proofPath, vkPath)
	require.ErrorIs(t, err, snarkctl.ErrProofInvalid)
}

func TestProveSizeOutOfRange(t *testing.T) {
	dir := t.TempDir()
	circuitPath, witnessPath := writeCube(t, dir)

	o := newOrchestrator(policy.Plonk)
	for _, pow := range []int{srs.SetupMinPow2 - 1, srs.SetupMaxPow2 + 1} {
		err := o.Prove(snarkctl.ProveOptions{
			// the bounds check runs before any file is touched, so a
			// nonexistent SRS path must not be the error we see
			SRSMonomialPath: filepath.Join(dir, "missing.srs"),
			CircuitPath:     circuitPath,
			WitnessPath:     witnessPath,
			ProofPath:       filepath.Join(dir, "proof.bin"),
			VKPath:          filepath.Join(dir, "vk.bin"),
			SizePow2:        pow,
		})
		var re *srs.RangeError
		require.ErrorAs(t, err, &re, "pow=%d", pow)
		require.Equal(t, pow, re.Pow2)
	}
}

func TestUnsupportedOperations(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.bin")

	plonkO := newOrchestrator(policy.Plonk)
	groth16O := newOrchestrator(policy.Groth16)

	cases := []struct {
		name string
		run  func() error
	}{
		{"plonk setup", func() error { return plonkO.Setup(out, "") }},
		{"plonk generate-verifier", func() error { return plonkO.GenerateVerifier(out, out) }},
		{"plonk export-keys", func() error { return plonkO.ExportKeys(out, "", out, out) }},
		{"groth16 prove", func() error {
			return groth16O.Prove(snarkctl.ProveOptions{ProofPath: out, VKPath: out})
		}},
		{"groth16 verify", func() error { return groth16O.Verify(out, out) }},
		{"groth16 dump-lagrange", func() error { return groth16O.DumpLagrange(out, out, "", "") }},
	}
	for _, tc := range cases {
		err := tc.run()
		require.ErrorIs(t, err, policy.ErrUnsupported, tc.name)
		_, statErr := os.Stat(out)
		require.True(t, os.IsNotExist(statErr), "%s left an output file behind", tc.name)
	}
}

func TestDumpLagrangeFeedsProve(t *testing.T) {
	dir := t.TempDir()
	circuitPath, witnessPath := writeCube(t, dir)
	srsPath := writeSRS(t, dir, 64+3)

	lagrangePath := filepath.Join(dir, "srs.lagrange")
	o := newOrchestrator(policy.Plonk)
	require.NoError(t, o.DumpLagrange(srsPath, lagrangePath, circuitPath, witnessPath))

	// a prove run fed the dumped lagrange form must produce a proof that
	// verifies, same as the on-the-fly derivation
	proofPath := filepath.Join(dir, "proof.bin")
	vkPath := filepath.Join(dir, "vk.bin")
	require.NoError(t, o.Prove(snarkctl.ProveOptions{
		SRSMonomialPath: srsPath,
		SRSLagrangePath: lagrangePath,
		CircuitPath:     circuitPath,
		WitnessPath:     witnessPath,
		ProofPath:       proofPath,
		VKPath:          vkPath,
	}))
	require.NoError(t, o.Verify(proofPath, vkPath))
}
