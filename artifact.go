package snarkctl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/backend/witness"
)

// Default artifact file names, shared with the CLI flag defaults. The
// persisted state is exactly these independent files; nothing links them,
// so callers must pass a consistent set from the same circuit lineage.
const (
	DefaultParamsName       = "params.bin"
	DefaultWitnessName      = "witness.json"
	DefaultProofJSONName    = "proof.json"
	DefaultProofBinaryName  = "proof.bin"
	DefaultPublicName       = "public.json"
	DefaultVerifierName     = "verifier.sol"
	DefaultProvingKeyName   = "proving_key.json"
	DefaultVerifyingKeyName = "verification_key.json"
	DefaultPlonkVKName      = "vk.bin"
)

// groth16Params is the on-disk envelope for Groth16 setup parameters: the
// gnark-serialized proving and verification keys bound to one circuit.
type groth16Params struct {
	Pk    []byte
	Vk    []byte
	Curve ecc.ID
}

// SaveGroth16Params writes setup parameters to path as a gob envelope.
func SaveGroth16Params(pk groth16.ProvingKey, vk groth16.VerifyingKey, path string) error {
	var pkb, vkb bytes.Buffer
	if _, err := pk.WriteTo(&pkb); err != nil {
		return fmt.Errorf("error serializing proving key: %v", err)
	}
	if _, err := vk.WriteTo(&vkb); err != nil {
		return fmt.Errorf("error serializing verification key: %v", err)
	}
	var buf bytes.Buffer
	env := groth16Params{Pk: pkb.Bytes(), Vk: vkb.Bytes(), Curve: ecc.BN254}
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return fmt.Errorf("error encoding setup parameters: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("error writing setup parameters to %s: %v", path, err)
	}
	return nil
}

// LoadGroth16Params reads setup parameters written by SaveGroth16Params.
func LoadGroth16Params(path string) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading setup parameters from %s: %v", path, err)
	}
	var env groth16Params
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, nil, fmt.Errorf("error decoding setup parameters from %s: %v", path, err)
	}
	pk := groth16.NewProvingKey(env.Curve)
	vk := groth16.NewVerifyingKey(env.Curve)
	if _, err := pk.ReadFrom(bytes.NewReader(env.Pk)); err != nil {
		return nil, nil, fmt.Errorf("error reading proving key from %s: %v", path, err)
	}
	if _, err := vk.ReadFrom(bytes.NewReader(env.Vk)); err != nil {
		return nil, nil, fmt.Errorf("error reading verification key from %s: %v", path, err)
	}
	return pk, vk, nil
}

// SavePlonkProof writes a self-contained Plonk proof artifact: the public
// witness, length-prefixed, followed by the proof.
func SavePlonkProof(proof plonk.Proof, public witness.Witness, path string) error {
	pub, err := public.MarshalBinary()
	if err != nil {
		return fmt.Errorf("error serializing public inputs: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating proof file %s: %v", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.BigEndian, uint32(len(pub))); err != nil {
		return fmt.Errorf("error writing proof file %s: %v", path, err)
	}
	if _, err := w.Write(pub); err != nil {
		return fmt.Errorf("error writing proof file %s: %v", path, err)
	}
	if _, err := proof.WriteTo(w); err != nil {
		return fmt.Errorf("error writing proof to %s: %v", path, err)
	}
	return w.Flush()
}

// LoadPlonkProof reads a proof artifact written by SavePlonkProof,
// returning the proof and the embedded public witness.
func LoadPlonkProof(path string) (plonk.Proof, witness.Witness, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening proof file %s: %v", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var pubLen uint32
	if err := binary.Read(r, binary.BigEndian, &pubLen); err != nil {
		return nil, nil, fmt.Errorf("error reading proof file %s: %v", path, err)
	}
	pub := make([]byte, pubLen)
	if _, err := io.ReadFull(r, pub); err != nil {
		return nil, nil, fmt.Errorf("error reading proof file %s: %v", path, err)
	}
	public, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, nil, fmt.Errorf("error allocating witness: %v", err)
	}
	if err := public.UnmarshalBinary(pub); err != nil {
		return nil, nil, fmt.Errorf("error parsing public inputs in %s: %v", path, err)
	}
	proof := plonk.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(r); err != nil {
		return nil, nil, fmt.Errorf("error parsing proof in %s: %v", path, err)
	}
	return proof, public, nil
}

// SavePlonkVerifyingKey persists a Plonk verification key in the gnark
// binary serialization.
func SavePlonkVerifyingKey(vk plonk.VerifyingKey, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating verification key file %s: %v", path, err)
	}
	defer f.Close()

	if _, err := vk.WriteTo(f); err != nil {
		return fmt.Errorf("error writing verification key to %s: %v", path, err)
	}
	return nil
}

// LoadPlonkVerifyingKey reads a verification key written by
// SavePlonkVerifyingKey.
func LoadPlonkVerifyingKey(path string) (plonk.VerifyingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening verification key file %s: %v", path, err)
	}
	defer f.Close()

	vk := plonk.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("error reading verification key from %s: %v", path, err)
	}
	return vk, nil
}
