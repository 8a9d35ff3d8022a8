// package verifier exports setup material and proofs in the formats
// consumed by external verifier tooling: a Solidity verifier contract for
// on-chain checks, and snarkjs-compatible JSON for the JS ecosystem.
package verifier

import (
	"fmt"
	"io"

	"github.com/consensys/gnark/backend/groth16"
)

// WriteSolidity writes a Solidity verifier contract for a Groth16
// verification key.
func WriteSolidity(vk groth16.VerifyingKey, w io.Writer) error {
	if err := vk.ExportSolidity(w); err != nil {
		return fmt.Errorf("error exporting Solidity verifier: %v", err)
	}
	return nil
}
