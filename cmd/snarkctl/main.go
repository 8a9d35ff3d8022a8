// snarkctl drives the lifecycle of zk-SNARK artifacts for a compiled
// circuit: trusted setup, proving, verification, and export of keys and
// verifier contracts. One subcommand runs per process; exit code 0 means
// success, 400 means a proof was checked and found invalid, anything else
// is a fatal error.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	snarkctl "github.com/snarkops/snarkctl"
	"github.com/snarkops/snarkctl/circuit"
	"github.com/snarkops/snarkctl/policy"
)

// exitVerificationFailed is the distinguished status for a proof that
// verified as invalid. It mirrors the legacy tool's behavior; on POSIX
// systems the shell sees it truncated to 8 bits.
const exitVerificationFailed = 400

var (
	logLevel string
	system   string
)

func main() {
	root := &cobra.Command{
		Use:           "snarkctl",
		Short:         "work with SNARK circuits, setup parameters and proofs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")

	root.AddCommand(setupCmd(), proveCmd(), verifyCmd(),
		generateVerifierCmd(), exportKeysCmd(), dumpLagrangeCmd())

	if err := root.Execute(); err != nil {
		if errors.Is(err, snarkctl.ErrProofInvalid) {
			fmt.Fprintln(os.Stderr, "Proof is invalid!")
			os.Exit(exitVerificationFailed)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// orchestrator builds the workflow runner for the chosen proof system.
func orchestrator() (*snarkctl.Orchestrator, error) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("bad log level %q: %v", logLevel, err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	sys, err := policy.Parse(system)
	if err != nil {
		return nil, err
	}
	return &snarkctl.Orchestrator{
		System:  sys,
		Locator: circuit.Locator{},
		Log:     log,
	}, nil
}

// applyProofAlias honors the legacy -p spelling of the prove proof output.
// An explicit -p wins over -r's default and over the environment.
func applyProofAlias(cmd *cobra.Command, path *string) {
	if f := cmd.Flags().Lookup("proof-file"); f != nil && f.Changed {
		*path = f.Value.String()
	}
}

// warnUnusedPublic notes that verify ignores a supplied public inputs
// file: the proof artifact embeds its own copy.
func warnUnusedPublic(log zerolog.Logger, path string) {
	log.Warn().Str("public", path).
		Msg("public inputs file is informational; the proof artifact embeds its public inputs")
}

// bindEnv wires every flag of cmd to a SNARKCTL_* environment variable, so
// e.g. SNARKCTL_PROOF_SYSTEM overrides -s when the flag is not set.
func bindEnv(cmd *cobra.Command) {
	v := viper.New()
	v.SetEnvPrefix("SNARKCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	flags := cmd.Flags()
	cobra.CheckErr(v.BindPFlags(flags))
	flags.VisitAll(func(f *pflag.Flag) {
		if !f.Changed && v.IsSet(f.Name) {
			_ = flags.Set(f.Name, v.GetString(f.Name))
		}
	})
}

func systemFlag(cmd *cobra.Command, def string) {
	cmd.Flags().StringVarP(&system, "proof-system", "s", def,
		"proof system (groth16 or plonk)")
}

func setupCmd() *cobra.Command {
	var params, circuitPath string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "generate trusted setup parameters for a circuit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindEnv(cmd)
			o, err := orchestrator()
			if err != nil {
				return err
			}
			return o.Setup(params, circuitPath)
		},
	}
	cmd.Flags().StringVarP(&params, "params", "p", snarkctl.DefaultParamsName,
		"output file for setup parameters")
	cmd.Flags().StringVarP(&circuitPath, "circuit", "c", "",
		"circuit file (defaults to circuit.r1cs, then circuit.json)")
	systemFlag(cmd, "groth16")
	return cmd
}

func proveCmd() *cobra.Command {
	var opts snarkctl.ProveOptions
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "generate a proof for a circuit and witness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindEnv(cmd)
			applyProofAlias(cmd, &opts.ProofPath)
			o, err := orchestrator()
			if err != nil {
				return err
			}
			return o.Prove(opts)
		},
	}
	cmd.Flags().StringVarP(&opts.SRSMonomialPath, "srs-monomial", "m", "",
		"universal SRS in monomial form (gnark binary or .ptau)")
	cmd.Flags().StringVarP(&opts.SRSLagrangePath, "srs-lagrange", "l", "",
		"universal SRS in lagrange form (derived on the fly when omitted)")
	cmd.Flags().IntVarP(&opts.SizePow2, "size", "o", 0,
		"power-of-two setup size the circuit must fit in")
	cmd.Flags().StringVarP(&opts.CircuitPath, "circuit", "c", "",
		"circuit file (defaults to circuit.r1cs, then circuit.json)")
	cmd.Flags().StringVarP(&opts.WitnessPath, "witness", "w", snarkctl.DefaultWitnessName,
		"witness file")
	cmd.Flags().StringVarP(&opts.ProofPath, "proof", "r", snarkctl.DefaultProofBinaryName,
		"output file for the proof (also -p)")
	// -p is the legacy spelling of the proof output; prove has no params
	// flag, so the shorthand is free here
	cmd.Flags().StringVarP(new(string), "proof-file", "p", "", "")
	cobra.CheckErr(cmd.Flags().MarkHidden("proof-file"))
	cmd.Flags().StringVarP(&opts.PublicPath, "public", "i", snarkctl.DefaultPublicName,
		"output file for the public inputs JSON")
	cmd.Flags().StringVar(&opts.VKPath, "vk", snarkctl.DefaultPlonkVKName,
		"output file for the verification key")
	systemFlag(cmd, "plonk")
	cobra.CheckErr(cmd.MarkFlagRequired("srs-monomial"))
	return cmd
}

func verifyCmd() *cobra.Command {
	var proof, vk, public string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "verify a proof",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindEnv(cmd)
			o, err := orchestrator()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("public") {
				warnUnusedPublic(o.Log, public)
			}
			if err := o.Verify(proof, vk); err != nil {
				return err
			}
			fmt.Println("Proof is correct")
			return nil
		},
	}
	cmd.Flags().StringVarP(&proof, "proof", "p", snarkctl.DefaultProofBinaryName,
		"proof file")
	cmd.Flags().StringVarP(&vk, "vk", "v", snarkctl.DefaultPlonkVKName,
		"verification key file")
	cmd.Flags().StringVarP(&public, "public", "i", snarkctl.DefaultPublicName,
		"public inputs file (informational; the proof artifact is self-contained)")
	systemFlag(cmd, "plonk")
	return cmd
}

func generateVerifierCmd() *cobra.Command {
	var params, out string
	cmd := &cobra.Command{
		Use:   "generate-verifier",
		Short: "generate a Solidity verifier contract from setup parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindEnv(cmd)
			o, err := orchestrator()
			if err != nil {
				return err
			}
			return o.GenerateVerifier(params, out)
		},
	}
	cmd.Flags().StringVarP(&params, "params", "p", snarkctl.DefaultParamsName,
		"setup parameters file")
	cmd.Flags().StringVarP(&out, "verifier", "v", snarkctl.DefaultVerifierName,
		"output file for the verifier contract")
	systemFlag(cmd, "groth16")
	return cmd
}

func exportKeysCmd() *cobra.Command {
	var params, circuitPath, pkOut, vkOut string
	cmd := &cobra.Command{
		Use:   "export-keys",
		Short: "export proving and verification keys as snarkjs-compatible JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindEnv(cmd)
			o, err := orchestrator()
			if err != nil {
				return err
			}
			return o.ExportKeys(params, circuitPath, pkOut, vkOut)
		},
	}
	cmd.Flags().StringVarP(&params, "params", "p", snarkctl.DefaultParamsName,
		"setup parameters file")
	cmd.Flags().StringVarP(&circuitPath, "circuit", "c", "",
		"circuit file (defaults to circuit.r1cs, then circuit.json)")
	cmd.Flags().StringVarP(&pkOut, "pk", "r", snarkctl.DefaultProvingKeyName,
		"output file for the proving key")
	cmd.Flags().StringVarP(&vkOut, "vk", "v", snarkctl.DefaultVerifyingKeyName,
		"output file for the verification key")
	systemFlag(cmd, "groth16")
	return cmd
}

func dumpLagrangeCmd() *cobra.Command {
	var monomial, lagrange, circuitPath, witnessPath string
	cmd := &cobra.Command{
		Use:   "dump-lagrange",
		Short: "derive and persist the lagrange-form SRS for a circuit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindEnv(cmd)
			o, err := orchestrator()
			if err != nil {
				return err
			}
			return o.DumpLagrange(monomial, lagrange, circuitPath, witnessPath)
		},
	}
	cmd.Flags().StringVarP(&monomial, "srs-monomial", "m", "",
		"universal SRS in monomial form (gnark binary or .ptau)")
	cmd.Flags().StringVarP(&lagrange, "srs-lagrange", "l", "",
		"output file for the lagrange-form SRS")
	cmd.Flags().StringVarP(&circuitPath, "circuit", "c", "",
		"circuit file (defaults to circuit.r1cs, then circuit.json)")
	cmd.Flags().StringVarP(&witnessPath, "witness", "w", snarkctl.DefaultWitnessName,
		"witness file")
	systemFlag(cmd, "plonk")
	cobra.CheckErr(cmd.MarkFlagRequired("srs-monomial"))
	cobra.CheckErr(cmd.MarkFlagRequired("srs-lagrange"))
	return cmd
}
