package srs

import (
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	kzg_bn254 "github.com/consensys/gnark-crypto/ecc/bn254/kzg"
)

// testSRS builds a small throwaway SRS; the tau here is not secret, which
// is fine for exercising serialization and lagrange conversion.
func testSRS(t *testing.T, size uint64) *kzg_bn254.SRS {
	t.Helper()
	srs, err := kzg_bn254.NewSRS(size, big.NewInt(-1))
	if err != nil {
		t.Fatalf("error creating SRS: %v", err)
	}
	return srs
}

func TestValidateSizePow2(t *testing.T) {
	for _, pow := range []int{SetupMinPow2, SetupMaxPow2, (SetupMinPow2 + SetupMaxPow2) / 2} {
		if err := ValidateSizePow2(pow); err != nil {
			t.Errorf("ValidateSizePow2(%d): unexpected error: %v", pow, err)
		}
	}
	for _, pow := range []int{SetupMinPow2 - 1, SetupMaxPow2 + 1, 0, -3} {
		err := ValidateSizePow2(pow)
		if err == nil {
			t.Errorf("ValidateSizePow2(%d): expected error, got nil", pow)
			continue
		}
		var re *RangeError
		if !errors.As(err, &re) {
			t.Errorf("ValidateSizePow2(%d): error is not *RangeError: %v", pow, err)
		}
	}
}

func TestDerive(t *testing.T) {
	srs := testSRS(t, 16+3)
	lagrange, err := Derive(srs, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lagrange.Pk.G1) != 16 {
		t.Errorf("lagrange form has %d G1 points, want 16", len(lagrange.Pk.G1))
	}
	if !lagrange.Vk.G2[0].Equal(&srs.Vk.G2[0]) {
		t.Error("lagrange form lost the verifying part of the SRS")
	}
}

func TestDeriveErrors(t *testing.T) {
	srs := testSRS(t, 8)
	if _, err := Derive(srs, 6); err == nil {
		t.Error("expected error for non-power-of-two size, got nil")
	}
	if _, err := Derive(srs, 16); err == nil {
		t.Error("expected error for size beyond the SRS, got nil")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "srs.bin")
	srs := testSRS(t, 8)
	if err := Save(srs, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadMonomial(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Pk.G1) != len(srs.Pk.G1) {
		t.Fatalf("got %d G1 points, want %d", len(got.Pk.G1), len(srs.Pk.G1))
	}
	for i := range got.Pk.G1 {
		if !got.Pk.G1[i].Equal(&srs.Pk.G1[i]) {
			t.Errorf("G1[%d] differs after round trip", i)
		}
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := LoadMonomial("no/such/srs.bin"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
	if _, err := LoadLagrange("no/such/srs.lagrange"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
