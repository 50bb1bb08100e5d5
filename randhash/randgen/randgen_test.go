// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package randgen

import (
	"testing"

	"github.com/pktlabs/packetcrypt/pcutil"
)

// For a fixed seed the instruction stream generated must be
// byte-identical across runs.
func TestGenerateIsDeterministic(t *testing.T) {
	var seed [32]byte
	pcutil.HashCompress(seed[:], []byte("test"))

	a, err := Generate(seed[:])
	if err != nil {
		t.Fatalf("Generate() first run: %v", err)
	}
	b, err := Generate(seed[:])
	if err != nil {
		t.Fatalf("Generate() second run: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("instruction count differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("instruction %d differs: %08x vs %08x", i, a[i], b[i])
		}
	}
}

// TestGenerateVariesWithSeed is a sanity check that the generator isn't
// accidentally seed-independent: two distinct seeds should (overwhelmingly)
// produce distinct programs.
func TestGenerateVariesWithSeed(t *testing.T) {
	var seed1, seed2 [32]byte
	pcutil.HashCompress(seed1[:], []byte("test"))
	pcutil.HashCompress(seed2[:], []byte("hash"))

	a, err := Generate(seed1[:])
	if err != nil {
		t.Fatalf("Generate(seed1): %v", err)
	}
	b, err := Generate(seed2[:])
	if err != nil {
		t.Fatalf("Generate(seed2): %v", err)
	}
	if len(a) == len(b) {
		same := true
		for i := range a {
			if a[i] != b[i] {
				same = false
				break
			}
		}
		if same {
			t.Fatal("distinct seeds produced identical programs")
		}
	}
}

// TestGenerateProducesBoundedProgram checks the generator's own size
// invariant: the instruction stream never exceeds Conf_RandGen_MAX_INSNS.
func TestGenerateProducesBoundedProgram(t *testing.T) {
	var seed [32]byte
	pcutil.HashCompress(seed[:], []byte("bound"))
	insns, err := Generate(seed[:])
	if err != nil {
		t.Fatalf("Generate(): %v", err)
	}
	if len(insns) == 0 {
		t.Fatal("Generate() produced an empty program")
	}
}
