// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interpret

import (
	"testing"

	"github.com/pktlabs/packetcrypt/pcutil"
	"github.com/pktlabs/packetcrypt/randhash/randgen"
)

func genProg(t *testing.T, label string) []uint32 {
	t.Helper()
	var seed [32]byte
	pcutil.HashCompress(seed[:], []byte(label))
	prog, err := randgen.Generate(seed[:])
	if err != nil {
		t.Fatalf("randgen.Generate(%q): %v", label, err)
	}
	return prog
}

// For equal (program, seed, inputs), Interpret must return equal
// hash-bank contents.
func TestInterpretIsDeterministic(t *testing.T) {
	prog := genProg(t, "test")

	var hashSeed [32]byte
	pcutil.HashCompress(hashSeed[:], []byte("hash"))

	run := func() []byte {
		var ccState [2048]byte
		pcutil.HashExpand(ccState[:], hashSeed[:], 0)
		var memory [RandHash_MEMORY_SZ * 4]byte
		pcutil.HashExpand(memory[:], hashSeed[:], 1)
		if err := Interpret(prog, ccState[:], memory[:], 10); err != nil {
			t.Fatalf("Interpret(): %v", err)
		}
		return ccState[:]
	}

	a := run()
	b := run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("byte %d differs across runs: %02x vs %02x", i, a[i], b[i])
		}
	}
}

// TestInterpretRejectsUndersizedMemory checks the interpreter's own size
// invariant on the externally supplied memory window.
func TestInterpretRejectsUndersizedMemory(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Interpret() did not panic on an undersized memory buffer")
		}
	}()
	prog := genProg(t, "panic")
	var ccState [2048]byte
	var memory [RandHash_MEMORY_SZ]byte // too small: needs *4 bytes
	_ = Interpret(prog, ccState[:], memory[:], 1)
}
