// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"testing"

	"github.com/pktlabs/packetcrypt/pcutil"
)

func buildTestTable(t *testing.T) [][]byte {
	t.Helper()
	table := make([][]byte, LeafCount)
	var seed [32]byte
	pcutil.HashCompress(seed[:], []byte("merkle-test"))
	for i := range table {
		item := make([]byte, 1024)
		pcutil.HashExpand(item, seed[:], uint32(i))
		table[i] = item
	}
	return table
}

func TestBuildGetBranchRoundTrip(t *testing.T) {
	table := buildTestTable(t)
	tree := Build(table)

	for _, idx := range []int{0, 1, 4095, 4096, LeafCount - 1} {
		branch := tree.GetBranch(idx)
		if len(branch) != BranchSize {
			t.Fatalf("GetBranch(%d) returned %d bytes, want %d", idx, len(branch), BranchSize)
		}
		var itemHash [64]byte
		pcutil.HashCompress64(itemHash[:], table[idx])
		if !IsItemValid(branch, itemHash[:], idx) {
			t.Fatalf("IsItemValid() rejected a genuine branch for leaf %d", idx)
		}
	}
}

func TestIsItemValidRejectsWrongIndex(t *testing.T) {
	table := buildTestTable(t)
	tree := Build(table)

	branch := tree.GetBranch(10)
	var itemHash [64]byte
	pcutil.HashCompress64(itemHash[:], table[10])
	if IsItemValid(branch, itemHash[:], 11) {
		t.Fatal("IsItemValid() accepted leaf 10's branch under the wrong index")
	}
}

func TestIsItemValidRejectsTamperedBranch(t *testing.T) {
	table := buildTestTable(t)
	tree := Build(table)

	branch := tree.GetBranch(20)
	var itemHash [64]byte
	pcutil.HashCompress64(itemHash[:], table[20])
	branch[0] ^= 0xff
	if IsItemValid(branch, itemHash[:], 20) {
		t.Fatal("IsItemValid() accepted a branch with a corrupted sibling hash")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	table := buildTestTable(t)
	a := Build(table)
	b := Build(table)
	if string(a.Root()) != string(b.Root()) {
		t.Fatal("Build() produced different roots for identical input tables")
	}
}
