// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package proof

import "testing"

func TestNewTreeRejectsOutOfRangeIndex(t *testing.T) {
	idxs := [4]uint64{0, 1, 2, 10}
	if _, err := NewTree(8, &idxs); err == nil {
		t.Fatal("expected an error for an announcement index past annCount")
	}
}

func TestNewTreeShapeTwoLeaves(t *testing.T) {
	// With annCount=2 and all four claimed indexes pointing at the same
	// two leaves, the tree is just a root with two leaf children.
	idxs := [4]uint64{0, 0, 1, 1}
	tree, err := NewTree(2, &idxs)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	root := tree.GetRoot()
	if root.childLeft < 0 || root.childRight < 0 {
		t.Fatal("expected root to have both children populated")
	}
	left := &tree.entries[root.childLeft]
	right := &tree.entries[root.childRight]
	if !left.Flags().has(FLeaf) || !right.Flags().has(FLeaf) {
		t.Fatal("expected both of the root's children to be leaves")
	}
	if !left.Flags().has(FComputable) || !right.Flags().has(FComputable) {
		t.Fatal("expected both claimed leaves to be computable")
	}
}

func TestGetAnnEntryPanicsOnNonComputable(t *testing.T) {
	idxs := [4]uint64{0, 1, 2, 3}
	tree, err := NewTree(8, &idxs)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected GetAnnEntry to panic on an unclaimed index")
		}
	}()
	tree.GetAnnEntry(7)
}
