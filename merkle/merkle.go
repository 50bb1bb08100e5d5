// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package merkle builds and verifies the fixed-depth-13 Merkle tree over an
// announcement miner's 8192 item table, the structure whose root is
// committed into every mined announcement and whose branches are the
// proof an announcement carries for its chosen item.
package merkle

import (
	"crypto/subtle"

	"github.com/pktlabs/packetcrypt/pcutil"
)

// Depth is the tree's fixed depth: 8192 leaves, 13 levels of halving.
const Depth = 13

// LeafCount is the number of leaves the tree always holds.
const LeafCount = 1 << Depth

// NodeSize is the width of every tree node (leaf or internal): a
// BLAKE2b-512 digest.
const NodeSize = 64

// BranchSize is the serialized size of a GetBranch proof: D sibling
// hashes (bottom-up), with the root appended last, D+1 nodes in all.
const BranchSize = (Depth + 1) * NodeSize

// Tree holds every node of the fixed-depth tree contiguously: LeafCount
// leaves followed by each internal layer in turn, root last.
type Tree struct {
	nodes []byte // (2*LeafCount - 1) * NodeSize bytes
}

func nodeCount() int { return 2*LeafCount - 1 }

// Build hashes each 1024-byte item in table into a leaf with
// BLAKE2b-512 and folds layers of BLAKE2b-512(left||right) up to a single
// root. table must hold exactly LeafCount items; Build panics otherwise.
func Build(table [][]byte) *Tree {
	if len(table) != LeafCount {
		panic("merkle: table must have exactly LeafCount entries")
	}
	t := &Tree{nodes: make([]byte, nodeCount()*NodeSize)}
	for i, item := range table {
		pcutil.HashCompress64(t.leaf(i), item)
	}
	start := 0
	count := LeafCount
	for count > 1 {
		next := count / 2
		for i := 0; i < next; i++ {
			left := t.nodeAt(start + i*2)
			right := t.nodeAt(start + i*2 + 1)
			buf := make([]byte, NodeSize*2)
			copy(buf[:NodeSize], left)
			copy(buf[NodeSize:], right)
			pcutil.HashCompress64(t.nodeAt(start+count+i), buf)
		}
		start += count
		count = next
	}
	return t
}

func (t *Tree) leaf(i int) []byte { return t.nodeAt(i) }

func (t *Tree) nodeAt(i int) []byte {
	return t.nodes[i*NodeSize : (i+1)*NodeSize]
}

// Root returns the tree's single root node.
func (t *Tree) Root() []byte {
	return t.nodeAt(nodeCount() - 1)
}

// GetBranch returns the (D+1)*NodeSize byte proof for leaf idx: the D
// sibling hashes encountered walking leaf-to-root, bottom-up, followed by
// the root itself.
func (t *Tree) GetBranch(idx int) []byte {
	if idx < 0 || idx >= LeafCount {
		panic("merkle: leaf index out of range")
	}
	out := make([]byte, BranchSize)
	start := 0
	count := LeafCount
	pos := idx
	for level := 0; level < Depth; level++ {
		sibling := pos ^ 1
		copy(out[level*NodeSize:], t.nodeAt(start+sibling))
		start += count
		count /= 2
		pos /= 2
	}
	copy(out[Depth*NodeSize:], t.Root())
	return out
}

// IsItemValid recomputes the root implied by branch for the item whose
// BLAKE2b-512 digest is itemHash and whose index is idx, comparing it to
// the root carried at the tail of branch in constant time.
func IsItemValid(branch []byte, itemHash []byte, idx int) bool {
	if len(branch) != BranchSize {
		return false
	}
	if len(itemHash) != NodeSize {
		return false
	}
	cur := make([]byte, NodeSize)
	copy(cur, itemHash)
	pos := idx
	for level := 0; level < Depth; level++ {
		sib := branch[level*NodeSize : (level+1)*NodeSize]
		buf := make([]byte, NodeSize*2)
		if pos&1 == 0 {
			copy(buf[:NodeSize], cur)
			copy(buf[NodeSize:], sib)
		} else {
			copy(buf[:NodeSize], sib)
			copy(buf[NodeSize:], cur)
		}
		pcutil.HashCompress64(cur, buf)
		pos /= 2
	}
	want := branch[Depth*NodeSize:]
	return subtle.ConstantTimeCompare(cur, want) == 1
}
