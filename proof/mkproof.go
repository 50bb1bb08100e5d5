// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package proof

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/pktlabs/packetcrypt/pcutil"
)

// fillProof walks the same bits/iDepth recursion NewTree's mkEntries used
// to allocate tree.entries, so idx (a shared counter) visits the identical
// entries in the identical order. For every non-computable, non-pad entry
// it reaches, it supplies the hash (and range, if the entry needs one
// explicitly) from the matching node of the physical tree, then lets
// SetHash/SetRange's own recompute() cascade fill in everything else.
func fillProof(
	tree *Tree,
	full *FullTree,
	annIdxs *[4]uint64,
	bits uint64,
	iDepth uint,
	annCount uint64,
	idx *int,
) error {
	eNum := *idx
	*idx++
	e := &tree.entries[eNum]

	mask := uint64(0xffffffffffffffff) << iDepth

	for i := 0; i < 4; i++ {
		if ((annIdxs[i] ^ bits) & mask) != 0 {
			continue
		}
		if iDepth == 0 {
			// leaf announcement hash was already provided by the caller
			return nil
		}
		if err := fillProof(tree, full, annIdxs, bits, iDepth-1, annCount, idx); err != nil {
			return err
		}
		nextBits := bits | (uint64(1) << (iDepth - 1))
		return fillProof(tree, full, annIdxs, nextBits, iDepth-1, annCount, idx)
	}

	// Not on the path of any proven announcement: either a hard-wired pad
	// entry (already fully populated by NewTree) or an opaque sibling
	// subtree whose hash/range comes straight from the physical tree.
	if e.Flags().has(FPadEntry) {
		return nil
	}

	node := full.nodeAt(int(iDepth), bits>>iDepth)
	if !e.SetHash(node.hash[:]) {
		return errors.New("proof: mkproof hash conflict, this is a bug")
	}
	if e.HasExplicitRange() {
		if !e.SetRange(node.end - node.start) {
			return errors.New("proof: mkproof range conflict, this is a bug")
		}
	}
	return nil
}

// MkProof builds the compact announcement proof bytes for the 4 leaf
// positions in annIdxs (0-based positions among the real, non-guard
// announcements that went into fullTree), reconstructing the exact same
// virtual tree shape PcpHash verifies against and serializing only the
// entries a verifier can't infer for itself.
func MkProof(fullTree *FullTree, annIdxs *[4]uint64) ([]byte, error) {
	var idxs [4]uint64
	for i := 0; i < 4; i++ {
		idxs[i] = (annIdxs[i] % fullTree.AnnCount) + 1
	}
	annCount := fullTree.AnnCount + 1

	tree, err := NewTree(annCount, &idxs)
	if err != nil {
		return nil, err
	}

	for i := 0; i < 4; i++ {
		leaf := fullTree.leaf(idxs[i])
		e := tree.GetAnnEntry(idxs[i])
		if !e.SetHash(leaf.hash[:]) {
			return nil, errors.New("proof: mkproof duplicate announcement index")
		}
	}

	branchHeight := pcutil.Log2ceil(annCount)
	idx := 0
	if err := fillProof(tree, fullTree, &idxs, 0, uint(branchHeight), annCount, &idx); err != nil {
		return nil, err
	}

	r := tree.GetRoot()
	if r.Flags() != FComputable|FFirstEntry|FHasHash|FHasRange|FHasStart|FHasEnd {
		return nil, errors.New("proof: mkproof root did not fully resolve, this is a bug")
	}

	var buf bytes.Buffer
	for i := range tree.entries {
		e := &tree.entries[i]
		if e.HasExplicitRange() {
			var rb [8]byte
			binary.LittleEndian.PutUint64(rb[:], e.Range())
			buf.Write(rb[:])
		}
		if (e.Flags() & (FHasHash | FComputable)) == 0 {
			buf.Write(e.Hash())
		}
	}
	return buf.Bytes(), nil
}
