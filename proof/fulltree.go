// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package proof

import (
	"encoding/binary"
	"sort"

	"github.com/pktlabs/packetcrypt/pcutil"
)

// fullTreeEntry is one physical node of a materialized proof tree: a
// node hash plus the half-open [start, end) key range it covers.
type fullTreeEntry struct {
	hash  [32]byte
	start uint64
	end   uint64
	// origIndex carries the announcement's pre-sort position, so a block
	// miner can permute its own announcement table to match tree order.
	origIndex int
}

func keyOf(hash [32]byte) uint64 {
	return binary.LittleEndian.Uint64(hash[:8])
}

// FullTree is the materialized proof tree a block miner builds over every
// admitted announcement hash: a sorted, deduplicated, range-labelled leaf
// layer folded up to a single committed root. Leaf 0 is always the
// synthetic zero-key guard entry that PcpHash's external index convention
// assumes is present; real announcements occupy positions 1..AnnCount.
type FullTree struct {
	// AnnCount is the number of real (post-filtering) announcements,
	// not counting the synthetic guard leaf.
	AnnCount uint64
	Root     [32]byte
	layers   []fullTreeEntry
}

// BuildFullTree runs prepareTree and computeTree over a set of
// announcement hashes, returning the resulting tree. After the call,
// OrigIndex exposes which input slot each surviving leaf came from so the
// caller can reorder its own announcement table into tree order.
func BuildFullTree(hashes [][32]byte) *FullTree {
	entries := make([]fullTreeEntry, len(hashes)+1)
	// entries[0] is the permanent zero-key guard; it is never dropped by
	// the key==0 filter below, only real announcements are.
	entries[0] = fullTreeEntry{origIndex: -1}
	for i, h := range hashes {
		entries[i+1] = fullTreeEntry{hash: h, origIndex: i}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return keyOf(entries[a].hash) < keyOf(entries[b].hash)
	})

	// Drop real (non-guard) entries whose key collides with the guard's
	// all-zero key: such announcements are indistinguishable from the
	// guard and must not be provable.
	filtered := entries[:0]
	for i, e := range entries {
		if i > 0 && keyOf(e.hash) == 0 {
			continue
		}
		filtered = append(filtered, e)
	}
	entries = filtered

	// Drop real entries whose key is the all-ff sentinel value, reserved
	// for pad nodes.
	maxKey := ^uint64(0)
	for len(entries) > 1 && keyOf(entries[len(entries)-1].hash) == maxKey {
		entries = entries[:len(entries)-1]
	}

	// Dedupe adjacent equal keys, keeping only the first (lowest
	// original-index) occurrence of each.
	o := 0
	for i := range entries {
		if i == 0 || keyOf(entries[i].hash) != keyOf(entries[o-1].hash) {
			entries[o] = entries[i]
			o++
		}
	}
	entries = entries[:o]

	t := &FullTree{AnnCount: uint64(len(entries) - 1)}
	t.computeTree(entries)
	return t
}

func (t *FullTree) computeTree(leaves []fullTreeEntry) {
	maxKey := ^uint64(0)
	for i := range leaves {
		leaves[i].start = keyOf(leaves[i].hash)
		if i+1 < len(leaves) {
			leaves[i].end = keyOf(leaves[i+1].hash)
		} else {
			leaves[i].end = maxKey
		}
	}

	all := append([]fullTreeEntry{}, leaves...)
	layer := leaves
	for len(layer) > 1 {
		if len(layer)%2 == 1 {
			pad := fullTreeEntry{start: maxKey, end: maxKey, origIndex: -1}
			pcutil.Memset(pad.hash[:], 0xff)
			layer = append(layer, pad)
			all = append(all, pad)
		}
		next := make([]fullTreeEntry, len(layer)/2)
		for i := range next {
			a, b := layer[2*i], layer[2*i+1]
			var buf [96]byte
			copy(buf[:32], a.hash[:])
			binary.LittleEndian.PutUint64(buf[32:40], a.start)
			binary.LittleEndian.PutUint64(buf[40:48], a.end)
			copy(buf[48:80], b.hash[:])
			binary.LittleEndian.PutUint64(buf[80:88], b.start)
			binary.LittleEndian.PutUint64(buf[88:96], b.end)
			var h [32]byte
			pcutil.HashCompress(h[:], buf[:])
			next[i] = fullTreeEntry{hash: h, start: a.start, end: b.end, origIndex: -1}
		}
		all = append(all, next...)
		layer = next
	}

	t.layers = all

	var rootBuf [48]byte
	copy(rootBuf[:32], layer[0].hash[:])
	pcutil.Memset(rootBuf[40:], 0xff)
	pcutil.HashCompress(t.Root[:], rootBuf[:])
}

// branchHeight returns ceil(log2(leaf count)), the number of levels a
// leaf-to-root walk must cross.
func (t *FullTree) branchHeight() int {
	return pcutil.Log2ceil(t.AnnCount + 1)
}

// leafCount returns the number of leaves (including the guard) actually
// stored at the bottom of the tree, which is >= AnnCount+1 once odd-layer
// padding at the leaf level is accounted for.
func (t *FullTree) leafCount() int {
	n := int(t.AnnCount) + 1
	if n%2 == 1 && n > 1 {
		n++
	}
	return n
}

// branch returns, for a leaf at position num (0-based, guard-inclusive),
// the sibling encountered at each level on the way to the root.
func (t *FullTree) branch(num uint64) []fullTreeEntry {
	out := make([]fullTreeEntry, 0, t.branchHeight())
	base := uint64(0)
	count := t.AnnCount + 1
	offset := num
	for count > 1 {
		paddedCount := count + (count & 1)
		sibPos := base + (offset ^ 1)
		out = append(out, t.layers[sibPos])
		offset >>= 1
		base += paddedCount
		count = paddedCount >> 1
	}
	return out
}

// leaf returns the physical leaf entry at position num.
func (t *FullTree) leaf(num uint64) fullTreeEntry {
	return t.layers[num]
}

// nodeAt returns the physical entry at layer height (0 = leaves) and
// 0-based index idx within that layer, using the same layer-size
// progression as branch().
func (t *FullTree) nodeAt(height int, idx uint64) fullTreeEntry {
	base := uint64(0)
	count := t.AnnCount + 1
	for h := 0; h < height; h++ {
		paddedCount := count + (count & 1)
		base += paddedCount
		count = paddedCount >> 1
	}
	return t.layers[base+idx]
}

// OrigIndex returns the pre-sort announcement slot that ended up at leaf
// position num (0-based, guard-inclusive), or -1 for the synthetic guard
// leaf and any pad leaf.
func (t *FullTree) OrigIndex(num uint64) int {
	return t.layers[num].origIndex
}
