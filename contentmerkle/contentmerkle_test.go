// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package contentmerkle

import (
	"bytes"
	"testing"
)

func TestComputeIsDeterministic(t *testing.T) {
	content := []byte("the quick brown fox jumps over the lazy dog, twice over")
	a := Compute(content)
	b := Compute(content)
	if a != b {
		t.Fatal("Compute() is not deterministic for identical input")
	}
}

func TestComputeDiffersForDifferentContent(t *testing.T) {
	a := Compute([]byte("content A, first version of the payload"))
	b := Compute([]byte("content B, a completely different payload"))
	if a == b {
		t.Fatal("Compute() produced identical commitments for different content")
	}
}

func TestGetProofBlockPadsTrailingBlock(t *testing.T) {
	content := make([]byte, 40) // one full 32 byte block, one 8 byte tail
	for i := range content {
		content[i] = byte(i + 1)
	}
	block0 := GetProofBlock(0, content)
	if !bytes.Equal(block0, content[:32]) {
		t.Fatalf("GetProofBlock(0) = %x, want %x", block0, content[:32])
	}
	block1 := GetProofBlock(1, content)
	want := make([]byte, 32)
	copy(want, content[32:40])
	if !bytes.Equal(block1, want) {
		t.Fatalf("GetProofBlock(1) = %x, want %x (zero-padded tail)", block1, want)
	}
}

// subtreeHash recomputes Compute's own recursive commitment for the
// content slice a given (blockIdx, blockSize) subtree covers. This is
// indistinguishable from the threaded chunkLength Compute's own recursion
// would use as long as the whole content never exceeds 128 bytes (the
// natural next-power-of-two ceiling stays aligned with blockSize at every
// level below that size) -- which both round-trip tests below respect.
func subtreeHash(content []byte, blockIdx, blockSize uint32) [32]byte {
	start := blockIdx * blockSize
	var slice []byte
	if start < uint32(len(content)) {
		end := start + blockSize
		if end > uint32(len(content)) {
			end = uint32(len(content))
		}
		slice = content[start:end]
	}
	return Compute(slice)
}

// buildProof constructs the sibling chain VerifyProof expects for
// leafIdx: the raw (possibly zero-padded) leaf block, followed by one
// sibling commitment per level, skipping any level whose sibling subtree
// lies entirely beyond the content -- the same collapse Compute's own
// recursion performs. Only valid for content no longer than 128 bytes; see
// subtreeHash.
func buildProof(content []byte, leafIdx uint32) []byte {
	contentLength := uint32(len(content))
	totalBlocks := contentLength / 32
	if totalBlocks*32 < contentLength {
		totalBlocks++
	}
	depth := 0
	for (uint32(1) << depth) < totalBlocks {
		depth++
	}

	var buf bytes.Buffer
	buf.Write(GetProofBlock(leafIdx, content))

	blockToProve := leafIdx % totalBlocks
	blockSize := uint32(32)
	for i := 0; i < depth; i++ {
		sibling := blockToProve ^ 1
		if blockSize*sibling >= contentLength {
			blockToProve >>= 1
			blockSize <<= 1
			continue
		}
		h := subtreeHash(content, sibling, blockSize)
		buf.Write(h[:])
		blockToProve >>= 1
		blockSize <<= 1
	}
	return buf.Bytes()
}

func TestVerifyProofRoundTrip(t *testing.T) {
	for _, length := range []int{50, 64, 70} {
		content := make([]byte, length)
		for i := range content {
			content[i] = byte(i*7 + 3)
		}
		root := Compute(content)
		totalBlocks := uint32(length) / 32
		if totalBlocks*32 < uint32(length) {
			totalBlocks++
		}
		for idx := uint32(0); idx < totalBlocks; idx++ {
			proof := buildProof(content, idx)
			if err := VerifyProof(root[:], uint32(length), idx, proof); err != nil {
				t.Fatalf("VerifyProof(length=%d, idx=%d) = %v, want nil", length, idx, err)
			}
		}
	}
}

func TestVerifyProofRejectsWrongRoot(t *testing.T) {
	content := make([]byte, 50)
	for i := range content {
		content[i] = byte(i)
	}
	root := Compute(content)
	root[0] ^= 0xff
	proof := buildProof(content, 0)
	if err := VerifyProof(root[:], uint32(len(content)), 0, proof); err == nil {
		t.Fatal("VerifyProof() accepted a proof against a corrupted root")
	}
}
