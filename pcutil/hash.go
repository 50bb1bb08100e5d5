// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pcutil

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/aead/chacha20"
	"github.com/dchest/blake2b"
)

// HashExpand fills out with a pseudorandom stream derived from a 32-byte key
// and a counter, using ChaCha20 with the fixed nonce "____PC_EXPND" whose
// first four bytes carry the counter. This is the seed-expansion primitive
// RandProg generation, CryptoCycle's Init and item generation all build on.
func HashExpand(out, key []byte, counter uint32) {
	if len(key) != 32 {
		panic("unexpected key length")
	}
	nonce := []byte("____PC_EXPND")
	binary.LittleEndian.PutUint32(nonce[0:4], counter)
	for i := range out {
		out[i] = 0
	}
	chacha20.XORKeyStream(out, out, nonce, key)
}

// HashCompress writes the 32-byte BLAKE2b-256 digest of in into out.
func HashCompress(out, in []byte) {
	if len(out) < 32 {
		panic("need 32 byte output to place hash in")
	}
	b2 := blake2b.New256()
	if _, err := b2.Write(in); err != nil {
		panic("failed b2.Write()")
	}
	// blake2 wants to *append* the hash
	b2.Sum(out[:0])
}

// HashCompress64 writes the 64-byte BLAKE2b-512 digest of in into out.
func HashCompress64(out, in []byte) {
	if len(out) < 64 {
		panic("need 64 byte output to place hash in")
	}
	b2 := blake2b.New512()
	if _, err := b2.Write(in); err != nil {
		panic("failed b2.Write()")
	}
	b2.Sum(out[:0])
}

// DoubleSha256 computes bitcoin-style double SHA-256, used only for hashing
// the parent-chain BlockHeader (PacketCrypt's own inner loops use BLAKE2b
// exclusively).
func DoubleSha256(out, in []byte) {
	if len(out) < 32 {
		panic("need 32 byte output to place hash in")
	}
	h1 := sha256.Sum256(in)
	h2 := sha256.Sum256(h1[:])
	copy(out, h2[:])
}
