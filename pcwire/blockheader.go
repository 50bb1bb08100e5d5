// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pcwire

import (
	"encoding/binary"
	"io"

	"github.com/pktlabs/packetcrypt/pcutil"
)

// BlockHeaderSize is the fixed size of a bitcoin-style block header.
const BlockHeaderSize = 80

// BlockHeader is the parent chain's 80 byte block header: version,
// previous block hash, merkle root, time, compact difficulty bits and
// nonce, in that order, all little-endian.
type BlockHeader struct {
	Bytes [BlockHeaderSize]byte
}

func (h *BlockHeader) Version() int32     { return int32(binary.LittleEndian.Uint32(h.Bytes[0:4])) }
func (h *BlockHeader) PrevBlock() []byte  { return h.Bytes[4:36] }
func (h *BlockHeader) MerkleRoot() []byte { return h.Bytes[36:68] }
func (h *BlockHeader) Timestamp() uint32  { return binary.LittleEndian.Uint32(h.Bytes[68:72]) }
func (h *BlockHeader) Bits() uint32       { return binary.LittleEndian.Uint32(h.Bytes[72:76]) }
func (h *BlockHeader) Nonce() uint32      { return binary.LittleEndian.Uint32(h.Bytes[76:80]) }

func (h *BlockHeader) SetVersion(v int32) {
	binary.LittleEndian.PutUint32(h.Bytes[0:4], uint32(v))
}
func (h *BlockHeader) SetTimestamp(t uint32) { binary.LittleEndian.PutUint32(h.Bytes[68:72], t) }
func (h *BlockHeader) SetBits(bits uint32)   { binary.LittleEndian.PutUint32(h.Bytes[72:76], bits) }
func (h *BlockHeader) SetNonce(nonce uint32) { binary.LittleEndian.PutUint32(h.Bytes[76:80], nonce) }

// Hash computes the bitcoin-style double-SHA256 hash of the header.
func (h *BlockHeader) Hash() [32]byte {
	var out [32]byte
	pcutil.DoubleSha256(out[:], h.Bytes[:])
	return out
}

// Decode reads a block header's fixed 80 bytes from r.
func (h *BlockHeader) Decode(r io.Reader) error {
	_, err := io.ReadFull(r, h.Bytes[:])
	return err
}

// Encode writes the block header's 80 bytes to w.
func (h *BlockHeader) Encode(w io.Writer) error {
	_, err := w.Write(h.Bytes[:])
	return err
}
