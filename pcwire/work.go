// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pcwire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Work is the pool-supplied work descriptor a block miner mines against:
// the parent block header to extend, the expected content hash, the
// share/announcement difficulty targets the pool will accept, the height
// being mined and the coinbase transaction (plus any already-known
// intermediate Merkle hashes of the block's transaction tree).
type Work struct {
	BlockHeader        BlockHeader
	ContentHash        [32]byte
	ShareTarget        uint32
	AnnTarget          uint32
	Height             int32
	CoinbaseAndMerkles []byte
}

// Decode reads a Work descriptor from r.
func (w *Work) Decode(r io.Reader) error {
	if err := w.BlockHeader.Decode(r); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, w.ContentHash[:]); err != nil {
		return err
	}
	var u32 [4]byte
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return err
	}
	w.ShareTarget = binary.LittleEndian.Uint32(u32[:])
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return err
	}
	w.AnnTarget = binary.LittleEndian.Uint32(u32[:])
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return err
	}
	w.Height = int32(binary.LittleEndian.Uint32(u32[:]))
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return err
	}
	coinbaseLen := binary.LittleEndian.Uint32(u32[:])
	rest, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if uint32(len(rest)) < coinbaseLen {
		return fmt.Errorf("pcwire: Work descriptor truncated coinbase (want %d, got %d)",
			coinbaseLen, len(rest))
	}
	w.CoinbaseAndMerkles = rest
	return nil
}

// Encode writes a Work descriptor to w.
func (w *Work) Encode(out io.Writer) error {
	if err := w.BlockHeader.Encode(out); err != nil {
		return err
	}
	if _, err := out.Write(w.ContentHash[:]); err != nil {
		return err
	}
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], w.ShareTarget)
	if _, err := out.Write(u32[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(u32[:], w.AnnTarget)
	if _, err := out.Write(u32[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(u32[:], uint32(w.Height))
	if _, err := out.Write(u32[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(u32[:], uint32(len(w.CoinbaseAndMerkles)))
	if _, err := out.Write(u32[:]); err != nil {
		return err
	}
	_, err := out.Write(w.CoinbaseAndMerkles)
	return err
}

// HapHeaderLen is the fixed-size portion of a HeaderAndProof: the block
// header, a 4 byte reserved pad, the second nonce word and the four
// 1024 byte announcements, before the variable-length compact proof.
const HapHeaderLen = BlockHeaderSize + 4 + 4 + AnnSerializeSize*4

// HeaderAndProof is the payload a block miner produces for a share: the
// candidate block header, a reserved pad, the second (extra) nonce word,
// the four announcements the share claims, and the variable-length
// compact PacketCryptProof tree proof binding them (the bytes
// proof.MkProof produces, not the tagged pcwire.PacketCryptProof format
// used for full blocks with signatures/content proofs).
type HeaderAndProof struct {
	BlockHeader   BlockHeader
	Nonce2        uint32
	Announcements [4]Announcement
	Proof         []byte
}

// Decode reads a HeaderAndProof of the given total length from r; the
// proof's length is whatever remains after the fixed-size fields.
func (h *HeaderAndProof) Decode(r io.Reader, length int) error {
	if length < HapHeaderLen {
		return fmt.Errorf("pcwire: HeaderAndProof length %d shorter than fixed header %d", length, HapHeaderLen)
	}
	if err := h.BlockHeader.Decode(r); err != nil {
		return err
	}
	var pad [4]byte
	if _, err := io.ReadFull(r, pad[:]); err != nil {
		return err
	}
	var nonceBuf [4]byte
	if _, err := io.ReadFull(r, nonceBuf[:]); err != nil {
		return err
	}
	h.Nonce2 = binary.LittleEndian.Uint32(nonceBuf[:])
	for i := 0; i < 4; i++ {
		if err := h.Announcements[i].Decode(r); err != nil {
			return err
		}
	}
	h.Proof = make([]byte, length-HapHeaderLen)
	_, err := io.ReadFull(r, h.Proof)
	return err
}

// Encode writes a HeaderAndProof in the wire layout §6 specifies: header,
// 4 byte pad, nonce2, the 4 announcements, then the raw proof bytes.
func (h *HeaderAndProof) Encode(w io.Writer) error {
	if err := h.BlockHeader.Encode(w); err != nil {
		return err
	}
	var pad [4]byte
	if _, err := w.Write(pad[:]); err != nil {
		return err
	}
	var nonceBuf [4]byte
	binary.LittleEndian.PutUint32(nonceBuf[:], h.Nonce2)
	if _, err := w.Write(nonceBuf[:]); err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		if err := h.Announcements[i].Encode(w); err != nil {
			return err
		}
	}
	_, err := w.Write(h.Proof)
	return err
}

// SerializeSize returns the number of bytes Encode would write.
func (h *HeaderAndProof) SerializeSize() int {
	return HapHeaderLen + len(h.Proof)
}

// ShareRecord is the framing a block miner writes to its output file
// descriptor for every accepted share: a length-prefixed coinbase
// followed by the HeaderAndProof.
type ShareRecord struct {
	Coinbase [48]byte
	Hap      HeaderAndProof
}

// Decode reads a length-prefixed ShareRecord from r: a u32 total length
// (as written by Encode), a 4 byte pad, the 48 byte coinbase
// commitment, then the HeaderAndProof filling out the rest of length.
func (s *ShareRecord) Decode(r io.Reader) error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return err
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	var pad [4]byte
	if _, err := io.ReadFull(r, pad[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, s.Coinbase[:]); err != nil {
		return err
	}
	return s.Hap.Decode(r, int(length)-4-48)
}

// Encode writes s with its length prefix and reserved pad.
func (s *ShareRecord) Encode(w io.Writer) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(4+48+s.Hap.SerializeSize()))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	var pad [4]byte
	if _, err := w.Write(pad[:]); err != nil {
		return err
	}
	if _, err := w.Write(s.Coinbase[:]); err != nil {
		return err
	}
	return s.Hap.Encode(w)
}

// PointerRecord is the in-process, shared-memory handoff form of a share:
// a pointer and size into a buffer the worker and consumer both map.
type PointerRecord struct {
	Ptr  uint64
	Size uint64
}
