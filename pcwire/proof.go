// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pcwire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dchest/blake2b"

	"github.com/pktlabs/packetcrypt/pcutil"
)

const endType = 0
const pcpType = 1
const signaturesType = 2
const contentProofsType = 3

// PacketCryptEntity is an unrecognized tagged region found in a
// PacketCryptProof stream; unknown entities round-trip through
// Encode/Decode unchanged so older and newer protocol versions stay
// compatible.
type PacketCryptEntity struct {
	Type    uint32
	Content []byte
}

// PacketCryptProof is the proof which sits between a block's header and
// its transactions: the four announcements a block miner selected, the
// compact PacketCryptProof tree branch proving their membership, their
// Ed25519 content signatures (when present) and their content Merkle
// proofs.
type PacketCryptProof struct {
	Nonce           uint32
	Announcements   [4]Announcement
	Signatures      [4][]byte
	ContentProof    []byte
	AnnProof        []byte
	UnknownEntities []PacketCryptEntity
}

// ContentProofIndex derives the block offset used to select which
// 32-byte block of each announcement's content is proven, deterministic
// from the proof's own nonce, announcements and announcement proof.
func (h *PacketCryptProof) ContentProofIndex() uint32 {
	b2 := blake2b.New256()
	var nonceBuf [4]byte
	binary.LittleEndian.PutUint32(nonceBuf[:], h.Nonce)
	b2.Write(nonceBuf[:])
	for _, ann := range h.Announcements {
		b2.Write(ann.Header[:])
	}
	b2.Write(h.AnnProof)
	sum := b2.Sum(nil)
	return binary.LittleEndian.Uint32(sum[:4])
}

// SplitContentProof splits the combined content proof into the four
// per-announcement proofs it's made of, sized according to each
// announcement's content length and the block selected by proofIdx.
func (h *PacketCryptProof) SplitContentProof(proofIdx uint32) ([][]byte, error) {
	if h.ContentProof == nil {
		return make([][]byte, 4), nil
	}
	cpb := bytes.NewBuffer(h.ContentProof)
	out := make([][]byte, 4)
	for i, ann := range h.Announcements {
		contentLength := ann.GetContentLength()
		if contentLength <= 32 {
			continue
		}
		totalBlocks := contentLength / 32
		if totalBlocks*32 < contentLength {
			totalBlocks++
		}
		blockToProve := proofIdx % totalBlocks
		depth := pcutil.Log2ceil(uint64(totalBlocks))
		length := 32
		blockSize := uint32(32)
		for i := 0; i < depth; i++ {
			if blockSize*(blockToProve^1) >= contentLength {
				blockToProve >>= 1
				blockSize <<= 1
				continue
			}
			length += 32
			blockToProve >>= 1
			blockSize <<= 1
		}
		b := make([]byte, length)
		if _, err := io.ReadFull(cpb, b[:]); err != nil {
			return nil, fmt.Errorf("SplitContentProof: unable to read ann content proof [%s]", err)
		}
		out[i] = b
	}
	return out, nil
}

// Decode reads a PacketCryptProof from the wire encoding.
func (h *PacketCryptProof) Decode(r io.Reader) error {
	return readPacketCryptProof(r, h)
}

// Encode writes a PacketCryptProof in the wire encoding.
func (h *PacketCryptProof) Encode(w io.Writer) error {
	return writePacketCryptProof(w, h)
}

// PcProofFromBytes decodes a PacketCryptProof from a byte slice, panicking
// if the encoding is malformed (mirrors callers who already validated the
// bytes came from a well-formed block).
func PcProofFromBytes(b []byte) *PacketCryptProof {
	bb := bytes.NewBuffer(b)
	out := PacketCryptProof{}
	if err := out.Decode(bb); err != nil {
		panic("failed to decode pcp")
	}
	return &out
}

// SerializeSize returns the number of bytes Encode would write.
func (h *PacketCryptProof) SerializeSize() int {
	out := 0
	{
		pcplen := 1024*4 + 4 + len(h.AnnProof)
		out += VarIntSerializeSize(pcpType)
		out += VarIntSerializeSize(uint64(pcplen))
		out += pcplen
	}
	{
		slen := 0
		for i := 0; i < 4; i++ {
			slen += len(h.Signatures[i])
		}
		if slen > 0 {
			out += VarIntSerializeSize(signaturesType)
			out += VarIntSerializeSize(uint64(slen))
			out += slen
		}
	}
	{
		clen := len(h.ContentProof)
		if clen > 0 {
			out += VarIntSerializeSize(contentProofsType)
			out += VarIntSerializeSize(uint64(clen))
			out += clen
		}
	}
	for i := 0; i < len(h.UnknownEntities); i++ {
		out += VarIntSerializeSize(uint64(h.UnknownEntities[i].Type))
		out += VarIntSerializeSize(uint64(len(h.UnknownEntities[i].Content)))
		out += len(h.UnknownEntities[i].Content)
	}
	out += VarIntSerializeSize(endType)
	out += VarIntSerializeSize(0)

	return out
}

func readPacketCryptProof(r io.Reader, pcp *PacketCryptProof) error {
	hasPcp := false
	for {
		t, err := ReadVarInt(r)
		if err != nil {
			return err
		}
		length, err := ReadVarInt(r)
		if err != nil {
			return err
		}
		switch t {
		case endType:
			if !hasPcp {
				return messageError("readPacketCryptProof", "missing PacketCrypt proof")
			}
			return nil
		case pcpType:
			var nonceBuf [4]byte
			if _, err := io.ReadFull(r, nonceBuf[:]); err != nil {
				return err
			}
			pcp.Nonce = binary.LittleEndian.Uint32(nonceBuf[:])
			for i := 0; i < 4; i++ {
				if err := pcp.Announcements[i].Decode(r); err != nil {
					return err
				}
			}
			pcp.AnnProof = make([]byte, length-(1024*4)-4)
			if _, err := io.ReadFull(r, pcp.AnnProof); err != nil {
				return err
			}
			hasPcp = true
		case signaturesType:
			if !hasPcp {
				return messageError("readPacketCryptProof", "signatures came before pcp type")
			}
			remainingBytes := int(length)
			for i := 0; i < 4; i++ {
				if !pcp.Announcements[i].HasSigningKey() {
					continue
				}
				pcp.Signatures[i] = make([]byte, 64)
				if _, err := io.ReadFull(r, pcp.Signatures[i]); err != nil {
					return err
				}
				remainingBytes -= 64
				if remainingBytes < 0 {
					return messageError("readPacketCryptProof",
						"not enough remaining bytes in announcement signatures")
				}
			}
			if remainingBytes != 0 {
				return messageError("readPacketCryptProof",
					"dangling bytes after announcement signatures")
			}
		case contentProofsType:
			if !hasPcp {
				return messageError("readPacketCryptProof", "content proofs came before pcp type")
			}
			pcp.ContentProof = make([]byte, length)
			if _, err := io.ReadFull(r, pcp.ContentProof); err != nil {
				return err
			}
		default:
			e := PacketCryptEntity{
				Type:    uint32(t),
				Content: make([]byte, length),
			}
			if _, err := io.ReadFull(r, e.Content); err != nil {
				return err
			}
			pcp.UnknownEntities = append(pcp.UnknownEntities, e)
		}
	}
}

func writePacketCryptProof(w io.Writer, pcp *PacketCryptProof) error {
	if err := WriteVarInt(w, pcpType); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(4+(1024*4)+len(pcp.AnnProof))); err != nil {
		return err
	}
	var nonceBuf [4]byte
	binary.LittleEndian.PutUint32(nonceBuf[:], pcp.Nonce)
	if _, err := w.Write(nonceBuf[:]); err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		if err := pcp.Announcements[i].Encode(w); err != nil {
			return err
		}
	}
	if _, err := w.Write(pcp.AnnProof); err != nil {
		return err
	}

	{
		sigLen := 0
		for _, sig := range pcp.Signatures {
			sigLen += len(sig)
		}
		if sigLen > 0 {
			if err := WriteVarInt(w, signaturesType); err != nil {
				return err
			}
			if err := WriteVarInt(w, uint64(sigLen)); err != nil {
				return err
			}
			for _, sig := range pcp.Signatures {
				if sig == nil {
					continue
				}
				if _, err := w.Write(sig); err != nil {
					return err
				}
			}
		}
	}

	if pcp.ContentProof != nil {
		if err := WriteVarInt(w, contentProofsType); err != nil {
			return err
		}
		if err := WriteVarInt(w, uint64(len(pcp.ContentProof))); err != nil {
			return err
		}
		if _, err := w.Write(pcp.ContentProof); err != nil {
			return err
		}
	}

	for _, e := range pcp.UnknownEntities {
		if err := WriteVarInt(w, uint64(e.Type)); err != nil {
			return err
		}
		if err := WriteVarInt(w, uint64(len(e.Content))); err != nil {
			return err
		}
		if _, err := w.Write(e.Content); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, endType); err != nil {
		return err
	}
	return WriteVarInt(w, 0)
}
