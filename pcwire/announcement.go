// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pcwire defines the on-the-wire byte layouts shared by the
// announcement and block miners: the Announcement itself, the parent
// chain's BlockHeader, the coinbase commitment, and the PacketCryptProof
// that accompanies a mined block.
package pcwire

import (
	"encoding/binary"
	"io"

	"github.com/pktlabs/packetcrypt/pcutil"
)

// Announcement is the in-memory layout of a mined PacketCrypt
// announcement: an 88 byte header, an 896 byte Merkle proof and a 40 byte
// trailing item-4 prefix (or, for version >= 1, the opaque encrypted
// equivalent).
type Announcement struct {
	Header [1024]byte
}

// AnnSerializeSize is the wire size of an Announcement.
const AnnSerializeSize = 1024

// AnnHeaderLen is the length of the announcement header, not including the
// Merkle proof.
const AnnHeaderLen = 88

// AnnMerkleProofLen is the length of the embedded Merkle proof.
const AnnMerkleProofLen = 896

// AnnItem4PrefixLen is the length of the item-4 prefix (or its encrypted
// equivalent) which follows the Merkle proof.
const AnnItem4PrefixLen = AnnSerializeSize - (AnnHeaderLen + AnnMerkleProofLen)

// GetVersion returns the announcement's protocol version.
func (p *Announcement) GetVersion() uint {
	return uint(p.Header[0])
}

// GetAnnounceHeader returns the header without the Merkle proof.
func (p *Announcement) GetAnnounceHeader() []byte {
	return p.Header[:AnnHeaderLen]
}

// GetMerkleProof returns the announcement's embedded Merkle branch.
func (p *Announcement) GetMerkleProof() []byte {
	return p.Header[AnnHeaderLen : AnnHeaderLen+AnnMerkleProofLen]
}

// GetItem4Prefix returns the trailing item-4 prefix region.
func (p *Announcement) GetItem4Prefix() []byte {
	return p.Header[AnnHeaderLen+AnnMerkleProofLen:]
}

// GetSoftNonce returns the 3 byte soft-nonce field.
func (p *Announcement) GetSoftNonce() []byte {
	return p.Header[1:4]
}

// GetParentBlockHeight returns the height of the parent block whose hash
// is committed into this announcement.
func (p *Announcement) GetParentBlockHeight() uint32 {
	return binary.LittleEndian.Uint32(p.Header[12:16])
}

// GetWorkTarget returns the announcement's proof-of-work target in
// bitcoin compact ("nBits") format.
func (p *Announcement) GetWorkTarget() uint32 {
	return binary.LittleEndian.Uint32(p.Header[8:12])
}

// GetContentLength returns the length of the announcement's content.
func (p *Announcement) GetContentLength() uint32 {
	return binary.LittleEndian.Uint32(p.Header[20:24])
}

// GetContentHash returns the content Merkle root (external content) or
// the content itself, right-padded to 32 bytes (internal content).
func (p *Announcement) GetContentHash() []byte {
	return p.Header[24:56]
}

// GetSigningKey returns the Ed25519 public key the announcement's content
// commitment is signed under, or all zeros if none is present.
func (p *Announcement) GetSigningKey() []byte {
	return p.Header[56:88]
}

// HasSigningKey reports whether a signing key is present.
func (p *Announcement) HasSigningKey() bool {
	return !pcutil.IsZero(p.GetSigningKey())
}

// GetHardNonce returns the 4 byte hard-nonce field: rolling it requires
// regenerating the announcement's whole memory-hard dataset.
func (p *Announcement) GetHardNonce() uint32 {
	return binary.LittleEndian.Uint32(p.Header[4:8])
}

// GetContentType returns the announcement's arbitrary content-type tag.
func (p *Announcement) GetContentType() uint32 {
	return binary.LittleEndian.Uint32(p.Header[16:20])
}

// SetVersion sets the announcement's protocol version byte.
func (p *Announcement) SetVersion(v byte) { p.Header[0] = v }

// SetSoftNonce overwrites the 3 byte soft-nonce field.
func (p *Announcement) SetSoftNonce(n uint32) {
	p.Header[1] = byte(n)
	p.Header[2] = byte(n >> 8)
	p.Header[3] = byte(n >> 16)
}

// SetHardNonce overwrites the 4 byte hard-nonce field.
func (p *Announcement) SetHardNonce(n uint32) {
	binary.LittleEndian.PutUint32(p.Header[4:8], n)
}

// SetWorkTarget overwrites the announcement's compact work target.
func (p *Announcement) SetWorkTarget(bits uint32) {
	binary.LittleEndian.PutUint32(p.Header[8:12], bits)
}

// SetParentBlockHeight overwrites the committed parent block height.
func (p *Announcement) SetParentBlockHeight(height uint32) {
	binary.LittleEndian.PutUint32(p.Header[12:16], height)
}

// SetContentType overwrites the announcement's content-type tag.
func (p *Announcement) SetContentType(t uint32) {
	binary.LittleEndian.PutUint32(p.Header[16:20], t)
}

// SetContentLength overwrites the announcement's content length.
func (p *Announcement) SetContentLength(l uint32) {
	binary.LittleEndian.PutUint32(p.Header[20:24], l)
}

// SetContentHash overwrites the announcement's content Merkle root.
func (p *Announcement) SetContentHash(h []byte) { copy(p.Header[24:56], h) }

// SetSigningKey overwrites the announcement's Ed25519 signing key.
func (p *Announcement) SetSigningKey(k []byte) { copy(p.Header[56:88], k) }

// SetMerkleProof overwrites the announcement's embedded Merkle branch.
func (p *Announcement) SetMerkleProof(b []byte) { copy(p.Header[AnnHeaderLen:], b) }

// SetItem4Prefix overwrites the announcement's trailing item-4 prefix.
func (p *Announcement) SetItem4Prefix(b []byte) {
	copy(p.Header[AnnHeaderLen+AnnMerkleProofLen:], b)
}

// Decode reads an announcement's fixed 1024 bytes from r.
func (p *Announcement) Decode(r io.Reader) error {
	_, err := io.ReadFull(r, p.Header[:])
	return err
}

// Encode writes the announcement's 1024 bytes to w.
func (p *Announcement) Encode(w io.Writer) error {
	_, err := w.Write(p.Header[:])
	return err
}
