// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package packetcrypt is the top-level façade over the PacketCrypt
// bandwidth-hard proof-of-work engine: announcement validation,
// full-block validation (folding in Ed25519 content-commitment
// signatures and content Merkle proofs on top of the core proof-tree
// math in package block), and coinbase-commitment extraction/insertion
// for locating a block's PacketCryptProof commitment.
package packetcrypt

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/ed25519"

	"github.com/pktlabs/packetcrypt/announce"
	"github.com/pktlabs/packetcrypt/block"
	"github.com/pktlabs/packetcrypt/contentmerkle"
	"github.com/pktlabs/packetcrypt/pcwire"
)

// ValidatePcAnn checks a single announcement's proof of work and
// internal consistency against its claimed parent block hash.
func ValidatePcAnn(ann *pcwire.Announcement, parentBlockHash []byte) (*[32]byte, error) {
	return announce.CheckAnn(ann, parentBlockHash)
}

// ErrWrongParentHashCount is returned by ValidatePcBlock when the
// caller did not supply exactly four parent block hashes, one per
// embedded announcement.
var ErrWrongParentHashCount = errors.New("packetcrypt: expected exactly 4 announcement parent hashes")

// ErrMissingSignature is returned by ValidatePcBlock when an
// announcement carries a signing key but the proof supplies no
// signature for it.
var ErrMissingSignature = errors.New("packetcrypt: missing announcement signature")

// ErrInvalidSignature is returned by ValidatePcBlock when an
// announcement's Ed25519 signature fails to verify against its header.
var ErrInvalidSignature = errors.New("packetcrypt: invalid announcement signature")

// ErrMissingContentProof is returned by ValidatePcBlock when an
// announcement commits to external content longer than 32 bytes but
// the proof supplies no content Merkle proof for it.
var ErrMissingContentProof = errors.New("packetcrypt: missing announcement content proof")

// ErrUnexpectedContentProof is returned by ValidatePcBlock when a proof
// at protocol version 2 or later still carries a content proof; that
// field is only meaningful for version 0/1 proofs.
var ErrUnexpectedContentProof = errors.New("packetcrypt: content proof present on a version >= 2 proof")

// ErrMissingCommitment is returned by ValidatePcBlock when the coinbase
// transaction carries no PacketCrypt commitment output at all.
var ErrMissingCommitment = errors.New("packetcrypt: missing coinbase commitment")

func checkSignatures(pcp *pcwire.PacketCryptProof) error {
	for i := range pcp.Announcements {
		ann := &pcp.Announcements[i]
		if !ann.HasSigningKey() {
			continue
		}
		if pcp.Signatures[i] == nil {
			return fmt.Errorf("%w for key %s", ErrMissingSignature, hex.EncodeToString(ann.GetSigningKey()))
		}
		if !ed25519.Verify(ann.GetSigningKey(), ann.Header[:], pcp.Signatures[i]) {
			return ErrInvalidSignature
		}
	}
	return nil
}

func checkContentProofs(pcp *pcwire.PacketCryptProof, packetCryptVersion int) error {
	if packetCryptVersion >= 2 {
		if pcp.ContentProof != nil {
			return fmt.Errorf("%w (version %d)", ErrUnexpectedContentProof, packetCryptVersion)
		}
		return nil
	}
	proofIdx := pcp.ContentProofIndex()
	contentProofs, err := pcp.SplitContentProof(proofIdx)
	if err != nil {
		return err
	}
	for i := range pcp.Announcements {
		ann := &pcp.Announcements[i]
		if ann.GetContentLength() <= 32 {
			continue
		}
		if contentProofs[i] == nil {
			return ErrMissingContentProof
		}
		if err := contentmerkle.VerifyProof(ann.GetContentHash(), ann.GetContentLength(), proofIdx, contentProofs[i]); err != nil {
			return err
		}
	}
	return nil
}

// bareHeaderAndProof strips pcp down to the fields block.CheckBlock
// needs: it doesn't care about signatures or content proofs, only the
// compact proof-tree bytes and the announcements they bind.
func bareHeaderAndProof(header *pcwire.BlockHeader, pcp *pcwire.PacketCryptProof) pcwire.HeaderAndProof {
	return pcwire.HeaderAndProof{
		BlockHeader:   *header,
		Nonce2:        pcp.Nonce,
		Announcements: pcp.Announcements,
		Proof:         pcp.AnnProof,
	}
}

// ValidatePcBlock validates a full block's PacketCryptProof: the four
// announcements' content-commitment signatures (when a signing key is
// present), their content Merkle proofs (proof versions below 2),
// the coinbase-embedded commitment, and the core proof-tree and
// proof-of-work math via block.CheckBlock.
//
// It returns (true, nil) if the block represents a full valid block,
// (false, nil) if it's merely a valid share against shareTarget, and a
// non-nil error otherwise.
func ValidatePcBlock(
	header *pcwire.BlockHeader,
	pcp *pcwire.PacketCryptProof,
	height uint32,
	shareTarget uint32,
	annParentHashes [4][]byte,
	coinbasePkScript []byte,
	packetCryptVersion int,
) (bool, error) {
	if err := checkSignatures(pcp); err != nil {
		return false, err
	}
	if err := checkContentProofs(pcp, packetCryptVersion); err != nil {
		return false, err
	}

	cbc, err := ExtractCoinbaseCommit(coinbasePkScript)
	if err != nil {
		return false, err
	}

	hap := bareHeaderAndProof(header, pcp)
	return block.CheckBlock(&hap, height, cbc, shareTarget, annParentHashes, packetCryptVersion)
}

// pcCoinbasePrefix precedes a PacketCrypt commitment inside a coinbase
// transaction's OP_RETURN output script: OP_RETURN, a 0x30-byte push,
// then the 4-byte commitment magic.
var pcCoinbasePrefix = [6]byte{0x6a, 0x30, 0x09, 0xf9, 0x11, 0x02}

// ExtractCoinbaseCommit checks each of a coinbase transaction's output
// scripts for the PacketCrypt commitment prefix at its start and returns
// the 48-byte commitment that follows the 2-byte OP_RETURN push header
// (so it begins with the 4-byte magic).
func ExtractCoinbaseCommit(pkScripts ...[]byte) (*pcwire.PcCoinbaseCommit, error) {
	for _, script := range pkScripts {
		if len(script) >= 2+48 && bytes.Equal(script[:6], pcCoinbasePrefix[:]) {
			out := &pcwire.PcCoinbaseCommit{}
			copy(out.Bytes[:], script[2:2+48])
			return out, nil
		}
	}
	return nil, ErrMissingCommitment
}

// InsertCoinbaseCommit builds the OP_RETURN script a coinbase
// transaction output should carry to commit to cbc.
func InsertCoinbaseCommit(cbc *pcwire.PcCoinbaseCommit) []byte {
	buf := make([]byte, 2+len(cbc.Bytes))
	buf[0] = 0x6a
	buf[1] = 0x30
	copy(buf[2:], cbc.Bytes[:])
	return buf
}
