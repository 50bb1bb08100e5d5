// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pktlabs/packetcrypt/announce"
	"github.com/pktlabs/packetcrypt/cryptocycle"
	"github.com/pktlabs/packetcrypt/difficulty"
	"github.com/pktlabs/packetcrypt/pclog"
	"github.com/pktlabs/packetcrypt/pcutil"
	"github.com/pktlabs/packetcrypt/pcwire"
	"github.com/pktlabs/packetcrypt/proof"
	"github.com/pktlabs/packetcrypt/randhash/util"
)

// ErrBadCoinbase is returned by CheckBlock when the coinbase commitment's
// magic or announcement-minimum-difficulty field fails basic sanity.
var ErrBadCoinbase = errors.New("block: bad coinbase commitment")

// ErrInsufficientWork is returned by CheckBlock when the share's
// CryptoCycle result fails to clear even shareTarget.
var ErrInsufficientWork = errors.New("block: insufficient proof of work")

// ErrAnnInsufficientWork is returned by CheckBlock when one of the four
// announcements' aged target is looser than the coinbase's committed
// minimum, i.e. the miner claimed a better announcement than it used.
var ErrAnnInsufficientWork = errors.New("block: announcement does not meet its committed minimum difficulty")

// ErrProofMismatch is returned by CheckBlock when the PacketCryptProof
// tree, recomputed over the four announcements and the proof bytes,
// does not hash to the coinbase's committed Merkle root.
var ErrProofMismatch = errors.New("block: proof hash does not match coinbase Merkle root")

func isWorkOk(ccState *cryptocycle.State, cb *pcwire.PcCoinbaseCommit, target uint32, packetCryptVersion int) bool {
	effectiveTarget := difficulty.GetEffectiveTarget(
		target, cb.AnnMinDifficulty(), cb.AnnCount(), packetCryptVersion)
	pclog.Block.Debugf("validating share work hash %x against effective target 0x%08x",
		ccState.Bytes[:32], effectiveTarget)
	return difficulty.IsOk(ccState.Bytes[:32], effectiveTarget)
}

// isPcHashOk replays the four-announcement CryptoCycle combination a
// block miner performs and reports whether the result clears the real
// block target (a full block) and/or the looser shareTarget a pool
// might accept as a share even though it isn't a full block.
func isPcHashOk(
	indexesOut *[4]uint64,
	hdr *pcwire.BlockHeader,
	hap *pcwire.HeaderAndProof,
	cb *pcwire.PcCoinbaseCommit,
	shareTarget uint32,
	packetCryptVersion int,
) (blockOk bool, shareOk bool) {
	var ccState cryptocycle.State

	hdrHash := hdr.Hash()
	cryptocycle.Init(&ccState, hdrHash[:], uint64(hap.Nonce2))
	for j := 0; j < 4; j++ {
		indexesOut[j] = cryptocycle.GetItemNo(&ccState)
		it := &hap.Announcements[j]
		if !cryptocycle.Update(&ccState, it.Header[:], nil, 0, nil) {
			return false, false
		}
	}
	cryptocycle.Smul(&ccState)
	cryptocycle.Final(&ccState)

	if isWorkOk(&ccState, cb, hdr.Bits(), packetCryptVersion) {
		return true, true
	}
	if shareTarget != 0 && isWorkOk(&ccState, cb, shareTarget, packetCryptVersion) {
		return false, true
	}
	pclog.Block.Debugf("share failed proof-of-work check, hash %x target %08x", ccState.Bytes[:32], shareTarget)
	return false, false
}

// CheckBlock validates a mined share's PacketCryptProof: that its four
// announcements are individually well-formed and descend from the
// correct parent blocks, that none of them is worth less than the
// coinbase's committed minimum difficulty, that the CryptoCycle
// combination of the four clears the announced work, and that the
// compact proof bytes hash (with the announcement headers folded in)
// to the coinbase's committed Merkle root.
//
// It returns (true, nil) if the share represents a full, valid block;
// (false, nil) if the share is merely a valid share against shareTarget
// but not a full block; and a non-nil error if the share is invalid
// for any reason, in which case the bool return is meaningless.
func CheckBlock(
	hap *pcwire.HeaderAndProof,
	blockHeight uint32,
	cb *pcwire.PcCoinbaseCommit,
	shareTarget uint32,
	annParentHashes [4][]byte,
	packetCryptVersion int,
) (bool, error) {
	if cb.Magic() != pcwire.CoinbaseCommitMagic || !difficulty.IsAnnMinDiffOk(cb.AnnMinDifficulty(), packetCryptVersion) {
		return false, ErrBadCoinbase
	}

	var annIndexes [4]uint64
	blockOk, shareOk := isPcHashOk(&annIndexes, &hap.BlockHeader, hap, cb, shareTarget, packetCryptVersion)
	if !shareOk {
		return false, ErrInsufficientWork
	}

	var annHashes [4][32]byte
	for i := 0; i < 4; i++ {
		ann := &hap.Announcements[i]
		if _, err := announce.CheckAnn(ann, annParentHashes[i]); err != nil {
			return false, err
		}
		var effectiveAnnTarget uint32
		if blockHeight < util.Conf_PacketCrypt_ANN_WAIT_PERIOD {
			effectiveAnnTarget = ann.GetWorkTarget()
		} else {
			age := blockHeight - ann.GetParentBlockHeight()
			effectiveAnnTarget = difficulty.GetAgedAnnTarget(ann.GetWorkTarget(), age, packetCryptVersion)
		}
		if effectiveAnnTarget > cb.AnnMinDifficulty() {
			return false, ErrAnnInsufficientWork
		}
		pcutil.HashCompress(annHashes[i][:], ann.Header[:])
	}

	root, err := proof.PcpHash(&annHashes, cb.AnnCount(), &annIndexes, &pcwire.PacketCryptProof{AnnProof: hap.Proof})
	if err != nil {
		return false, fmt.Errorf("block: invalid proof bytes: %w", err)
	}
	if !bytes.Equal(root[:], cb.MerkleRoot()) {
		return false, ErrProofMismatch
	}

	return blockOk, nil
}
