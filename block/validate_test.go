// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pktlabs/packetcrypt/pcwire"
)

func freshCoinbase(t *testing.T, annMinDifficulty uint32, annCount uint64) *pcwire.PcCoinbaseCommit {
	t.Helper()
	cb := pcwire.NewPcCoinbaseCommit()
	cb.SetAnnMinDifficulty(annMinDifficulty)
	cb.SetAnnCount(annCount)
	cb.SetMerkleRoot(make([]byte, 32))
	return cb
}

func TestCheckBlockBadCoinbaseMagic(t *testing.T) {
	var cb pcwire.PcCoinbaseCommit // zero value: wrong magic
	var hap pcwire.HeaderAndProof
	var parents [4][]byte

	_, err := CheckBlock(&hap, 100, &cb, 0, parents, 0)
	require.ErrorIs(t, err, ErrBadCoinbase)
}

func TestCheckBlockBadAnnMinDifficulty(t *testing.T) {
	cb := freshCoinbase(t, 0, 1) // zero target is never valid
	var hap pcwire.HeaderAndProof
	var parents [4][]byte

	_, err := CheckBlock(&hap, 100, cb, 0, parents, 0)
	require.ErrorIs(t, err, ErrBadCoinbase)
}

func TestCheckBlockInsufficientWork(t *testing.T) {
	cb := freshCoinbase(t, 0x1d00ffff, 1)
	var hap pcwire.HeaderAndProof
	hap.BlockHeader.SetBits(0x1b0404cb) // a hard, mainnet-style target
	var parents [4][]byte

	// shareTarget of 0 means only a genuine full block would satisfy
	// shareOk; an arbitrary zeroed header/nonce combination will not.
	_, err := CheckBlock(&hap, 100, cb, 0, parents, 0)
	require.ErrorIs(t, err, ErrInsufficientWork)
}
