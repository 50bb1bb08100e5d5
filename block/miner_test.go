// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pktlabs/packetcrypt/difficulty"
	"github.com/pktlabs/packetcrypt/pcwire"
)

func annWithTarget(target uint32) pcwire.Announcement {
	var ann pcwire.Announcement
	ann.SetWorkTarget(target)
	ann.SetParentBlockHeight(0)
	return ann
}

func TestLockForMiningNoAnns(t *testing.T) {
	m := NewMiner(16, 0, 0, 0, io.Discard)
	defer m.Close()
	_, err := m.LockForMining(0, 0x1d00ffff)
	require.ErrorIs(t, err, ErrNoAnns)
}

func TestLockForMiningOrdersByEffectiveWork(t *testing.T) {
	m := NewMiner(16, 0, 0, 0, io.Discard)
	defer m.Close()

	// Same exponent byte (0x1d), decreasing mantissa: each successive
	// target is strictly more work than the last.
	anns := []pcwire.Announcement{
		annWithTarget(0x1d00ffff),
		annWithTarget(0x1d007fff),
		annWithTarget(0x1d003fff),
	}
	require.NoError(t, m.AddAnns(anns))

	cb, err := m.LockForMining(0, 0x1d00ffff)
	require.NoError(t, err)
	require.NotNil(t, cb)
	require.Equal(t, uint32(pcwire.CoinbaseCommitMagic), cb.Magic())
	require.Equal(t, uint64(3), cb.AnnCount())

	// The worst (easiest) target among the admitted set becomes the
	// coinbase's committed minimum difficulty.
	require.Equal(t, uint32(0x1d00ffff), cb.AnnMinDifficulty())
}

func TestLockForMiningCapsAtMaxAnns(t *testing.T) {
	m := NewMiner(2, 0, 0, 0, io.Discard)
	defer m.Close()

	anns := []pcwire.Announcement{
		annWithTarget(0x1d00ffff),
		annWithTarget(0x1d007fff),
		annWithTarget(0x1d003fff),
		annWithTarget(0x1d001fff),
	}
	require.NoError(t, m.AddAnns(anns))

	cb, err := m.LockForMining(0, 0x1d00ffff)
	require.NoError(t, err)
	require.LessOrEqual(t, cb.AnnCount(), uint64(2))
}

func TestAddAnnsNeutralizesExcessiveSoftNonce(t *testing.T) {
	m := NewMiner(16, 0, 0, 0, io.Discard)
	defer m.Close()

	target := uint32(0x207fffff) // an easy target, which has a small soft-nonce ceiling
	softMax := difficulty.Pc2AnnSoftNonceMax(target)

	var bad pcwire.Announcement
	bad.SetWorkTarget(target)
	bad.SetParentBlockHeight(0)
	bad.SetSoftNonce(softMax + 1)

	good := annWithTarget(0x1d00ffff)

	require.NoError(t, m.AddAnns([]pcwire.Announcement{bad, good}))

	cb, err := m.LockForMining(0, 0x1d00ffff)
	require.NoError(t, err)
	// Only the good announcement should have survived the trim of
	// trailing (neutralized) entries.
	require.Equal(t, uint64(1), cb.AnnCount())
}

func TestAddAnnsRejectedWhileLocked(t *testing.T) {
	m := NewMiner(16, 0, 0, 0, io.Discard)
	defer m.Close()
	require.NoError(t, m.AddAnns([]pcwire.Announcement{annWithTarget(0x1d00ffff)}))
	_, err := m.LockForMining(0, 0x1d00ffff)
	require.NoError(t, err)

	err = m.AddAnns([]pcwire.Announcement{annWithTarget(0x1d007fff)})
	require.ErrorIs(t, err, ErrLocked)
}
