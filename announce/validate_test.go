// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package announce

import (
	"errors"
	"testing"

	"github.com/pktlabs/packetcrypt/difficulty"
	"github.com/pktlabs/packetcrypt/pcwire"
)

// A version>=1 announcement whose soft nonce exceeds the ceiling its work
// target allows must be rejected before any hashing work is spent
// validating it.
func TestCheckAnnRejectsExcessiveSoftNonce(t *testing.T) {
	target := uint32(0x207fffff) // an easy target, which has a small soft-nonce ceiling
	softMax := difficulty.Pc2AnnSoftNonceMax(target)

	var ann pcwire.Announcement
	ann.SetVersion(1)
	ann.SetWorkTarget(target)
	ann.SetSoftNonce(softMax + 1)

	var parentHash [32]byte
	_, err := CheckAnn(&ann, parentHash[:])
	if !errors.Is(err, ErrSoftNonceHigh) {
		t.Fatalf("CheckAnn() = %v, want ErrSoftNonceHigh", err)
	}
}

// Validating against a different parent block hash than the one the
// announcement actually committed to must fail.
func TestCheckAnnRejectsWrongParentHash(t *testing.T) {
	var parentHash [32]byte
	for i := range parentHash {
		parentHash[i] = 0x44
	}
	req := &Request{
		ParentBlockHash:   parentHash,
		ParentBlockHeight: 1,
		WorkTarget:        0x207fffff,
	}
	ann := mineOneAnnouncement(t, 0, req)

	var wrongHash [32]byte
	for i := range wrongHash {
		wrongHash[i] = 0x55
	}
	if _, err := CheckAnn(&ann, wrongHash[:]); err == nil {
		t.Fatal("CheckAnn() accepted an announcement against the wrong parent hash")
	}
}
