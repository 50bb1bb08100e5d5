// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package packetcrypt

import (
	"bytes"
	"testing"

	"github.com/pktlabs/packetcrypt/pcwire"
)

func TestInsertExtractCoinbaseCommitRoundTrip(t *testing.T) {
	cbc := pcwire.NewPcCoinbaseCommit()
	cbc.SetAnnMinDifficulty(0x1d00ffff)
	var root [32]byte
	for i := range root {
		root[i] = byte(i)
	}
	cbc.SetMerkleRoot(root[:])
	cbc.SetAnnCount(1234)

	script := InsertCoinbaseCommit(cbc)

	got, err := ExtractCoinbaseCommit([]byte("unrelated output script"), script)
	if err != nil {
		t.Fatalf("ExtractCoinbaseCommit() = %v, want nil error", err)
	}
	if !bytes.Equal(got.Bytes[:], cbc.Bytes[:]) {
		t.Fatalf("ExtractCoinbaseCommit() = %x, want %x", got.Bytes[:], cbc.Bytes[:])
	}
}

func TestExtractCoinbaseCommitMissing(t *testing.T) {
	_, err := ExtractCoinbaseCommit([]byte("no commitment here"), []byte{0x6a, 0x00})
	if err != ErrMissingCommitment {
		t.Fatalf("ExtractCoinbaseCommit() = %v, want ErrMissingCommitment", err)
	}
}
