// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package announce

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pktlabs/packetcrypt/difficulty"
	"github.com/pktlabs/packetcrypt/pcwire"
)

// syncWriter lets a test goroutine poll a miner's output safely while its
// workers are still writing to it.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncWriter) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

func (s *syncWriter) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	return out
}

// mineOneAnnouncement runs a single-worker miner at an easy target
// (0x207fffff, about 2^255, so roughly half of all soft nonces clear it)
// and returns the first announcement it emits.
func mineOneAnnouncement(t *testing.T, version int, req *Request) pcwire.Announcement {
	t.Helper()
	out := &syncWriter{}
	m := NewMiner(version, 1, 0, out)
	defer m.Close()

	m.Start(req)
	deadline := time.After(2 * time.Minute)
	for out.Len() < pcwire.AnnSerializeSize {
		select {
		case <-deadline:
			t.Fatal("miner produced no announcement within the deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}
	m.Stop()

	var ann pcwire.Announcement
	require.NoError(t, ann.Decode(bytes.NewReader(out.Bytes()[:pcwire.AnnSerializeSize])))
	return ann
}

// A version-0 announcement mined at an easy target must pass CheckAnn
// against the same parent hash, and its soft nonce must stay within the
// limit the target allows.
func TestMinerV0ProducesValidatableAnnouncement(t *testing.T) {
	var parentHash [32]byte
	for i := range parentHash {
		parentHash[i] = 0x11
	}
	req := &Request{
		ParentBlockHash:   parentHash,
		ParentBlockHeight: 1,
		WorkTarget:        0x207fffff,
	}

	ann := mineOneAnnouncement(t, 0, req)
	require.Equal(t, uint(0), ann.GetVersion())

	hash, err := CheckAnn(&ann, parentHash[:])
	require.NoError(t, err)
	require.NotNil(t, hash)

	var softNonceBuf [4]byte
	copy(softNonceBuf[:3], ann.GetSoftNonce())
	softNonce := uint32(softNonceBuf[0]) | uint32(softNonceBuf[1])<<8 | uint32(softNonceBuf[2])<<16
	require.LessOrEqual(t, softNonce, difficulty.Pc2AnnSoftNonceMax(req.WorkTarget))
}

// A version>=1 announcement's item-4 prefix (the XOR-opaque tail) must
// decrypt to all zero once CheckAnn has recomputed the final CryptoCycle
// state, so a freshly-mined one has to validate end to end.
func TestMinerV1ProducesValidatableAnnouncement(t *testing.T) {
	var parentHash [32]byte
	for i := range parentHash {
		parentHash[i] = 0x22
	}
	req := &Request{
		ParentBlockHash:   parentHash,
		ParentBlockHeight: 1,
		WorkTarget:        0x207fffff,
	}

	ann := mineOneAnnouncement(t, 1, req)
	require.Equal(t, uint(1), ann.GetVersion())

	hash, err := CheckAnn(&ann, parentHash[:])
	require.NoError(t, err)
	require.NotNil(t, hash)
}

// Mutating a mined announcement's proof region must make CheckAnn reject it.
func TestMinerRejectsTamperedAnnouncement(t *testing.T) {
	var parentHash [32]byte
	for i := range parentHash {
		parentHash[i] = 0x33
	}
	req := &Request{
		ParentBlockHash:   parentHash,
		ParentBlockHeight: 1,
		WorkTarget:        0x207fffff,
	}

	ann := mineOneAnnouncement(t, 0, req)
	ann.GetMerkleProof()[0] ^= 0xff

	_, err := CheckAnn(&ann, parentHash[:])
	require.Error(t, err)
}
