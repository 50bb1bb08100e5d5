// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package announce builds and validates PacketCrypt announcements: the
// memory-hard item table an announcement miner searches, the fixed-depth
// Merkle proof binding a chosen item to the announcement header, and the
// version-gated CheckAnn validator a full node runs against anything
// claiming to be a valid announcement.
package announce

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pktlabs/packetcrypt/cryptocycle"
	"github.com/pktlabs/packetcrypt/difficulty"
	"github.com/pktlabs/packetcrypt/merkle"
	"github.com/pktlabs/packetcrypt/pcutil"
	"github.com/pktlabs/packetcrypt/pcwire"
	"github.com/pktlabs/packetcrypt/randhash/interpret"
	"github.com/pktlabs/packetcrypt/randhash/randgen"
	"github.com/pktlabs/packetcrypt/randhash/util"
)

var ErrInvalidUpdate = errors.New("announce: cryptocycle update rejected the generated program")
var ErrInvalidItem4 = errors.New("announce: item-4 prefix does not match the announcement")
var ErrInvalidMerkle = errors.New("announce: merkle branch does not validate against the header")
var ErrSoftNonceHigh = errors.New("announce: soft nonce exceeds the limit this difficulty allows")

func memocycle(item *[1024]byte, cycles int) {
	const bufcount = 1024 / 64
	var tmpbuf [128]byte
	for cycle := 0; cycle < cycles; cycle++ {
		for i := 0; i < bufcount; i++ {
			p := (i - 1 + bufcount) % bufcount
			q := int(binary.LittleEndian.Uint32(item[64*p:][:4]) % uint32(bufcount-1))
			j := (i + q) % bufcount
			copy(tmpbuf[:64], item[64*p:][:64])
			copy(tmpbuf[64:], item[64*j:][:64])
			pcutil.HashCompress64(item[i*64:][:64], tmpbuf[:])
		}
	}
}

// MkItem builds a version-0 table item: an expanded 64-byte block followed
// by 15 chained compressions (16 blocks in all), then aged by repeated
// memocycle passes so every
// item depends on every other item generated from the same seed.
func MkItem(itemNo int, item *[1024]byte, seed []byte) {
	pcutil.HashExpand(item[:64], seed, uint32(itemNo))
	for i := 1; i < 1024/64; i++ {
		pcutil.HashCompress64(item[64*i:][:64], item[64*(i-1):][:64])
	}
	memocycle(item, util.Conf_AnnHash_MEMOHASH_CYCLES)
}

// Prog is a RandProg generated once per announcement (version >= 1) and
// then interpreted fresh against every one of the announcement's 4 items.
type Prog struct {
	insns []uint32
}

// CreateProg generates the shared RandProg version-1+ announcements use
// to build every table item, from the announcement's own per-check seed.
func CreateProg(seed []byte) (*Prog, error) {
	insns, err := randgen.Generate(seed)
	if err != nil {
		return nil, err
	}
	return &Prog{insns: insns}, nil
}

// MkItem2 builds a version>=1 table item: seed initializes a throwaway
// CryptoCycle state and a 1024 byte scratch memory region, prog (shared
// across all 4 items of this check) runs twice against them, and one
// CryptoCycle pass over the resulting state produces the item bytes.
func MkItem2(itemNo int, item *[1024]byte, seed []byte, prog *Prog, progBuf *cryptocycle.Context) error {
	var state cryptocycle.State
	cryptocycle.Init(&state, seed, uint64(itemNo))
	var memory [1024]byte
	pcutil.HashExpand(memory[:], seed, uint32(itemNo)+1)
	if err := interpret.Interpret(prog.insns, state.Bytes[:], memory[:], 2); err != nil {
		return err
	}
	state.MakeFuzzable()
	cryptocycle.CryptoCycle(&state)
	if state.IsFailed() {
		return ErrInvalidUpdate
	}
	copy(item[:], state.Bytes[:1024])
	return nil
}

// Context holds the scratch space a single CheckAnn call needs, so repeat
// callers (a block validator checking 4 announcements) can reuse it.
type Context struct {
	ann       pcwire.Announcement
	itemBytes [1024]byte
	annHash0  [64]byte
	annHash1  [64]byte
	ccState   cryptocycle.State
	progBuf   cryptocycle.Context
	item4Hash [64]byte
}

// CheckAnn validates pcAnn against the parent block hash it committed to,
// returning the announcement's work hash. The announcement's own version
// byte selects the item-construction path; the difficulty/aging rules a
// block applies on top of this live in package difficulty.
func CheckAnn(pcAnn *pcwire.Announcement, parentBlockHash []byte) (*[32]byte, error) {
	ctx := new(Context)
	copy(ctx.ann.GetAnnounceHeader(), pcAnn.GetAnnounceHeader())
	copy(ctx.ann.GetMerkleProof()[:32], parentBlockHash)
	pcutil.Zero(ctx.ann.GetSoftNonce())
	pcutil.HashCompress64(ctx.annHash0[:], ctx.ann.Header[:pcwire.AnnHeaderLen+64])

	copy(ctx.ann.GetMerkleProof(), pcAnn.GetMerkleProof()[merkle.Depth*64:])
	pcutil.HashCompress64(ctx.annHash1[:], ctx.ann.Header[:pcwire.AnnHeaderLen+64])

	var softNonceBuf [4]byte
	copy(softNonceBuf[:], pcAnn.GetSoftNonce())
	softNonce := binary.LittleEndian.Uint32(softNonceBuf[:])

	version := pcAnn.GetVersion()
	randHashCycles := util.Conf_AnnHash_RANDHASH_CYCLES
	var prog *Prog
	var v1SeedHash [64]byte
	if version > 0 {
		randHashCycles = 0
		if pcAnn.GetWorkTarget()&0x007fffff == 0 {
			// zero mantissa has no defined soft-nonce limit
			return nil, ErrSoftNonceHigh
		}
		softNonceMax := difficulty.Pc2AnnSoftNonceMax(pcAnn.GetWorkTarget())
		if softNonce > softNonceMax {
			return nil, ErrSoftNonceHigh
		}
		var v1Seed [128]byte
		copy(v1Seed[:64], pcAnn.GetMerkleProof()[merkle.Depth*64:])
		copy(v1Seed[64:], ctx.annHash0[:])
		pcutil.HashCompress64(v1SeedHash[:], v1Seed[:])
		var err error
		prog, err = CreateProg(v1SeedHash[:32])
		if err != nil {
			return nil, fmt.Errorf("announce: CheckAnn CreateProg: %w", err)
		}
	}

	cryptocycle.Init(&ctx.ccState, ctx.annHash1[:32], uint64(softNonce))
	itemNo := -1
	for i := 0; i < 4; i++ {
		itemNo = int(cryptocycle.GetItemNo(&ctx.ccState) % merkle.LeafCount)
		if version > 0 {
			if err := MkItem2(itemNo, &ctx.itemBytes, v1SeedHash[32:], prog, &ctx.progBuf); err != nil {
				return nil, ErrInvalidUpdate
			}
		} else {
			MkItem(itemNo, &ctx.itemBytes, ctx.annHash0[:32])
		}
		if !cryptocycle.Update(&ctx.ccState, ctx.itemBytes[:], nil, randHashCycles, &ctx.progBuf) {
			return nil, ErrInvalidUpdate
		}
	}

	cryptocycle.Final(&ctx.ccState)

	if version > 0 {
		copy(ctx.ann.Header[:], pcAnn.Header[:])
		annCrypt(&ctx.ann, &ctx.ccState)
		pcAnn = &ctx.ann
		if !pcutil.IsZero(pcAnn.GetItem4Prefix()) {
			return nil, ErrInvalidItem4
		}
		// The proven item must be recomputed with the announcement's own
		// (not the table-sweep) seed, since the merkle tree commits to the
		// value the miner originally built from annHash0.
		prog2, err := CreateProg(ctx.annHash0[:32])
		if err != nil {
			return nil, fmt.Errorf("announce: CheckAnn CreateProg: %w", err)
		}
		if err := MkItem2(itemNo, &ctx.itemBytes, ctx.annHash0[32:], prog2, &ctx.progBuf); err != nil {
			return nil, ErrInvalidUpdate
		}
	} else if !bytesEqual(ctx.itemBytes[:pcwire.AnnItem4PrefixLen], pcAnn.GetItem4Prefix()) {
		return nil, ErrInvalidItem4
	}

	pcutil.HashCompress64(ctx.item4Hash[:], ctx.itemBytes[:])
	if !merkle.IsItemValid(pcAnn.GetMerkleProof(), ctx.item4Hash[:], itemNo) {
		return nil, ErrInvalidMerkle
	}

	target := pcAnn.GetWorkTarget()

	var h [32]byte
	copy(h[:], ctx.ccState.Bytes[:32])
	if !difficulty.IsOk(ctx.ccState.Bytes[:32], target) {
		return &h, fmt.Errorf("announce: insufficient proof of work: need target [%08x] but work hash is [%x]",
			target, h)
	}
	return &h, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// annCrypt XORs ann's merkle proof (all but the trailing 64 byte root
// carrier, which must stay readable) and item-4 prefix with the finalized
// state's bytes. XOR is self-inverting, so the same transform both seals a
// freshly-mined version>=1 announcement and opens one for validation.
func annCrypt(ann *pcwire.Announcement, ccState *cryptocycle.State) {
	proof := ann.GetMerkleProof()
	pfx := ann.GetItem4Prefix()
	stateBytes := ccState.Bytes[:]
	j := 0
	for i := 0; i < len(proof)/8-8; i++ {
		a := binary.LittleEndian.Uint64(proof[i*8:])
		b := binary.LittleEndian.Uint64(stateBytes[j*8:])
		binary.LittleEndian.PutUint64(proof[i*8:], a^b)
		j++
	}
	for i := 0; i < len(pfx)/8; i++ {
		a := binary.LittleEndian.Uint64(pfx[i*8:])
		b := binary.LittleEndian.Uint64(stateBytes[j*8:])
		binary.LittleEndian.PutUint64(pfx[i*8:], a^b)
		j++
	}
}
