// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package block implements the block-mining half of PacketCrypt: a
// worker pool that searches block-header nonces combining four
// previously-mined announcements into a single proof of work, the
// admission/eviction bookkeeping that decides which announcements are
// worth mining with, and the stateless CheckBlock validator every full
// node runs against a claimed share.
package block

import (
	"bytes"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/pktlabs/packetcrypt/cryptocycle"
	"github.com/pktlabs/packetcrypt/difficulty"
	"github.com/pktlabs/packetcrypt/pclog"
	"github.com/pktlabs/packetcrypt/pcutil"
	"github.com/pktlabs/packetcrypt/pcwire"
	"github.com/pktlabs/packetcrypt/proof"
	"github.com/pktlabs/packetcrypt/randhash/util"
)

// ErrLocked is returned by AddAnns when the miner is locked for mining
// (between LockForMining and Start/Stop): announcements are never
// admitted mid-lock because the tree they'd need to join is frozen.
var ErrLocked = errors.New("block: miner is locked, cannot add announcements")

// ErrNotLocked is returned by Start when the miner has not first been
// locked with LockForMining.
var ErrNotLocked = errors.New("block: miner is not locked")

// ErrAlreadyMining is returned by Start when mining is already underway.
var ErrAlreadyMining = errors.New("block: miner is already mining")

// ErrNoAnns is returned by LockForMining when, after aging and subset
// selection, no announcement survives to build a tree from.
var ErrNoAnns = errors.New("block: no announcements available to lock for mining")

// hashesPerCycle mirrors the original block miner's batching: a worker
// checks its requested state and refreshes the header timestamp only
// once per this many nonce attempts.
const hashesPerCycle = 2000

type minerState int

const (
	stateUnlocked minerState = iota
	stateLocked
	stateMining
)

type threadState int

const (
	threadStopped threadState = iota
	threadRunning
	threadShutdown
)

// pooledAnn is one announcement the miner is holding onto, along with
// the effective-work bookkeeping needed to age it and rank it against
// every other pooled announcement.
type pooledAnn struct {
	ann           pcwire.Announcement
	initialWork   uint32
	parentBlock   uint32
	effectiveWork uint32
}

// Miner searches for block-header shares: nonces whose CryptoCycle
// result, built from four announcements drawn from its admitted pool,
// clears an effective target that scales with announcement count and
// difficulty. It owns a worker pool, an admission queue of incoming
// announcements, and the PacketCryptProof tree built over whichever
// subset of its pool survives aging and capacity pressure.
type Miner struct {
	lock sync.Mutex
	cond *sync.Cond

	maxAnns            int
	numWorker          int
	minerID            uint32
	packetCryptVersion int
	beDeterministic    bool
	paranoia           bool
	out                io.Writer
	outLock            sync.Mutex

	state minerState

	pool  []pooledAnn // admitted, already aged for currentHeight
	queue []pooledAnn // staged by AddAnns, not yet folded into pool

	currentHeight uint32

	// anns, tree and coinbase are populated by LockForMining and consumed
	// read-only by workers while state == stateMining.
	anns     []pcwire.Announcement
	tree     *proof.FullTree
	coinbase pcwire.PcCoinbaseCommit

	effectiveTarget uint32
	header          pcwire.BlockHeader

	reqStates  []threadState
	curStates  []threadState
	hashCounts []int64
	wg         sync.WaitGroup
}

// NewMiner builds a Miner holding up to maxAnns announcements and
// searching for shares with numWorker worker goroutines, writing found
// shares to out.
func NewMiner(maxAnns, numWorker int, minerID uint32, packetCryptVersion int, out io.Writer) *Miner {
	m := &Miner{
		maxAnns:            maxAnns,
		numWorker:          numWorker,
		minerID:            minerID,
		packetCryptVersion: packetCryptVersion,
		beDeterministic:    false,
		out:                out,
		reqStates:          make([]threadState, numWorker),
		curStates:          make([]threadState, numWorker),
		hashCounts:         make([]int64, numWorker),
	}
	m.cond = sync.NewCond(&m.lock)
	for i := 0; i < numWorker; i++ {
		m.wg.Add(1)
		go m.workerLoop(i)
	}
	return m
}

// SetDeterministic disables the wall-clock timestamp refresh in the
// worker loop, so tests can mine against a fixed header deterministically.
func (m *Miner) SetDeterministic(v bool) {
	m.lock.Lock()
	m.beDeterministic = v
	m.lock.Unlock()
}

// SetParanoia toggles self-validation of every mined share before it's
// written out: the share's proof hash is recomputed and compared with the
// committed announcement Merkle root. It never changes the bytes produced.
func (m *Miner) SetParanoia(v bool) {
	m.lock.Lock()
	m.paranoia = v
	m.lock.Unlock()
}

func ageEffectiveWork(a *pooledAnn, height uint32, packetCryptVersion int) {
	if height < util.Conf_PacketCrypt_ANN_WAIT_PERIOD {
		a.effectiveWork = a.initialWork
		return
	}
	a.effectiveWork = difficulty.GetAgedAnnTarget(a.initialWork, height-a.parentBlock, packetCryptVersion)
}

// AddAnns stages anns for inclusion starting at the next LockForMining
// call. Any announcement whose soft nonce exceeds the limit its
// difficulty allows is neutralized (its work target is set to the
// maximum, so it never survives a sort) rather than rejected outright,
// matching the source behavior of silently discarding bad entries
// instead of failing the whole batch.
func (m *Miner) AddAnns(anns []pcwire.Announcement) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.state == stateLocked {
		return ErrLocked
	}
	for _, ann := range anns {
		p := pooledAnn{
			ann:         ann,
			initialWork: ann.GetWorkTarget(),
			parentBlock: ann.GetParentBlockHeight(),
		}
		var softNonceBuf [4]byte
		copy(softNonceBuf[:3], ann.GetSoftNonce())
		softNonce := uint32(softNonceBuf[0]) | uint32(softNonceBuf[1])<<8 | uint32(softNonceBuf[2])<<16
		if p.initialWork&0x007fffff == 0 || softNonce > difficulty.Pc2AnnSoftNonceMax(p.initialWork) {
			p.initialWork = 0xffffffff
			p.ann.SetWorkTarget(0xffffffff)
		}
		if m.state == stateMining {
			ageEffectiveWork(&p, m.currentHeight, m.packetCryptVersion)
		}
		m.queue = append(m.queue, p)
	}
	return nil
}

// annHash computes the BLAKE2b-256 compress hash of an ann's header,
// the value the PacketCryptProof tree sorts and folds over.
func annHash(ann *pcwire.Announcement) [32]byte {
	var h [32]byte
	pcutil.HashCompress(h[:], ann.Header[:])
	return h
}

// LockForMining folds any staged announcements into the pool, ages the
// whole pool to height, selects the subset whose worst member maximizes
// the hash-rate multiplier, rebuilds the PacketCryptProof tree over that
// subset and returns the resulting commitment. It returns ErrNoAnns
// (with the miner left unlocked) if nothing survives.
func (m *Miner) LockForMining(height uint32, blockTarget uint32) (*pcwire.PcCoinbaseCommit, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.state == stateMining {
		m.stopLocked()
	}

	m.currentHeight = height
	m.pool = append(m.pool, m.queue...)
	m.queue = nil
	for i := range m.pool {
		ageEffectiveWork(&m.pool[i], height, m.packetCryptVersion)
	}

	sort.SliceStable(m.pool, func(a, b int) bool {
		return m.pool[a].effectiveWork < m.pool[b].effectiveWork
	})
	for len(m.pool) > 0 && m.pool[len(m.pool)-1].effectiveWork == 0xffffffff {
		m.pool = m.pool[:len(m.pool)-1]
	}
	if len(m.pool) > m.maxAnns {
		m.pool = m.pool[:m.maxAnns]
	}

	// Find the subset size which maximizes the hash-rate multiplier: the
	// pool is sorted best-work-first, so the subset [0:k] is always the
	// best k entries, and its worst member (index k-1) sets the
	// multiplier for the whole subset.
	bestK := 0
	var bestHrm uint64
	for k := 1; k <= len(m.pool); k++ {
		hrm := difficulty.GetHashRateMultiplier(m.pool[k-1].effectiveWork, uint64(k))
		if hrm <= bestHrm && k > 1 {
			continue
		}
		bestHrm = hrm
		bestK = k
	}
	m.pool = m.pool[:bestK]

	if len(m.pool) == 0 {
		m.state = stateUnlocked
		return nil, ErrNoAnns
	}

	worstEffectiveWork := m.pool[len(m.pool)-1].effectiveWork

	hashes := make([][32]byte, len(m.pool))
	for i := range m.pool {
		hashes[i] = annHash(&m.pool[i].ann)
	}
	tree := proof.BuildFullTree(hashes)
	if tree.AnnCount == 0 {
		m.state = stateUnlocked
		return nil, ErrNoAnns
	}

	// Reorder the pool (and the parallel announcement slice workers will
	// index into) to match the tree's leaf order, dropping anything the
	// tree's dedup/filter rules discarded.
	newPool := make([]pooledAnn, tree.AnnCount)
	newAnns := make([]pcwire.Announcement, tree.AnnCount)
	for i := range newPool {
		orig := tree.OrigIndex(uint64(i + 1))
		newPool[i] = m.pool[orig]
		newAnns[i] = m.pool[orig].ann
	}
	m.pool = newPool
	m.anns = newAnns
	m.tree = tree

	m.coinbase = *pcwire.NewPcCoinbaseCommit()
	m.coinbase.SetAnnCount(tree.AnnCount)
	m.coinbase.SetAnnMinDifficulty(worstEffectiveWork)
	m.coinbase.SetMerkleRoot(tree.Root[:])

	m.effectiveTarget = difficulty.GetEffectiveTarget(
		blockTarget, worstEffectiveWork, tree.AnnCount, m.packetCryptVersion)
	m.state = stateLocked

	cb := m.coinbase
	pclog.Block.Debugf("locked for mining at height %d with %d announcements, effective target 0x%08x",
		height, tree.AnnCount, m.effectiveTarget)
	return &cb, nil
}

// Start transitions a locked Miner into active mining against header,
// waking every worker.
func (m *Miner) Start(header *pcwire.BlockHeader) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	switch m.state {
	case stateUnlocked:
		return ErrNotLocked
	case stateMining:
		return ErrAlreadyMining
	}
	m.header = *header
	m.state = stateMining
	for i := range m.reqStates {
		m.reqStates[i] = threadRunning
	}
	m.cond.Broadcast()
	return nil
}

// stopLocked is Stop's body, called with m.lock already held.
func (m *Miner) stopLocked() {
	if m.state == stateUnlocked {
		return
	}
	for i := range m.reqStates {
		m.reqStates[i] = threadStopped
	}
	m.cond.Broadcast()
	for {
		done := true
		for _, s := range m.curStates {
			if s == threadRunning {
				done = false
				break
			}
		}
		if done {
			break
		}
		m.lock.Unlock()
		time.Sleep(100 * time.Microsecond)
		m.lock.Lock()
	}
	m.state = stateUnlocked
}

// Stop halts mining (if running) and unlocks the miner, blocking until
// every worker has acknowledged. Staged/pooled announcements and the
// built tree survive a Stop; only a fresh LockForMining discards them.
func (m *Miner) Stop() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.stopLocked()
}

// Close shuts every worker goroutine down permanently.
func (m *Miner) Close() {
	m.lock.Lock()
	for i := range m.reqStates {
		m.reqStates[i] = threadShutdown
	}
	m.lock.Unlock()
	m.cond.Broadcast()
	m.wg.Wait()
}

// HashesPerSecond sums the most recent per-worker hash-rate estimate.
func (m *Miner) HashesPerSecond() int64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	var total int64
	for _, h := range m.hashCounts {
		total += h
	}
	return total
}

// GetEffectiveHashRate scales the raw hash rate by the hash-rate
// multiplier the currently locked announcement set provides.
func (m *Miner) GetEffectiveHashRate() float64 {
	m.lock.Lock()
	annCount := m.coinbase.AnnCount()
	annTarget := m.coinbase.AnnMinDifficulty()
	m.lock.Unlock()
	raw := float64(m.HashesPerSecond())
	hrm := float64(difficulty.GetHashRateMultiplier(annTarget, annCount))
	return raw * hrm
}

func (m *Miner) checkStop(workerNum int) (stop bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for {
		rs := m.reqStates[workerNum]
		m.curStates[workerNum] = rs
		switch rs {
		case threadShutdown:
			return true
		case threadRunning:
			return false
		default:
			m.cond.Wait()
		}
	}
}

// workerLoop is one worker's lifetime: wait to be told to run, mine
// hashesPerCycle nonces at a time against the currently locked header
// and announcement set, checking once per cycle whether it should stop.
func (m *Miner) workerLoop(workerNum int) {
	defer m.wg.Done()
	var ccState cryptocycle.State
	lowNonce := uint32(0)

	for {
		if m.checkStop(workerNum) {
			return
		}

		m.lock.Lock()
		header := m.header
		anns := m.anns
		tree := m.tree
		effectiveTarget := m.effectiveTarget
		deterministic := m.beDeterministic
		m.lock.Unlock()

		if len(anns) == 0 {
			continue
		}

		hdr := header
		hdr.SetNonce(m.minerID + uint32(workerNum))
		if !deterministic {
			hdr.SetTimestamp(uint32(time.Now().Unix()))
		}
		hdrHash := hdr.Hash()

		start := time.Now()
		found := false
		var idx [4]uint64
		for i := 0; i < hashesPerCycle; i++ {
			lowNonce++
			cryptocycle.Init(&ccState, hdrHash[:], uint64(lowNonce))
			ok := true
			for j := 0; j < 4; j++ {
				idx[j] = cryptocycle.GetItemNo(&ccState) % uint64(len(anns))
				it := &anns[idx[j]]
				if !cryptocycle.Update(&ccState, it.Header[:], nil, 0, nil) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			cryptocycle.Smul(&ccState)
			cryptocycle.Final(&ccState)
			if difficulty.IsOk(ccState.Bytes[:32], effectiveTarget) {
				found = true
				break
			}
		}
		elapsed := time.Since(start)
		if elapsed > 0 {
			m.lock.Lock()
			m.hashCounts[workerNum] = int64(hashesPerCycle * time.Second / elapsed)
			m.lock.Unlock()
		}
		if found {
			m.emit(&hdr, lowNonce, &idx, anns, tree)
		}
	}
}

// emit builds a share from a winning nonce and writes it out.
func (m *Miner) emit(hdr *pcwire.BlockHeader, nonce2 uint32, idx *[4]uint64, anns []pcwire.Announcement, tree *proof.FullTree) {
	annIdxs := *idx
	proofBytes, err := proof.MkProof(tree, &annIdxs)
	if err != nil {
		pclog.Block.Errorf("block: failed to build proof for a found share: %s", err)
		return
	}

	var hap pcwire.HeaderAndProof
	hap.BlockHeader = *hdr
	hap.Nonce2 = nonce2
	for i := 0; i < 4; i++ {
		hap.Announcements[i] = anns[idx[i]]
	}
	hap.Proof = proofBytes

	m.lock.Lock()
	paranoia := m.paranoia
	coinbase := m.coinbase
	m.lock.Unlock()

	if paranoia {
		var annHashes [4][32]byte
		for i := 0; i < 4; i++ {
			annHashes[i] = annHash(&hap.Announcements[i])
		}
		root, err := proof.PcpHash(&annHashes, coinbase.AnnCount(), &annIdxs, &pcwire.PacketCryptProof{AnnProof: proofBytes})
		if err != nil || !bytes.Equal(root[:], coinbase.MerkleRoot()) {
			pclog.Block.Error("block: self-validation of a found share failed, discarding it")
			return
		}
	}

	pclog.Block.Debugf("found a share at nonce2=%d", nonce2)

	var rec pcwire.ShareRecord
	copy(rec.Coinbase[:], coinbase.Bytes[:])
	rec.Hap = hap

	m.outLock.Lock()
	defer m.outLock.Unlock()
	if err := rec.Encode(m.out); err != nil {
		pclog.Block.Errorf("block: failed to write share: %s", err)
	}
}
