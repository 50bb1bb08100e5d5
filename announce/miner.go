// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package announce

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/pktlabs/packetcrypt/cryptocycle"
	"github.com/pktlabs/packetcrypt/difficulty"
	"github.com/pktlabs/packetcrypt/merkle"
	"github.com/pktlabs/packetcrypt/pclog"
	"github.com/pktlabs/packetcrypt/pcutil"
	"github.com/pktlabs/packetcrypt/pcwire"
	"github.com/pktlabs/packetcrypt/randhash/util"
)

// hashesPerCycle mirrors the original miner's batching: a worker checks its
// requested state only once per this many soft-nonce attempts.
const hashesPerCycle = 512

// Request describes the announcement a miner should search for: everything
// that goes into the header except the soft/hard nonce and the table itself.
type Request struct {
	ParentBlockHash   [32]byte
	ParentBlockHeight uint32
	WorkTarget        uint32
	ContentType       uint32
	Content           []byte
	ContentHash       [32]byte
	SigningKey        [32]byte
}

type threadState int

const (
	stateStopped threadState = iota
	stateRunning
	stateShutdown
)

// job is the immutable per-hardNonce announcement dataset a worker mines
// against: the 8192 item table, its Merkle tree, and the two header hashes
// derived from it (annHash0 over the parent hash, annHash1 over the
// table's Merkle root).
type job struct {
	table           [][]byte // annHash0-seeded: what the Merkle tree commits to
	table2          [][]byte // v1SeedHash-seeded: what version>=1 mining actually sweeps
	merkle          *merkle.Tree
	annHash0        [64]byte
	annHash1        [64]byte
	header          pcwire.Announcement
	parentBlockHash [32]byte
	content         []byte
}

// Miner searches for announcements meeting a work target by building
// successive memory-hard item tables (one per hard nonce) and sweeping the
// soft-nonce space against each, writing every announcement that clears the
// target to one of its output writers (outs), chosen by announcement hash.
type Miner struct {
	lock sync.Mutex
	cond *sync.Cond

	version   int
	numWorker int
	minerID   uint32
	paranoia  bool
	outs      []io.Writer
	outLock   sync.Mutex

	req        Request
	generation uint64

	reqStates  []threadState
	curStates  []threadState
	hashCounts []int64
	wg         sync.WaitGroup
}

// NewMiner builds a Miner with numWorker worker goroutines, writing found
// announcements to the given sinks, routed by announcement hash so a pool
// can insist a given announcement only ever reaches one of its servers.
// version selects the item-construction path (0: MkItem/memocycle,
// 1: MkItem2/RandProg) every worker uses.
func NewMiner(version int, numWorker int, minerID uint32, outs ...io.Writer) *Miner {
	if len(outs) == 0 {
		panic("announce: NewMiner requires at least one output sink")
	}
	m := &Miner{
		version:    version,
		numWorker:  numWorker,
		minerID:    minerID,
		outs:       outs,
		reqStates:  make([]threadState, numWorker),
		curStates:  make([]threadState, numWorker),
		hashCounts: make([]int64, numWorker),
	}
	m.cond = sync.NewCond(&m.lock)
	for i := 0; i < numWorker; i++ {
		m.wg.Add(1)
		go m.workerLoop(i)
	}
	return m
}

func sameRequest(a, b *Request) bool {
	return a.ParentBlockHash == b.ParentBlockHash &&
		a.ParentBlockHeight == b.ParentBlockHeight &&
		a.WorkTarget == b.WorkTarget &&
		a.ContentType == b.ContentType &&
		a.ContentHash == b.ContentHash &&
		a.SigningKey == b.SigningKey &&
		bytes.Equal(a.Content, b.Content)
}

// SetParanoia toggles self-validation of every found announcement via
// CheckAnn before it's written out. It never changes the bytes produced.
func (m *Miner) SetParanoia(v bool) {
	m.lock.Lock()
	m.paranoia = v
	m.lock.Unlock()
}

// Start points every worker at req, restarting the search only if req
// actually differs from whatever was previously in progress.
func (m *Miner) Start(req *Request) {
	m.lock.Lock()
	if !sameRequest(&m.req, req) {
		m.req = *req
		m.generation++
	}
	for i := range m.reqStates {
		m.reqStates[i] = stateRunning
	}
	m.lock.Unlock()
	m.cond.Broadcast()
}

// Stop halts every worker and blocks until they've all acknowledged.
func (m *Miner) Stop() {
	m.lock.Lock()
	for i := range m.reqStates {
		m.reqStates[i] = stateStopped
	}
	m.lock.Unlock()
	m.cond.Broadcast()
	for {
		m.lock.Lock()
		done := true
		for _, s := range m.curStates {
			if s == stateRunning {
				done = false
				break
			}
		}
		m.lock.Unlock()
		if done {
			return
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// Close shuts every worker goroutine down permanently.
func (m *Miner) Close() {
	m.lock.Lock()
	for i := range m.reqStates {
		m.reqStates[i] = stateShutdown
	}
	m.lock.Unlock()
	m.cond.Broadcast()
	m.wg.Wait()
}

// HashesPerSecond sums the most recent per-worker hash rate estimate.
func (m *Miner) HashesPerSecond() int64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	var total int64
	for _, h := range m.hashCounts {
		total += h
	}
	return total
}

func (m *Miner) checkStop(workerNum int) (stop bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for {
		rs := m.reqStates[workerNum]
		m.curStates[workerNum] = rs
		switch rs {
		case stateShutdown:
			return true
		case stateRunning:
			return false
		default:
			m.cond.Wait()
		}
	}
}

func (m *Miner) workerLoop(workerNum int) {
	defer m.wg.Done()
	var hardNonce uint32
	var j *job
	var progBuf cryptocycle.Context
	var ccState cryptocycle.State
	var item [1024]byte
	softNonce := uint32(0)
	var jobGeneration uint64 = ^uint64(0)

	for {
		if m.checkStop(workerNum) {
			return
		}

		m.lock.Lock()
		req := m.req
		generation := m.generation
		m.lock.Unlock()

		if generation != jobGeneration {
			hardNonce = m.minerID + uint32(workerNum)
			jobGeneration = generation
			j = nil
		}
		if j == nil {
			var err error
			j, err = m.buildJob(&req, hardNonce)
			// next rebuild (exhaustion or a rejected program) takes a
			// fresh hard nonce, partitioned across workers
			hardNonce += uint32(m.numWorker)
			if err != nil {
				continue
			}
			softNonce = 0
		}

		start := time.Now()
		for i := 0; i < hashesPerCycle; i++ {
			softNonceMax := difficulty.Pc2AnnSoftNonceMax(j.header.GetWorkTarget())
			if softNonce > softNonceMax {
				j = nil
				break
			}
			if itemNo, ok := m.mineOne(j, softNonce, &ccState, &progBuf, &item); ok {
				m.emit(j, softNonce, itemNo, &item, &ccState)
			}
			softNonce++
		}
		elapsed := time.Since(start)
		if elapsed > 0 {
			m.lock.Lock()
			m.hashCounts[workerNum] = int64(hashesPerCycle * time.Second / elapsed)
			m.lock.Unlock()
		}
	}
}

// buildJob generates a fresh memory-hard item table for hardNonce and folds
// it into a Merkle tree, deriving the two header hashes a worker needs to
// evaluate soft nonces against.
func (m *Miner) buildJob(req *Request, hardNonce uint32) (*job, error) {
	j := &job{}
	j.header.SetVersion(byte(m.version))
	j.header.SetHardNonce(hardNonce)
	j.header.SetWorkTarget(req.WorkTarget)
	j.header.SetParentBlockHeight(req.ParentBlockHeight)
	j.header.SetContentType(req.ContentType)
	j.header.SetContentLength(uint32(len(req.Content)))
	j.header.SetSigningKey(req.SigningKey[:])
	if len(req.Content) > 0 {
		if len(req.Content) <= 32 {
			var h [32]byte
			copy(h[:], req.Content)
			j.header.SetContentHash(h[:])
		} else {
			j.header.SetContentHash(req.ContentHash[:])
		}
	}

	j.parentBlockHash = req.ParentBlockHash
	j.content = req.Content

	j.header.SetMerkleProof(req.ParentBlockHash[:])
	pcutil.HashCompress64(j.annHash0[:], j.header.Header[:pcwire.AnnHeaderLen+64])

	// The table the Merkle tree commits to is always built straight from
	// annHash0, version 0 or 1 alike: this is what a verifier independently
	// recomputes (via the annHash0-seeded path) to check the proven leaf.
	table := make([][]byte, merkle.LeafCount)
	if m.version > 0 {
		prog0, err := CreateProg(j.annHash0[:32])
		if err != nil {
			return nil, err
		}
		var progBuf cryptocycle.Context
		for i := range table {
			var item [1024]byte
			if err := MkItem2(i, &item, j.annHash0[32:], prog0, &progBuf); err != nil {
				return nil, err
			}
			table[i] = append([]byte(nil), item[:]...)
		}
	} else {
		for i := range table {
			var item [1024]byte
			MkItem(i, &item, j.annHash0[:32])
			table[i] = append([]byte(nil), item[:]...)
		}
	}
	j.table = table
	j.merkle = merkle.Build(table)

	j.header.SetMerkleProof(j.merkle.Root())
	pcutil.HashCompress64(j.annHash1[:], j.header.Header[:pcwire.AnnHeaderLen+64])
	j.header.SetMerkleProof(req.ParentBlockHash[:])

	if m.version > 0 {
		// The table actually swept during mining is re-derived from
		// v1SeedHash = hash(merkleRoot || annHash0), distinct from the
		// annHash0-seeded table the Merkle tree above committed to.
		var v1Seed [128]byte
		copy(v1Seed[:64], j.merkle.Root())
		copy(v1Seed[64:], j.annHash0[:])
		var v1SeedHash [64]byte
		pcutil.HashCompress64(v1SeedHash[:], v1Seed[:])
		prog, err := CreateProg(v1SeedHash[:32])
		if err != nil {
			return nil, err
		}
		table2 := make([][]byte, merkle.LeafCount)
		var progBuf cryptocycle.Context
		for i := range table2 {
			var item [1024]byte
			if err := MkItem2(i, &item, v1SeedHash[32:], prog, &progBuf); err != nil {
				return nil, err
			}
			table2[i] = append([]byte(nil), item[:]...)
		}
		j.table2 = table2
	}

	return j, nil
}

// mineOne runs a single soft-nonce trial against j's table. On success it
// returns the table slot the final item came from and leaves item/ccState
// holding that item's bytes and the finalized cryptocycle state, ready for
// emit to build the announcement from directly.
func (m *Miner) mineOne(
	j *job,
	softNonce uint32,
	ccState *cryptocycle.State,
	progBuf *cryptocycle.Context,
	item *[1024]byte,
) (itemNo int, ok bool) {
	cryptocycle.Init(ccState, j.annHash1[:32], uint64(softNonce))
	randHashCycles := util.Conf_AnnHash_RANDHASH_CYCLES
	if m.version > 0 {
		randHashCycles = 0
	}
	for i := 0; i < 4; i++ {
		itemNo = int(cryptocycle.GetItemNo(ccState) % merkle.LeafCount)
		if m.version > 0 {
			copy(item[:], j.table2[itemNo])
		} else {
			copy(item[:], j.table[itemNo])
		}
		if !cryptocycle.Update(ccState, item[:], nil, randHashCycles, progBuf) {
			return 0, false
		}
	}
	cryptocycle.Final(ccState)
	return itemNo, difficulty.IsOk(ccState.Bytes[:32], j.header.GetWorkTarget())
}

// emit materializes the winning announcement (header, merkle branch, item
// payload or version>=1's encrypted equivalent) and writes it whole to
// the sink its own hash selects, with any over-32-byte content coalesced
// into the same write.
func (m *Miner) emit(j *job, softNonce uint32, itemNo int, lastItem *[1024]byte, ccState *cryptocycle.State) {
	var ann pcwire.Announcement
	copy(ann.Header[:], j.header.Header[:])
	ann.SetSoftNonce(softNonce)
	ann.SetMerkleProof(j.merkle.GetBranch(itemNo))

	if m.version > 0 {
		pcutil.Zero(ann.GetItem4Prefix())
		annCrypt(&ann, ccState)
	} else {
		copy(ann.GetItem4Prefix(), lastItem[:pcwire.AnnItem4PrefixLen])
	}

	m.lock.Lock()
	paranoia := m.paranoia
	m.lock.Unlock()
	if paranoia {
		if _, err := CheckAnn(&ann, j.parentBlockHash[:]); err != nil {
			pclog.Announce.Errorf("announce: self-validation of a found announcement failed: %s", err)
			return
		}
	}

	var hash [32]byte
	pcutil.HashCompress(hash[:], ann.Header[:])
	out := m.outs[binary.LittleEndian.Uint64(hash[:8])%uint64(len(m.outs))]

	record := ann.Header[:]
	if ann.GetContentLength() > 32 {
		record = make([]byte, 0, len(ann.Header)+len(j.content))
		record = append(record, ann.Header[:]...)
		record = append(record, j.content...)
	}

	m.outLock.Lock()
	defer m.outLock.Unlock()
	_, _ = out.Write(record)
}
