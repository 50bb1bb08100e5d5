// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package workqueue implements the bounded producer/consumer queue a
// block-mining driver uses to feed itself announcement files dropped
// into a directory by one or more announcement miners: a master scans
// the directory for files matching a pattern, stages up to Size of
// them into a fixed slot table, and worker goroutines drain the table
// by claiming a slot, processing it outside the lock, and marking it
// done.
package workqueue

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pktlabs/packetcrypt/pclog"
)

// Size is the number of path slots the queue holds at once; a master
// scan never stages more than this many pending files.
const Size = 32

type fileState int

const (
	stateDone fileState = iota
	stateTodo
	stateInProgress
)

type slot struct {
	state fileState
	name  string
}

// Worker is the callback a worker goroutine runs for each claimed file
// name (joined with the queue's directory to form a full path).
type Worker func(path string) error

// Queue is a bounded, directory-backed work queue: a master scans Dir
// for files matching Pattern and stages their names into Size slots;
// worker goroutines claim TODO slots, run their job against the path,
// and release the slot back to DONE.
type Queue struct {
	lock sync.Mutex
	cond *sync.Cond

	dir     string
	pattern string

	shouldStop bool
	slots      [Size]slot

	wg sync.WaitGroup
}

// New opens dir and returns a Queue ready to have workers started on
// it with Start; pattern is matched against file base names with
// filepath.Match.
func New(dir, pattern string) (*Queue, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("workqueue: cannot open %s: %w", dir, err)
	}
	q := &Queue{dir: dir, pattern: pattern}
	q.cond = sync.NewCond(&q.lock)
	return q, nil
}

// Start launches workerCount goroutines, each repeatedly calling job
// against whatever path the queue hands it until Stop is called.
func (q *Queue) Start(workerCount int, job Worker) {
	for i := 0; i < workerCount; i++ {
		q.wg.Add(1)
		go q.workerLoop(job)
	}
}

// workerGetWork marks completed (if any) DONE, waits for a TODO slot,
// claims it, and returns its file name, or "" if the queue has been
// stopped and nothing is available.
func (q *Queue) workerGetWork(completed string) string {
	q.lock.Lock()
	defer q.lock.Unlock()
	if completed != "" {
		for i := range q.slots {
			if q.slots[i].name == completed {
				q.slots[i].state = stateDone
				break
			}
		}
	}
	for {
		for i := range q.slots {
			if q.slots[i].state != stateTodo {
				continue
			}
			q.slots[i].state = stateInProgress
			return q.slots[i].name
		}
		if q.shouldStop {
			return ""
		}
		q.cond.Wait()
	}
}

func (q *Queue) workerLoop(job Worker) {
	defer q.wg.Done()
	completed := ""
	for {
		name := q.workerGetWork(completed)
		if name == "" {
			return
		}
		if err := job(filepath.Join(q.dir, name)); err != nil {
			// The file stays claimed rather than reverting to TODO: a
			// job that failed once is assumed to need operator
			// attention, not an automatic retry loop.
			completed = ""
			continue
		}
		completed = name
	}
}

// MasterScan reads Dir once, stages newly-seen matching files into any
// empty slots and clears finished slots whose file is no longer in Dir. It
// returns true if a full pass found no new files to stage, a signal
// the caller can use to back off before scanning again.
func (q *Queue) MasterScan() (bool, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return false, fmt.Errorf("workqueue: scanning %s: %w", q.dir, err)
	}

	q.lock.Lock()
	defer q.lock.Unlock()

	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(q.pattern, e.Name())
		if err != nil || !ok {
			continue
		}
		present[e.Name()] = true
	}

	claimed := make(map[string]bool, Size)
	for i := range q.slots {
		if q.slots[i].name != "" {
			claimed[q.slots[i].name] = true
		}
	}

	newFiles := false
	slotIdx := 0
	for name := range present {
		if claimed[name] {
			continue
		}
		for slotIdx < Size && q.slots[slotIdx].name != "" {
			slotIdx++
		}
		if slotIdx >= Size {
			break
		}
		q.slots[slotIdx].name = name
		q.slots[slotIdx].state = stateTodo
		slotIdx++
		newFiles = true
		pclog.WorkQueue.Debugf("staged %s for processing", name)
	}

	for i := range q.slots {
		if q.slots[i].state == stateDone && q.slots[i].name != "" && !present[q.slots[i].name] {
			q.slots[i].name = ""
		}
	}

	q.cond.Broadcast()
	return !newFiles, nil
}

// Stop signals every worker to exit once no TODO slot is left for it
// (staged files are still processed) and blocks until they have.
func (q *Queue) Stop() {
	q.lock.Lock()
	q.shouldStop = true
	q.lock.Unlock()
	q.cond.Broadcast()
	q.wg.Wait()
}
