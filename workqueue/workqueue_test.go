// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package workqueue

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueProcessesAllMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "anns_0000"+string(rune('a'+i))+".bin")
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("x"), 0o644))

	q, err := New(dir, "anns_*.bin")
	require.NoError(t, err)

	var mu sync.Mutex
	seen := map[string]bool{}
	var processed int32

	q.Start(3, func(path string) error {
		mu.Lock()
		seen[filepath.Base(path)] = true
		mu.Unlock()
		atomic.AddInt32(&processed, 1)
		return nil
	})

	deadline := time.Now().Add(5 * time.Second)
	for {
		done, err := q.MasterScan()
		require.NoError(t, err)
		if done && atomic.LoadInt32(&processed) == 5 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for all files to process, got %d/5", atomic.LoadInt32(&processed))
		}
		time.Sleep(time.Millisecond)
	}
	q.Stop()

	require.Len(t, seen, 5)
	require.NotContains(t, seen, "ignore.txt")
}

func TestNewRejectsMissingDir(t *testing.T) {
	_, err := New("/no/such/directory/exists", "*.bin")
	require.Error(t, err)
}

func TestStopWithNoWork(t *testing.T) {
	dir := t.TempDir()
	q, err := New(dir, "*.bin")
	require.NoError(t, err)
	q.Start(2, func(path string) error { return nil })
	done, err := q.MasterScan()
	require.NoError(t, err)
	require.True(t, done)
	q.Stop()
}
