// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package difficulty

import (
	"math/big"
	"testing"
)

func TestCompactBigRoundTrip(t *testing.T) {
	cases := []uint32{0x1d00ffff, 0x207fffff, 0x1b0404cb, 0x20ffffff}
	for _, c := range cases {
		big := CompactToBig(c)
		got := BigToCompact(big)
		if got != c {
			t.Errorf("round trip mismatch for 0x%08x: got 0x%08x via %s", c, got, big.String())
		}
	}
}

func TestWorkTargetInverse(t *testing.T) {
	target := CompactToBig(0x1d00ffff)
	work := WorkForTarget(target)
	back := TargetForWork(work)
	// Division truncation means this won't be bit-exact: the relative error
	// is about 1/work (roughly 2^-32 for this target), so allow target>>32.
	diff := new(big.Int).Sub(target, back)
	diff.Abs(diff)
	if diff.Cmp(new(big.Int).Rsh(target, 32)) > 0 {
		t.Fatalf("WorkForTarget/TargetForWork round trip diverged too far: %s vs %s", target, back)
	}
}

func TestIsAnnMinDiffOk(t *testing.T) {
	if !IsAnnMinDiffOk(0x1d00ffff, 0) {
		t.Fatal("expected a normal mainnet-style target to be accepted")
	}
	if IsAnnMinDiffOk(0, 0) {
		t.Fatal("zero target must never be accepted")
	}
	if IsAnnMinDiffOk(0x21000000, 0) {
		t.Fatal("target above 0x20ffffff must be rejected under v0/v1 rules")
	}
}

func TestGetAgedAnnTargetNotReady(t *testing.T) {
	out := GetAgedAnnTarget(0x1d00ffff, 0, 0)
	if out != 0xffffffff {
		t.Fatalf("announcement younger than the wait period must be unusable, got 0x%08x", out)
	}
}

func TestPc2AnnSoftNonceMaxMonotonic(t *testing.T) {
	low := Pc2AnnSoftNonceMax(0x1d00ffff)
	high := Pc2AnnSoftNonceMax(0x1c00ffff)
	if high < low {
		t.Fatalf("a harder target should not yield a smaller soft-nonce ceiling: %d < %d", high, low)
	}
}

func TestGetHashRateMultiplierMonotonicInCount(t *testing.T) {
	one := GetHashRateMultiplier(0x1d00ffff, 1)
	many := GetHashRateMultiplier(0x1d00ffff, 100)
	if many <= one {
		t.Fatalf("multiplier should grow with announcement count: %d vs %d", one, many)
	}
}

func TestGetHashRateMultiplierSaturates(t *testing.T) {
	got := GetHashRateMultiplier(0x1d00ffff, 1<<32)
	if got != ^uint64(0) {
		t.Fatalf("expected saturation at max uint64, got %d", got)
	}
}

func TestGetHashRateMultiplierZeroCount(t *testing.T) {
	if got := GetHashRateMultiplier(0x1d00ffff, 0); got != 0 {
		t.Fatalf("zero announcements should yield a zero multiplier, got %d", got)
	}
}
