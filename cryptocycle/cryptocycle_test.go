// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cryptocycle

import "testing"

func TestBitRangeRoundTrip(t *testing.T) {
	var s State
	s.SetVersion(5)
	s.SetLength(100)
	s.SetAddLen(3)
	s.SetDecrypt(true)
	s.SetTrailingZeros(9)
	s.SetAdditionalZeros(2)

	if got := s.GetVersion(); got != 5 {
		t.Fatalf("GetVersion() = %d, want 5", got)
	}
	if got := s.GetLength(); got != 100 {
		t.Fatalf("GetLength() = %d, want 100", got)
	}
	if got := s.GetAddLen(); got != 3 {
		t.Fatalf("GetAddLen() = %d, want 3", got)
	}
	if !s.IsDecrypt() {
		t.Fatal("IsDecrypt() = false, want true")
	}
	if got := s.GetTrailingZeros(); got != 9 {
		t.Fatalf("GetTrailingZeros() = %d, want 9", got)
	}
	if got := s.GetAdditionalZeros(); got != 2 {
		t.Fatalf("GetAdditionalZeros() = %d, want 2", got)
	}
}

func TestMakeFuzzableResetsHeader(t *testing.T) {
	var s State
	s.SetVersion(9)
	s.SetFailed(true)
	s.MakeFuzzable()
	if s.GetVersion() != 0 {
		t.Fatalf("MakeFuzzable left version %d, want 0", s.GetVersion())
	}
	if s.IsFailed() {
		t.Fatal("MakeFuzzable left failed flag set")
	}
	if s.GetLength()&32 == 0 {
		t.Fatal("MakeFuzzable did not force length bit 32 on")
	}
}

func TestCryptoCycleRejectsNonZeroVersion(t *testing.T) {
	var s State
	s.SetVersion(1)
	CryptoCycle(&s)
	if !s.IsFailed() {
		t.Fatal("CryptoCycle should fail a non-zero version state")
	}
}

func TestInitProducesUsableState(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	var s State
	Init(&s, seed, 42)
	if s.GetVersion() != 0 {
		t.Fatalf("Init left version %d, want 0", s.GetVersion())
	}
	if s.IsFailed() {
		t.Fatal("Init left the state in a failed condition")
	}
}

func TestSmulIsDeterministic(t *testing.T) {
	var a, b State
	for i := range a.Bytes[:64] {
		a.Bytes[i] = byte(i)
		b.Bytes[i] = byte(i)
	}
	Smul(&a)
	Smul(&b)
	if a.Bytes != b.Bytes {
		t.Fatal("Smul is not deterministic given identical inputs")
	}
}
