// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pclog centralizes the btclog.Logger instances used across the
// packetcrypt packages. It holds one package-level logger variable per
// consuming package, each defaulting to btclog.Disabled; callers wire up a
// real backend with UseLogger.
package pclog

import "github.com/btcsuite/btclog"

// Proof is the logger used by the proof package's tree construction and
// verification code.
var Proof = btclog.Disabled

// Announce is the logger used by the announce package.
var Announce = btclog.Disabled

// Block is the logger used by the block package.
var Block = btclog.Disabled

// WorkQueue is the logger used by the workqueue package.
var WorkQueue = btclog.Disabled

// UseLogger points every package's logger at backend.
func UseLogger(backend btclog.Logger) {
	Proof = backend
	Announce = backend
	Block = backend
	WorkQueue = backend
}
