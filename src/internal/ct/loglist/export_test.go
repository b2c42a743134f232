// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package loglist

import (
	"crypto"
	"sync/atomic"
	"testing"
)

// CountVerifications counts signature checks until the test ends.
func CountVerifications(t testing.TB) *atomic.Int32 {
	var n atomic.Int32
	prev := verifySignature
	verifySignature = func(json, sig []byte, key crypto.PublicKey) Invalid {
		n.Add(1)
		return prev(json, sig, key)
	}
	t.Cleanup(func() { verifySignature = prev })
	return &n
}
