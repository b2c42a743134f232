// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cttest

import (
	"crypto/sha256"
	"sync"
)

// Tree is an append-only Merkle tree over leaf hashes, computed with the
// recursive definitions of RFC 6962 section 2.1.
type Tree struct {
	mu     sync.Mutex
	hashes [][]byte
}

// Append adds a leaf hash and returns its index.
func (t *Tree) Append(leafHash []byte) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hashes = append(t.hashes, leafHash)
	return uint64(len(t.hashes) - 1)
}

// Size returns the number of leaves.
func (t *Tree) Size() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return uint64(len(t.hashes))
}

// Index returns the position of leafHash among the first size leaves.
func (t *Tree) Index(leafHash []byte, size uint64) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, h := range t.hashes[:min(size, uint64(len(t.hashes)))] {
		if string(h) == string(leafHash) {
			return uint64(i), true
		}
	}
	return 0, false
}

func (t *Tree) prefix(size uint64) [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hashes[:size]
}

// Root returns the tree head of the first size leaves.
func (t *Tree) Root(size uint64) []byte { return mth(t.prefix(size)) }

// AuditPath returns the inclusion proof of leaf index in the tree of size leaves.
func (t *Tree) AuditPath(index, size uint64) [][]byte {
	return path(int(index), t.prefix(size))
}

// Consistency returns the proof that the tree of size first is a prefix
// of the tree of size second.
func (t *Tree) Consistency(first, second uint64) [][]byte {
	if first == 0 || first >= second {
		return nil
	}
	return subproof(int(first), t.prefix(second), true)
}

func mth(hashes [][]byte) []byte {
	switch len(hashes) {
	case 0:
		h := sha256.Sum256(nil)
		return h[:]
	case 1:
		return hashes[0]
	}
	k := split(len(hashes))
	return node(mth(hashes[:k]), mth(hashes[k:]))
}

func path(m int, hashes [][]byte) [][]byte {
	if len(hashes) <= 1 {
		return nil
	}
	k := split(len(hashes))
	if m < k {
		return append(path(m, hashes[:k]), mth(hashes[k:]))
	}
	return append(path(m-k, hashes[k:]), mth(hashes[:k]))
}

func subproof(m int, hashes [][]byte, complete bool) [][]byte {
	n := len(hashes)
	if m == n {
		if complete {
			return nil
		}
		return [][]byte{mth(hashes)}
	}
	k := split(n)
	if m <= k {
		return append(subproof(m, hashes[:k], complete), mth(hashes[k:]))
	}
	return append(subproof(m-k, hashes[k:], false), mth(hashes[:k]))
}

func node(left, right []byte) []byte {
	h := sha256.New()
	h.Write([]byte{0x01})
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// split returns the largest power of two smaller than n.
func split(n int) int {
	k := 1
	for k<<1 < n {
		k <<= 1
	}
	return k
}
