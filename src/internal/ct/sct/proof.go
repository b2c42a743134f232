// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package sct

import (
	"bytes"
	"crypto/sha256"
	"errors"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/codec"
)

var (
	// ErrLeafIndexOutOfRange indicates a leaf index not below the tree size.
	ErrLeafIndexOutOfRange = errors.New("sct: leaf index out of range")

	// ErrProofLength indicates an audit path that is too long or too short for the tree.
	ErrProofLength = errors.New("sct: audit path has wrong length")

	// ErrRootMismatch indicates an audit path that does not lead to the expected root.
	ErrRootMismatch = errors.New("sct: computed root does not match tree head")

	// ErrTreeShrunk indicates a consistency check from a larger to a smaller tree.
	ErrTreeShrunk = errors.New("sct: second tree is smaller than the first")
)

// Limits of the audit proof wire form.
const (
	maxPathLength     = 1<<16 - 1
	maxPathNodeLength = 1<<8 - 1
)

// LeafHash returns SHA-256(0x00 || leaf).
func LeafHash(leaf []byte) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte{0x00})
	h.Write(leaf)
	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hashChildren(left, right []byte) []byte {
	h := sha256.New()
	h.Write([]byte{0x01})
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// MerkleAuditProof proves that the leaf at LeafIndex is included in the
// tree of TreeSize entries whose head the log signed at Timestamp.
type MerkleAuditProof struct {
	Version   Version
	LogID     [LogIDLength]byte
	TreeSize  uint64
	Timestamp uint64
	LeafIndex uint64
	Path      [][]byte
}

// Marshal encodes the proof.
func (p *MerkleAuditProof) Marshal() ([]byte, error) {
	ser := codec.NewSerializer()
	if err := ser.WriteNumber(uint64(p.Version), 1); err != nil {
		return nil, codec.Wrap("version", err)
	}
	ser.WriteFixedBytes(p.LogID[:])
	for _, f := range []struct {
		name string
		v    uint64
	}{{"tree_size", p.TreeSize}, {"timestamp", p.Timestamp}, {"leaf_index", p.LeafIndex}} {
		if err := ser.WriteNumber(f.v, 8); err != nil {
			return nil, codec.Wrap(f.name, err)
		}
	}
	if err := ser.WriteList(p.Path, maxPathLength, maxPathNodeLength); err != nil {
		return nil, codec.Wrap("path", err)
	}
	return ser.Bytes()
}

// ParseMerkleAuditProof decodes a proof produced by Marshal.
func ParseMerkleAuditProof(data []byte) (*MerkleAuditProof, error) {
	d := codec.NewDeserializer(data)
	p := &MerkleAuditProof{}

	v, err := d.ReadNumber(1)
	if err != nil {
		return nil, codec.Wrap("version", err)
	}
	p.Version = Version(v)

	id, err := d.ReadFixedBytes(LogIDLength)
	if err != nil {
		return nil, codec.Wrap("log_id", err)
	}
	copy(p.LogID[:], id)

	if p.TreeSize, err = d.ReadNumber(8); err != nil {
		return nil, codec.Wrap("tree_size", err)
	}
	if p.Timestamp, err = d.ReadNumber(8); err != nil {
		return nil, codec.Wrap("timestamp", err)
	}
	if p.LeafIndex, err = d.ReadNumber(8); err != nil {
		return nil, codec.Wrap("leaf_index", err)
	}
	if p.Path, err = d.ReadList(maxPathLength, maxPathNodeLength); err != nil {
		return nil, codec.Wrap("path", err)
	}
	if err := d.Finish(); err != nil {
		return nil, codec.Wrap("merkle_audit_proof", err)
	}
	return p, nil
}

// RootFromAuditPath recomputes the tree root from a leaf hash and its audit
// path, following RFC 9162 section 2.1.3.2.
func RootFromAuditPath(leafHash []byte, leafIndex, treeSize uint64, path [][]byte) ([]byte, error) {
	if leafIndex >= treeSize {
		return nil, ErrLeafIndexOutOfRange
	}

	fn, sn := leafIndex, treeSize-1
	r := leafHash
	for _, p := range path {
		if sn == 0 {
			return nil, ErrProofLength
		}
		if fn&1 == 1 || fn == sn {
			r = hashChildren(p, r)
			for fn&1 == 0 && fn != 0 {
				fn >>= 1
				sn >>= 1
			}
		} else {
			r = hashChildren(r, p)
		}
		fn >>= 1
		sn >>= 1
	}
	if sn != 0 {
		return nil, ErrProofLength
	}
	return r, nil
}

// VerifyInclusion checks that the audit path leads from leafHash to root.
func VerifyInclusion(leafHash []byte, leafIndex, treeSize uint64, path [][]byte, root []byte) error {
	got, err := RootFromAuditPath(leafHash, leafIndex, treeSize, path)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, root) {
		return ErrRootMismatch
	}
	return nil
}

func isPowerOfTwo(n uint64) bool { return n != 0 && n&(n-1) == 0 }

// VerifyConsistency checks that the tree of size second with root
// secondRoot extends the tree of size first with root firstRoot, following
// RFC 9162 section 2.1.4.2.
func VerifyConsistency(first, second uint64, firstRoot, secondRoot []byte, proof [][]byte) error {
	switch {
	case second < first:
		return ErrTreeShrunk
	case first == second:
		if len(proof) != 0 {
			return ErrProofLength
		}
		if !bytes.Equal(firstRoot, secondRoot) {
			return ErrRootMismatch
		}
		return nil
	case first == 0:
		// The empty tree is a prefix of every tree.
		if len(proof) != 0 {
			return ErrProofLength
		}
		return nil
	}

	if len(proof) == 0 {
		return ErrProofLength
	}
	if isPowerOfTwo(first) {
		proof = append([][]byte{firstRoot}, proof...)
	}

	fn, sn := first-1, second-1
	for fn&1 == 1 {
		fn >>= 1
		sn >>= 1
	}

	fr, sr := proof[0], proof[0]
	for _, c := range proof[1:] {
		if sn == 0 {
			return ErrProofLength
		}
		if fn&1 == 1 || fn == sn {
			fr = hashChildren(c, fr)
			sr = hashChildren(c, sr)
			for fn&1 == 0 && fn != 0 {
				fn >>= 1
				sn >>= 1
			}
		} else {
			sr = hashChildren(sr, c)
		}
		fn >>= 1
		sn >>= 1
	}

	if sn != 0 {
		return ErrProofLength
	}
	if !bytes.Equal(fr, firstRoot) || !bytes.Equal(sr, secondRoot) {
		return ErrRootMismatch
	}
	return nil
}
