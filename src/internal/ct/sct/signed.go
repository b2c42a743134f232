// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package sct

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/codec"
)

// ErrUnknownEntryType is returned for LogEntryType values other than x509 and precert.
var ErrUnknownEntryType = errors.New("sct: unknown log entry type")

// LogEntryType distinguishes certificate and precertificate entries.
type LogEntryType uint16

const (
	// X509Entry is a final certificate entry.
	X509Entry LogEntryType = 0
	// PrecertEntry is a precertificate entry.
	PrecertEntry LogEntryType = 1
)

func (t LogEntryType) String() string {
	switch t {
	case X509Entry:
		return "x509_entry"
	case PrecertEntry:
		return "precert_entry"
	}
	return fmt.Sprintf("entry_type(%d)", uint16(t))
}

// signatureTypeCertificateTimestamp is SignatureType.certificate_timestamp.
const signatureTypeCertificateTimestamp = 0

// merkleLeafTypeTimestampedEntry is MerkleLeafType.timestamped_entry.
const merkleLeafTypeTimestampedEntry = 0

// Entry is the signed_entry of an SCT: either a DER certificate, or an
// issuer key hash plus a TBSCertificate for precertificates.
type Entry struct {
	Type           LogEntryType
	Certificate    []byte
	IssuerKeyHash  [sha256.Size]byte
	TBSCertificate []byte
}

// CertificateEntry builds an x509 entry for the DER certificate.
func CertificateEntry(der []byte) Entry {
	return Entry{Type: X509Entry, Certificate: der}
}

// PrecertificateEntry builds a precert entry.
func PrecertificateEntry(issuerKeyHash [sha256.Size]byte, tbs []byte) Entry {
	return Entry{Type: PrecertEntry, IssuerKeyHash: issuerKeyHash, TBSCertificate: tbs}
}

func (e Entry) write(ser *codec.Serializer) error {
	if err := ser.WriteNumber(uint64(e.Type), 2); err != nil {
		return codec.Wrap("entry_type", err)
	}
	switch e.Type {
	case X509Entry:
		return codec.Wrap("asn1_cert", ser.WriteVariableLength(e.Certificate, MaxCertificateLength))
	case PrecertEntry:
		ser.WriteFixedBytes(e.IssuerKeyHash[:])
		return codec.Wrap("tbs_certificate", ser.WriteVariableLength(e.TBSCertificate, MaxCertificateLength))
	}
	return ErrUnknownEntryType
}

func readEntry(d *codec.Deserializer) (Entry, error) {
	var e Entry
	t, err := d.ReadNumber(2)
	if err != nil {
		return e, codec.Wrap("entry_type", err)
	}
	e.Type = LogEntryType(t)
	switch e.Type {
	case X509Entry:
		if e.Certificate, err = d.ReadVariableLength(MaxCertificateLength); err != nil {
			return e, codec.Wrap("asn1_cert", err)
		}
	case PrecertEntry:
		h, err := d.ReadFixedBytes(sha256.Size)
		if err != nil {
			return e, codec.Wrap("issuer_key_hash", err)
		}
		copy(e.IssuerKeyHash[:], h)
		if e.TBSCertificate, err = d.ReadVariableLength(MaxCertificateLength); err != nil {
			return e, codec.Wrap("tbs_certificate", err)
		}
	default:
		return e, ErrUnknownEntryType
	}
	return e, nil
}

// SignedData returns the bytes a log signed when it issued s for entry.
func SignedData(s *SignedCertificateTimestamp, entry Entry) ([]byte, error) {
	ser := codec.NewSerializer()
	if err := ser.WriteNumber(uint64(s.Version), 1); err != nil {
		return nil, codec.Wrap("sct_version", err)
	}
	if err := ser.WriteNumber(signatureTypeCertificateTimestamp, 1); err != nil {
		return nil, codec.Wrap("signature_type", err)
	}
	if err := ser.WriteNumber(s.Timestamp, 8); err != nil {
		return nil, codec.Wrap("timestamp", err)
	}
	if err := entry.write(ser); err != nil {
		return nil, err
	}
	if err := ser.WriteVariableLength(s.Extensions, MaxExtensionsLength); err != nil {
		return nil, codec.Wrap("extensions", err)
	}
	return ser.Bytes()
}

// MerkleTreeLeaf is the leaf a log appends to its Merkle tree.
type MerkleTreeLeaf struct {
	Version    Version
	Timestamp  uint64
	Entry      Entry
	Extensions []byte
}

// LeafFor returns the Merkle tree leaf corresponding to an SCT over entry.
func LeafFor(s *SignedCertificateTimestamp, entry Entry) *MerkleTreeLeaf {
	return &MerkleTreeLeaf{
		Version:    s.Version,
		Timestamp:  s.Timestamp,
		Entry:      entry,
		Extensions: s.Extensions,
	}
}

// Marshal encodes the leaf.
func (l *MerkleTreeLeaf) Marshal() ([]byte, error) {
	ser := codec.NewSerializer()
	if err := ser.WriteNumber(uint64(l.Version), 1); err != nil {
		return nil, codec.Wrap("version", err)
	}
	if err := ser.WriteNumber(merkleLeafTypeTimestampedEntry, 1); err != nil {
		return nil, codec.Wrap("leaf_type", err)
	}
	if err := ser.WriteNumber(l.Timestamp, 8); err != nil {
		return nil, codec.Wrap("timestamp", err)
	}
	if err := l.Entry.write(ser); err != nil {
		return nil, err
	}
	if err := ser.WriteVariableLength(l.Extensions, MaxExtensionsLength); err != nil {
		return nil, codec.Wrap("extensions", err)
	}
	return ser.Bytes()
}

// ParseMerkleTreeLeaf decodes a leaf, such as the leaf_input of get-entries.
func ParseMerkleTreeLeaf(data []byte) (*MerkleTreeLeaf, error) {
	d := codec.NewDeserializer(data)
	l := &MerkleTreeLeaf{}

	v, err := d.ReadNumber(1)
	if err != nil {
		return nil, codec.Wrap("version", err)
	}
	l.Version = Version(v)

	leafType, err := d.ReadNumber(1)
	if err != nil {
		return nil, codec.Wrap("leaf_type", err)
	}
	if leafType != merkleLeafTypeTimestampedEntry {
		return nil, fmt.Errorf("sct: unsupported merkle leaf type %d", leafType)
	}

	if l.Timestamp, err = d.ReadNumber(8); err != nil {
		return nil, codec.Wrap("timestamp", err)
	}
	if l.Entry, err = readEntry(d); err != nil {
		return nil, err
	}
	if l.Extensions, err = d.ReadVariableLength(MaxExtensionsLength); err != nil {
		return nil, codec.Wrap("extensions", err)
	}
	if err := d.Finish(); err != nil {
		return nil, codec.Wrap("merkle_tree_leaf", err)
	}
	return l, nil
}

// Hash returns the RFC 6962 leaf hash, SHA-256(0x00 || leaf).
func (l *MerkleTreeLeaf) Hash() ([sha256.Size]byte, error) {
	b, err := l.Marshal()
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	return LeafHash(b), nil
}
