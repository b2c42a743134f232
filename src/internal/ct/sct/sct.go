// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package sct

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/codec"
)

// Wire limits from RFC 6962 section 3.2.
const (
	MaxExtensionsLength  = 1<<16 - 1
	MaxSignatureLength   = 1<<16 - 1
	MaxCertificateLength = 1<<24 - 1
	MaxListLength        = 1<<16 - 1
	MaxSerializedLength  = 1<<16 - 1
	LogIDLength          = 32
)

// Version is the SCT structure version.
type Version uint8

// V1 is the only version defined by RFC 6962.
const V1 Version = 0

// HashAlgorithm is the TLS HashAlgorithm registry value.
type HashAlgorithm uint8

// Hash algorithms from the TLS 1.2 registry.
const (
	HashNone HashAlgorithm = iota
	HashMD5
	HashSHA1
	HashSHA224
	HashSHA256
	HashSHA384
	HashSHA512
)

func (h HashAlgorithm) String() string {
	switch h {
	case HashNone:
		return "none"
	case HashMD5:
		return "md5"
	case HashSHA1:
		return "sha1"
	case HashSHA224:
		return "sha224"
	case HashSHA256:
		return "sha256"
	case HashSHA384:
		return "sha384"
	case HashSHA512:
		return "sha512"
	}
	return fmt.Sprintf("hash(%d)", uint8(h))
}

// SignatureAlgorithm is the TLS SignatureAlgorithm registry value.
type SignatureAlgorithm uint8

// Signature algorithms from the TLS 1.2 registry.
const (
	SignatureAnonymous SignatureAlgorithm = iota
	SignatureRSA
	SignatureDSA
	SignatureECDSA
)

func (s SignatureAlgorithm) String() string {
	switch s {
	case SignatureAnonymous:
		return "anonymous"
	case SignatureRSA:
		return "rsa"
	case SignatureDSA:
		return "dsa"
	case SignatureECDSA:
		return "ecdsa"
	}
	return fmt.Sprintf("signature(%d)", uint8(s))
}

// DigitallySigned is the TLS digitally-signed struct carried by an SCT.
type DigitallySigned struct {
	HashAlgorithm      HashAlgorithm
	SignatureAlgorithm SignatureAlgorithm
	Signature          []byte
}

// SignedCertificateTimestamp is a log's promise to incorporate a certificate.
type SignedCertificateTimestamp struct {
	Version    Version
	LogID      [LogIDLength]byte
	Timestamp  uint64 // milliseconds since the Unix epoch
	Extensions []byte
	Signature  DigitallySigned
}

// Time returns the SCT timestamp as a time.Time.
func (s *SignedCertificateTimestamp) Time() time.Time {
	return time.UnixMilli(int64(s.Timestamp)).UTC()
}

// LogIDBase64 returns the log ID in the base64 form used by log lists.
func (s *SignedCertificateTimestamp) LogIDBase64() string {
	return base64.StdEncoding.EncodeToString(s.LogID[:])
}

// Parse decodes a single serialized SCT. The input must contain exactly one SCT.
func Parse(data []byte) (*SignedCertificateTimestamp, error) {
	d := codec.NewDeserializer(data)
	s, err := Read(d)
	if err != nil {
		return nil, err
	}
	if err := d.Finish(); err != nil {
		return nil, codec.Wrap("sct", err)
	}
	return s, nil
}

// Read decodes an SCT from d, leaving any following bytes unread.
func Read(d *codec.Deserializer) (*SignedCertificateTimestamp, error) {
	s := &SignedCertificateTimestamp{}

	v, err := d.ReadNumber(1)
	if err != nil {
		return nil, codec.Wrap("version", err)
	}
	s.Version = Version(v)

	id, err := d.ReadFixedBytes(LogIDLength)
	if err != nil {
		return nil, codec.Wrap("log_id", err)
	}
	copy(s.LogID[:], id)

	if s.Timestamp, err = d.ReadNumber(8); err != nil {
		return nil, codec.Wrap("timestamp", err)
	}

	if s.Extensions, err = d.ReadVariableLength(MaxExtensionsLength); err != nil {
		return nil, codec.Wrap("extensions", err)
	}

	if s.Signature, err = ReadDigitallySigned(d); err != nil {
		return nil, codec.Wrap("signature", err)
	}

	return s, nil
}

// ReadDigitallySigned decodes a digitally-signed struct.
func ReadDigitallySigned(d *codec.Deserializer) (DigitallySigned, error) {
	var ds DigitallySigned

	h, err := d.ReadNumber(1)
	if err != nil {
		return ds, codec.Wrap("hash_algorithm", err)
	}
	sig, err := d.ReadNumber(1)
	if err != nil {
		return ds, codec.Wrap("signature_algorithm", err)
	}
	ds.HashAlgorithm = HashAlgorithm(h)
	ds.SignatureAlgorithm = SignatureAlgorithm(sig)

	if ds.Signature, err = d.ReadVariableLength(MaxSignatureLength); err != nil {
		return ds, codec.Wrap("signature", err)
	}
	return ds, nil
}

// Marshal encodes the SCT in its RFC 6962 wire form.
func (s *SignedCertificateTimestamp) Marshal() ([]byte, error) {
	ser := codec.NewSerializer()
	if err := s.write(ser); err != nil {
		return nil, err
	}
	return ser.Bytes()
}

func (s *SignedCertificateTimestamp) write(ser *codec.Serializer) error {
	if err := ser.WriteNumber(uint64(s.Version), 1); err != nil {
		return codec.Wrap("version", err)
	}
	ser.WriteFixedBytes(s.LogID[:])
	if err := ser.WriteNumber(s.Timestamp, 8); err != nil {
		return codec.Wrap("timestamp", err)
	}
	if err := ser.WriteVariableLength(s.Extensions, MaxExtensionsLength); err != nil {
		return codec.Wrap("extensions", err)
	}
	return codec.Wrap("signature", s.Signature.write(ser))
}

// Marshal encodes the digitally-signed struct.
func (ds DigitallySigned) Marshal() ([]byte, error) {
	ser := codec.NewSerializer()
	if err := ds.write(ser); err != nil {
		return nil, err
	}
	return ser.Bytes()
}

func (ds DigitallySigned) write(ser *codec.Serializer) error {
	if err := ser.WriteNumber(uint64(ds.HashAlgorithm), 1); err != nil {
		return err
	}
	if err := ser.WriteNumber(uint64(ds.SignatureAlgorithm), 1); err != nil {
		return err
	}
	return ser.WriteVariableLength(ds.Signature, MaxSignatureLength)
}
