// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package sct

import (
	"crypto/x509"
	"errors"
	"fmt"

	ctasn1 "github.com/google/certificate-transparency-go/asn1"
	"golang.org/x/crypto/ocsp"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/codec"
	x509certs "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/certs"
)

// ErrMalformedEntry is returned alongside the well-formed SCTs of a list
// when one or more entries could not be decoded.
var ErrMalformedEntry = errors.New("sct: malformed SCT in list")

// Origin records where an SCT was delivered from.
type Origin int

const (
	// OriginEmbedded is an SCT from the certificate's X.509v3 extension.
	OriginEmbedded Origin = iota
	// OriginTLSExtension is an SCT from the signed_certificate_timestamp TLS extension.
	OriginTLSExtension
	// OriginOCSP is an SCT from a stapled OCSP response extension.
	OriginOCSP
)

func (o Origin) String() string {
	switch o {
	case OriginEmbedded:
		return "embedded"
	case OriginTLSExtension:
		return "tls-extension"
	case OriginOCSP:
		return "ocsp"
	}
	return "unknown"
}

// ParseList decodes a SignedCertificateTimestampList.
//
// A framing error returns no SCTs. Entries that fail to decode individually
// are dropped and reported through an error wrapping [ErrMalformedEntry],
// returned together with the entries that did decode.
func ParseList(data []byte) ([]*SignedCertificateTimestamp, error) {
	d := codec.NewDeserializer(data)
	entries, err := d.ReadList(MaxListLength, MaxSerializedLength)
	if err != nil {
		return nil, codec.Wrap("sct_list", err)
	}
	if err := d.Finish(); err != nil {
		return nil, codec.Wrap("sct_list", err)
	}
	return parseEntries(entries)
}

// ParseEntries decodes SCTs that arrive already split, as in
// tls.ConnectionState.SignedCertificateTimestamps.
func ParseEntries(entries [][]byte) ([]*SignedCertificateTimestamp, error) {
	return parseEntries(entries)
}

func parseEntries(entries [][]byte) ([]*SignedCertificateTimestamp, error) {
	var (
		scts []*SignedCertificateTimestamp
		errs []error
	)
	for i, entry := range entries {
		s, err := Parse(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		scts = append(scts, s)
	}
	if len(errs) > 0 {
		return scts, fmt.Errorf("%w: %w", ErrMalformedEntry, errors.Join(errs...))
	}
	return scts, nil
}

// MarshalList encodes scts as a SignedCertificateTimestampList.
func MarshalList(scts []*SignedCertificateTimestamp) ([]byte, error) {
	entries := make([][]byte, 0, len(scts))
	for _, s := range scts {
		b, err := s.Marshal()
		if err != nil {
			return nil, err
		}
		entries = append(entries, b)
	}
	ser := codec.NewSerializer()
	if err := ser.WriteList(entries, MaxListLength, MaxSerializedLength); err != nil {
		return nil, codec.Wrap("sct_list", err)
	}
	return ser.Bytes()
}

// FromCertificate returns the SCTs embedded in cert. A certificate without
// the SCT list extension yields no SCTs and no error.
func FromCertificate(cert *x509.Certificate) ([]*SignedCertificateTimestamp, error) {
	ext, ok := x509certs.Extension(cert, x509certs.OIDExtensionSCTList)
	if !ok {
		return nil, nil
	}
	return fromOctetString(ext.Value)
}

// FromOCSPResponse returns the SCTs carried in the single-response
// extension of a DER OCSP response issued for issuer.
func FromOCSPResponse(der []byte, issuer *x509.Certificate) ([]*SignedCertificateTimestamp, error) {
	resp, err := ocsp.ParseResponse(der, issuer)
	if err != nil {
		return nil, fmt.Errorf("sct: parsing OCSP response: %w", err)
	}
	for _, ext := range resp.Extensions {
		if ext.Id.Equal(x509certs.OIDExtensionOCSPSCTList) {
			return fromOctetString(ext.Value)
		}
	}
	return nil, nil
}

// EncodeExtension wraps an SCT list in the OCTET STRING used as the value
// of the X.509 and OCSP SCT list extensions.
func EncodeExtension(scts []*SignedCertificateTimestamp) ([]byte, error) {
	list, err := MarshalList(scts)
	if err != nil {
		return nil, err
	}
	return ctasn1.Marshal(list)
}

func fromOctetString(value []byte) ([]*SignedCertificateTimestamp, error) {
	var inner []byte
	rest, err := ctasn1.Unmarshal(value, &inner)
	if err != nil {
		return nil, fmt.Errorf("sct: SCT list extension could not be parsed: %w", err)
	}
	if len(rest) != 0 {
		return nil, codec.Wrap("sct_list_extension", codec.ErrTrailingData)
	}
	return ParseList(inner)
}
