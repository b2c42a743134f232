// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cttest builds certificate authorities, logs and SCT-bearing
// certificates for tests.
package cttest

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/loglist"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/sct"
	x509certs "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/certs"
)

var serial atomic.Int64

func nextSerial() *big.Int { return big.NewInt(serial.Add(1) + 1000) }

// Log is a fake CT log able to issue SCTs.
type Log struct {
	Key       crypto.Signer
	PublicDER []byte
	ID        [sct.LogIDLength]byte
	hash      sct.HashAlgorithm
	sig       sct.SignatureAlgorithm
}

// NewLog creates a log with a P-256 key.
func NewLog(t testing.TB) *Log {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return newLog(t, key, sct.SignatureECDSA)
}

// NewRSALog creates a log with a 2048-bit RSA key.
func NewRSALog(t testing.TB) *Log {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return newLog(t, key, sct.SignatureRSA)
}

func newLog(t testing.TB, key crypto.Signer, alg sct.SignatureAlgorithm) *Log {
	der, err := x509.MarshalPKIXPublicKey(key.Public())
	require.NoError(t, err)
	return &Log{
		Key:       key,
		PublicDER: der,
		ID:        sha256.Sum256(der),
		hash:      sct.HashSHA256,
		sig:       alg,
	}
}

// Sign issues an SCT over entry at the given time.
func (l *Log) Sign(t testing.TB, entry sct.Entry, at time.Time) *sct.SignedCertificateTimestamp {
	t.Helper()
	s, err := l.sign(entry, at)
	require.NoError(t, err)
	return s
}

func (l *Log) sign(entry sct.Entry, at time.Time) (*sct.SignedCertificateTimestamp, error) {
	s := &sct.SignedCertificateTimestamp{
		Version:   sct.V1,
		LogID:     l.ID,
		Timestamp: uint64(at.UnixMilli()),
	}
	data, err := sct.SignedData(s, entry)
	if err != nil {
		return nil, err
	}
	ds, err := l.signDigest(data)
	if err != nil {
		return nil, err
	}
	s.Signature = ds
	return s, nil
}

func (l *Log) signDigest(data []byte) (sct.DigitallySigned, error) {
	digest := sha256.Sum256(data)
	signature, err := l.Key.Sign(rand.Reader, digest[:], crypto.SHA256)
	if err != nil {
		return sct.DigitallySigned{}, err
	}
	return sct.DigitallySigned{
		HashAlgorithm:      l.hash,
		SignatureAlgorithm: l.sig,
		Signature:          signature,
	}, nil
}

// CA is a certificate authority with its signing key.
type CA struct {
	Cert *x509.Certificate
	Key  crypto.Signer
}

// NewRootCA creates a self-signed root.
func NewRootCA(t testing.TB, name string) *CA {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	template := caTemplate(name)
	der, err := x509.CreateCertificate(rand.Reader, template, template, key.Public(), key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return &CA{Cert: cert, Key: key}
}

// NewIntermediate creates a CA signed by parent.
func (ca *CA) NewIntermediate(t testing.TB, name string) *CA {
	t.Helper()
	return ca.issueCA(t, caTemplate(name))
}

// NewPrecertSigner creates a precertificate signing certificate under ca.
func (ca *CA) NewPrecertSigner(t testing.TB, name string) *CA {
	t.Helper()
	template := caTemplate(name)
	template.UnknownExtKeyUsage = []asn1.ObjectIdentifier{x509certs.OIDExtKeyUsagePrecertificateSigning}
	return ca.issueCA(t, template)
}

func (ca *CA) issueCA(t testing.TB, template *x509.Certificate) *CA {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.CreateCertificate(rand.Reader, template, ca.Cert, key.Public(), ca.Key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return &CA{Cert: cert, Key: key}
}

func caTemplate(name string) *x509.Certificate {
	return &x509.Certificate{
		SerialNumber:          nextSerial(),
		Subject:               pkix.Name{CommonName: name, Organization: []string{"CT Test"}},
		NotBefore:             time.Now().Add(-24 * time.Hour),
		NotAfter:              time.Now().Add(10 * 365 * 24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}
}

// LeafTemplate returns a server certificate template for host valid
// between notBefore and notAfter.
func LeafTemplate(host string, notBefore, notAfter time.Time) *x509.Certificate {
	return &x509.Certificate{
		SerialNumber: nextSerial(),
		Subject:      pkix.Name{CommonName: host},
		DNSNames:     []string{host},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
}

// Issue signs template with ca and returns the certificate.
func (ca *CA) Issue(t testing.TB, template *x509.Certificate) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.CreateCertificate(rand.Reader, template, ca.Cert, key.Public(), ca.Key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

// IssueWithSCTs issues a certificate embedding one SCT from each log.
//
// The SCTs are signed over the TBSCertificate of the certificate without the
// SCT list extension, which is what a verifier reconstructs by removing the
// extension again. issuerKeyHash is the key hash the logs saw; normally the
// key hash of ca.
func (ca *CA) IssueWithSCTs(t testing.TB, template *x509.Certificate, issuerKeyHash [sha256.Size]byte, at time.Time, logs ...*Log) (*x509.Certificate, []*sct.SignedCertificateTimestamp) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	draftDER, err := x509.CreateCertificate(rand.Reader, template, ca.Cert, key.Public(), ca.Key)
	require.NoError(t, err)
	draft, err := x509.ParseCertificate(draftDER)
	require.NoError(t, err)

	entry := sct.PrecertificateEntry(issuerKeyHash, draft.RawTBSCertificate)
	scts := make([]*sct.SignedCertificateTimestamp, 0, len(logs))
	for _, l := range logs {
		scts = append(scts, l.Sign(t, entry, at))
	}

	value, err := sct.EncodeExtension(scts)
	require.NoError(t, err)

	final := *template
	final.ExtraExtensions = append(append([]pkix.Extension(nil), template.ExtraExtensions...),
		pkix.Extension{Id: x509certs.OIDExtensionSCTList, Value: value})

	der, err := x509.CreateCertificate(rand.Reader, &final, ca.Cert, key.Public(), ca.Key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, scts
}

// PoisonExtension is the critical precertificate poison extension.
func PoisonExtension() pkix.Extension {
	return pkix.Extension{Id: x509certs.OIDExtensionPoison, Critical: true, Value: asn1.NullBytes}
}

// IssuePrecertWithSCTs issues a poisoned precertificate of template from
// signer, with one SCT from each log. The SCTs are signed as if ca, which
// signer is or chains to, had issued the final certificate.
func (signer *CA) IssuePrecertWithSCTs(t testing.TB, template *x509.Certificate, ca *CA, at time.Time, logs ...*Log) (*x509.Certificate, []*sct.SignedCertificateTimestamp) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	finalDER, err := x509.CreateCertificate(rand.Reader, template, ca.Cert, key.Public(), ca.Key)
	require.NoError(t, err)
	final, err := x509.ParseCertificate(finalDER)
	require.NoError(t, err)

	entry := sct.PrecertificateEntry(x509certs.KeyHash(ca.Cert), final.RawTBSCertificate)
	scts := make([]*sct.SignedCertificateTimestamp, 0, len(logs))
	for _, l := range logs {
		scts = append(scts, l.Sign(t, entry, at))
	}

	pre := *template
	pre.ExtraExtensions = append(append([]pkix.Extension(nil), template.ExtraExtensions...), PoisonExtension())
	der, err := x509.CreateCertificate(rand.Reader, &pre, signer.Cert, key.Public(), signer.Key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, scts
}

// Server returns the log as a trusted log list entry.
func (l *Log) Server(t testing.TB, description string) *loglist.LogServer {
	t.Helper()
	return &loglist.LogServer{
		ID:          l.ID,
		Key:         l.Key.Public(),
		KeyDER:      l.PublicDER,
		Description: description,
		Operator:    "CT Test",
		State:       "usable",
	}
}
