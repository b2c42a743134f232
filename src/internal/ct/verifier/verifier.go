// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package verifier

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/loglist"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/sct"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/metrics"
	x509certs "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/certs"
)

// Observed is an SCT together with where it was delivered from, which
// decides whether it covers the precertificate or the final certificate.
type Observed struct {
	SCT    *sct.SignedCertificateTimestamp
	Origin sct.Origin
}

// LogSignatureVerifier checks SCTs issued by one log.
type LogSignatureVerifier struct {
	Server *loglist.LogServer
	// Now defaults to time.Now.
	Now func() time.Time
}

func (v *LogSignatureVerifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// Verify checks s, delivered via origin, against chain. chain[0] is the
// leaf and chain[1], if present, its issuer.
func (v *LogSignatureVerifier) Verify(s *sct.SignedCertificateTimestamp, origin sct.Origin, chain []*x509.Certificate) Result {
	if len(chain) == 0 {
		return NoIssuer{}
	}
	if s.LogID != v.Server.ID {
		return NoLogServerFound{LogID: s.LogID}
	}

	issued := s.Time()
	if now := v.now(); issued.After(now) {
		return FutureTimestamp{Timestamp: issued, Now: now}
	}
	if !v.Server.TrustedAt(issued) {
		return LogServerUntrusted{Timestamp: issued, ValidUntil: *v.Server.ValidUntil}
	}

	entry, inv := EntryFor(origin, chain)
	if inv != nil {
		return inv
	}
	data, err := sct.SignedData(s, entry)
	if err != nil {
		return EncodingFailed{Err: err}
	}
	return v.checkSignature(s, data)
}

// EntryFor picks the signed entry. Embedded SCTs and SCTs over a
// precertificate leaf cover the precertificate, the rest the DER certificate.
func EntryFor(origin sct.Origin, chain []*x509.Certificate) (sct.Entry, Invalid) {
	leaf := chain[0]
	if origin != sct.OriginEmbedded && !x509certs.IsPreCertificate(leaf) {
		return sct.CertificateEntry(leaf.Raw), nil
	}

	info, inv := IssuerFor(chain)
	if inv != nil {
		return sct.Entry{}, inv
	}
	tbs, err := precertTBS(leaf, info)
	if err != nil {
		return sct.Entry{}, EncodingFailed{Err: err}
	}
	return sct.PrecertificateEntry(info.KeyHash, tbs), nil
}

func (v *LogSignatureVerifier) checkSignature(s *sct.SignedCertificateTimestamp, data []byte) Result {
	alg := s.Signature
	if alg.HashAlgorithm != sct.HashSHA256 {
		return NoSuchAlgorithm{Hash: alg.HashAlgorithm, Signature: alg.SignatureAlgorithm}
	}
	digest := sha256.Sum256(data)

	switch alg.SignatureAlgorithm {
	case sct.SignatureECDSA:
		key, ok := v.Server.Key.(*ecdsa.PublicKey)
		if !ok {
			return KeyNotValid{Err: fmt.Errorf("ECDSA signature but log key is %T", v.Server.Key)}
		}
		if !ecdsa.VerifyASN1(key, digest[:], alg.Signature) {
			return FailedVerification{Log: v.Server}
		}
	case sct.SignatureRSA:
		key, ok := v.Server.Key.(*rsa.PublicKey)
		if !ok {
			return KeyNotValid{Err: fmt.Errorf("RSA signature but log key is %T", v.Server.Key)}
		}
		if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], alg.Signature); err != nil {
			return FailedVerification{Log: v.Server}
		}
	default:
		return NoSuchAlgorithm{Hash: alg.HashAlgorithm, Signature: alg.SignatureAlgorithm}
	}
	return Valid{SCT: s, Log: v.Server}
}

// VerifyAll checks every observed SCT against the log that issued it, in
// parallel.
//
// Parameters:
//   - list: trusted logs, looked up by the SCT's log ID
//   - chain: cleaned chain, leaf first
//   - observed: SCTs with the delivery method they arrived by
//   - now: time SCT timestamps and log validity are judged at
//   - collector: receives one SCT check per result; nil means metrics.Default
//
// Returns:
//   - []Result: one result per observed SCT, in the order of observed
//   - error: only when ctx ends before every check ran
func VerifyAll(ctx context.Context, list *loglist.LogList, chain []*x509.Certificate, observed []Observed, now time.Time, collector *metrics.Collector) ([]Result, error) {
	if collector == nil {
		collector = metrics.Default
	}
	results := make([]Result, len(observed))
	g, ctx := errgroup.WithContext(ctx)

	for i, o := range observed {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			server, ok := list.Lookup(o.SCT.LogID)
			if !ok {
				results[i] = NoLogServerFound{LogID: o.SCT.LogID}
			} else {
				v := &LogSignatureVerifier{Server: server, Now: func() time.Time { return now }}
				results[i] = v.Verify(o.SCT, o.Origin, chain)
			}
			collector.SCTChecks.WithLabelValues(results[i].Kind()).Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CountValid returns how many results are Valid, counting each log once.
func CountValid(results []Result) int {
	seen := make(map[[sct.LogIDLength]byte]struct{})
	for _, r := range results {
		if v, ok := r.(Valid); ok {
			seen[v.SCT.LogID] = struct{}{}
		}
	}
	return len(seen)
}
