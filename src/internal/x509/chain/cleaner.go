// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"
)

// MaxSigners bounds how many issuers the cleaner appends to the leaf.
const MaxSigners = 9

var (
	// ErrEmptyChain indicates a chain without any certificate.
	ErrEmptyChain = errors.New("x509chain: empty certificate chain")

	// ErrNoTrustedCertificate indicates no path from the leaf to a trust anchor.
	ErrNoTrustedCertificate = errors.New("x509chain: failed to find a trusted certificate")

	// ErrChainTooLong indicates the walk exceeded MaxSigners issuers.
	ErrChainTooLong = errors.New("x509chain: certificate chain too long")
)

// ChainError reports why a chain for Host could not be cleaned.
type ChainError struct {
	Host string
	// Subject is the subject of the certificate the walk stopped at, if any.
	Subject string
	Err     error
}

func (e *ChainError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%v for %s (at %q)", e.Err, e.Host, e.Subject)
	}
	return fmt.Sprintf("%v for %s", e.Err, e.Host)
}

func (e *ChainError) Unwrap() error { return e.Err }

// Cleaner turns the certificates a server presented into an ordered chain
// ending at a trust anchor: leaf first, each certificate followed by its issuer.
type Cleaner interface {
	Clean(chain []*x509.Certificate, hostname string) ([]*x509.Certificate, error)
}

// CleanerFactory builds a Cleaner from a set of trust anchors. A nil or
// empty anchor set means the platform's roots.
type CleanerFactory func(anchors []*x509.Certificate) Cleaner

// DefaultCleanerFactory returns a BasicCleaner when anchors are given and a
// SystemCleaner otherwise.
func DefaultCleanerFactory(anchors []*x509.Certificate) Cleaner {
	if len(anchors) == 0 {
		return &SystemCleaner{}
	}
	return NewBasicCleaner(anchors...)
}

// BasicCleaner rebuilds a chain by following issuer names and signatures,
// without relying on the order the server sent the certificates in.
type BasicCleaner struct {
	bySubject map[string][]*x509.Certificate
}

// NewBasicCleaner indexes anchors by subject.
func NewBasicCleaner(anchors ...*x509.Certificate) *BasicCleaner {
	c := &BasicCleaner{bySubject: make(map[string][]*x509.Certificate, len(anchors))}
	for _, a := range anchors {
		key := string(a.RawSubject)
		c.bySubject[key] = append(c.bySubject[key], a)
	}
	return c
}

// trustedIssuer returns the anchor that signed cert.
func (c *BasicCleaner) trustedIssuer(cert *x509.Certificate) *x509.Certificate {
	for _, anchor := range c.bySubject[string(cert.RawIssuer)] {
		if cert.CheckSignatureFrom(anchor) == nil {
			return anchor
		}
	}
	return nil
}

// Clean treats chain[1:] as an unordered pool. Starting from chain[0] it
// appends, at each step, either the trust anchor that signed the tail or
// the pool certificate that did. A self-signed anchor ends the chain.
// Pool certificates left over once an anchor was reached are dropped.
func (c *BasicCleaner) Clean(chain []*x509.Certificate, hostname string) ([]*x509.Certificate, error) {
	if len(chain) == 0 {
		return nil, &ChainError{Host: hostname, Err: ErrEmptyChain}
	}

	pool := append([]*x509.Certificate(nil), chain[1:]...)
	result := []*x509.Certificate{chain[0]}
	foundTrusted := false

next:
	for range MaxSigners {
		tail := result[len(result)-1]

		if anchor := c.trustedIssuer(tail); anchor != nil {
			if len(result) > 1 || !tail.Equal(anchor) {
				result = append(result, anchor)
			}
			if signs(anchor, anchor) {
				return result, nil
			}
			foundTrusted = true
			continue
		}

		for i, candidate := range pool {
			if signs(candidate, tail) {
				pool = append(pool[:i], pool[i+1:]...)
				result = append(result, candidate)
				continue next
			}
		}

		if foundTrusted {
			return result, nil
		}
		return nil, &ChainError{Host: hostname, Subject: tail.Subject.String(), Err: ErrNoTrustedCertificate}
	}
	return nil, &ChainError{Host: hostname, Err: ErrChainTooLong}
}

// signs reports whether issuer's subject names cert's issuer and issuer's
// key verifies cert's signature.
func signs(issuer, cert *x509.Certificate) bool {
	if !bytes.Equal(cert.RawIssuer, issuer.RawSubject) {
		return false
	}
	return cert.CheckSignatureFrom(issuer) == nil
}

// SystemCleaner delegates path building to crypto/x509 using Roots, or the
// system pool when Roots is nil. Every certificate after the leaf is
// offered as an intermediate.
type SystemCleaner struct {
	Roots *x509.CertPool
}

// Clean returns the first chain crypto/x509 verifies. Hostname checks are
// left to the TLS stack.
func (c *SystemCleaner) Clean(chain []*x509.Certificate, hostname string) ([]*x509.Certificate, error) {
	if len(chain) == 0 {
		return nil, &ChainError{Host: hostname, Err: ErrEmptyChain}
	}
	intermediates := x509.NewCertPool()
	for _, cert := range chain[1:] {
		intermediates.AddCert(cert)
	}
	chains, err := chain[0].Verify(x509.VerifyOptions{
		Roots:         c.Roots,
		Intermediates: intermediates,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return nil, &ChainError{Host: hostname, Subject: chain[0].Subject.String(), Err: fmt.Errorf("%w: %w", ErrNoTrustedCertificate, err)}
	}
	if len(chains[0]) > MaxSigners+1 {
		return nil, &ChainError{Host: hostname, Err: ErrChainTooLong}
	}
	return chains[0], nil
}
