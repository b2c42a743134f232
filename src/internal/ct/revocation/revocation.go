// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package revocation

import (
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"
	"sync"

	x509chain "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/chain"
)

// Entry revokes the certificates with the given serial numbers issued
// under the DER-encoded distinguished name Issuer.
type Entry struct {
	Issuer  []byte
	Serials []*big.Int
}

// List is a set of revoked issuer and serial number pairs.
//
// Thread Safety: Safe for concurrent use.
type List struct {
	mu      sync.RWMutex
	revoked map[string]map[string]struct{}
}

// NewList creates a list holding entries.
func NewList(entries ...Entry) *List {
	l := &List{revoked: make(map[string]map[string]struct{})}
	for _, e := range entries {
		l.Add(e.Issuer, e.Serials...)
	}
	return l
}

// Add revokes serials under issuer.
func (l *List) Add(issuer []byte, serials ...*big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, ok := l.revoked[string(issuer)]
	if !ok {
		set = make(map[string]struct{}, len(serials))
		l.revoked[string(issuer)] = set
	}
	for _, s := range serials {
		set[string(s.Bytes())] = struct{}{}
	}
}

// Contains reports whether cert is revoked.
func (l *List) Contains(cert *x509.Certificate) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	set, ok := l.revoked[string(cert.RawIssuer)]
	if !ok {
		return false
	}
	_, ok = set[string(cert.SerialNumber.Bytes())]
	return ok
}

// Len returns the number of revoked serials.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, set := range l.revoked {
		n += len(set)
	}
	return n
}

// Result is the outcome of a revocation check.
type Result interface {
	isResult()
}

// Failure is any result that must not be trusted.
type Failure interface {
	Result
	error
}

// Trusted means no certificate of the chain is revoked.
type Trusted struct{}

func (Trusted) isResult() {}

// CertificateRevoked names the revoked certificate.
type CertificateRevoked struct {
	Certificate *x509.Certificate
}

func (CertificateRevoked) isResult() {}
func (e CertificateRevoked) Error() string {
	return fmt.Sprintf("revocation: certificate %q serial %s is revoked",
		e.Certificate.Subject.CommonName, e.Certificate.SerialNumber)
}

// NoCertificates means the server presented no certificate.
type NoCertificates struct{}

func (NoCertificates) isResult() {}
func (NoCertificates) Error() string { return "revocation: no certificates" }

// UnknownError wraps a failure that is not a revocation, such as a chain
// that cannot be cleaned.
type UnknownError struct {
	Err error
}

func (UnknownError) isResult() {}
func (e UnknownError) Unwrap() error { return e.Err }
func (e UnknownError) Error() string { return fmt.Sprintf("revocation: %v", e.Err) }

// Checker checks cleaned chains against a List.
type Checker struct {
	List    *List
	Cleaner x509chain.Cleaner
}

// Check cleans chain for host, then looks every certificate up.
func (c *Checker) Check(host string, chain []*x509.Certificate) Result {
	if len(chain) == 0 {
		return NoCertificates{}
	}
	cleaned := chain
	if c.Cleaner != nil {
		var err error
		if cleaned, err = c.Cleaner.Clean(chain, host); err != nil {
			if errors.Is(err, x509chain.ErrEmptyChain) {
				return NoCertificates{}
			}
			return UnknownError{Err: err}
		}
	}
	for _, cert := range cleaned {
		if c.List.Contains(cert) {
			return CertificateRevoked{Certificate: cert}
		}
	}
	return Trusted{}
}
