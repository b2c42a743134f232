// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package revocation

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/gc"
	x509chain "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/chain"
)

// MaxCRLSize caps a downloaded CRL.
const MaxCRLSize = 16 << 20

// ErrNoDistributionPoint is returned for a certificate without a CRL URL.
var ErrNoDistributionPoint = errors.New("revocation: certificate has no CRL distribution point")

// ParseCRL decodes a PEM or DER CRL and, when issuer is not nil, checks
// its signature.
func ParseCRL(data []byte, issuer *x509.Certificate) (*x509.RevocationList, error) {
	if block, _ := pem.Decode(data); block != nil {
		if block.Type != "X509 CRL" {
			return nil, fmt.Errorf("revocation: unexpected PEM block %q", block.Type)
		}
		data = block.Bytes
	}
	crl, err := x509.ParseRevocationList(data)
	if err != nil {
		return nil, fmt.Errorf("revocation: parsing CRL: %w", err)
	}
	if issuer != nil {
		if err := crl.CheckSignatureFrom(issuer); err != nil {
			return nil, fmt.Errorf("revocation: CRL signature: %w", err)
		}
	}
	return crl, nil
}

// Import adds every entry of crl to l and returns how many were added.
func (l *List) Import(crl *x509.RevocationList) int {
	for _, entry := range crl.RevokedCertificateEntries {
		l.Add(crl.RawIssuer, entry.SerialNumber)
	}
	return len(crl.RevokedCertificateEntries)
}

// Fetcher downloads CRLs through a CRLCache.
type Fetcher struct {
	HTTP  *x509chain.HTTPConfig
	Cache *CRLCache
}

// Fetch returns the CRL at url, signed by issuer when issuer is not nil.
func (f *Fetcher) Fetch(ctx context.Context, url string, issuer *x509.Certificate) (*x509.RevocationList, error) {
	if data, ok := f.Cache.Get(url); ok {
		return ParseCRL(data, issuer)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("revocation: CRL request: %w", err)
	}
	req.Header.Set("User-Agent", f.HTTP.GetUserAgent())

	resp, err := f.HTTP.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("revocation: CRL request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("revocation: CRL server returned status %d", resp.StatusCode)
	}

	data, err := gc.ReadAll(resp.Body, MaxCRLSize)
	if err != nil {
		return nil, fmt.Errorf("revocation: reading CRL: %w", err)
	}
	crl, err := ParseCRL(data, issuer)
	if err != nil {
		return nil, err
	}
	f.Cache.Set(url, data, crl.NextUpdate)
	return crl, nil
}

// ImportChain fetches the CRL of every certificate in chain but the last
// and imports them into l. chain must be ordered, each certificate
// followed by its issuer. Certificates without a distribution point are
// skipped.
func (f *Fetcher) ImportChain(ctx context.Context, l *List, chain []*x509.Certificate) (int, error) {
	total := 0
	for i := 0; i+1 < len(chain); i++ {
		cert := chain[i]
		if len(cert.CRLDistributionPoints) == 0 {
			continue
		}
		crl, err := f.Fetch(ctx, cert.CRLDistributionPoints[0], chain[i+1])
		if err != nil {
			return total, err
		}
		total += l.Import(crl)
	}
	return total, nil
}
