// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package revocation

import (
	"bytes"
	"context"
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/ocsp"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/gc"
	x509chain "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/chain"
)

// MaxOCSPSize caps a downloaded OCSP response.
const MaxOCSPSize = 64 << 10

// ErrNoResponder is returned for a certificate without an OCSP URL.
var ErrNoResponder = errors.New("revocation: certificate has no OCSP responder")

// OCSPStatus names an OCSP certificate status.
func OCSPStatus(resp *ocsp.Response) string {
	switch resp.Status {
	case ocsp.Good:
		return "good"
	case ocsp.Revoked:
		return "revoked"
	}
	return "unknown"
}

// FetchOCSP asks cert's responder for its status. The raw DER response is
// returned along with the parsed one so that SCTs can be read from it.
//
// Parameters:
//   - ctx: Context for cancellation
//   - cfg: HTTP configuration supplying the client and User-Agent
//   - cert: Certificate whose status is requested
//   - issuer: Issuer of cert, used to build the request
//
// Returns:
//   - *ocsp.Response: Parsed response
//   - []byte: Raw DER response
//   - error: [ErrNoResponder] if cert names no responder, or a request error
func FetchOCSP(ctx context.Context, cfg *x509chain.HTTPConfig, cert, issuer *x509.Certificate) (*ocsp.Response, []byte, error) {
	if len(cert.OCSPServer) == 0 {
		return nil, nil, ErrNoResponder
	}
	body, err := ocsp.CreateRequest(cert, issuer, &ocsp.RequestOptions{Hash: crypto.SHA1})
	if err != nil {
		return nil, nil, fmt.Errorf("revocation: creating OCSP request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cert.OCSPServer[0], bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("revocation: OCSP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/ocsp-request")
	req.Header.Set("Accept", "application/ocsp-response")
	req.Header.Set("User-Agent", cfg.GetUserAgent())

	resp, err := cfg.Client().Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("revocation: OCSP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("revocation: OCSP server returned status %d", resp.StatusCode)
	}

	raw, err := gc.ReadAll(resp.Body, MaxOCSPSize)
	if err != nil {
		return nil, nil, fmt.Errorf("revocation: reading OCSP response: %w", err)
	}
	parsed, err := ocsp.ParseResponseForCert(raw, cert, issuer)
	if err != nil {
		return nil, nil, fmt.Errorf("revocation: parsing OCSP response: %w", err)
	}
	return parsed, raw, nil
}

// ImportOCSP adds cert to l when resp reports it revoked.
func (l *List) ImportOCSP(cert *x509.Certificate, resp *ocsp.Response) bool {
	if resp.Status != ocsp.Revoked {
		return false
	}
	l.Add(cert.RawIssuer, cert.SerialNumber)
	return true
}
