// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/gc"
	x509certs "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/certs"
)

// MaxIssuerSize caps an issuer certificate downloaded over AIA.
const MaxIssuerSize = 64 << 10

// HTTPConfig holds HTTP client configuration shared by every outbound
// request the verifier makes: AIA downloads, log list fetches and CT log calls.
type HTTPConfig struct {
	Timeout   time.Duration // HTTP request timeout
	Version   string        // Application version for User-Agent
	UserAgent string        // Custom User-Agent string, if empty will be constructed from Version

	mu     sync.Mutex
	client *http.Client
}

// NewHTTPConfig creates a new HTTP configuration with a default timeout of
// 10 seconds and the provided application version.
//
// Parameters:
//   - version: Application version string used in the User-Agent
//
// Returns:
//   - *HTTPConfig: New HTTP configuration
func NewHTTPConfig(version string) *HTTPConfig {
	return &HTTPConfig{
		Timeout: 10 * time.Second,
		Version: version,
	}
}

// GetUserAgent returns the User-Agent string, constructing it if not set.
func (c *HTTPConfig) GetUserAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return fmt.Sprintf("TLS-CT-Verifier/%s (+https://github.com/H0llyW00dzZ/tls-ct-verifier)", c.Version)
}

// Client returns an HTTP client configured with the current timeout.
//
// The client is created on first use and reused afterwards; a changed
// Timeout is applied to the existing client.
//
// Returns:
//   - *http.Client: Shared client for AIA, OCSP, CRL, log list and log API requests
//
// Thread Safety: Safe for concurrent use.
func (c *HTTPConfig) Client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		c.client = &http.Client{Timeout: c.Timeout}
		return c.client
	}

	if c.client.Timeout != c.Timeout {
		c.client.Timeout = c.Timeout
	}

	return c.client
}

// Chain holds the certificates a server presented, leaf first, and can
// complete them with issuers downloaded over AIA before cleaning.
type Chain struct {
	mu    sync.RWMutex
	Certs []*x509.Certificate
	*x509certs.Certificate
	HTTPConfig *HTTPConfig // HTTP client configuration
}

// New creates a new Chain starting at cert.
//
// Parameters:
//   - cert: Starting certificate (leaf)
//   - version: Application version for HTTP configuration
//
// Returns:
//   - *Chain: New Chain instance
func New(cert *x509.Certificate, version string) *Chain {
	return &Chain{
		Certs:       []*x509.Certificate{cert},
		Certificate: x509certs.New(),
		HTTPConfig:  NewHTTPConfig(version),
	}
}

// Snapshot returns a copy of the certificates.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Snapshot() []*x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return append([]*x509.Certificate(nil), ch.Certs...)
}

// FetchCertificate completes the chain from its last certificate.
//
// It iteratively fetches the issuing certificate using the AIA (Authority
// Information Access) extension URL until a self-signed certificate is
// reached, no further issuer URL exists, or MaxSigners issuers were added.
// Each download is read through a pooled buffer capped at MaxIssuerSize.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//
// Returns:
//   - error: Error if a download or decode fails
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) FetchCertificate(ctx context.Context) error {
	for range MaxSigners {
		ch.mu.RLock()
		last := ch.Certs[len(ch.Certs)-1]
		ch.mu.RUnlock()
		if len(last.IssuingCertificateURL) == 0 || ch.IsRootNode(last) {
			return nil
		}

		cert, err := ch.fetchIssuer(ctx, last.IssuingCertificateURL[0])
		if err != nil {
			return err
		}

		ch.mu.Lock()
		if ch.Certs[len(ch.Certs)-1] == last {
			ch.Certs = append(ch.Certs, cert)
		}
		ch.mu.Unlock()
	}
	return ErrChainTooLong
}

func (ch *Chain) fetchIssuer(ctx context.Context, url string) (*x509.Certificate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", ch.HTTPConfig.GetUserAgent())

	resp, err := ch.HTTPConfig.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("x509chain: fetching issuer from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("x509chain: issuer %s returned status %d", url, resp.StatusCode)
	}

	data, err := gc.ReadAll(resp.Body, MaxIssuerSize)
	if err != nil {
		return nil, fmt.Errorf("x509chain: reading issuer from %s: %w", url, err)
	}
	return ch.Certificate.Decode(data)
}

// AddRootCA appends the root that crypto/x509 finds for the last
// certificate in the system pool. Unknown authorities are not an error.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) AddRootCA() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	intermediates := x509.NewCertPool()
	for _, cert := range ch.Certs[1:] {
		intermediates.AddCert(cert)
	}
	chains, err := ch.Certs[0].Verify(x509.VerifyOptions{
		Intermediates: intermediates,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		var unknown x509.UnknownAuthorityError
		var noRoots x509.SystemRootsError
		if errors.As(err, &unknown) || errors.As(err, &noRoots) {
			return nil
		}
		return err
	}

	root := chains[0][len(chains[0])-1]
	if !ch.Certs[len(ch.Certs)-1].Equal(root) {
		ch.Certs = append(ch.Certs, root)
	}
	return nil
}

// IsSelfSigned checks if a certificate is self-signed.
func (ch *Chain) IsSelfSigned(cert *x509.Certificate) bool {
	return cert.CheckSignatureFrom(cert) == nil
}

// IsRootNode determines if a certificate is a root node in the chain.
func (ch *Chain) IsRootNode(cert *x509.Certificate) bool {
	return ch.IsSelfSigned(cert)
}

// FilterIntermediates returns every certificate except the leaf and the last one.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) FilterIntermediates() []*x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) <= 2 {
		return nil // No intermediates if 2 or fewer certs
	}
	return ch.Certs[1 : len(ch.Certs)-1] // Skip the first (leaf) and last (root)
}
