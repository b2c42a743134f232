// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logclient

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	ct "github.com/google/certificate-transparency-go"
	"github.com/google/certificate-transparency-go/client"
	"github.com/google/certificate-transparency-go/jsonclient"
	cttls "github.com/google/certificate-transparency-go/tls"
	"golang.org/x/time/rate"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/loglist"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/sct"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/verifier"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/metrics"
	x509certs "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/version"
)

var (
	// ErrEmptyChain indicates a submission without certificates.
	ErrEmptyChain = errors.New("logclient: empty chain")

	// ErrNoURL indicates a log list entry without a submission URL.
	ErrNoURL = errors.New("logclient: log has no URL")

	// ErrBadRange indicates an entry range whose end precedes its start.
	ErrBadRange = errors.New("logclient: invalid entry range")

	// ErrNoEntries indicates a get-entries response that made no progress.
	ErrNoEntries = errors.New("logclient: log returned no entries")
)

// Defaults applied by [New] to zero Config fields.
const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultBurst      = 10
)

// DefaultEntriesRate paces get-entries calls.
var DefaultEntriesRate = rate.Every(100 * time.Millisecond)

// Config tunes a [Client].
type Config struct {
	// HTTP supplies the client and User-Agent. Required.
	HTTP *x509chain.HTTPConfig
	// Attempts is the number of tries per call.
	Attempts uint
	// RetryDelay is the base delay between tries.
	RetryDelay time.Duration
	// EntriesRate and Burst limit get-entries paging.
	EntriesRate rate.Limit
	Burst       int
	// Metrics defaults to metrics.Default.
	Metrics *metrics.Collector
	// Now defaults to time.Now and dates SCT checks.
	Now func() time.Time
}

// TreeHead is a verified signed tree head.
type TreeHead struct {
	TreeSize  uint64
	Timestamp time.Time
	RootHash  [sha256.Size]byte
}

// Client is a CT log API client bound to one log list entry.
type Client struct {
	Server *loglist.LogServer

	log      *client.LogClient
	limiter  *rate.Limiter
	attempts uint
	delay    time.Duration
	metrics  *metrics.Collector
	now      func() time.Time
}

// New returns a client for server. Tree head signatures are verified with
// the server's key.
//
// Parameters:
//   - server: Log list entry supplying the URL and public key
//   - cfg: HTTP, retry and metrics settings; zero values take defaults
//
// Returns:
//   - *Client: Client for the log's RFC 6962 API
//   - error: [ErrNoURL] if the entry has no URL, or a key parse error
func New(server *loglist.LogServer, cfg Config) (*Client, error) {
	if server.URL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoURL, server.Description)
	}
	if cfg.HTTP == nil {
		cfg.HTTP = x509chain.NewHTTPConfig(version.Version)
	}

	lc, err := client.New(strings.TrimRight(server.URL, "/"), cfg.HTTP.Client(), jsonclient.Options{
		UserAgent:    cfg.HTTP.GetUserAgent(),
		PublicKeyDER: server.KeyDER,
	})
	if err != nil {
		return nil, fmt.Errorf("logclient: %s: %w", server.Description, err)
	}

	c := &Client{
		Server:   server,
		log:      lc,
		attempts: cfg.Attempts,
		delay:    cfg.RetryDelay,
		metrics:  cfg.Metrics,
		now:      cfg.Now,
	}
	if c.attempts == 0 {
		c.attempts = DefaultAttempts
	}
	if c.delay <= 0 {
		c.delay = DefaultRetryDelay
	}
	if c.metrics == nil {
		c.metrics = metrics.Default
	}
	if c.now == nil {
		c.now = time.Now
	}

	limit, burst := cfg.EntriesRate, cfg.Burst
	if limit == 0 {
		limit = DefaultEntriesRate
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	c.limiter = rate.NewLimiter(limit, burst)
	return c, nil
}

// retryable reports whether err may go away on a later try. Client errors
// from the log are final.
func retryable(err error) bool {
	var rsp jsonclient.RspError
	if errors.As(err, &rsp) {
		return rsp.StatusCode == 0 ||
			rsp.StatusCode == http.StatusTooManyRequests ||
			rsp.StatusCode >= http.StatusInternalServerError
	}
	return true
}

// call runs fn with retries and records the outcome under method.
func (c *Client) call(ctx context.Context, method string, fn func() error) error {
	err := retry.Do(fn,
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.metrics.CTLogRequests.WithLabelValues(method, outcome).Inc()

	if err != nil {
		return fmt.Errorf("logclient: %s %s: %w", c.Server.Description, method, err)
	}
	return nil
}

// Submit sends chain to the log and returns the SCT it issued, after
// checking the SCT's signature. A poisoned leaf goes to add-pre-chain.
func (c *Client) Submit(ctx context.Context, chain []*x509.Certificate) (*sct.SignedCertificateTimestamp, error) {
	if len(chain) == 0 {
		return nil, ErrEmptyChain
	}

	raw := make([]ct.ASN1Cert, 0, len(chain))
	for _, der := range x509certs.RawChain(chain) {
		raw = append(raw, ct.ASN1Cert{Data: der})
	}

	precert := x509certs.IsPreCertificate(chain[0])
	method := "add-chain"
	if precert {
		method = "add-pre-chain"
	}

	var issued *ct.SignedCertificateTimestamp
	err := c.call(ctx, method, func() (err error) {
		if precert {
			issued, err = c.log.AddPreChain(ctx, raw)
		} else {
			issued, err = c.log.AddChain(ctx, raw)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	wire, err := cttls.Marshal(*issued)
	if err != nil {
		return nil, fmt.Errorf("logclient: encode SCT: %w", err)
	}
	s, err := sct.Parse(wire)
	if err != nil {
		return nil, err
	}

	v := &verifier.LogSignatureVerifier{Server: c.Server, Now: c.now}
	if inv, ok := v.Verify(s, sct.OriginTLSExtension, chain).(verifier.Invalid); ok {
		return nil, fmt.Errorf("logclient: %s returned an SCT that does not verify: %w", c.Server.Description, inv)
	}
	return s, nil
}

// STH fetches the current signed tree head.
func (c *Client) STH(ctx context.Context) (*TreeHead, error) {
	var sth *ct.SignedTreeHead
	err := c.call(ctx, "get-sth", func() (err error) {
		sth, err = c.log.GetSTH(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &TreeHead{
		TreeSize:  sth.TreeSize,
		Timestamp: time.UnixMilli(int64(sth.Timestamp)),
		RootHash:  sth.SHA256RootHash,
	}, nil
}

// Consistency checks that newer extends older.
func (c *Client) Consistency(ctx context.Context, older, newer *TreeHead) error {
	var proof [][]byte
	if older.TreeSize > 0 && older.TreeSize < newer.TreeSize {
		err := c.call(ctx, "get-sth-consistency", func() (err error) {
			proof, err = c.log.GetSTHConsistency(ctx, older.TreeSize, newer.TreeSize)
			return err
		})
		if err != nil {
			return err
		}
	}
	if err := sct.VerifyConsistency(older.TreeSize, newer.TreeSize, older.RootHash[:], newer.RootHash[:], proof); err != nil {
		return fmt.Errorf("logclient: %s tree %d to %d: %w", c.Server.Description, older.TreeSize, newer.TreeSize, err)
	}
	return nil
}

// Inclusion proves that the SCT s, delivered via origin for chain, has
// been incorporated in the tree described by head, and returns its index.
func (c *Client) Inclusion(ctx context.Context, s *sct.SignedCertificateTimestamp, origin sct.Origin, chain []*x509.Certificate, head *TreeHead) (uint64, error) {
	if len(chain) == 0 {
		return 0, ErrEmptyChain
	}
	entry, inv := verifier.EntryFor(origin, chain)
	if inv != nil {
		return 0, inv
	}
	hash, err := sct.LeafFor(s, entry).Hash()
	if err != nil {
		return 0, err
	}

	var resp *ct.GetProofByHashResponse
	err = c.call(ctx, "get-proof-by-hash", func() (err error) {
		resp, err = c.log.GetProofByHash(ctx, hash[:], head.TreeSize)
		return err
	})
	if err != nil {
		return 0, err
	}

	index := uint64(resp.LeafIndex)
	if err := sct.VerifyInclusion(hash[:], index, head.TreeSize, resp.AuditPath, head.RootHash[:]); err != nil {
		return 0, fmt.Errorf("logclient: %s leaf %d: %w", c.Server.Description, index, err)
	}
	return index, nil
}

// Entry fetches the leaf at index and proves it against head.
func (c *Client) Entry(ctx context.Context, index uint64, head *TreeHead) (*sct.MerkleTreeLeaf, error) {
	var resp *ct.GetEntryAndProofResponse
	err := c.call(ctx, "get-entry-and-proof", func() (err error) {
		resp, err = c.log.GetEntryAndProof(ctx, index, head.TreeSize)
		return err
	})
	if err != nil {
		return nil, err
	}

	leaf, err := sct.ParseMerkleTreeLeaf(resp.LeafInput)
	if err != nil {
		return nil, fmt.Errorf("logclient: entry %d: %w", index, err)
	}
	hash := sct.LeafHash(resp.LeafInput)
	if err := sct.VerifyInclusion(hash[:], index, head.TreeSize, resp.AuditPath, head.RootHash[:]); err != nil {
		return nil, fmt.Errorf("logclient: %s leaf %d: %w", c.Server.Description, index, err)
	}
	return leaf, nil
}

// Entries calls fn for every leaf in [start, end], paging through
// get-entries at the configured rate. It stops at the first error fn returns.
func (c *Client) Entries(ctx context.Context, start, end uint64, fn func(index uint64, leaf *sct.MerkleTreeLeaf) error) error {
	if end < start {
		return ErrBadRange
	}

	for index := start; index <= end; {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var resp *ct.GetEntriesResponse
		err := c.call(ctx, "get-entries", func() (err error) {
			resp, err = c.log.GetRawEntries(ctx, int64(index), int64(end))
			return err
		})
		if err != nil {
			return err
		}
		if len(resp.Entries) == 0 {
			return fmt.Errorf("%w at index %d", ErrNoEntries, index)
		}

		for _, e := range resp.Entries {
			leaf, err := sct.ParseMerkleTreeLeaf(e.LeafInput)
			if err != nil {
				return fmt.Errorf("logclient: entry %d: %w", index, err)
			}
			if err := fn(index, leaf); err != nil {
				return err
			}
			index++
		}
	}
	return nil
}

// Roots returns the certificates the log accepts as chain anchors.
func (c *Client) Roots(ctx context.Context) ([]*x509.Certificate, error) {
	var raw []ct.ASN1Cert
	err := c.call(ctx, "get-roots", func() (err error) {
		raw, err = c.log.GetAcceptedRoots(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	roots := make([]*x509.Certificate, 0, len(raw))
	for i, r := range raw {
		cert, err := x509.ParseCertificate(r.Data)
		if err != nil {
			return nil, fmt.Errorf("logclient: root %d: %w", i, err)
		}
		roots = append(roots, cert)
	}
	return roots, nil
}
