// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package ctverify

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/loglist"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/policy"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/revocation"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/sct"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/verifier"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/datasource"
	x509chain "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/chain"
)

// Verifier checks TLS connections for Certificate Transparency.
//
// Thread Safety: Safe for concurrent use. Concurrent checks share one log
// list download.
type Verifier struct {
	cfg     Config
	cleaner x509chain.Cleaner
	logList datasource.DataSource[loglist.Result]
}

// New builds a Verifier. Without [WithLogListSource] a distributor key is
// required, otherwise [loglist.ErrNoDistributorKey] is returned.
//
// Parameters:
//   - opts: Functional options applied over the defaults
//
// Returns:
//   - *Verifier: Verifier sharing one log list source across calls
//   - error: Error if the options are invalid or no log list can be built
func New(opts ...Option) (*Verifier, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	def := defaultConfig()
	if cfg.CleanerFactory == nil {
		cfg.CleanerFactory = def.CleanerFactory
	}
	if cfg.HTTP == nil {
		cfg.HTTP = def.HTTP
	}
	if cfg.Metrics == nil {
		cfg.Metrics = def.Metrics
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}

	src := cfg.LogList
	if src == nil {
		var err error
		src, err = loglist.NewDataSource(loglist.Config{
			BaseURL:        cfg.LogListURL,
			DistributorKey: cfg.DistributorKey,
			HTTPClient:     cfg.HTTP.Client(),
			UserAgent:      cfg.HTTP.GetUserAgent(),
			CacheDir:       cfg.DiskCacheDir,
			Metrics:        cfg.Metrics,
		})
		if err != nil {
			return nil, err
		}
	}

	return &Verifier{
		cfg:     cfg,
		cleaner: cfg.CleanerFactory(cfg.TrustAnchors),
		logList: src,
	}, nil
}

// Config returns a copy of the verifier's configuration.
func (v *Verifier) Config() Config { return v.cfg }

// LogList returns the current log list result, fetching it if needed.
func (v *Verifier) LogList(ctx context.Context) loglist.Result {
	r, err := v.logList.Get(ctx)
	if err != nil {
		return loglist.NetworkFailure{URL: v.cfg.LogListURL, Err: err}
	}
	if r == nil {
		return loglist.NoLogServers{}
	}
	return r
}

// Check verifies the certificates a server presented for host, using the
// SCTs embedded in the leaf.
//
// Parameters:
//   - ctx: Context bounding the log list load and SCT checks
//   - host: Server name matched against the include and exclude lists
//   - chain: Certificates as presented, leaf first, in any order after it
//
// Returns:
//   - Result: [Trusted] or [DisabledForHost] on success, a [Failure] otherwise
//
// Thread Safety: Safe for concurrent use.
func (v *Verifier) Check(ctx context.Context, host string, chain []*x509.Certificate) Result {
	return v.run(ctx, host, delivery{chain: chain})
}

// CheckConnection verifies a completed handshake, using SCTs from the
// leaf, the TLS extension and the stapled OCSP response.
func (v *Verifier) CheckConnection(ctx context.Context, cs tls.ConnectionState) Result {
	return v.run(ctx, cs.ServerName, delivery{
		chain: cs.PeerCertificates,
		tls:   cs.SignedCertificateTimestamps,
		ocsp:  cs.OCSPResponse,
	})
}

// delivery is what a server sent: its chain and the out-of-band SCTs.
type delivery struct {
	chain []*x509.Certificate
	tls   [][]byte
	ocsp  []byte
}

func (v *Verifier) run(ctx context.Context, host string, d delivery) Result {
	if v.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.cfg.Timeout)
		defer cancel()
	}
	r := v.check(ctx, host, d)
	v.cfg.Metrics.Verifications.WithLabelValues(r.Kind()).Inc()
	if v.cfg.Logger != nil {
		v.cfg.Logger(host, r)
	}
	return r
}

func (v *Verifier) check(ctx context.Context, host string, d delivery) Result {
	if !v.cfg.Hosts.Enabled(host) {
		return DisabledForHost{}
	}
	if len(d.chain) == 0 {
		return NoCertificates{}
	}

	cleaned, err := v.cleaner.Clean(d.chain, host)
	if err != nil {
		if errors.Is(err, x509chain.ErrEmptyChain) {
			return NoCertificates{}
		}
		return UnknownError{Err: err}
	}

	if v.cfg.Revoked != nil {
		checker := revocation.Checker{List: v.cfg.Revoked}
		switch r := checker.Check(host, cleaned).(type) {
		case revocation.CertificateRevoked:
			return Revoked{CertificateRevoked: r}
		case revocation.Failure:
			return UnknownError{Err: r}
		}
	}

	observed := collect(cleaned, d)
	if len(observed) == 0 {
		return NoScts{}
	}

	var list *loglist.LogList
	switch r := v.LogList(ctx).(type) {
	case loglist.Valid:
		list = r.List
	case loglist.Invalid:
		return LogListFailure{Err: r}
	}

	results, err := verifier.VerifyAll(ctx, list, cleaned, observed, v.cfg.Now(), v.cfg.Metrics)
	if err != nil {
		return UnknownError{Err: err}
	}

	valid := verifier.CountValid(results)
	required := policy.Required(cleaned[0])
	if valid < required {
		return TooFewSCTs{Found: valid, Required: required, SCTs: results}
	}
	return Trusted{Valid: valid, Required: required, SCTs: results}
}

// collect gathers the SCTs of every delivery method. Malformed entries are
// dropped and the rest of their list kept; a method whose list framing
// cannot be decoded contributes none.
func collect(chain []*x509.Certificate, d delivery) []verifier.Observed {
	var observed []verifier.Observed
	add := func(origin sct.Origin, scts []*sct.SignedCertificateTimestamp, err error) {
		if err != nil && !errors.Is(err, sct.ErrMalformedEntry) {
			return
		}
		for _, s := range scts {
			observed = append(observed, verifier.Observed{SCT: s, Origin: origin})
		}
	}

	embedded, err := sct.FromCertificate(chain[0])
	add(sct.OriginEmbedded, embedded, err)
	if len(d.tls) > 0 {
		scts, err := sct.ParseEntries(d.tls)
		add(sct.OriginTLSExtension, scts, err)
	}
	if len(d.ocsp) > 0 && len(chain) > 1 {
		scts, err := sct.FromOCSPResponse(d.ocsp, chain[1])
		add(sct.OriginOCSP, scts, err)
	}
	return observed
}
