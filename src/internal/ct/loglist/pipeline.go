// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package loglist

import (
	"context"
	"crypto"
	"net/http"
	"time"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/datasource"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/metrics"
)

// Config configures [NewDataSource].
type Config struct {
	// BaseURL of the distributor. Defaults to [DefaultBaseURL].
	BaseURL string
	// DistributorKey verifies the list signature. Required.
	DistributorKey crypto.PublicKey
	HTTPClient     *http.Client
	UserAgent      string

	// MemoryTTL bounds how long the in-memory copy is served. Defaults to [DefaultMaxAge].
	MemoryTTL time.Duration
	// CacheDir enables the disk cache when set.
	CacheDir   string
	DiskMaxAge time.Duration
	// DisableZip skips the zip archive and fetches the two files directly.
	DisableZip bool

	Metrics *metrics.Collector
}

// NewDataSource builds the log list cache chain:
//
//	memory -> disk (optional) -> zip -> json+sig
//
// Values from the disk, zip and network layers are verified once as they
// are read, and a layer's value is accepted only if it passed, so nothing
// unauthenticated is ever cached. Memory hits are served without another
// check. The chain is wrapped so that concurrent callers share one fetch,
// and its raw values are parsed into [Result] values.
//
// Parameters:
//   - cfg: Distributor, cache and metrics settings
//
// Returns:
//   - datasource.DataSource[Result]: Source whose Get never fails; failures
//     come back as [Invalid] results
//   - error: [ErrNoDistributorKey] if cfg carries no key
func NewDataSource(cfg Config) (datasource.DataSource[Result], error) {
	if cfg.DistributorKey == nil {
		return nil, ErrNoDistributorKey
	}
	if cfg.MemoryTTL <= 0 {
		cfg.MemoryTTL = DefaultMaxAge
	}
	collector := cfg.Metrics
	if collector == nil {
		collector = metrics.Default
	}

	fetch := HTTPSource{
		BaseURL:   cfg.BaseURL,
		Client:    cfg.HTTPClient,
		UserAgent: cfg.UserAgent,
		Metrics:   collector,
	}

	authentic := datasource.WithValidator(func(raw RawResult, err error) bool {
		return err == nil && raw.authenticated
	})

	var upstream datasource.DataSource[RawResult] = authenticate(&NetworkSource{HTTPSource: fetch}, cfg.DistributorKey)
	if !cfg.DisableZip {
		archive := authenticate(&ZipSource{HTTPSource: fetch}, cfg.DistributorKey)
		upstream = datasource.Compose[RawResult](archive, upstream, authentic)
	}
	if cfg.CacheDir != "" {
		disk := authenticate(NewDiskCache(cfg.CacheDir, cfg.DiskMaxAge), cfg.DistributorKey)
		upstream = datasource.Compose[RawResult](disk, upstream, authentic)
	}
	chain := datasource.Compose[RawResult](datasource.NewMemory[RawResult](cfg.MemoryTTL), upstream, authentic)

	return datasource.OneWayTransform(datasource.ReuseInflight(chain),
		func(_ context.Context, raw RawResult, err error) (Result, error) {
			r := Load(raw, err, cfg.DistributorKey)
			if v, ok := r.(Valid); ok {
				collector.LogListServers.Set(float64(v.List.Len()))
			}
			return r, nil
		}), nil
}

// verifySignature is swapped out by tests that count verifications.
var verifySignature = VerifySignature

// authenticate checks every value src yields against key. A value that fails
// is returned as its [Invalid] error so the layer above falls through.
func authenticate(src datasource.DataSource[RawResult], key crypto.PublicKey) datasource.DataSource[RawResult] {
	return datasource.Func[RawResult]{
		GetFunc: func(ctx context.Context) (RawResult, error) {
			raw, err := src.Get(ctx)
			if err != nil {
				return RawResult{}, err
			}
			if inv := verifySignature(raw.JSON, raw.Signature, key); inv != nil {
				return RawResult{}, inv
			}
			raw.authenticated = true
			return raw, nil
		},
		SetFunc: src.Set,
	}
}

// Load turns a raw retrieval into a Result: the retrieval error if any,
// then the signature check, then the parse. Values that already passed the
// check inside the [NewDataSource] chain are not verified again.
func Load(raw RawResult, err error, key crypto.PublicKey) Result {
	if err != nil {
		return asInvalid(err)
	}
	if !raw.authenticated {
		if inv := verifySignature(raw.JSON, raw.Signature, key); inv != nil {
			return inv
		}
	}
	return Parse(raw.JSON)
}
