// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package ctverify

import (
	"crypto"
	"crypto/x509"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/loglist"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/policy"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/revocation"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/datasource"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/metrics"
	x509chain "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/version"
)

// Config holds everything a [Verifier] needs. Build it with [Option]
// values passed to [New]; the zero value of each field picks a default.
type Config struct {
	// Hosts selects the hosts to check. The zero value checks every host.
	Hosts policy.Hosts
	// FailOnError makes the adapters reject connections with a [Failure]
	// result. Defaults to true.
	FailOnError bool
	// Logger, if set, is called with every verification outcome.
	Logger func(host string, r Result)

	// TrustAnchors override the platform roots used to clean chains.
	TrustAnchors []*x509.Certificate
	// CleanerFactory overrides [x509chain.DefaultCleanerFactory].
	CleanerFactory x509chain.CleanerFactory

	// LogList overrides the whole log list pipeline.
	LogList datasource.DataSource[loglist.Result]
	// LogListURL is the distributor base URL.
	LogListURL string
	// DistributorKey verifies the log list. Required unless LogList is set.
	DistributorKey crypto.PublicKey
	// DiskCacheDir enables the on-disk log list cache.
	DiskCacheDir string

	// Revoked, when set, rejects chains containing a listed certificate.
	Revoked *revocation.List

	HTTP *x509chain.HTTPConfig
	// Timeout bounds one verification, log list retrieval included.
	Timeout time.Duration
	Metrics *metrics.Collector
	// Now defaults to time.Now.
	Now func() time.Time
}

// Option configures a [Verifier].
type Option func(*Config) error

// WithHosts enables checking for the given patterns only. See
// [policy.ParseHost] for the syntax.
func WithHosts(patterns ...string) Option {
	return func(c *Config) error {
		hs, err := policy.ParseHosts(patterns, nil)
		if err != nil {
			return err
		}
		c.Hosts.Include = append(c.Hosts.Include, hs.Include...)
		return nil
	}
}

// WithExcludedHosts disables checking for the given patterns. Exclusion
// wins over inclusion.
func WithExcludedHosts(patterns ...string) Option {
	return func(c *Config) error {
		hs, err := policy.ParseHosts(nil, patterns)
		if err != nil {
			return err
		}
		c.Hosts.Exclude = append(c.Hosts.Exclude, hs.Exclude...)
		return nil
	}
}

// WithFailOnError sets whether failures close the connection.
func WithFailOnError(fail bool) Option {
	return func(c *Config) error {
		c.FailOnError = fail
		return nil
	}
}

// WithLogger registers a callback for every verification outcome.
func WithLogger(fn func(host string, r Result)) Option {
	return func(c *Config) error {
		c.Logger = fn
		return nil
	}
}

// WithStructuredLogger records every outcome on l: successes at debug
// level, failures at warning level.
func WithStructuredLogger(l logrus.FieldLogger) Option {
	return WithLogger(func(host string, r Result) {
		entry := l.WithFields(logrus.Fields{"host": host, "result": r.Kind()})
		switch r := r.(type) {
		case Trusted:
			entry.WithFields(logrus.Fields{"valid": r.Valid, "required": r.Required}).Debug("certificate transparency verified")
		case Failure:
			entry.WithError(r).Warn("certificate transparency check failed")
		default:
			entry.Debug("certificate transparency check skipped")
		}
	})
}

// WithTrustAnchors replaces the platform roots.
func WithTrustAnchors(anchors ...*x509.Certificate) Option {
	return func(c *Config) error {
		c.TrustAnchors = append(c.TrustAnchors, anchors...)
		return nil
	}
}

// WithCleanerFactory replaces the chain cleaner.
func WithCleanerFactory(f x509chain.CleanerFactory) Option {
	return func(c *Config) error {
		c.CleanerFactory = f
		return nil
	}
}

// WithLogListSource replaces the log list pipeline, for instance with a
// fixed list in tests.
func WithLogListSource(src datasource.DataSource[loglist.Result]) Option {
	return func(c *Config) error {
		c.LogList = src
		return nil
	}
}

// WithLogListURL sets the distributor base URL.
func WithLogListURL(url string) Option {
	return func(c *Config) error {
		c.LogListURL = url
		return nil
	}
}

// WithDistributorKey sets the key verifying the log list.
func WithDistributorKey(key crypto.PublicKey) Option {
	return func(c *Config) error {
		c.DistributorKey = key
		return nil
	}
}

// WithDistributorKeyPEM parses and sets the key verifying the log list.
func WithDistributorKeyPEM(data []byte) Option {
	return func(c *Config) error {
		key, err := loglist.ParseDistributorKey(data)
		if err != nil {
			return err
		}
		c.DistributorKey = key
		return nil
	}
}

// WithDiskCache caches the log list under dir.
func WithDiskCache(dir string) Option {
	return func(c *Config) error {
		c.DiskCacheDir = dir
		return nil
	}
}

// WithRevoked rejects the listed certificates.
func WithRevoked(entries ...revocation.Entry) Option {
	return func(c *Config) error {
		if c.Revoked == nil {
			c.Revoked = revocation.NewList()
		}
		for _, e := range entries {
			c.Revoked.Add(e.Issuer, e.Serials...)
		}
		return nil
	}
}

// WithRevocationList uses l, which may keep changing, to reject certificates.
func WithRevocationList(l *revocation.List) Option {
	return func(c *Config) error {
		c.Revoked = l
		return nil
	}
}

// WithHTTPConfig sets the HTTP client settings for log list downloads.
func WithHTTPConfig(h *x509chain.HTTPConfig) Option {
	return func(c *Config) error {
		c.HTTP = h
		return nil
	}
}

// WithTimeout bounds each verification.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) error {
		c.Timeout = d
		return nil
	}
}

// WithMetrics records outcomes on m instead of [metrics.Default].
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Config) error {
		c.Metrics = m
		return nil
	}
}

// WithClock overrides the time used for SCT timestamps and certificate
// lifetimes.
func WithClock(now func() time.Time) Option {
	return func(c *Config) error {
		c.Now = now
		return nil
	}
}

func defaultConfig() Config {
	return Config{
		FailOnError:    true,
		CleanerFactory: x509chain.DefaultCleanerFactory,
		HTTP:           x509chain.NewHTTPConfig(version.Version),
		Metrics:        metrics.Default,
		Now:            time.Now,
	}
}
