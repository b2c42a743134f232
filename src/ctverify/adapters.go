// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package ctverify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
)

// VerificationError rejects a connection whose check failed.
type VerificationError struct {
	Host   string
	Result Failure
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("ctverify: %s: %v", e.Host, e.Result)
}

func (e *VerificationError) Unwrap() error { return e.Result }

// reject returns the error for r, or nil when r passes or failures are
// only reported.
func (v *Verifier) reject(host string, r Result) error {
	f, ok := r.(Failure)
	if !ok || !v.cfg.FailOnError {
		return nil
	}
	return &VerificationError{Host: host, Result: f}
}

// VerifyConnection checks cs and has the signature of
// [tls.Config.VerifyConnection]. It runs after the standard certificate
// verification.
func (v *Verifier) VerifyConnection(cs tls.ConnectionState) error {
	return v.reject(cs.ServerName, v.CheckConnection(context.Background(), cs))
}

// Wrap returns a clone of cfg whose VerifyConnection also runs the CT
// check, after any hook cfg already had. A nil cfg yields a new config.
func (v *Verifier) Wrap(cfg *tls.Config) *tls.Config {
	if cfg == nil {
		cfg = &tls.Config{}
	}
	out := cfg.Clone()
	next := out.VerifyConnection
	out.VerifyConnection = func(cs tls.ConnectionState) error {
		if next != nil {
			if err := next(cs); err != nil {
				return err
			}
		}
		return v.VerifyConnection(cs)
	}
	return out
}

// NewTransport returns a RoundTripper checking every response's TLS
// connection. A nil next means [http.DefaultTransport]. Plain HTTP
// responses are reported as [InsecureConnection] and pass.
func (v *Verifier) NewTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &transport{v: v, next: next}
}

type transport struct {
	v    *Verifier
	next http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	host := req.URL.Hostname()
	var r Result
	if resp.TLS == nil {
		r = InsecureConnection{}
		t.v.cfg.Metrics.Verifications.WithLabelValues(r.Kind()).Inc()
		if t.v.cfg.Logger != nil {
			t.v.cfg.Logger(host, r)
		}
		return resp, nil
	}

	cs := *resp.TLS
	if cs.ServerName == "" {
		cs.ServerName = host
	}
	r = t.v.CheckConnection(req.Context(), cs)
	if err := t.v.reject(host, r); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}
