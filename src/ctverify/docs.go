// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package ctverify decides whether a TLS server's certificate is publicly
// logged in Certificate Transparency logs and not locally revoked.
//
// A [Verifier] runs one check per connection:
//
//	host enabled? -> revocation -> clean chain -> collect SCTs
//	-> verify each SCT against the log list -> count against the policy
//
// and returns a [Result]. Business outcomes such as too few SCTs are
// results, not errors. The adapters [Verifier.VerifyConnection],
// [Verifier.Wrap] and [Verifier.NewTransport] plug the check into
// crypto/tls and net/http and turn a failing result into an error when
// fail-on-error is set (the default), or only report it otherwise.
//
// SCTs are taken from the leaf's embedded extension, the TLS extension
// and a stapled OCSP response. Embedded SCTs cover the precertificate; the
// others cover the final certificate.
package ctverify
