// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package verifier

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/loglist"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/sct"
)

// Result is the outcome of checking one SCT.
type Result interface {
	isResult()
	// Kind is a short stable name used for metrics and logs.
	Kind() string
}

// Invalid is any failed check.
type Invalid interface {
	Result
	error
}

// Valid means the log's signature over the certificate checks out.
type Valid struct {
	SCT *sct.SignedCertificateTimestamp
	Log *loglist.LogServer
}

func (Valid) isResult() {}
func (Valid) Kind() string { return "valid" }

// FailedVerification means the signature does not match the rebuilt data.
type FailedVerification struct {
	Log *loglist.LogServer
}

func (FailedVerification) isResult() {}
func (FailedVerification) Kind() string { return "failed_verification" }
func (e FailedVerification) Error() string {
	return fmt.Sprintf("verifier: signature from log %q does not verify", e.Log.Description)
}

// NoLogServerFound means the SCT names a log the list does not trust.
type NoLogServerFound struct {
	LogID [sct.LogIDLength]byte
}

func (NoLogServerFound) isResult() {}
func (NoLogServerFound) Kind() string { return "no_log_server" }
func (e NoLogServerFound) Error() string {
	return fmt.Sprintf("verifier: no trusted log with ID %s", base64.StdEncoding.EncodeToString(e.LogID[:]))
}

// FutureTimestamp means the SCT claims to be issued after the time of checking.
type FutureTimestamp struct {
	Timestamp time.Time
	Now       time.Time
}

func (FutureTimestamp) isResult() {}
func (FutureTimestamp) Kind() string { return "future_timestamp" }
func (e FutureTimestamp) Error() string {
	return fmt.Sprintf("verifier: SCT timestamp %s is after %s", e.Timestamp.Format(time.RFC3339), e.Now.Format(time.RFC3339))
}

// LogServerUntrusted means the SCT was issued after the log stopped being trusted.
type LogServerUntrusted struct {
	Timestamp  time.Time
	ValidUntil time.Time
}

func (LogServerUntrusted) isResult() {}
func (LogServerUntrusted) Kind() string { return "log_untrusted" }
func (e LogServerUntrusted) Error() string {
	return fmt.Sprintf("verifier: SCT timestamp %s is after log end of trust %s",
		e.Timestamp.Format(time.RFC3339), e.ValidUntil.Format(time.RFC3339))
}

// NoSuchAlgorithm means the SCT declares an unsupported hash or signature algorithm.
type NoSuchAlgorithm struct {
	Hash      sct.HashAlgorithm
	Signature sct.SignatureAlgorithm
}

func (NoSuchAlgorithm) isResult() {}
func (NoSuchAlgorithm) Kind() string { return "no_such_algorithm" }
func (e NoSuchAlgorithm) Error() string {
	return fmt.Sprintf("verifier: unsupported algorithm %s with %s", e.Signature, e.Hash)
}

// KeyNotValid means the log's key cannot check the declared algorithm.
type KeyNotValid struct {
	Err error
}

func (KeyNotValid) isResult() {}
func (KeyNotValid) Kind() string { return "key_not_valid" }
func (e KeyNotValid) Unwrap() error { return e.Err }
func (e KeyNotValid) Error() string { return fmt.Sprintf("verifier: log key not valid: %v", e.Err) }

// NoIssuer means an embedded SCT was found but the chain has no issuer.
type NoIssuer struct{}

func (NoIssuer) isResult() {}
func (NoIssuer) Kind() string { return "no_issuer" }
func (NoIssuer) Error() string { return "verifier: chain lacks the issuer of the leaf" }

// NoIssuerWithPreCertificate means the issuer is a precertificate signing
// certificate and the chain stops before the CA that signed it.
type NoIssuerWithPreCertificate struct{}

func (NoIssuerWithPreCertificate) isResult() {}
func (NoIssuerWithPreCertificate) Kind() string { return "no_issuer_precert" }
func (NoIssuerWithPreCertificate) Error() string {
	return "verifier: chain lacks the CA above the precertificate signing certificate"
}

// EncodingFailed means the signed data could not be rebuilt.
type EncodingFailed struct {
	Err error
}

func (EncodingFailed) isResult() {}
func (EncodingFailed) Kind() string { return "encoding_failed" }
func (e EncodingFailed) Unwrap() error { return e.Err }
func (e EncodingFailed) Error() string {
	return fmt.Sprintf("verifier: rebuilding signed data: %v", e.Err)
}
