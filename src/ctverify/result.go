// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package ctverify

import (
	"fmt"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/loglist"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/revocation"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/verifier"
)

// Result is the outcome of one verification. It is either a [Success] or
// a [Failure].
type Result interface {
	isResult()
	// Kind is a short stable name used in logs and metrics.
	Kind() string
}

// Success is a result that lets the connection proceed.
type Success interface {
	Result
	isSuccess()
}

// Failure is a result that closes the connection when fail-on-error is set.
type Failure interface {
	Result
	error
}

// Trusted means enough distinct trusted logs vouched for the certificate.
type Trusted struct {
	Valid    int
	Required int
	SCTs     []verifier.Result
}

func (Trusted) isResult()      {}
func (Trusted) isSuccess()     {}
func (Trusted) Kind() string   { return "trusted" }
func (t Trusted) String() string {
	return fmt.Sprintf("trusted: %d valid SCTs, %d required", t.Valid, t.Required)
}

// InsecureConnection means the connection did not use TLS, so there was
// nothing to verify.
type InsecureConnection struct{}

func (InsecureConnection) isResult()    {}
func (InsecureConnection) isSuccess()   {}
func (InsecureConnection) Kind() string { return "insecure_connection" }

// DisabledForHost means the host is not selected for checking.
type DisabledForHost struct{}

func (DisabledForHost) isResult()    {}
func (DisabledForHost) isSuccess()   {}
func (DisabledForHost) Kind() string { return "disabled_for_host" }

// NoCertificates means the server presented no certificate.
type NoCertificates struct{}

func (NoCertificates) isResult()      {}
func (NoCertificates) Kind() string   { return "no_certificates" }
func (NoCertificates) Error() string  { return "ctverify: server presented no certificates" }

// NoScts means no SCT reached the client by any delivery method.
type NoScts struct{}

func (NoScts) isResult()     {}
func (NoScts) Kind() string  { return "no_scts" }
func (NoScts) Error() string { return "ctverify: certificate carries no SCTs" }

// TooFewSCTs means fewer distinct logs vouched for the certificate than
// its lifetime requires.
type TooFewSCTs struct {
	Found    int
	Required int
	SCTs     []verifier.Result
}

func (TooFewSCTs) isResult()    {}
func (TooFewSCTs) Kind() string { return "too_few_scts" }
func (e TooFewSCTs) Error() string {
	return fmt.Sprintf("ctverify: too few SCTs: %d valid, %d required", e.Found, e.Required)
}

// LogListFailure means no trusted log list was available.
type LogListFailure struct {
	Err loglist.Invalid
}

func (LogListFailure) isResult()        {}
func (LogListFailure) Kind() string     { return "log_list_failure" }
func (e LogListFailure) Unwrap() error  { return e.Err }
func (e LogListFailure) Error() string  { return fmt.Sprintf("ctverify: log list unavailable: %v", e.Err) }

// Revoked means a certificate of the chain is on the revocation list.
type Revoked struct {
	revocation.CertificateRevoked
}

func (Revoked) isResult()    {}
func (Revoked) Kind() string { return "revoked" }

// UnknownError wraps anything the verifier could not classify, such as a
// chain with no path to a trust anchor or a canceled context.
type UnknownError struct {
	Err error
}

func (UnknownError) isResult()       {}
func (UnknownError) Kind() string    { return "unknown_error" }
func (e UnknownError) Unwrap() error { return e.Err }
func (e UnknownError) Error() string { return fmt.Sprintf("ctverify: %v", e.Err) }
