// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package loglist

import (
	"errors"
	"fmt"
)

// ErrHTTPStatus is wrapped by [NetworkFailure] when the distributor answers
// with a status other than 200.
var ErrHTTPStatus = errors.New("loglist: unexpected HTTP status")

// Result is the outcome of loading a log list: [Valid] or one of the
// [Invalid] variants.
type Result interface {
	isResult()
}

// Valid carries a parsed, authenticated list.
type Valid struct {
	List *LogList
}

func (Valid) isResult() {}

// Invalid is a failed load. Every variant is also an error.
type Invalid interface {
	Result
	error
	// Retryable reports whether trying again later may succeed.
	Retryable() bool
}

// IsRetryable reports whether r is a failure worth retrying.
func IsRetryable(r Result) bool {
	inv, ok := r.(Invalid)
	return ok && inv.Retryable()
}

// SignatureFailed means the signature does not match the JSON.
type SignatureFailed struct{ Err error }

func (SignatureFailed) isResult() {}
func (SignatureFailed) Retryable() bool { return false }
func (e SignatureFailed) Unwrap() error { return e.Err }
func (e SignatureFailed) Error() string {
	return fmt.Sprintf("loglist: signature verification failed: %v", e.Err)
}

// SignatureNotValid means the signature or the distributor key is unusable.
type SignatureNotValid struct{ Err error }

func (SignatureNotValid) isResult() {}
func (SignatureNotValid) Retryable() bool { return false }
func (e SignatureNotValid) Unwrap() error { return e.Err }
func (e SignatureNotValid) Error() string {
	return fmt.Sprintf("loglist: signature not valid: %v", e.Err)
}

// JSONFormat means the document is not a log list in a known schema.
type JSONFormat struct{ Err error }

func (JSONFormat) isResult() {}
func (JSONFormat) Retryable() bool { return false }
func (e JSONFormat) Unwrap() error { return e.Err }
func (e JSONFormat) Error() string {
	return fmt.Sprintf("loglist: invalid JSON: %v", e.Err)
}

// LogServerInvalidKey means one log's key could not be parsed.
type LogServerInvalidKey struct {
	Log string
	Err error
}

func (LogServerInvalidKey) isResult() {}
func (LogServerInvalidKey) Retryable() bool { return false }
func (e LogServerInvalidKey) Unwrap() error { return e.Err }
func (e LogServerInvalidKey) Error() string {
	return fmt.Sprintf("loglist: invalid key for log %q: %v", e.Log, e.Err)
}

// NetworkFailure means the list could not be downloaded.
type NetworkFailure struct {
	URL string
	Err error
}

func (NetworkFailure) isResult() {}
func (NetworkFailure) Retryable() bool { return true }
func (e NetworkFailure) Unwrap() error { return e.Err }
func (e NetworkFailure) Error() string {
	return fmt.Sprintf("loglist: fetching %s: %v", e.URL, e.Err)
}

// TooBig means a download exceeded its size cap.
type TooBig struct {
	URL   string
	Limit int64
}

func (TooBig) isResult() {}
func (TooBig) Retryable() bool { return false }
func (e TooBig) Error() string {
	return fmt.Sprintf("loglist: %s exceeds %d bytes", e.URL, e.Limit)
}

// NoLogServers means the list parsed but trusts no log.
type NoLogServers struct{}

func (NoLogServers) isResult() {}
func (NoLogServers) Retryable() bool { return false }
func (NoLogServers) Error() string { return "loglist: list contains no usable logs" }

// asInvalid turns any error from a source into an Invalid result.
func asInvalid(err error) Invalid {
	var inv Invalid
	if errors.As(err, &inv) {
		return inv
	}
	return NetworkFailure{Err: err}
}
