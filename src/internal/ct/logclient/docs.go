// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package logclient talks to a single Certificate Transparency log over the
// RFC 6962 HTTP API.
//
// It is tooling around the verifier rather than part of the handshake path:
// submitting chains to obtain SCTs, reading signed tree heads, checking
// that a tree head is consistent with an earlier one, proving that an SCT
// was incorporated, and paging through entries.
//
// Transport is [github.com/google/certificate-transparency-go/client]. Tree
// head signatures are checked by that client with the log's key; SCTs
// returned by submission and every proof are checked again here with the
// verifier's own codec. Calls are retried with [retry-go] and get-entries
// paging is rate limited.
//
// [retry-go]: https://github.com/avast/retry-go
package logclient
