// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain implements [X.509] certificate chain reconstruction.
// It provides capabilities to:
//   - Clean the certificates a server presented into an ordered path that
//     ends at a trust anchor, independent of the order they were sent in.
//   - Complete incomplete chains by fetching intermediates via AIA URLs.
//   - Fetch remote certificate chains, with their SCTs and stapled OCSP
//     response, from TLS endpoints.
//   - Render chains as trees, tables or JSON, marking Certificate
//     Transparency extensions.
//
// The package handles context-aware cancellation and HTTP client configuration
// for reliable network operations.
//
// [X.509]: https://grokipedia.com/page/X.509
package x509chain
