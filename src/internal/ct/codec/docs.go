// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package codec implements the TLS presentation-language primitives used by
// [RFC 6962]: fixed-width unsigned integers, fixed-length byte arrays and
// length-prefixed variable-length byte arrays. It is built on
// [cryptobyte] and is the foundation of the sct package.
//
// [RFC 6962]: https://www.rfc-editor.org/rfc/rfc6962
// [cryptobyte]: https://pkg.go.dev/golang.org/x/crypto/cryptobyte
package codec
