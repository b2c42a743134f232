// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package sct decodes and encodes Signed Certificate Timestamps and the
// structures around them defined by [RFC 6962]: the SCT list, the data a log
// signs for a certificate or precertificate entry, the Merkle tree leaf and
// the audit proof used to check inclusion of that leaf.
//
// SCTs are collected from three places: the certificate's own extension
// ([FromCertificate]), the TLS extension ([ParseEntries]) and a stapled OCSP
// response ([FromOCSPResponse]).
//
// [RFC 6962]: https://www.rfc-editor.org/rfc/rfc6962
package sct
