// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package verifier checks SCT signatures against the logs that issued them.
//
// An SCT delivered in the certificate's own extension was signed over the
// precertificate: the TBSCertificate with the SCT list removed, bound to the
// issuing CA's key hash. An SCT delivered in the TLS extension or in an OCSP
// response was signed over the final DER certificate. [IssuerFor] works out
// the issuer details from the chain, and [LogSignatureVerifier] rebuilds
// the signed bytes and checks the signature with the log's key.
//
// Every outcome is a [Result]. Anything other than [Valid] is an [Invalid]
// variant and implements error.
package verifier
