// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package revocation rejects certificates whose issuer and serial number
// appear on a revocation list.
//
// The list is seeded from configuration and can be extended with [CRL]s,
// which are downloaded through an LRU cache keyed by distribution point.
// Stapled or fetched [OCSP] responses are parsed here too, both for their
// certificate status and for the SCTs they may carry.
//
// [CRL]: https://grokipedia.com/page/Certificate_revocation_list
// [OCSP]: https://grokipedia.com/page/Online_Certificate_Status_Protocol
package revocation
