// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/base64"

	ctx509 "github.com/google/certificate-transparency-go/x509"
)

var (
	// OIDExtensionSCTList is the embedded SCT list extension (RFC 6962 section 3.3).
	OIDExtensionSCTList = asn1.ObjectIdentifier(ctx509.OIDExtensionCTSCT)

	// OIDExtensionPoison marks a precertificate (RFC 6962 section 3.1).
	OIDExtensionPoison = asn1.ObjectIdentifier(ctx509.OIDExtensionCTPoison)

	// OIDExtKeyUsagePrecertificateSigning is the Certificate Transparency EKU
	// carried by a dedicated precertificate signing certificate.
	OIDExtKeyUsagePrecertificateSigning = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 4, 4}

	// OIDExtensionOCSPSCTList is the SCT list extension of an OCSP single response.
	OIDExtensionOCSPSCTList = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 4, 5}
)

// Extension returns the first extension of cert with the given OID.
func Extension(cert *x509.Certificate, oid asn1.ObjectIdentifier) (pkix.Extension, bool) {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oid) {
			return ext, true
		}
	}
	return pkix.Extension{}, false
}

// HasEmbeddedSCT reports whether cert carries the SCT list extension.
func HasEmbeddedSCT(cert *x509.Certificate) bool {
	_, ok := Extension(cert, OIDExtensionSCTList)
	return ok
}

// IsPreCertificate reports whether cert carries the critical poison extension.
func IsPreCertificate(cert *x509.Certificate) bool {
	ext, ok := Extension(cert, OIDExtensionPoison)
	return ok && ext.Critical
}

// IsPreCertificateSigningCert reports whether cert is a CA certificate
// dedicated to signing precertificates.
func IsPreCertificateSigningCert(cert *x509.Certificate) bool {
	for _, eku := range cert.UnknownExtKeyUsage {
		if eku.Equal(OIDExtKeyUsagePrecertificateSigning) {
			return true
		}
	}
	return false
}

// KeyHash returns SHA-256 of the DER SubjectPublicKeyInfo of cert, the
// issuer_key_hash of a precert entry.
func KeyHash(cert *x509.Certificate) [sha256.Size]byte {
	return sha256.Sum256(cert.RawSubjectPublicKeyInfo)
}

// KeyHashBase64 is KeyHash in standard base64, the form log lists and
// pinning configuration use.
func KeyHashBase64(cert *x509.Certificate) string {
	h := KeyHash(cert)
	return base64.StdEncoding.EncodeToString(h[:])
}
