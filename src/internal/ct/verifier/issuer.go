// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package verifier

import (
	"crypto/sha256"
	"crypto/x509"
	"fmt"

	ctx509 "github.com/google/certificate-transparency-go/x509"

	x509certs "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/certs"
)

// IssuerInformation identifies the CA a precertificate entry is bound to.
type IssuerInformation struct {
	// Name is the issuer DN written into the rebuilt TBSCertificate when a
	// precertificate signing certificate was used. Empty otherwise.
	Name []byte
	// KeyHash is SHA-256 of the issuing CA's SubjectPublicKeyInfo.
	KeyHash [sha256.Size]byte
	// AuthorityKeyID replaces the leaf's AKI alongside Name.
	AuthorityKeyID []byte
	// IsPreCertificateSigningCert is set when chain[1] carries the
	// Certificate Transparency key usage.
	IsPreCertificateSigningCert bool

	preIssuer *ctx509.Certificate
}

// IssuerFor derives the issuer information for verifying an SCT over the
// precertificate form of chain[0].
//
// Normally the issuer is chain[1]. When chain[1] is a precertificate
// signing certificate the log saw the CA above it, so the key hash is that
// of chain[2], and the name and key ID written into the TBS are those
// chain[1] was issued under.
func IssuerFor(chain []*x509.Certificate) (*IssuerInformation, Invalid) {
	if len(chain) < 2 {
		return nil, NoIssuer{}
	}
	issuer := chain[1]
	if !x509certs.IsPreCertificateSigningCert(issuer) {
		return &IssuerInformation{KeyHash: x509certs.KeyHash(issuer)}, nil
	}

	if len(chain) < 3 {
		return nil, NoIssuerWithPreCertificate{}
	}
	pre, err := ctx509.ParseCertificate(issuer.Raw)
	if ctx509.IsFatal(err) {
		return nil, EncodingFailed{Err: fmt.Errorf("parsing precertificate signing certificate: %w", err)}
	}
	return &IssuerInformation{
		Name:                        issuer.RawIssuer,
		KeyHash:                     x509certs.KeyHash(chain[2]),
		AuthorityKeyID:              issuer.AuthorityKeyId,
		IsPreCertificateSigningCert: true,
		preIssuer:                   pre,
	}, nil
}

// precertTBS rebuilds the TBSCertificate the log signed for leaf.
func precertTBS(leaf *x509.Certificate, info *IssuerInformation) ([]byte, error) {
	if x509certs.IsPreCertificate(leaf) {
		return ctx509.BuildPrecertTBS(leaf.RawTBSCertificate, info.preIssuer)
	}
	return ctx509.RemoveSCTList(leaf.RawTBSCertificate)
}
