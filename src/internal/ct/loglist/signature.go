// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package loglist

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// ErrNoDistributorKey is returned when a pipeline is built without a key.
var ErrNoDistributorKey = errors.New("loglist: distributor public key is required")

// ParseDistributorKey parses a PEM or DER SubjectPublicKeyInfo holding the
// distributor's RSA key.
func ParseDistributorKey(data []byte) (*rsa.PublicKey, error) {
	if block, _ := pem.Decode(data); block != nil {
		data = block.Bytes
	}
	key, err := x509.ParsePKIXPublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("loglist: parsing distributor key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("loglist: distributor key is %T, want RSA", key)
	}
	return rsaKey, nil
}

// VerifySignature checks sig as SHA256withRSA over the raw JSON bytes.
// It returns nil, [SignatureFailed] or [SignatureNotValid].
func VerifySignature(json, sig []byte, key crypto.PublicKey) Invalid {
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok || rsaKey == nil {
		return SignatureNotValid{Err: fmt.Errorf("distributor key is %T, want RSA", key)}
	}
	if len(sig) == 0 {
		return SignatureNotValid{Err: errors.New("empty signature")}
	}
	if len(sig) != rsaKey.Size() {
		return SignatureNotValid{Err: fmt.Errorf("signature is %d bytes, key is %d", len(sig), rsaKey.Size())}
	}

	digest := sha256.Sum256(json)
	if err := rsa.VerifyPKCS1v15(rsaKey, crypto.SHA256, digest[:], sig); err != nil {
		return SignatureFailed{Err: err}
	}
	return nil
}
