// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509certs "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/certs"
)

// Test certificate from www.google.com (valid until February 16, 2026)
// Carries two embedded SCTs, both ECDSA/SHA-256 with no extensions.
const testCertPEM = `
-----BEGIN CERTIFICATE-----
MIIEVzCCAz+gAwIBAgIRAIsnDh7AqstVCQTDZO49FUQwDQYJKoZIhvcNAQELBQAw
OzELMAkGA1UEBhMCVVMxHjAcBgNVBAoTFUdvb2dsZSBUcnVzdCBTZXJ2aWNlczEM
MAoGA1UEAxMDV1IyMB4XDTI1MTEyNDA4NDEwNVoXDTI2MDIxNjA4NDEwNFowGTEX
MBUGA1UEAxMOd3d3Lmdvb2dsZS5jb20wWTATBgcqhkjOPQIBBggqhkjOPQMBBwNC
AASpOrUKgQJxuBGxizx+kmyx5RrD4jQmo8qLKSuwJqGHq32bVzWZGD67H9R4OZrU
dvyPaKf5c8xcR0dfErljBgc9o4ICQTCCAj0wDgYDVR0PAQH/BAQDAgeAMBMGA1Ud
JQQMMAoGCCsGAQUFBwMBMAwGA1UdEwEB/wQCMAAwHQYDVR0OBBYEFB/jnLpRtZ7i
zZrj5pmoPbY4QlomMB8GA1UdIwQYMBaAFN4bHu15FdQ+NyTDIbvsNDltQrIwMFgG
CCsGAQUFBwEBBEwwSjAhBggrBgEFBQcwAYYVaHR0cDovL28ucGtpLmdvb2cvd3Iy
MCUGCCsGAQUFBzAChhlodHRwOi8vaS5wa2kuZ29vZy93cjIuY3J0MBkGA1UdEQQS
MBCCDnd3dy5nb29nbGUuY29tMBMGA1UdIAQMMAowCAYGZ4EMAQIBMDYGA1UdHwQv
MC0wK6ApoCeGJWh0dHA6Ly9jLnBraS5nb29nL3dyMi9HU3lUMU40UEJyZy5jcmww
ggEEBgorBgEEAdZ5AgQCBIH1BIHyAPAAdwCWl2S/VViXrfdDh2g3CEJ36fA61fak
8zZuRqQ/D8qpxgAAAZq1PQh6AAAEAwBIMEYCIQDkvhCgZXnoybm66RiqqWXZN6qE
VzPoPHn/kyXZ7Y55yAIhALTMfGlCgnC9W0iu+cR9qCmOwsEr5k6Bl7Ub2w7GCUIu
AHUASZybad4dfOz8Nt7Nh2SmuFuvCoeAGdFVUvvp6ynd+MMAAAGatT0IWAAABAMA
RjBEAiBQITcviDubQYQiIxBwjcgmkl4CH1x4RzykXJrp8cCLKwIgFpdUBEBwTjCw
wTjI3H2paYucltfUre6q/vBei3HhNqcwDQYJKoZIhvcNAQELBQADggEBAE+UAURG
T3JZxq6fjAK5Espfe49Wb0mz1kCTwNY56sbYP/Fa+Kb7kVluDIFbMN2rspADwKBu
FR7QVda3zEIu4Hj1DUmD7ecmVYCxLQ241OYdice4AfJTwDVJVymdQPFoLBP27dWK
3izwcfkPSgXIT8nHcEvDvXljn7n+n3XXuzh1Y1vFnFUa5E69JQFXXDuu/a7LiEXx
uB5j0Xga7DgFyHHHnz7zSiFr37NBb0/CH/31fkgaQPj7Fr5dyCMzMg1rQe1FGOM6
fXT8WHASUpqRebQfDy2TPE7sjve2NenS36NeiiVZXhBo5MHvGCBY3W8OYljK4zeU
uugY3q/5At03UHw=
-----END CERTIFICATE-----
`

const (
	invalidPEM = `
-----BEGIN INVALID-----
MIIEmTCCBD+gAwIBAgIRANFjRCmF+Y2bUYHbhxwkEpowCgYIKoZIzj0EAwIwgY8x
-----END INVALID-----
`

	invalidCERT = `
-----BEGIN CERTIFICATE-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAz6e5VV5F8rF2sFJ0Q4vA
-----END CERTIFICATE-----
`
)

func parseTestCert(t *testing.T) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode([]byte(testCertPEM))
	require.NotNil(t, block, "failed to parse certificate PEM")
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err, "failed to parse test certificate")
	return cert
}

func TestCertificateOperations(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T, decoder *x509certs.Certificate, testCert *x509.Certificate)
	}{
		{
			name: "Decode Multiple Certificates",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate, _ *x509.Certificate) {
				certs, err := decoder.DecodeMultiple([]byte(testCertPEM))
				require.NoError(t, err, "DecodeMultiple() error")
				assert.Len(t, certs, 1, "expected 1 certificate")
			},
		},
		{
			name: "Decode DER",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate, cert *x509.Certificate) {
				decoded, err := decoder.Decode(cert.Raw)
				require.NoError(t, err, "Decode() error")
				assert.True(t, cert.Equal(decoded), "decoded certificate does not match original")
			},
		},
		{
			name: "PEM Round Trip",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate, cert *x509.Certificate) {
				encoded := decoder.EncodePEM(cert)
				decoded, err := decoder.Decode(encoded)
				require.NoError(t, err, "Decode() error")
				assert.Equal(t, "www.google.com", decoded.Subject.CommonName)
			},
		},
		{
			name: "Decode Bundle Skips Foreign Blocks",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate, cert *x509.Certificate) {
				bundle := append([]byte(nil), pem.EncodeToMemory(&pem.Block{Type: "EC PARAMETERS", Bytes: []byte{0x06, 0x01, 0x00}})...)
				bundle = append(bundle, decoder.EncodeMultiplePEM([]*x509.Certificate{cert, cert})...)
				certs, err := decoder.DecodeMultiple(bundle)
				require.NoError(t, err)
				assert.Len(t, certs, 2)
			},
		},
		{
			name: "Raw Chain",
			testFunc: func(t *testing.T, _ *x509certs.Certificate, cert *x509.Certificate) {
				raw := x509certs.RawChain([]*x509.Certificate{cert, cert})
				require.Len(t, raw, 2)
				assert.Equal(t, cert.Raw, raw[1])
			},
		},
	}

	decoder := x509certs.New()
	testCert := parseTestCert(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t, decoder, testCert)
		})
	}
}

func TestDecodeCertificate_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected error
	}{
		{
			name:     "Invalid PEM Block",
			input:    invalidPEM,
			expected: x509certs.ErrInvalidBlockType,
		},
		{
			name:     "Invalid Certificate",
			input:    invalidCERT,
			expected: x509certs.ErrParsePKCS7,
		},
		{
			name:     "Garbage DER",
			input:    "not a certificate",
			expected: x509certs.ErrParsePKCS7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder := x509certs.New()
			_, err := decoder.Decode([]byte(tt.input))
			assert.Equal(t, tt.expected, err, "expected specific error")
		})
	}
}

func TestDecodeMultiple_Invalid(t *testing.T) {
	decoder := x509certs.New()

	_, err := decoder.DecodeMultiple([]byte(invalidPEM))
	assert.Equal(t, x509certs.ErrNoCertificates, err)

	_, err = decoder.DecodeMultiple([]byte(invalidCERT))
	assert.Equal(t, x509certs.ErrParseCertificate, err)
}

func TestExtensionProbes(t *testing.T) {
	cert := parseTestCert(t)

	assert.True(t, x509certs.HasEmbeddedSCT(cert), "google leaf carries embedded SCTs")
	assert.False(t, x509certs.IsPreCertificate(cert))
	assert.False(t, x509certs.IsPreCertificateSigningCert(cert))

	want := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	assert.Equal(t, want, x509certs.KeyHash(cert))
	assert.NotEmpty(t, x509certs.KeyHashBase64(cert))
}

func TestPreCertificateProbes(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(42),
		Subject:               pkix.Name{CommonName: "precert signer"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		UnknownExtKeyUsage:    []asn1.ObjectIdentifier{x509certs.OIDExtKeyUsagePrecertificateSigning},
		ExtraExtensions: []pkix.Extension{
			{Id: x509certs.OIDExtensionPoison, Critical: true, Value: []byte{0x05, 0x00}},
		},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	assert.True(t, x509certs.IsPreCertificate(cert))
	assert.True(t, x509certs.IsPreCertificateSigningCert(cert))
	assert.False(t, x509certs.HasEmbeddedSCT(cert))
}
