// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	x509certs "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/certs"
)

// certView is what every renderer shows about one chain position.
type certView struct {
	Index              int       `json:"index"`
	Role               string    `json:"role"`
	Subject            string    `json:"subject"`
	Issuer             string    `json:"issuer"`
	SerialNumber       string    `json:"serialNumber"`
	SignatureAlgorithm string    `json:"signatureAlgorithm"`
	PublicKeyAlgorithm string    `json:"publicKeyAlgorithm"`
	KeySize            int       `json:"keySize"`
	NotBefore          time.Time `json:"notBefore"`
	NotAfter           time.Time `json:"notAfter"`
	IsCA               bool      `json:"isCA"`
	Transparency       string    `json:"transparency,omitempty"`
	KeyHash            string    `json:"keyHash"`
	RevocationStatus   string    `json:"revocationStatus"`
}

type relationship struct {
	FromIndex int    `json:"fromIndex"`
	ToIndex   int    `json:"toIndex"`
	Type      string `json:"type"`
}

type visualization struct {
	Timestamp     string         `json:"timestamp"`
	ChainLength   int            `json:"chainLength"`
	Certificates  []certView     `json:"certificates"`
	Relationships []relationship `json:"relationships"`
}

// views describes each certificate. revocationStatus maps serial numbers to
// a status; serials it does not name are "unknown". Callers hold ch.mu.
func (ch *Chain) views(revocationStatus map[string]string) []certView {
	out := make([]certView, len(ch.Certs))
	for i, cert := range ch.Certs {
		algo, bits := keyInfo(cert)
		status, ok := revocationStatus[cert.SerialNumber.String()]
		if !ok {
			status = "unknown"
		}
		out[i] = certView{
			Index:              i,
			Role:               roleOf(i, len(ch.Certs)),
			Subject:            cert.Subject.CommonName,
			Issuer:             cert.Issuer.CommonName,
			SerialNumber:       cert.SerialNumber.String(),
			SignatureAlgorithm: cert.SignatureAlgorithm.String(),
			PublicKeyAlgorithm: algo,
			KeySize:            bits,
			NotBefore:          cert.NotBefore,
			NotAfter:           cert.NotAfter,
			IsCA:               cert.IsCA,
			Transparency:       transparencyOf(cert),
			KeyHash:            x509certs.KeyHashBase64(cert),
			RevocationStatus:   status,
		}
	}
	return out
}

// RenderASCIITree draws the chain leaf first, one line per certificate,
// marking revoked certificates with ✗.
//
// Parameters:
//   - revocationStatus: Map of certificate serial numbers to status strings
//
// Returns:
//   - string: ASCII tree representation
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderASCIITree(revocationStatus map[string]string) string {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) == 0 {
		return "No certificates in chain"
	}

	var b strings.Builder
	views := ch.views(revocationStatus)
	for i, v := range views {
		connector := "├── "
		if i == len(views)-1 {
			connector = "└── "
		}
		mark := "✓"
		if v.RevocationStatus == "revoked" {
			mark = "✗"
		}

		fmt.Fprintf(&b, "%s[%s] %s (%s)", connector, mark, v.Subject, v.Role)
		if v.Transparency != "" {
			fmt.Fprintf(&b, " [%s]", v.Transparency)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderTable renders the chain as a markdown table with validity, key,
// CT marker and revocation columns.
//
// Parameters:
//   - revocationStatus: Map of certificate serial numbers to status strings
//
// Returns:
//   - string: Markdown table
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderTable(revocationStatus map[string]string) string {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) == 0 {
		return "No certificates to display"
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"#", "Role", "Subject", "Issuer", "Valid Until", "Key Size", "CT", "Status"})

	views := ch.views(revocationStatus)
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		key := "unknown"
		if v.KeySize > 0 {
			key = fmt.Sprintf("%d-bit %s", v.KeySize, v.PublicKeyAlgorithm)
		}
		ct := v.Transparency
		if ct == "" {
			ct = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(v.Index + 1),
			v.Role,
			v.Subject,
			v.Issuer,
			v.NotAfter.Format(time.DateOnly),
			key,
			ct,
			v.RevocationStatus,
		})
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// ToVisualizationJSON describes the chain as JSON: one object per
// certificate plus the signed_by edges between neighbours.
//
// Parameters:
//   - revocationStatus: Map of certificate serial numbers to status strings
//
// Returns:
//   - []byte: Indented JSON document
//   - error: Error if encoding fails
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) ToVisualizationJSON(revocationStatus map[string]string) ([]byte, error) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	data := visualization{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		ChainLength:   len(ch.Certs),
		Certificates:  ch.views(revocationStatus),
		Relationships: []relationship{},
	}
	for i := 1; i < len(ch.Certs); i++ {
		data.Relationships = append(data.Relationships, relationship{FromIndex: i - 1, ToIndex: i, Type: "signed_by"})
	}
	return json.MarshalIndent(data, "", "  ")
}

func roleOf(index, total int) string {
	switch {
	case total == 1:
		return "Self-Signed Certificate"
	case index == 0:
		return "End-Entity (Server/Leaf) Certificate"
	case index == total-1:
		return "Root CA Certificate"
	default:
		return "Intermediate CA Certificate"
	}
}

func keyInfo(cert *x509.Certificate) (string, int) {
	switch key := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return "RSA", key.Size() * 8
	case *ecdsa.PublicKey:
		return "ECDSA", key.Curve.Params().BitSize
	case ed25519.PublicKey:
		return "Ed25519", 256
	}
	return "unknown", 0
}

// transparencyOf names the CT marker a certificate carries, if any.
func transparencyOf(cert *x509.Certificate) string {
	switch {
	case x509certs.IsPreCertificate(cert):
		return "precertificate"
	case x509certs.IsPreCertificateSigningCert(cert):
		return "precertificate signer"
	case x509certs.HasEmbeddedSCT(cert):
		return "embedded SCTs"
	}
	return ""
}
