// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain_test

import (
	"context"
	"crypto/x509"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/cttest"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/gc"
	x509certs "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/chain"
)

var version = "1.3.3.7-testing"

// aiaFixture serves an intermediate over AIA for a leaf that points at it.
type aiaFixture struct {
	srv   *httptest.Server
	leaf  *x509.Certificate
	inter *x509.Certificate
	root  *x509.Certificate
}

func newAIAFixture(t *testing.T) *aiaFixture {
	t.Helper()
	root := cttest.NewRootCA(t, "AIA Root")
	inter := root.NewIntermediate(t, "AIA Intermediate")
	f := &aiaFixture{inter: inter.Cert, root: root.Cert}

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "TLS-CT-Verifier/"+version) {
			http.Error(w, "bad user agent", http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/inter.crt":
			w.Write(inter.Cert.Raw)
		case "/inter.pem":
			w.Write(x509certs.New().EncodePEM(inter.Cert))
		case "/huge.crt":
			w.Write(make([]byte, x509chain.MaxIssuerSize+1))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.srv.Close)

	template := cttest.LeafTemplate("aia.example.com", time.Now().Add(-time.Hour), time.Now().Add(24*time.Hour))
	template.IssuingCertificateURL = []string{f.srv.URL + "/inter.crt"}
	f.leaf = inter.Issue(t, template)
	return f
}

func (f *aiaFixture) leafPointingAt(t *testing.T, path string) *x509.Certificate {
	t.Helper()
	// Only the AIA URL matters to FetchCertificate, so the leaf is copied
	// with a rewritten URL rather than re-issued.
	cert := *f.leaf
	cert.IssuingCertificateURL = []string{f.srv.URL + path}
	return &cert
}

func TestChainOperations(t *testing.T) {
	f := newAIAFixture(t)

	tests := []struct {
		name     string
		leaf     *x509.Certificate
		testFunc func(t *testing.T, manager *x509chain.Chain)
	}{
		{
			name: "Fetch Certificate Chain",
			leaf: f.leaf,
			testFunc: func(t *testing.T, manager *x509chain.Chain) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				require.NoError(t, manager.FetchCertificate(ctx))
				require.Len(t, manager.Certs, 2)
				assert.True(t, manager.Certs[1].Equal(f.inter))
			},
		},
		{
			name: "Fetch PEM issuer",
			leaf: f.leafPointingAt(t, "/inter.pem"),
			testFunc: func(t *testing.T, manager *x509chain.Chain) {
				require.NoError(t, manager.FetchCertificate(context.Background()))
				assert.Len(t, manager.Snapshot(), 2)
			},
		},
		{
			name: "Fetch missing issuer",
			leaf: f.leafPointingAt(t, "/missing.crt"),
			testFunc: func(t *testing.T, manager *x509chain.Chain) {
				err := manager.FetchCertificate(context.Background())
				assert.ErrorContains(t, err, "status 404")
				assert.Len(t, manager.Certs, 1)
			},
		},
		{
			name: "Fetch oversized issuer",
			leaf: f.leafPointingAt(t, "/huge.crt"),
			testFunc: func(t *testing.T, manager *x509chain.Chain) {
				err := manager.FetchCertificate(context.Background())
				assert.ErrorIs(t, err, gc.ErrTooLarge)
			},
		},
		{
			name: "Add Root CA without a known authority",
			leaf: f.leaf,
			testFunc: func(t *testing.T, manager *x509chain.Chain) {
				if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
					t.Skip("Skipping: platform verifiers report unknown roots differently")
				}
				require.NoError(t, manager.FetchCertificate(context.Background()))
				require.NoError(t, manager.AddRootCA())
				assert.Len(t, manager.Certs, 2, "test roots are not in the system pool")
			},
		},
		{
			name: "Filter Intermediates",
			leaf: f.leaf,
			testFunc: func(t *testing.T, manager *x509chain.Chain) {
				manager.Certs = append(manager.Certs, f.inter, f.root)
				intermediates := manager.FilterIntermediates()
				require.Len(t, intermediates, 1)
				assert.True(t, intermediates[0].Equal(f.inter))

				manager.Certs = manager.Certs[:1]
				assert.Nil(t, manager.FilterIntermediates())
			},
		},
		{
			name: "IsSelfSigned and IsRootNode",
			leaf: f.leaf,
			testFunc: func(t *testing.T, manager *x509chain.Chain) {
				assert.True(t, manager.IsSelfSigned(f.root))
				assert.True(t, manager.IsRootNode(f.root))
				assert.False(t, manager.IsSelfSigned(f.leaf))
				assert.False(t, manager.IsRootNode(f.inter))
			},
		},
		{
			name: "New Chain Creation",
			leaf: f.leaf,
			testFunc: func(t *testing.T, manager *x509chain.Chain) {
				assert.Equal(t, version, manager.HTTPConfig.Version)
				assert.Len(t, manager.Certs, 1)
				assert.NotNil(t, manager.Certificate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t, x509chain.New(tt.leaf, version))
		})
	}
}

func TestChain_ContextCancellation(t *testing.T) {
	f := newAIAFixture(t)
	manager := x509chain.New(f.leaf, version)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, manager.FetchCertificate(ctx))
}

func TestHTTPConfig(t *testing.T) {
	cfg := x509chain.NewHTTPConfig("9.9.9")
	assert.Equal(t, "TLS-CT-Verifier/9.9.9 (+https://github.com/H0llyW00dzZ/tls-ct-verifier)", cfg.GetUserAgent())
	assert.Equal(t, 10*time.Second, cfg.Client().Timeout)

	cfg.Timeout = time.Second
	client := cfg.Client()
	assert.Equal(t, time.Second, client.Timeout)
	assert.Same(t, client, cfg.Client())

	cfg.UserAgent = "custom"
	assert.Equal(t, "custom", cfg.GetUserAgent())
}

func TestFetchRemoteChain(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	chain, state, err := x509chain.FetchRemoteChain(context.Background(), host, port, 5*time.Second, version)
	require.NoError(t, err)
	assert.True(t, state.HandshakeComplete)
	require.NotEmpty(t, chain.Certs)
	assert.True(t, chain.Certs[0].Equal(srv.Certificate()))

	_, _, err = x509chain.FetchRemoteChain(context.Background(), host, 1, time.Second, version)
	assert.Error(t, err)
}

func TestVisualization(t *testing.T) {
	root := cttest.NewRootCA(t, "Viz Root")
	log := cttest.NewLog(t)
	template := cttest.LeafTemplate("viz.example.com", time.Now().Add(-time.Hour), time.Now().Add(24*time.Hour))
	leaf, _ := root.IssueWithSCTs(t, template, x509certs.KeyHash(root.Cert), time.Now(), log)

	manager := x509chain.New(leaf, version)
	manager.Certs = append(manager.Certs, root.Cert)
	status := map[string]string{leaf.SerialNumber.String(): "revoked"}

	tree := manager.RenderASCIITree(status)
	assert.Contains(t, tree, "viz.example.com")
	assert.Contains(t, tree, "[embedded SCTs]")
	assert.Contains(t, tree, "Root CA Certificate")

	table := manager.RenderTable(status)
	assert.Contains(t, table, "embedded SCTs")
	assert.Contains(t, table, "revoked")
	assert.Contains(t, table, "256-bit ECDSA")

	raw, err := manager.ToVisualizationJSON(status)
	require.NoError(t, err)
	var viz struct {
		ChainLength  int `json:"chainLength"`
		Certificates []struct {
			Subject          string `json:"subject"`
			Transparency     string `json:"transparency"`
			KeyHash          string `json:"keyHash"`
			RevocationStatus string `json:"revocationStatus"`
		} `json:"certificates"`
	}
	require.NoError(t, json.Unmarshal(raw, &viz))
	assert.Equal(t, 2, viz.ChainLength)
	assert.Equal(t, "embedded SCTs", viz.Certificates[0].Transparency)
	assert.Equal(t, "revoked", viz.Certificates[0].RevocationStatus)
	assert.Equal(t, x509certs.KeyHashBase64(root.Cert), viz.Certificates[1].KeyHash)
	assert.Equal(t, "unknown", viz.Certificates[1].RevocationStatus)

	empty := &x509chain.Chain{}
	assert.Equal(t, "No certificates in chain", empty.RenderASCIITree(nil))
}
