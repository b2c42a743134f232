// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package loglist_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/cttest"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/loglist"
)

func TestVerifySignature(t *testing.T) {
	dist := cttest.NewDistributor(t)
	data := []byte(`{"operators":[]}`)
	sig := dist.Sign(t, data)

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Valid",
			testFunc: func(t *testing.T) {
				assert.Nil(t, loglist.VerifySignature(data, sig, &dist.Key.PublicKey))
			},
		},
		{
			name: "Tampered JSON",
			testFunc: func(t *testing.T) {
				tampered := append([]byte(nil), data...)
				tampered[2] ^= 0x01
				inv := loglist.VerifySignature(tampered, sig, &dist.Key.PublicKey)
				assert.IsType(t, loglist.SignatureFailed{}, inv)
				assert.False(t, inv.Retryable())
			},
		},
		{
			name: "Tampered Signature",
			testFunc: func(t *testing.T) {
				bad := append([]byte(nil), sig...)
				bad[0] ^= 0xff
				assert.IsType(t, loglist.SignatureFailed{}, loglist.VerifySignature(data, bad, &dist.Key.PublicKey))
			},
		},
		{
			name: "Truncated Signature",
			testFunc: func(t *testing.T) {
				assert.IsType(t, loglist.SignatureNotValid{}, loglist.VerifySignature(data, sig[:10], &dist.Key.PublicKey))
			},
		},
		{
			name: "Wrong Key Type",
			testFunc: func(t *testing.T) {
				ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
				require.NoError(t, err)
				assert.IsType(t, loglist.SignatureNotValid{}, loglist.VerifySignature(data, sig, &ec.PublicKey))
			},
		},
		{
			name: "Other Distributor",
			testFunc: func(t *testing.T) {
				other := cttest.NewDistributor(t)
				assert.IsType(t, loglist.SignatureFailed{}, loglist.VerifySignature(data, sig, &other.Key.PublicKey))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestParseDistributorKey(t *testing.T) {
	dist := cttest.NewDistributor(t)

	key, err := loglist.ParseDistributorKey(dist.PublicKeyPEM(t))
	require.NoError(t, err)
	assert.True(t, key.Equal(&dist.Key.PublicKey))

	block, _ := pem.Decode(dist.PublicKeyPEM(t))
	key, err = loglist.ParseDistributorKey(block.Bytes)
	require.NoError(t, err, "DER is accepted too")
	assert.True(t, key.Equal(&dist.Key.PublicKey))

	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&ec.PublicKey)
	require.NoError(t, err)
	_, err = loglist.ParseDistributorKey(der)
	assert.Error(t, err)

	_, err = loglist.ParseDistributorKey([]byte("garbage"))
	assert.Error(t, err)
}

func TestParseV3(t *testing.T) {
	logs := make([]*cttest.Log, 6)
	for i := range logs {
		logs[i] = cttest.NewLog(t)
	}
	frozen := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	retired := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	data := cttest.LogListV3(t,
		cttest.ListedLog{Log: logs[0], Description: "usable", Operator: "Alpha", State: "usable", StateTime: frozen},
		cttest.ListedLog{Log: logs[1], Description: "qualified", Operator: "Alpha", State: "qualified", StateTime: frozen},
		cttest.ListedLog{Log: logs[2], Description: "readonly", Operator: "Beta", State: "readonly", StateTime: frozen},
		cttest.ListedLog{Log: logs[3], Description: "retired", Operator: "Beta", State: "retired", StateTime: retired},
		cttest.ListedLog{Log: logs[4], Description: "pending", Operator: "Gamma", State: "pending", StateTime: frozen},
		cttest.ListedLog{Log: logs[5], Description: "rejected", Operator: "Gamma", State: "rejected", StateTime: frozen},
	)

	schema, err := loglist.DetectSchema(data)
	require.NoError(t, err)
	assert.Equal(t, loglist.SchemaV2, schema)

	res := loglist.Parse(data)
	valid, ok := res.(loglist.Valid)
	require.True(t, ok, "expected Valid, got %#v", res)
	list := valid.List

	assert.Equal(t, 4, list.Len())
	assert.Equal(t, "42.1", list.Version)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), list.Timestamp.UTC())

	usable, ok := list.Lookup(logs[0].ID)
	require.True(t, ok)
	assert.Nil(t, usable.ValidUntil)
	assert.Equal(t, "Alpha", usable.Operator)
	assert.Equal(t, 24*time.Hour, usable.MMD)
	assert.Equal(t, logs[0].PublicDER, usable.KeyDER)

	ro, ok := list.Lookup(logs[2].ID)
	require.True(t, ok)
	require.NotNil(t, ro.ValidUntil)
	assert.True(t, frozen.Equal(*ro.ValidUntil))
	assert.True(t, ro.TrustedAt(frozen))
	assert.False(t, ro.TrustedAt(frozen.Add(time.Millisecond)))

	ret, ok := list.Lookup(logs[3].ID)
	require.True(t, ok)
	assert.True(t, retired.Equal(*ret.ValidUntil))

	for _, excluded := range logs[4:] {
		_, ok := list.Lookup(excluded.ID)
		assert.False(t, ok, "pending and rejected logs must be excluded")
	}

	servers := list.Servers()
	require.Len(t, servers, 4)
	assert.Equal(t, "Alpha", servers[0].Operator)
	assert.Equal(t, "Beta", servers[3].Operator)
}

func TestParseV1(t *testing.T) {
	a, b, c := cttest.NewLog(t), cttest.NewRSALog(t), cttest.NewLog(t)
	doc := fmt.Sprintf(`{
		"operators": [{"name": "Google", "id": 0}, {"name": "Other", "id": 1}],
		"logs": [
			{"description": "a", "key": %q, "url": "a.example/", "maximum_merge_delay": 86400, "operated_by": [0]},
			{"description": "b", "key": %q, "url": "b.example/", "maximum_merge_delay": 86400, "operated_by": [1],
			 "disqualified_at": 1500000000},
			{"description": "c", "key": %q, "url": "c.example/", "maximum_merge_delay": 86400, "operated_by": [0],
			 "final_sth": {"tree_size": 10, "timestamp": 1480512258330}}
		]
	}`,
		base64.StdEncoding.EncodeToString(a.PublicDER),
		base64.StdEncoding.EncodeToString(b.PublicDER),
		base64.StdEncoding.EncodeToString(c.PublicDER))

	schema, err := loglist.DetectSchema([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, loglist.SchemaV1, schema)

	res := loglist.Parse([]byte(doc))
	valid, ok := res.(loglist.Valid)
	require.True(t, ok, "expected Valid, got %#v", res)
	assert.Equal(t, 3, valid.List.Len())

	sa, _ := valid.List.Lookup(a.ID)
	require.NotNil(t, sa)
	assert.Nil(t, sa.ValidUntil)
	assert.Equal(t, "Google", sa.Operator)

	sb, _ := valid.List.Lookup(b.ID)
	require.NotNil(t, sb)
	require.NotNil(t, sb.ValidUntil)
	assert.Equal(t, time.Unix(1500000000, 0).UTC(), *sb.ValidUntil)
	assert.Equal(t, "Other", sb.Operator)

	sc, _ := valid.List.Lookup(c.ID)
	require.NotNil(t, sc)
	require.NotNil(t, sc.ValidUntil)
	assert.Equal(t, time.UnixMilli(1480512258330).UTC(), *sc.ValidUntil)
}

func TestParseFailures(t *testing.T) {
	good := cttest.NewLog(t)

	tests := []struct {
		name  string
		input string
		check func(t *testing.T, r loglist.Result)
	}{
		{
			name:  "Not JSON",
			input: "<html>",
			check: func(t *testing.T, r loglist.Result) {
				assert.IsType(t, loglist.JSONFormat{}, r)
			},
		},
		{
			name:  "Unknown Shape",
			input: `{"servers": []}`,
			check: func(t *testing.T, r loglist.Result) {
				require.IsType(t, loglist.JSONFormat{}, r)
				assert.ErrorIs(t, r.(loglist.JSONFormat), loglist.ErrUnknownSchema)
			},
		},
		{
			name:  "Bad Key V1",
			input: `{"logs": [{"description": "broken log", "key": "AAAA"}]}`,
			check: func(t *testing.T, r loglist.Result) {
				require.IsType(t, loglist.LogServerInvalidKey{}, r)
				assert.Equal(t, "broken log", r.(loglist.LogServerInvalidKey).Log)
			},
		},
		{
			name:  "Bad Base64 V1",
			input: `{"logs": [{"description": "b64", "key": "!!!"}]}`,
			check: func(t *testing.T, r loglist.Result) {
				assert.IsType(t, loglist.LogServerInvalidKey{}, r)
			},
		},
		{
			name: "Bad Key V3",
			input: `{"operators": [{"name": "op", "logs": [
				{"description": "broken v3", "log_id": "AAAA", "key": "AAAA", "url": "x", "mmd": 1,
				 "state": {"usable": {"timestamp": "2024-01-01T00:00:00Z"}}}]}]}`,
			check: func(t *testing.T, r loglist.Result) {
				require.IsType(t, loglist.LogServerInvalidKey{}, r)
				assert.Equal(t, "broken v3", r.(loglist.LogServerInvalidKey).Log)
			},
		},
		{
			name: "Mismatched Log ID",
			input: fmt.Sprintf(`{"operators": [{"name": "op", "logs": [
				{"description": "liar", "log_id": "AAAA", "key": %q, "url": "x", "mmd": 1,
				 "state": {"usable": {"timestamp": "2024-01-01T00:00:00Z"}}}]}]}`,
				base64.StdEncoding.EncodeToString(good.PublicDER)),
			check: func(t *testing.T, r loglist.Result) {
				assert.IsType(t, loglist.LogServerInvalidKey{}, r)
			},
		},
		{
			name: "Only Pending",
			input: string(cttest.LogListV3(t, cttest.ListedLog{
				Log: good, Description: "p", Operator: "op", State: "pending", StateTime: time.Now(),
			})),
			check: func(t *testing.T, r loglist.Result) {
				assert.IsType(t, loglist.NoLogServers{}, r)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := loglist.Parse([]byte(tt.input))
			tt.check(t, r)
			assert.False(t, loglist.IsRetryable(r))
		})
	}
}
