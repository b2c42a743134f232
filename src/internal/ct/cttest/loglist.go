// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cttest

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// Distributor signs log lists.
type Distributor struct {
	Key *rsa.PrivateKey
}

// NewDistributor creates a distributor with a 2048-bit RSA key.
func NewDistributor(t testing.TB) *Distributor {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &Distributor{Key: key}
}

// PublicKeyPEM returns the distributor key as a PEM SubjectPublicKeyInfo.
func (d *Distributor) PublicKeyPEM(t testing.TB) []byte {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&d.Key.PublicKey)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

// Sign returns the SHA256withRSA signature of data.
func (d *Distributor) Sign(t testing.TB, data []byte) []byte {
	t.Helper()
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, d.Key, crypto.SHA256, digest[:])
	require.NoError(t, err)
	return sig
}

// ListedLog describes one log entry of a generated v3 list.
type ListedLog struct {
	Log         *Log
	Description string
	Operator    string
	// State is one of pending, qualified, usable, readonly, retired, rejected.
	State     string
	StateTime time.Time
}

// LogListV3 renders logs as a v3 log list document.
func LogListV3(t testing.TB, logs ...ListedLog) []byte {
	t.Helper()

	type object = map[string]any
	var (
		order     []string
		operators = map[string][]object{}
	)
	for _, l := range logs {
		state := object{"timestamp": l.StateTime.UTC().Format(time.RFC3339)}
		if l.State == "readonly" {
			state["final_tree_head"] = object{"sha256_root_hash": make([]byte, 32), "tree_size": 1}
		}
		if _, ok := operators[l.Operator]; !ok {
			order = append(order, l.Operator)
		}
		operators[l.Operator] = append(operators[l.Operator], object{
			"description": l.Description,
			"log_id":      l.Log.ID[:],
			"key":         l.Log.PublicDER,
			"url":         "https://" + l.Description + ".example/",
			"mmd":         86400,
			"state":       object{l.State: state},
		})
	}

	var ops []object
	for _, name := range order {
		ops = append(ops, object{
			"name":  name,
			"email": []string{"ct@" + name + ".example"},
			"logs":  operators[name],
		})
	}

	data, err := json.Marshal(object{
		"version":            "42.1",
		"log_list_timestamp": "2026-01-02T03:04:05Z",
		"operators":          ops,
	})
	require.NoError(t, err)
	return data
}
