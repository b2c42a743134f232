// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logclient_test

import (
	"context"
	"crypto/x509"
	"errors"
	"testing"
	"time"

	ct "github.com/google/certificate-transparency-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/cttest"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/logclient"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/loglist"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/sct"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/metrics"
	x509chain "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/chain"
)

type fixture struct {
	fake      *cttest.FakeLog
	client    *logclient.Client
	collector *metrics.Collector
	root      *cttest.CA
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := cttest.NewLog(t).Serve(t)
	server := fake.Server(t, "Fake Log")
	server.URL = fake.URL

	collector := metrics.New(false)
	c, err := logclient.New(server, logclient.Config{
		HTTP:        x509chain.NewHTTPConfig("test"),
		RetryDelay:  time.Millisecond,
		EntriesRate: rate.Inf,
		Metrics:     collector,
	})
	require.NoError(t, err)

	return &fixture{fake: fake, client: c, collector: collector, root: cttest.NewRootCA(t, "Log Client Root")}
}

func (f *fixture) leafChain(t *testing.T, host string) []*x509.Certificate {
	t.Helper()
	leaf := f.root.Issue(t, cttest.LeafTemplate(host, time.Now().Add(-time.Hour), time.Now().Add(90*24*time.Hour)))
	return []*x509.Certificate{leaf, f.root.Cert}
}

func TestSubmitAndProve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chain := f.leafChain(t, "submit.example.com")

	s, err := f.client.Submit(ctx, chain)
	require.NoError(t, err)
	assert.Equal(t, f.fake.ID, s.LogID)
	assert.Equal(t, 1, f.fake.Requests(ct.AddChainPath))

	head, err := f.client.STH(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), head.TreeSize)

	index, err := f.client.Inclusion(ctx, s, sct.OriginTLSExtension, chain, head)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), index)

	// The same SCT read as if it had been embedded names a different leaf.
	_, err = f.client.Inclusion(ctx, s, sct.OriginEmbedded, chain, head)
	assert.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.collector.CTLogRequests.WithLabelValues("add-chain", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.collector.CTLogRequests.WithLabelValues("get-sth", "success")))
}

func TestSubmitPrecertificate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	template := cttest.LeafTemplate("precert.example.com", time.Now().Add(-time.Hour), time.Now().Add(90*24*time.Hour))
	template.ExtraExtensions = append(template.ExtraExtensions, cttest.PoisonExtension())
	precert := f.root.Issue(t, template)
	chain := []*x509.Certificate{precert, f.root.Cert}

	s, err := f.client.Submit(ctx, chain)
	require.NoError(t, err)
	assert.Equal(t, 1, f.fake.Requests(ct.AddPreChainPath))
	assert.Equal(t, 0, f.fake.Requests(ct.AddChainPath))

	head, err := f.client.STH(ctx)
	require.NoError(t, err)
	index, err := f.client.Inclusion(ctx, s, sct.OriginTLSExtension, chain, head)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), index)
}

func TestSubmitErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, logclient.ErrEmptyChain)

	_, err = logclient.New(&loglist.LogServer{Description: "No URL"}, logclient.Config{})
	assert.ErrorIs(t, err, logclient.ErrNoURL)
}

func TestConsistencyAndEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.client.Submit(ctx, f.leafChain(t, "a.example.com"))
	require.NoError(t, err)
	older, err := f.client.STH(ctx)
	require.NoError(t, err)

	for _, host := range []string{"b.example.com", "c.example.com", "d.example.com", "e.example.com"} {
		_, err := f.client.Submit(ctx, f.leafChain(t, host))
		require.NoError(t, err)
	}
	newer, err := f.client.STH(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(5), newer.TreeSize)

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Consistent",
			testFunc: func(t *testing.T) {
				assert.NoError(t, f.client.Consistency(ctx, older, newer))
				assert.NoError(t, f.client.Consistency(ctx, newer, newer))
			},
		},
		{
			name: "ForgedRoot",
			testFunc: func(t *testing.T) {
				forged := *newer
				forged.RootHash[0] ^= 0xff
				assert.ErrorIs(t, f.client.Consistency(ctx, older, &forged), sct.ErrRootMismatch)
			},
		},
		{
			name: "Shrunk",
			testFunc: func(t *testing.T) {
				assert.ErrorIs(t, f.client.Consistency(ctx, newer, older), sct.ErrTreeShrunk)
			},
		},
		{
			name: "Entries_Paged",
			testFunc: func(t *testing.T) {
				before := f.fake.Requests(ct.GetEntriesPath)
				var indices []uint64
				err := f.client.Entries(ctx, 0, 4, func(index uint64, leaf *sct.MerkleTreeLeaf) error {
					assert.Equal(t, sct.X509Entry, leaf.Entry.Type)
					indices = append(indices, index)
					return nil
				})
				require.NoError(t, err)
				assert.Equal(t, []uint64{0, 1, 2, 3, 4}, indices)
				assert.Equal(t, 3, f.fake.Requests(ct.GetEntriesPath)-before, "batches of two")
			},
		},
		{
			name: "Entries_StopOnError",
			testFunc: func(t *testing.T) {
				stop := errors.New("stop")
				calls := 0
				err := f.client.Entries(ctx, 1, 4, func(uint64, *sct.MerkleTreeLeaf) error {
					calls++
					return stop
				})
				assert.ErrorIs(t, err, stop)
				assert.Equal(t, 1, calls)
			},
		},
		{
			name: "Entries_BadRange",
			testFunc: func(t *testing.T) {
				assert.ErrorIs(t, f.client.Entries(ctx, 3, 1, nil), logclient.ErrBadRange)
			},
		},
		{
			name: "Entry",
			testFunc: func(t *testing.T) {
				leaf, err := f.client.Entry(ctx, 3, newer)
				require.NoError(t, err)
				assert.Equal(t, sct.X509Entry, leaf.Entry.Type)

				_, err = f.client.Entry(ctx, 3, older)
				assert.Error(t, err, "index beyond the older tree")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}

func TestRoots(t *testing.T) {
	f := newFixture(t)
	f.fake.Roots = []*x509.Certificate{f.root.Cert}

	roots, err := f.client.Roots(context.Background())
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.True(t, roots[0].Equal(f.root.Cert))
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "RecoversAfterFailures",
			testFunc: func(t *testing.T) {
				f := newFixture(t)
				f.fake.FailNext(2)

				head, err := f.client.STH(context.Background())
				require.NoError(t, err)
				assert.Equal(t, uint64(0), head.TreeSize)
				assert.Equal(t, logclient.DefaultAttempts, f.fake.Requests(ct.GetSTHPath))
			},
		},
		{
			name: "GivesUp",
			testFunc: func(t *testing.T) {
				f := newFixture(t)
				f.fake.FailNext(10)

				_, err := f.client.STH(context.Background())
				require.Error(t, err)
				assert.Equal(t, logclient.DefaultAttempts, f.fake.Requests(ct.GetSTHPath))
				assert.Equal(t, 1.0, testutil.ToFloat64(f.collector.CTLogRequests.WithLabelValues("get-sth", "failure")))
			},
		},
		{
			name: "ClientErrorNotRetried",
			testFunc: func(t *testing.T) {
				f := newFixture(t)
				head := &logclient.TreeHead{TreeSize: 1}

				_, err := f.client.Entry(context.Background(), 5, head)
				require.Error(t, err)
				assert.Equal(t, 1, f.fake.Requests(ct.GetEntryAndProofPath))
			},
		},
		{
			name: "CanceledContext",
			testFunc: func(t *testing.T) {
				f := newFixture(t)
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				_, err := f.client.STH(ctx)
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}
