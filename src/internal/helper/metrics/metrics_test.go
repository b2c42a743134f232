// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package metrics_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/metrics"
)

func TestObserveFetch(t *testing.T) {
	c := metrics.New(false)

	c.ObserveFetch("network", time.Now(), nil)
	c.ObserveFetch("network", time.Now(), errors.New("timeout"))
	c.ObserveFetch("zip", time.Now(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.LogListFetches.WithLabelValues("network", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LogListFetches.WithLabelValues("network", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LogListFetches.WithLabelValues("zip", "success")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.LogListFetchDuration))
}

func TestWriteText(t *testing.T) {
	c := metrics.New(false)
	c.Verifications.WithLabelValues("trusted").Add(3)
	c.LogListServers.Set(42)

	var out bytes.Buffer
	require.NoError(t, c.WriteText(&out))

	text := out.String()
	assert.Contains(t, text, `ct_verifier_verifications_total{result="trusted"} 3`)
	assert.Contains(t, text, "ct_verifier_loglist_servers 42")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("ct_verifier_loglist_servers")),
		bytes.Index(out.Bytes(), []byte("ct_verifier_verifications_total")), "families are sorted by name")
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := metrics.New(false), metrics.New(true)
	a.SCTChecks.WithLabelValues("valid").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.SCTChecks.WithLabelValues("valid")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SCTChecks.WithLabelValues("valid")))
}
