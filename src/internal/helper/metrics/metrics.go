// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package metrics

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"
)

const namespace = "ct_verifier"

// Collector groups the verifier's metric vectors on one registry.
type Collector struct {
	registry *prometheus.Registry

	// Verifications counts host verifications by result kind.
	Verifications *prometheus.CounterVec
	// SCTChecks counts per-SCT signature checks by result kind.
	SCTChecks *prometheus.CounterVec
	// LogListFetches counts log list retrievals by source and outcome.
	LogListFetches *prometheus.CounterVec
	// LogListFetchDuration observes how long each source took.
	LogListFetchDuration *prometheus.HistogramVec
	// LogListServers is the number of trusted logs in the last valid list.
	LogListServers prometheus.Gauge
	// CRLCache counts CRL cache events (hit, miss, eviction, cleanup).
	CRLCache *prometheus.CounterVec
	// CTLogRequests counts CT log API calls by method and outcome.
	CTLogRequests *prometheus.CounterVec
}

// New returns a Collector with all vectors registered. Runtime collectors
// for the Go process are added when runtime is true.
func New(runtime bool) *Collector {
	reg := prometheus.NewRegistry()
	if runtime {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		reg.MustRegister(collectors.NewGoCollector())
	}

	c := &Collector{
		registry: reg,
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Host verifications by result.",
		}, []string{"result"}),
		SCTChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sct_checks_total",
			Help:      "SCT signature checks by result.",
		}, []string{"result"}),
		LogListFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loglist_fetches_total",
			Help:      "Log list retrievals by source and outcome.",
		}, []string{"source", "outcome"}),
		LogListFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loglist_fetch_duration_seconds",
			Help:      "Time spent retrieving the log list from each source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		LogListServers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loglist_servers",
			Help:      "Trusted logs in the most recently parsed log list.",
		}),
		CRLCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crl_cache_events_total",
			Help:      "CRL cache hits, misses, evictions and cleanups.",
		}, []string{"event"}),
		CTLogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ctlog_requests_total",
			Help:      "CT log API requests by method and outcome.",
		}, []string{"method", "outcome"}),
	}

	reg.MustRegister(
		c.Verifications,
		c.SCTChecks,
		c.LogListFetches,
		c.LogListFetchDuration,
		c.LogListServers,
		c.CRLCache,
		c.CTLogRequests,
	)
	return c
}

// Default is the process-wide collector used by the verifier packages.
var Default = New(false)

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveFetch records one log list retrieval from source.
func (c *Collector) ObserveFetch(source string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.LogListFetches.WithLabelValues(source, outcome).Inc()
	c.LogListFetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

// WriteText writes every metric in the Prometheus text exposition format,
// ordered by name.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
