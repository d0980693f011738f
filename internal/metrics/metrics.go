// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

// Package metrics provides Prometheus instrumentation for the gateway.
//
// Collectors are registered on the default registry at package init and
// exposed through promhttp on /metrics. Recording helpers are plain
// functions so callers never touch prometheus types directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portcullis_access_decisions_total",
			Help: "Access decisions by outcome (allow, deny, redirect) and reason",
		},
		[]string{"outcome", "reason"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portcullis_cache_lookups_total",
			Help: "Cache lookups by cache name and result (hit, miss, stale, error)",
		},
		[]string{"cache", "result"},
	)

	storeFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portcullis_store_fetch_duration_seconds",
			Help:    "Backing store fetch latency by collection",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection"},
	)

	storeFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portcullis_store_fetch_errors_total",
			Help: "Backing store fetch failures by collection",
		},
		[]string{"collection"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portcullis_http_request_duration_seconds",
			Help:    "HTTP request latency by method and status code",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	activeRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portcullis_http_active_requests",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	auditDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portcullis_audit_events_dropped_total",
			Help: "Audit events dropped because the async buffer was full",
		},
	)
)

// Decision outcomes.
const (
	OutcomeAllow    = "allow"
	OutcomeDeny     = "deny"
	OutcomeRedirect = "redirect"
)

// RecordDecision records one access decision.
func RecordDecision(outcome, reason string) {
	decisionsTotal.WithLabelValues(outcome, reason).Inc()
}

// RecordCacheLookup records one cache lookup result.
// result is one of: hit, miss, stale, error.
func RecordCacheLookup(cache, result string) {
	cacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

// RecordStoreFetch records one backing store fetch.
func RecordStoreFetch(collection string, duration time.Duration, err error) {
	storeFetchDuration.WithLabelValues(collection).Observe(duration.Seconds())
	if err != nil {
		storeFetchErrors.WithLabelValues(collection).Inc()
	}
}

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(method, status string, duration time.Duration) {
	httpRequestDuration.WithLabelValues(method, status).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		activeRequests.Inc()
	} else {
		activeRequests.Dec()
	}
}

// RecordAuditDrop counts an audit event dropped on a full buffer.
func RecordAuditDrop() {
	auditDropsTotal.Inc()
}
