// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

// Package metrics registers the Prometheus collectors exported at /metrics.
//
// Collectors are package-level and registered with promauto on the default
// registry; callers go through the Record* helpers so label sets stay
// consistent.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Rotation Engine
	RotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soapbox_rotations_total",
			Help: "Rotation attempts by outcome (unchanged, rotated, skipped, failed)",
		},
		[]string{"outcome"},
	)

	RotationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "soapbox_rotation_duration_seconds",
			Help:    "Duration of a single story rotation in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// Fleet Sync Driver
	FleetSyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "soapbox_fleet_sync_duration_seconds",
			Help:    "Duration of a full fleet sync pass in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	FleetSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soapbox_fleet_sync_total",
			Help: "Fleet sync passes by status (success, error)",
		},
		[]string{"status"},
	)

	FleetSyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "soapbox_fleet_sync_last_success_timestamp",
			Help: "Unix timestamp of the last fleet sync pass that completed",
		},
	)

	StoriesDiscovered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "soapbox_stories_discovered",
			Help: "Number of story IDs enumerated in the last fleet sync pass",
		},
	)

	// Ledger
	LedgerEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "soapbox_ledger_entries",
			Help: "Number of stories with a ledger entry",
		},
	)

	// External collaborators
	PlatformRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soapbox_platform_requests_total",
			Help: "Discord REST calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	ObjectStoreRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soapbox_objectstore_requests_total",
			Help: "Object store calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "soapbox_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soapbox_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Witness ingestion
	WitnessUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soapbox_witness_uploads_total",
			Help: "Witness uploads by status",
		},
		[]string{"status"},
	)

	WitnessUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "soapbox_witness_upload_bytes",
			Help:    "Size of accepted witness uploads in bytes",
			Buckets: prometheus.ExponentialBuckets(64<<10, 4, 8), // 64KiB .. 1GiB
		},
	)

	// Public feeds
	ConfessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soapbox_confessions_total",
			Help: "Confession submissions by status",
		},
		[]string{"status"},
	)

	VoicemailStreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soapbox_voicemail_streams_total",
			Help: "Voicemail stream requests by status",
		},
		[]string{"status"},
	)

	// Events and websocket
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soapbox_events_published_total",
			Help: "Events published to the in-process bus by topic",
		},
		[]string{"topic"},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "soapbox_websocket_connections",
			Help: "Connected admin event stream clients",
		},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soapbox_api_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soapbox_api_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordRotation records one Rotation Engine outcome.
func RecordRotation(outcome string, duration time.Duration) {
	RotationsTotal.WithLabelValues(outcome).Inc()
	RotationDuration.Observe(duration.Seconds())
}

// RecordFleetSync records a fleet sync pass.
func RecordFleetSync(duration time.Duration, discovered int, err error) {
	FleetSyncDuration.Observe(duration.Seconds())
	if err != nil {
		FleetSyncTotal.WithLabelValues("error").Inc()
		return
	}
	FleetSyncTotal.WithLabelValues("success").Inc()
	StoriesDiscovered.Set(float64(discovered))
	FleetSyncLastSuccess.Set(float64(time.Now().Unix()))
}

// SetLedgerEntries updates the ledger size gauge.
func SetLedgerEntries(n int) {
	LedgerEntries.Set(float64(n))
}

// RecordPlatformRequest records a Discord REST call. status is "success",
// "not_found" or an error class from the platform package.
func RecordPlatformRequest(operation, status string) {
	PlatformRequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordObjectStoreRequest records an object store call.
func RecordObjectStoreRequest(operation string, err error, notFound bool) {
	status := "success"
	switch {
	case notFound:
		status = "not_found"
	case err != nil:
		status = "error"
	}
	ObjectStoreRequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordCircuitBreakerTransition records a breaker state change. State values
// follow gobreaker: 0 closed, 1 half-open, 2 open.
func RecordCircuitBreakerTransition(name, from, to string, state int) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordWitnessUpload records a witness upload attempt.
func RecordWitnessUpload(status string, size int64) {
	WitnessUploadsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		WitnessUploadBytes.Observe(float64(size))
	}
}

// RecordConfession counts a confession submission.
func RecordConfession(status string) {
	ConfessionsTotal.WithLabelValues(status).Inc()
}

// RecordVoicemailStream counts a voicemail stream request.
func RecordVoicemailStream(status string) {
	VoicemailStreamsTotal.WithLabelValues(status).Inc()
}

// RecordEventPublished counts a bus publish.
func RecordEventPublished(topic string) {
	EventsPublishedTotal.WithLabelValues(topic).Inc()
}

// TrackWSConnection adjusts the websocket client gauge.
func TrackWSConnection(connected bool) {
	if connected {
		WSConnections.Inc()
	} else {
		WSConnections.Dec()
	}
}

// RecordAPIRequest records an HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
