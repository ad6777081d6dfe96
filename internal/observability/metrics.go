package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttachmentsStored counts files written for attachments by category.
	AttachmentsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngelmak_attachments_stored_total",
		Help: "Total number of attachment files stored",
	}, []string{"category"})

	// AttachmentsDeleted counts attachment deletions by mode (soft, permanent, swept).
	AttachmentsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngelmak_attachments_deleted_total",
		Help: "Total number of attachments deleted",
	}, []string{"mode"})

	// StoredBytes counts bytes written to attachment storage.
	StoredBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ngelmak_storage_bytes_written_total",
		Help: "Total number of bytes written to attachment storage",
	})

	// PreviewFailures counts image previews that could not be generated.
	PreviewFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ngelmak_attachment_preview_failures_total",
		Help: "Total number of failed attachment preview generations",
	})

	// SweepRuns counts sweeper executions by outcome.
	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngelmak_sweep_runs_total",
		Help: "Total number of attachment sweeper runs",
	}, []string{"outcome"})

	// WebSocketConnections is the gauge of connected realtime clients.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ngelmak_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts realtime messages dropped because a client was too slow.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngelmak_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})

	// EventsPublished counts realtime domain events by type.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngelmak_events_published_total",
		Help: "Total number of realtime domain events published",
	}, []string{"event_type"})
)
