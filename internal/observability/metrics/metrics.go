// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "collab_transcript"

// Metrics holds all Prometheus metrics for the transcription core.
type Metrics struct {
	// Session metrics
	SessionsStarted    prometheus.Counter
	SessionsStopped    prometheus.Counter
	SessionDuration    prometheus.Histogram
	ParticipantsActive prometheus.Gauge

	// Recognition event metrics
	PartialsReceived prometheus.Counter
	FinalsReceived   prometheus.Counter
	EventsDropped    *prometheus.CounterVec
	InputsClamped    *prometheus.CounterVec

	// Ledger metrics
	SegmentsFinalized prometheus.Counter
	InterimFlushes    prometheus.Counter
	FlushTicks        prometheus.Counter

	// Broadcast metrics
	BroadcastTotal   *prometheus.CounterVec
	BroadcastErrors  *prometheus.CounterVec
	BroadcastLatency *prometheus.HistogramVec

	// Quality metrics
	QualityTier prometheus.Gauge

	// Speaker matcher metrics
	SpeakerMatches *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of transcription sessions started",
		}),
		SessionsStopped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_stopped_total",
			Help:      "Total number of transcription sessions stopped",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of transcription sessions in seconds",
			Buckets:   []float64{10, 30, 60, 300, 600, 1800, 3600, 7200},
		}),
		ParticipantsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants_active",
			Help:      "Number of participants in the current session",
		}),

		PartialsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_partials_total",
			Help:      "Total number of partial recognition events accepted",
		}),
		FinalsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_finals_total",
			Help:      "Total number of final recognition events accepted",
		}),
		EventsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_events_dropped_total",
			Help:      "Total number of recognition events dropped",
		}, []string{"reason"}),
		InputsClamped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inputs_clamped_total",
			Help:      "Total number of out-of-range inputs clamped",
		}, []string{"field"}),

		SegmentsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_finalized_total",
			Help:      "Total number of segments committed as final",
		}),
		InterimFlushes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interim_flushes_total",
			Help:      "Total number of interim segments materialized by the flush scheduler",
		}),
		FlushTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flush_ticks_total",
			Help:      "Total number of flush scheduler ticks",
		}),

		BroadcastTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_publish_total",
			Help:      "Total number of segment broadcasts published",
		}, []string{"topic", "kind"}),
		BroadcastErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_publish_errors_total",
			Help:      "Total number of segment broadcast failures",
		}, []string{"topic", "kind"}),
		BroadcastLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "broadcast_publish_latency_seconds",
			Help:      "Segment broadcast publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		QualityTier: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quality_tier",
			Help:      "Current audio quality tier (0=poor 1=fair 2=good 3=excellent)",
		}),

		SpeakerMatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speaker_matches_total",
			Help:      "Total number of speaker profile match attempts",
		}, []string{"result"}),
	}
}

// RecordSessionStart records a session starting with its participant count.
func (m *Metrics) RecordSessionStart(participants int) {
	m.SessionsStarted.Inc()
	m.ParticipantsActive.Set(float64(participants))
}

// RecordSessionStop records a session ending.
func (m *Metrics) RecordSessionStop(durationSeconds float64) {
	m.SessionsStopped.Inc()
	m.SessionDuration.Observe(durationSeconds)
	m.ParticipantsActive.Set(0)
}

// RecordPartial records an accepted partial recognition event.
func (m *Metrics) RecordPartial() {
	m.PartialsReceived.Inc()
}

// RecordFinal records an accepted final recognition event.
func (m *Metrics) RecordFinal() {
	m.FinalsReceived.Inc()
	m.SegmentsFinalized.Inc()
}

// RecordDropped records a recognition event dropped for the given reason.
func (m *Metrics) RecordDropped(reason string) {
	m.EventsDropped.WithLabelValues(reason).Inc()
}

// RecordClamped records an out-of-range input that was clamped.
func (m *Metrics) RecordClamped(field string) {
	m.InputsClamped.WithLabelValues(field).Inc()
}

// RecordFlushTick records one scheduler tick and the number of interim
// segments it materialized.
func (m *Metrics) RecordFlushTick(flushed int) {
	m.FlushTicks.Inc()
	m.InterimFlushes.Add(float64(flushed))
}

// RecordBroadcast records a segment broadcast attempt.
func (m *Metrics) RecordBroadcast(topic, kind string, err error, latencySeconds float64) {
	m.BroadcastTotal.WithLabelValues(topic, kind).Inc()
	m.BroadcastLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.BroadcastErrors.WithLabelValues(topic, kind).Inc()
	}
}

// RecordQualityTier records the current quality tier.
func (m *Metrics) RecordQualityTier(tier int) {
	m.QualityTier.Set(float64(tier))
}

// RecordSpeakerMatch records a speaker match attempt outcome.
func (m *Metrics) RecordSpeakerMatch(result string) {
	m.SpeakerMatches.WithLabelValues(result).Inc()
}
