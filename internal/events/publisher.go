// Package events provides segment broadcast publishing.
//
// Every interim flush and every finalized segment is replicated to remote
// peers through Kafka; the payload contract is the TranscriptionSegment
// shape. With Kafka disabled the publisher degrades to log-only mode so the
// core keeps working in local or test setups.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"collab-transcript-core/internal/models"
	"collab-transcript-core/internal/observability/metrics"
)

// Publisher broadcasts transcription segments to separate Kafka topics for
// interim and final segments.
type Publisher struct {
	writerInterim *kafka.Writer
	writerFinal   *kafka.Writer
	principal     string
	topicInterim  string
	topicFinal    string
	enabled       bool
	metrics       *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers      []string
	TopicInterim string
	TopicFinal   string
	Principal    string
	Enabled      bool
}

// New creates a new Kafka segment publisher with separate topics for interim
// and final segments.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:    cfg.Principal,
			topicInterim: cfg.TopicInterim,
			topicFinal:   cfg.TopicFinal,
			enabled:      false,
			metrics:      m,
		}
	}

	// Create a custom dialer with longer timeouts for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerInterim := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicInterim,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerFinal := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicFinal,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicInterim", cfg.TopicInterim).
		Str("topicFinal", cfg.TopicFinal).
		Str("principal", cfg.Principal).
		Msg("Kafka segment publisher initialized")

	return &Publisher{
		writerInterim: writerInterim,
		writerFinal:   writerFinal,
		principal:     cfg.Principal,
		topicInterim:  cfg.TopicInterim,
		topicFinal:    cfg.TopicFinal,
		enabled:       true,
		metrics:       m,
	}
}

// BroadcastInterim publishes an interim segment flush to the interim topic.
// Messages are keyed by participant so per-participant ordering is preserved.
func (p *Publisher) BroadcastInterim(ctx context.Context, seg models.TranscriptionSegment) error {
	return p.publish(ctx, p.writerInterim, p.topicInterim, "interim", seg)
}

// BroadcastFinal publishes a finalized segment to the final topic.
func (p *Publisher) BroadcastFinal(ctx context.Context, seg models.TranscriptionSegment) error {
	return p.publish(ctx, p.writerFinal, p.topicFinal, "final", seg)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, kind string, seg models.TranscriptionSegment) error {
	start := time.Now()

	payload, err := json.Marshal(seg)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal segment")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("participantId", seg.ParticipantID).
		RawJSON("payload", payload).
		Msg("Broadcasting segment")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordBroadcast(topic, kind, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(seg.ParticipantID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "sessionId", Value: []byte(seg.SessionID)},
			{Key: "kind", Value: []byte(kind)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("participantId", seg.ParticipantID).
			Msg("Failed to write to Kafka")
		p.metrics.RecordBroadcast(topic, kind, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordBroadcast(topic, kind, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerInterim != nil {
		if e := p.writerInterim.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing interim writer")
			err = e
		}
	}
	if p.writerFinal != nil {
		if e := p.writerFinal.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing final writer")
			err = e
		}
	}
	return err
}
