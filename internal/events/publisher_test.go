package events

import (
	"context"
	"testing"

	"collab-transcript-core/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerInterim != nil {
				t.Error("expected nil interim writer when disabled")
			}
			if p.writerFinal != nil {
				t.Error("expected nil final writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:      false,
		Brokers:      []string{"localhost:9092"},
		TopicInterim: "transcript.segment.interim",
		TopicFinal:   "transcript.segment.final",
		Principal:    "svc-collab-transcript",
	}

	p := New(cfg)

	if p.principal != "svc-collab-transcript" {
		t.Errorf("expected principal 'svc-collab-transcript', got %s", p.principal)
	}
	if p.topicInterim != "transcript.segment.interim" {
		t.Errorf("expected interim topic 'transcript.segment.interim', got %s", p.topicInterim)
	}
	if p.topicFinal != "transcript.segment.final" {
		t.Errorf("expected final topic 'transcript.segment.final', got %s", p.topicFinal)
	}
}

func TestPublisher_BroadcastInterim_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	seg := models.TranscriptionSegment{
		ID:            "seg-1",
		SessionID:     "sess-1",
		ParticipantID: "alice",
		Content:       "still talking",
	}
	if err := p.BroadcastInterim(context.Background(), seg); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_BroadcastFinal_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	seg := models.TranscriptionSegment{
		ID:            "seg-2",
		SessionID:     "sess-1",
		ParticipantID: "bob",
		Content:       "done talking",
		IsFinal:       true,
	}
	if err := p.BroadcastFinal(context.Background(), seg); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Close_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})
	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}
