package summary

import (
	"math"
	"testing"
	"time"

	"collab-transcript-core/internal/models"
	"collab-transcript-core/internal/service/ledger"
)

func final(participant, content string, start, end, conf float64) models.TranscriptionSegment {
	return models.TranscriptionSegment{
		ID:            participant + "-" + content[:1],
		SessionID:     "sess-1",
		ParticipantID: participant,
		Content:       content,
		StartTime:     start,
		EndTime:       end,
		Confidence:    conf,
		IsFinal:       true,
	}
}

func TestSummarize_PerParticipantStats(t *testing.T) {
	l := ledger.New("sess-1")
	l.Append(final("alice", "good morning everyone", 0, 10.2, 0.9))
	l.Append(final("alice", "let us get started with the agenda", 20, 35, 0.95))
	l.Append(final("alice", "any questions so far", 40, 55, 0.85))
	l.Append(final("bob", "no questions", 60, 62, 0.8))

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stop := start.Add(125400 * time.Millisecond)
	s := Summarize(l, start, stop)

	if s.SessionID != "sess-1" {
		t.Errorf("expected sessionId sess-1, got %s", s.SessionID)
	}
	if math.Abs(s.TotalDuration-125.4) > 1e-9 {
		t.Errorf("expected 125.4s total duration, got %f", s.TotalDuration)
	}
	if !s.GeneratedAt.Equal(stop) {
		t.Errorf("expected generatedAt %v, got %v", stop, s.GeneratedAt)
	}

	alice := s.ParticipantStats["alice"]
	if alice.SegmentCount != 3 {
		t.Errorf("expected 3 segments for alice, got %d", alice.SegmentCount)
	}
	if math.Abs(alice.TotalSpeakingTime-40.2) > 1e-9 {
		t.Errorf("expected 40.2s speaking time, got %f", alice.TotalSpeakingTime)
	}
	if alice.WordCount != 14 {
		t.Errorf("expected 14 words for alice, got %d", alice.WordCount)
	}
	wantAvg := (0.9 + 0.95 + 0.85) / 3
	if math.Abs(alice.AverageConfidence-wantAvg) > 1e-9 {
		t.Errorf("expected average confidence %f, got %f", wantAvg, alice.AverageConfidence)
	}

	bob := s.ParticipantStats["bob"]
	if bob.SegmentCount != 1 || bob.WordCount != 2 {
		t.Errorf("unexpected bob stats: %+v", bob)
	}
}

func TestSummarize_IgnoresInterimSegments(t *testing.T) {
	l := ledger.New("sess-1")
	l.Append(final("alice", "finished thought", 0, 5, 0.9))
	l.ReplaceActive("bob", models.TranscriptionSegment{
		ParticipantID: "bob",
		Content:       "still being spoken",
		StartTime:     6,
		EndTime:       7,
		Confidence:    0.5,
	})

	now := time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC)
	s := Summarize(l, now.Add(-time.Minute), now)

	if _, ok := s.ParticipantStats["bob"]; ok {
		t.Error("interim segments must not contribute to stats")
	}
	if s.ParticipantStats["alice"].SegmentCount != 1 {
		t.Errorf("expected 1 final for alice, got %d", s.ParticipantStats["alice"].SegmentCount)
	}
}

func TestSummarize_EmptyLedger(t *testing.T) {
	l := ledger.New("sess-1")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := Summarize(l, now, now)

	if len(s.ParticipantStats) != 0 {
		t.Errorf("expected empty stats, got %d entries", len(s.ParticipantStats))
	}
	if !s.GeneratedAt.Equal(now) {
		t.Errorf("expected generatedAt %v, got %v", now, s.GeneratedAt)
	}
	if s.TotalDuration != 0 {
		t.Errorf("expected zero duration, got %f", s.TotalDuration)
	}
}
