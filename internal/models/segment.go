// Package models defines the data structures shared across the transcription core.
package models

import "time"

// DefaultLanguage is used when a segment is created without an explicit language tag.
const DefaultLanguage = "en-US"

// TranscriptionSegment represents one attributed span of transcribed speech.
// Interim segments (IsFinal=false) are subject to replacement; final segments
// are immutable once committed to the ledger.
type TranscriptionSegment struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"sessionId"`
	ParticipantID   string    `json:"participantId"`
	ParticipantName string    `json:"participantName"`
	Content         string    `json:"content"`
	StartTime       float64   `json:"startTime"` // session-relative seconds
	EndTime         float64   `json:"endTime"`   // session-relative seconds
	Confidence      float64   `json:"confidence"`
	IsFinal         bool      `json:"isFinal"`
	Language        string    `json:"language"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Duration returns the segment's speaking time in seconds.
func (s TranscriptionSegment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// ClampConfidence clamps a confidence score into [0,1].
// The second return value reports whether clamping occurred.
func ClampConfidence(c float64) (float64, bool) {
	switch {
	case c < 0:
		return 0, true
	case c > 1:
		return 1, true
	default:
		return c, false
	}
}

// ClampTimes enforces endTime >= startTime >= 0.
// The second return value reports whether any bound was adjusted.
func ClampTimes(start, end float64) (float64, float64, bool) {
	clamped := false
	if start < 0 {
		start = 0
		clamped = true
	}
	if end < start {
		end = start
		clamped = true
	}
	return start, end, clamped
}

// ParticipantStats holds per-participant aggregates over final segments.
type ParticipantStats struct {
	TotalSpeakingTime float64 `json:"totalSpeakingTime"` // seconds
	WordCount         int     `json:"wordCount"`
	AverageConfidence float64 `json:"averageConfidence"`
	SegmentCount      int     `json:"segmentCount"`
}

// SessionSummary is produced once at session end.
type SessionSummary struct {
	SessionID        string                      `json:"sessionId"`
	TotalDuration    float64                     `json:"totalDuration"` // seconds
	ParticipantStats map[string]ParticipantStats `json:"participantStats"`
	GeneratedAt      time.Time                   `json:"generatedAt"`
}
