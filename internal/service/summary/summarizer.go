// Package summary aggregates a session's ledger into per-participant
// statistics at session end.
package summary

import (
	"strings"
	"time"

	"collab-transcript-core/internal/models"
	"collab-transcript-core/internal/service/ledger"
)

// Summarize computes the end-of-session summary from a ledger snapshot.
// Only final segments contribute to participant statistics. The caller
// supplies the stop instant so the total duration agrees with its clock. It
// is a pure function of its inputs and safe to call concurrently.
func Summarize(l *ledger.Ledger, sessionStart, now time.Time) models.SessionSummary {
	now = now.UTC()

	summary := models.SessionSummary{
		SessionID:        l.SessionID(),
		TotalDuration:    now.Sub(sessionStart).Seconds(),
		ParticipantStats: make(map[string]models.ParticipantStats),
		GeneratedAt:      now,
	}

	confSums := make(map[string]float64)
	for _, seg := range l.Query(ledger.Filter{FinalOnly: true}) {
		stats := summary.ParticipantStats[seg.ParticipantID]
		stats.TotalSpeakingTime += seg.Duration()
		stats.WordCount += len(strings.Fields(seg.Content))
		stats.SegmentCount++
		confSums[seg.ParticipantID] += seg.Confidence
		summary.ParticipantStats[seg.ParticipantID] = stats
	}

	for id, stats := range summary.ParticipantStats {
		if stats.SegmentCount > 0 {
			stats.AverageConfidence = confSums[id] / float64(stats.SegmentCount)
			summary.ParticipantStats[id] = stats
		}
	}

	return summary
}
