// Package export renders a session ledger into deterministic transcript
// artifacts.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"collab-transcript-core/internal/models"
	"collab-transcript-core/internal/service/ledger"
)

// Format identifies an export rendering.
type Format string

const (
	FormatText Format = "text"
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for unsupported export formats.
var ErrUnknownFormat = fmt.Errorf("unknown export format")

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatSRT:
		return FormatSRT, nil
	case FormatVTT:
		return FormatVTT, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Export renders every segment in the ledger (final and interim, globally
// ordered by start time) in the requested format.
func Export(l *ledger.Ledger, format Format) (string, error) {
	segments := l.All()

	switch format {
	case FormatText:
		return renderText(segments), nil
	case FormatSRT:
		return renderSRT(segments), nil
	case FormatVTT:
		return renderVTT(segments), nil
	case FormatJSON:
		return renderJSON(segments)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ParseJSON decodes a JSON export back into segments. Round-trips losslessly
// with FormatJSON output.
func ParseJSON(data string) ([]models.TranscriptionSegment, error) {
	var segments []models.TranscriptionSegment
	if err := json.Unmarshal([]byte(data), &segments); err != nil {
		return nil, fmt.Errorf("parse transcript json: %w", err)
	}
	return segments, nil
}

func renderText(segments []models.TranscriptionSegment) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("\n\n")
		}
		mins := int(seg.StartTime) / 60
		secs := int(seg.StartTime) % 60
		fmt.Fprintf(&b, "[%02d:%02d] **%s**: %s", mins, secs, seg.ParticipantName, seg.Content)
	}
	return b.String()
}

func renderSRT(segments []models.TranscriptionSegment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s: %s\n\n",
			i+1,
			srtTimestamp(seg.StartTime),
			srtTimestamp(seg.EndTime),
			seg.ParticipantName,
			seg.Content)
	}
	return b.String()
}

func renderVTT(segments []models.TranscriptionSegment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "%s --> %s\n<v %s>%s\n\n",
			vttTimestamp(seg.StartTime),
			vttTimestamp(seg.EndTime),
			seg.ParticipantName,
			seg.Content)
	}
	return b.String()
}

func renderJSON(segments []models.TranscriptionSegment) (string, error) {
	if segments == nil {
		segments = []models.TranscriptionSegment{}
	}
	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render transcript json: %w", err)
	}
	return string(data), nil
}

func srtTimestamp(seconds float64) string {
	h, m, s, ms := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func vttTimestamp(seconds float64) string {
	h, m, s, ms := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func splitTime(seconds float64) (h, m, s, ms int) {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds * 1000)
	ms = total % 1000
	total /= 1000
	s = total % 60
	total /= 60
	m = total % 60
	h = total / 60
	return
}
