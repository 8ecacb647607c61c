package session

import (
	"github.com/google/uuid"

	"collab-transcript-core/internal/models"
)

// Recognition event processing. Events arrive from the external recognizer
// at its own cadence; partials only update the participant's interim buffer
// (the flush scheduler materializes them into the ledger), finals commit a
// segment atomically. Both paths run under the coordinator mutex.

func newSegmentID() string {
	return uuid.NewString()
}

// OnPartial records a partial recognition event for a participant. Events
// for unknown or mic-disabled participants are dropped and counted.
func (c *Coordinator) OnPartial(participantID, text string, confidence float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.acceptLocked(participantID, "partial")
	if !ok {
		return
	}
	if _, clamped := models.ClampConfidence(confidence); clamped {
		c.metrics.RecordClamped("confidence")
	}

	if p.interimBuffer == "" && text != "" {
		// A fresh utterance begins: pin its start time and segment identity.
		p.utteranceStart = c.elapsed()
		p.segmentID = c.newID()
	}
	p.interimBuffer = text
	c.metrics.RecordPartial()
}

// OnFinal commits a final recognition event: the participant's active
// segment is replaced and finalized as one atomic unit, the interim buffer
// is cleared, and the finalized segment is broadcast.
func (c *Coordinator) OnFinal(participantID, text string, confidence float64) {
	c.mu.Lock()

	p, ok := c.acceptLocked(participantID, "final")
	if !ok {
		c.mu.Unlock()
		return
	}

	conf, clamped := models.ClampConfidence(confidence)
	if clamped {
		c.metrics.RecordClamped("confidence")
	}

	now := c.elapsed()
	start := now
	if p.interimBuffer != "" {
		start = p.utteranceStart
	}
	start, end, clamped := models.ClampTimes(start, now)
	if clamped {
		c.metrics.RecordClamped("time")
	}

	id := p.segmentID
	if id == "" {
		id = c.newID()
	}

	seg, committed := c.ledger.CommitFinal(participantID, models.TranscriptionSegment{
		ID:              id,
		SessionID:       c.sessionID,
		ParticipantID:   p.id,
		ParticipantName: p.name,
		Content:         text,
		StartTime:       start,
		EndTime:         end,
		Confidence:      conf,
		IsFinal:         true,
		Language:        c.cfg.Language,
		CreatedAt:       c.now().UTC(),
	})

	p.interimBuffer = ""
	p.utteranceStart = 0
	p.segmentID = ""
	if committed {
		c.metrics.RecordFinal()
	}
	c.mu.Unlock()

	if committed {
		c.broadcastFinal(seg)
	}
}

// acceptLocked validates that a recognition event can be processed. Callers
// hold the mutex.
func (c *Coordinator) acceptLocked(participantID, kind string) (*participantState, bool) {
	if c.state != StateActive {
		c.metrics.RecordDropped("no_active_session")
		return nil, false
	}
	p, ok := c.participants[participantID]
	if !ok {
		c.metrics.RecordDropped("unknown_participant")
		c.log.Debug().
			Str("participantId", participantID).
			Str("kind", kind).
			Msg("Recognition event dropped: unknown participant")
		return nil, false
	}
	if !p.micEnabled {
		c.metrics.RecordDropped("mic_disabled")
		c.log.Debug().
			Str("participantId", participantID).
			Str("kind", kind).
			Msg("Recognition event dropped: mic disabled")
		return nil, false
	}
	return p, true
}

// buildInterimLocked materializes the participant's buffered partial text as
// a non-final segment. Callers hold the mutex.
func (c *Coordinator) buildInterimLocked(p *participantState) models.TranscriptionSegment {
	id := p.segmentID
	if id == "" {
		id = c.newID()
	}
	start, end, _ := models.ClampTimes(p.utteranceStart, c.elapsed())
	return models.TranscriptionSegment{
		ID:              id,
		SessionID:       c.sessionID,
		ParticipantID:   p.id,
		ParticipantName: p.name,
		Content:         p.interimBuffer,
		StartTime:       start,
		EndTime:         end,
		Confidence:      c.cfg.InterimConfidence,
		IsFinal:         false,
		Language:        c.cfg.Language,
		CreatedAt:       c.now().UTC(),
	}
}

// recognizerCallback binds one participant channel to the stt.Callback
// surface, routing recognizer events into the processor.
type recognizerCallback struct {
	c             *Coordinator
	participantID string
}

// BindRecognizer returns an stt.Callback that attributes recognizer events
// to the given participant.
func (c *Coordinator) BindRecognizer(participantID string) *recognizerCallback {
	return &recognizerCallback{c: c, participantID: participantID}
}

func (r *recognizerCallback) OnPartial(text string, confidence float64) {
	r.c.OnPartial(r.participantID, text, confidence)
}

func (r *recognizerCallback) OnFinal(text string, confidence float64) {
	r.c.OnFinal(r.participantID, text, confidence)
}

func (r *recognizerCallback) OnError(err error) {
	r.c.metrics.RecordDropped("recognizer_error")
	r.c.log.Warn().
		Err(err).
		Str("participantId", r.participantID).
		Msg("Recognizer stream error")
}
