// Package ledger provides the append-only, time-ordered store of
// transcription segments for a single session.
package ledger

import (
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"collab-transcript-core/internal/models"
)

// Filter selects segments from the ledger. Zero-value fields are ignored;
// all set fields are combined with logical AND.
type Filter struct {
	// Text is matched case-insensitively as a substring of Content or
	// ParticipantName.
	Text string

	// From/To bound the segment's time span (session-relative seconds).
	// A segment matches when its [StartTime, EndTime] span overlaps the
	// requested range.
	From *float64
	To   *float64

	// Participants restricts results to the given participant IDs.
	Participants []string

	// MinConfidence drops segments below the threshold.
	MinConfidence float64

	// FinalOnly excludes interim segments.
	FinalOnly bool
}

type entry struct {
	seg models.TranscriptionSegment
	seq uint64
}

// Ledger is the ordered store of all segments for a session.
//
// At most one active (non-final) segment exists per participant; it is
// replaced in place by ReplaceActive and becomes immutable once finalized.
// All mutating operations are serialized behind one mutex so that
// replace-then-finalize is always observed as a single step.
type Ledger struct {
	mu        sync.RWMutex
	sessionID string
	finals    []entry
	active    map[string]entry
	seq       uint64
	frozen    bool
}

// New creates an empty ledger for the given session.
func New(sessionID string) *Ledger {
	return &Ledger{
		sessionID: sessionID,
		active:    make(map[string]entry),
	}
}

// SessionID returns the session this ledger belongs to.
func (l *Ledger) SessionID() string {
	return l.sessionID
}

// Append adds a segment to the ledger. Final segments are appended
// permanently; non-final segments replace the participant's active slot.
// Appending to a frozen ledger is a no-op.
func (l *Ledger) Append(seg models.TranscriptionSegment) {
	if !seg.IsFinal {
		l.ReplaceActive(seg.ParticipantID, seg)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen {
		log.Debug().Str("segmentId", seg.ID).Msg("append ignored: ledger frozen")
		return
	}
	l.seq++
	l.finals = append(l.finals, entry{seg: seg, seq: l.seq})
}

// ReplaceActive overwrites the participant's current non-final segment in
// place. The insertion order of the slot is preserved across replacements so
// ordering ties stay stable while an utterance is being revised.
func (l *Ledger) ReplaceActive(participantID string, seg models.TranscriptionSegment) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen {
		log.Debug().Str("participantId", participantID).Msg("replaceActive ignored: ledger frozen")
		return
	}
	seg.IsFinal = false
	if prev, ok := l.active[participantID]; ok {
		l.active[participantID] = entry{seg: seg, seq: prev.seq}
		return
	}
	l.seq++
	l.active[participantID] = entry{seg: seg, seq: l.seq}
}

// Finalize converts the participant's active segment to final, appends it
// permanently and clears the slot. It reports false when the participant has
// no active segment.
func (l *Ledger) Finalize(participantID string) (models.TranscriptionSegment, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.finalizeLocked(participantID)
}

// CommitFinal replaces the participant's active segment with seg and
// finalizes it as one atomic step. This is the path used when the recognizer
// delivers a final transcript: the interim slot must never be observable as
// a separate entry alongside the final one.
func (l *Ledger) CommitFinal(participantID string, seg models.TranscriptionSegment) (models.TranscriptionSegment, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen {
		log.Debug().Str("participantId", participantID).Msg("commitFinal ignored: ledger frozen")
		return models.TranscriptionSegment{}, false
	}
	if prev, ok := l.active[participantID]; ok {
		l.active[participantID] = entry{seg: seg, seq: prev.seq}
	} else {
		l.seq++
		l.active[participantID] = entry{seg: seg, seq: l.seq}
	}
	return l.finalizeLocked(participantID)
}

func (l *Ledger) finalizeLocked(participantID string) (models.TranscriptionSegment, bool) {
	if l.frozen {
		return models.TranscriptionSegment{}, false
	}
	e, ok := l.active[participantID]
	if !ok {
		return models.TranscriptionSegment{}, false
	}
	delete(l.active, participantID)
	e.seg.IsFinal = true
	l.finals = append(l.finals, e)
	return e.seg, true
}

// Active returns the participant's current non-final segment, if any.
func (l *Ledger) Active(participantID string) (models.TranscriptionSegment, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.active[participantID]
	return e.seg, ok
}

// All returns every segment (final and interim) sorted by StartTime
// ascending, ties broken by insertion order.
func (l *Ledger) All() []models.TranscriptionSegment {
	return l.Query(Filter{})
}

// Query returns the segments matching f in StartTime order.
func (l *Ledger) Query(f Filter) []models.TranscriptionSegment {
	l.mu.RLock()
	matched := make([]entry, 0, len(l.finals)+len(l.active))
	for _, e := range l.finals {
		if f.matches(e.seg) {
			matched = append(matched, e)
		}
	}
	if !f.FinalOnly {
		for _, e := range l.active {
			if f.matches(e.seg) {
				matched = append(matched, e)
			}
		}
	}
	l.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].seg.StartTime != matched[j].seg.StartTime {
			return matched[i].seg.StartTime < matched[j].seg.StartTime
		}
		return matched[i].seq < matched[j].seq
	})

	out := make([]models.TranscriptionSegment, len(matched))
	for i, e := range matched {
		out[i] = e.seg
	}
	return out
}

func (f Filter) matches(seg models.TranscriptionSegment) bool {
	if f.FinalOnly && !seg.IsFinal {
		return false
	}
	if seg.Confidence < f.MinConfidence {
		return false
	}
	if f.From != nil && seg.EndTime < *f.From {
		return false
	}
	if f.To != nil && seg.StartTime > *f.To {
		return false
	}
	if len(f.Participants) > 0 {
		found := false
		for _, p := range f.Participants {
			if p == seg.ParticipantID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(seg.Content), needle) &&
			!strings.Contains(strings.ToLower(seg.ParticipantName), needle) {
			return false
		}
	}
	return true
}

// FinalCount returns the number of committed final segments.
func (l *Ledger) FinalCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.finals)
}

// ActiveCount returns the number of in-progress interim segments.
func (l *Ledger) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.active)
}

// Freeze makes the ledger read-only. Subsequent mutations are no-ops.
// Idempotent.
func (l *Ledger) Freeze() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frozen = true
}

// Frozen reports whether the ledger is read-only.
func (l *Ledger) Frozen() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frozen
}
