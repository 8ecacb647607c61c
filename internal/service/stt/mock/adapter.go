// Package mock provides a mock STT adapter for testing without cloud
// credentials. It simulates realistic speech-to-text behavior with
// progressive partial transcripts and exactly one final transcript per
// utterance.
package mock

import (
	"context"
	"sync"
	"time"

	"collab-transcript-core/internal/service/stt"
)

// SimulatedUtterance represents a mock utterance with progressive transcripts.
type SimulatedUtterance struct {
	Partials   []string // Progressive partial transcripts
	Final      string   // Final transcript text
	Confidence float64  // Confidence score for final
}

// DefaultUtterances provides sample utterances for simulation.
var DefaultUtterances = []SimulatedUtterance{
	{
		Partials:   []string{"I think", "I think we", "I think we should"},
		Final:      "I think we should proceed",
		Confidence: 0.93,
	},
	{
		Partials:   []string{"Let's review", "Let's review the"},
		Final:      "Let's review the action items",
		Confidence: 0.96,
	},
	{
		Partials:   []string{"Can everyone", "Can everyone see my"},
		Final:      "Can everyone see my screen",
		Confidence: 0.91,
	},
	{
		Partials:   []string{"Sounds good"},
		Final:      "Sounds good to me",
		Confidence: 0.98,
	},
}

// Adapter implements stt.Adapter with scripted responses.
// Each audio frame advances the simulation: one partial per frame, then a
// single final once all partials have been delivered.
type Adapter struct {
	cb            stt.Callback
	mu            sync.Mutex
	audioReceived int
	utterance     SimulatedUtterance
	partialIndex  int
	finalSent     bool
	closed        bool
	delay         time.Duration
}

// utteranceCounter cycles through the default utterances across adapters.
var (
	utteranceCounter int
	counterMu        sync.Mutex
)

// New creates a new mock STT adapter.
func New() *Adapter {
	counterMu.Lock()
	idx := utteranceCounter % len(DefaultUtterances)
	utteranceCounter++
	counterMu.Unlock()

	return &Adapter{
		utterance: DefaultUtterances[idx],
		delay:     50 * time.Millisecond,
	}
}

// NewScripted creates a mock adapter that plays back a specific utterance
// with no simulated processing delay. Intended for deterministic tests.
func NewScripted(u SimulatedUtterance) *Adapter {
	return &Adapter{utterance: u}
}

// Start begins a mock transcription session.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cb = cb
	return nil
}

// SendAudio simulates receiving audio and triggers progressive partial
// transcripts, then the final once all partials are exhausted.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	a.mu.Lock()

	if a.closed || a.cb == nil {
		a.mu.Unlock()
		return nil
	}

	a.audioReceived++

	if a.partialIndex < len(a.utterance.Partials) {
		partial := a.utterance.Partials[a.partialIndex]
		a.partialIndex++
		cb := a.cb
		delay := a.delay
		a.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		cb.OnPartial(partial, 0.5)
		return nil
	}

	if !a.finalSent {
		// All partials sent - simulate silence detection ending the utterance
		a.finalSent = true
		cb := a.cb
		utt := a.utterance
		delay := a.delay
		a.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		cb.OnFinal(utt.Final, utt.Confidence)
		return nil
	}

	a.mu.Unlock()
	return nil
}

// Close ends the mock session. If the final wasn't delivered yet (stream
// ended early), it is delivered now.
func (a *Adapter) Close() error {
	a.mu.Lock()

	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true

	if !a.finalSent && a.cb != nil {
		a.finalSent = true
		cb := a.cb
		utt := a.utterance
		a.mu.Unlock()
		cb.OnFinal(utt.Final, utt.Confidence)
		return nil
	}

	a.mu.Unlock()
	return nil
}
