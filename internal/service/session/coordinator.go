// Package session orchestrates a collaborative transcription session: the
// participant roster, the recognition event processor, the interim flush
// scheduler and the segment ledger behind one serialization boundary.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"collab-transcript-core/internal/models"
	"collab-transcript-core/internal/observability/logging"
	"collab-transcript-core/internal/observability/metrics"
	"collab-transcript-core/internal/service/ledger"
	"collab-transcript-core/internal/service/quality"
	"collab-transcript-core/internal/service/speaker"
	"collab-transcript-core/internal/service/summary"
)

// DefaultFlushInterval is the period of the interim buffer flush.
const DefaultFlushInterval = time.Second

// DefaultInterimConfidence is the flat heuristic confidence assigned to
// interim segments. Partial recognizer confidence is unreliable, so it is
// not recomputed per event.
const DefaultInterimConfidence = 0.5

// Broadcaster replicates segments to remote peers. Satisfied by
// events.Publisher.
type Broadcaster interface {
	BroadcastInterim(ctx context.Context, seg models.TranscriptionSegment) error
	BroadcastFinal(ctx context.Context, seg models.TranscriptionSegment) error
}

// AudioIntake is the external audio capture collaborator.
type AudioIntake interface {
	Start(ctx context.Context) error
	Stop() error
}

// RecognitionGate reports whether the speech-recognition capability is
// available before a session starts.
type RecognitionGate func() error

// Participant identifies one session member.
type Participant struct {
	ID   string
	Name string
}

// participantState is the coordinator-owned ephemeral state per participant.
type participantState struct {
	id             string
	name           string
	micEnabled     bool
	interimBuffer  string
	utteranceStart float64 // session-relative seconds; valid when buffer non-empty
	segmentID      string  // stable ID for the in-flight utterance's segment
}

// Config holds session coordinator settings.
type Config struct {
	FlushInterval     time.Duration
	InterimConfidence float64
	Language          string
}

// DefaultCoordinatorConfig returns the default coordinator settings.
func DefaultCoordinatorConfig() Config {
	return Config{
		FlushInterval:     DefaultFlushInterval,
		InterimConfidence: DefaultInterimConfidence,
		Language:          models.DefaultLanguage,
	}
}

// Coordinator owns the session state machine. All ledger and participant
// mutations are serialized behind its mutex: recognition events, flush
// ticks, pause/resume and stop never observe half-updated state.
type Coordinator struct {
	mu  sync.Mutex
	cfg Config
	log zerolog.Logger

	state        State
	sessionID    string
	startTime    time.Time
	ledger       *ledger.Ledger
	participants map[string]*participantState

	scheduler   *flushScheduler
	broadcaster Broadcaster
	intake      AudioIntake
	gate        RecognitionGate
	quality     *quality.Monitor
	matcher     *speaker.Matcher
	metrics     *metrics.Metrics
	summary     *models.SessionSummary

	newID func() string
	now   func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithBroadcaster wires the outbound segment replication collaborator.
func WithBroadcaster(b Broadcaster) Option {
	return func(c *Coordinator) { c.broadcaster = b }
}

// WithAudioIntake wires the external audio capture collaborator; its Start
// failure surfaces as ErrAudioPipelineFailure.
func WithAudioIntake(a AudioIntake) Option {
	return func(c *Coordinator) { c.intake = a }
}

// WithRecognitionGate wires the recognition capability check; a failing gate
// surfaces as ErrNotAuthorized.
func WithRecognitionGate(g RecognitionGate) Option {
	return func(c *Coordinator) { c.gate = g }
}

// WithQualityMonitor replaces the default quality monitor.
func WithQualityMonitor(m *quality.Monitor) Option {
	return func(c *Coordinator) { c.quality = m }
}

// WithSpeakerMatcher replaces the default speaker matcher.
func WithSpeakerMatcher(m *speaker.Matcher) Option {
	return func(c *Coordinator) { c.matcher = m }
}

// NewCoordinator creates an idle coordinator.
func NewCoordinator(cfg Config, opts ...Option) *Coordinator {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.InterimConfidence <= 0 || cfg.InterimConfidence > 1 {
		cfg.InterimConfidence = DefaultInterimConfidence
	}
	if cfg.Language == "" {
		cfg.Language = models.DefaultLanguage
	}

	c := &Coordinator{
		cfg:     cfg,
		log:     logging.WithComponent("session"),
		state:   StateIdle,
		quality: quality.NewMonitor(),
		matcher: speaker.NewMatcher(),
		metrics: metrics.DefaultMetrics,
		newID:   newSegmentID,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins a session with the given roster. It fails when a session is
// already active, when no session context is available, when the
// recognition capability is unavailable, or when the audio intake
// collaborator cannot initialize. On failure the coordinator stays idle.
func (c *Coordinator) Start(sessionID string, roster []Participant) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateActive {
		return ErrSessionActive
	}
	if c.state == StateStopped {
		return fmt.Errorf("%w: coordinator is stopped", ErrNoActiveSession)
	}
	if sessionID == "" {
		return fmt.Errorf("%w: missing session context", ErrNoActiveSession)
	}

	if c.gate != nil {
		if err := c.gate(); err != nil {
			return fmt.Errorf("%w: %v", ErrNotAuthorized, err)
		}
	}
	if c.intake != nil {
		if err := c.intake.Start(context.Background()); err != nil {
			return fmt.Errorf("%w: %v", ErrAudioPipelineFailure, err)
		}
	}

	c.sessionID = sessionID
	c.startTime = c.now()
	c.ledger = ledger.New(sessionID)
	c.participants = make(map[string]*participantState, len(roster))
	for _, p := range roster {
		c.participants[p.ID] = &participantState{
			id:         p.ID,
			name:       p.Name,
			micEnabled: true,
		}
	}
	c.state = StateActive
	c.summary = nil

	c.scheduler = newFlushScheduler(c, c.cfg.FlushInterval)
	c.scheduler.start()

	c.metrics.RecordSessionStart(len(roster))
	sessionLog := logging.WithSession(sessionID)
	sessionLog.Info().
		Int("participants", len(roster)).
		Dur("flushInterval", c.cfg.FlushInterval).
		Msg("Session started")
	return nil
}

// Stop ends the session. It never fails: pending interim buffers and active
// segments are force-finalized so no utterance is silently lost, the ledger
// is frozen and the summary is generated. No-op unless active.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}

	sched := c.scheduler
	c.scheduler = nil

	// Drain: materialize every pending buffer, then finalize every active
	// slot still in the ledger.
	var drained []models.TranscriptionSegment
	for _, p := range c.participants {
		if p.interimBuffer != "" {
			c.ledger.ReplaceActive(p.id, c.buildInterimLocked(p))
			p.interimBuffer = ""
			p.segmentID = ""
		}
		if seg, ok := c.ledger.Finalize(p.id); ok {
			drained = append(drained, seg)
		}
	}

	c.ledger.Freeze()
	s := summary.Summarize(c.ledger, c.startTime, c.now())
	c.summary = &s
	c.state = StateStopped
	duration := c.now().Sub(c.startTime).Seconds()
	sessionID := c.sessionID
	c.mu.Unlock()

	// Ticker teardown and broadcasts happen outside the lock; the scheduler
	// serializes with us through the same mutex.
	if sched != nil {
		sched.stop()
	}
	for _, seg := range drained {
		c.broadcastFinal(seg)
	}
	if c.intake != nil {
		if err := c.intake.Stop(); err != nil {
			c.log.Warn().Err(err).Str("sessionId", sessionID).Msg("Audio intake stop failed")
		}
	}

	c.metrics.RecordSessionStop(duration)
	c.log.Info().
		Str("sessionId", sessionID).
		Float64("durationSeconds", duration).
		Int("finalSegments", len(drained)).
		Msg("Session stopped")
}

// Pause disables a participant's mic. Recognition events for a paused
// participant are dropped. Unknown participants are counted, not errored.
func (c *Coordinator) Pause(participantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return ErrNoActiveSession
	}
	p, ok := c.participants[participantID]
	if !ok {
		c.metrics.RecordDropped("unknown_participant")
		c.log.Warn().Str("participantId", participantID).Msg("Pause for unknown participant")
		return nil
	}
	p.micEnabled = false
	participantLog := logging.WithParticipant(c.sessionID, participantID)
	participantLog.Debug().Msg("Participant paused")
	return nil
}

// Resume re-enables a participant's mic and resets the interim buffer: a
// fresh utterance begins.
func (c *Coordinator) Resume(participantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return ErrNoActiveSession
	}
	p, ok := c.participants[participantID]
	if !ok {
		c.metrics.RecordDropped("unknown_participant")
		c.log.Warn().Str("participantId", participantID).Msg("Resume for unknown participant")
		return nil
	}
	p.micEnabled = true
	p.interimBuffer = ""
	p.utteranceStart = 0
	p.segmentID = ""
	participantLog := logging.WithParticipant(c.sessionID, participantID)
	participantLog.Debug().Msg("Participant resumed")
	return nil
}

// Join adds a participant to the roster mid-session.
func (c *Coordinator) Join(p Participant) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return ErrNoActiveSession
	}
	if _, ok := c.participants[p.ID]; !ok {
		c.participants[p.ID] = &participantState{
			id:         p.ID,
			name:       p.Name,
			micEnabled: true,
		}
		c.metrics.ParticipantsActive.Set(float64(len(c.participants)))
		c.log.Info().Str("participantId", p.ID).Msg("Participant joined")
	}
	return nil
}

// Leave retires a participant. A pending utterance is finalized first so it
// is not lost.
func (c *Coordinator) Leave(participantID string) error {
	c.mu.Lock()

	if c.state != StateActive {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	p, ok := c.participants[participantID]
	if !ok {
		c.mu.Unlock()
		return nil
	}

	var final *models.TranscriptionSegment
	if p.interimBuffer != "" {
		c.ledger.ReplaceActive(p.id, c.buildInterimLocked(p))
	}
	if seg, ok := c.ledger.Finalize(p.id); ok {
		final = &seg
	}
	delete(c.participants, participantID)
	c.metrics.ParticipantsActive.Set(float64(len(c.participants)))
	c.mu.Unlock()

	if final != nil {
		c.broadcastFinal(*final)
	}
	c.log.Info().Str("participantId", participantID).Msg("Participant left")
	return nil
}

// RecordAudio feeds one audio intake sample into the side channels: the
// quality monitor and the speaker matcher. These do not join the main
// serialization point.
func (c *Coordinator) RecordAudio(participantID string, levelDb float64, features speaker.FeatureVector) {
	c.quality.Record(levelDb)
	c.matcher.Observe(participantID, features)
	c.metrics.RecordQualityTier(int(c.quality.CurrentTier()))
}

// MatchSpeaker annotates a feature frame with the best-known speaker.
func (c *Coordinator) MatchSpeaker(features speaker.FeatureVector) (string, float64) {
	id, conf := c.matcher.Match(features)
	if id == speaker.Unknown {
		c.metrics.RecordSpeakerMatch("unknown")
	} else {
		c.metrics.RecordSpeakerMatch("matched")
	}
	return id, conf
}

// QualityTier returns the current audio quality classification.
func (c *Coordinator) QualityTier() quality.Tier {
	return c.quality.CurrentTier()
}

// State returns the coordinator lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the current session's ID, empty when idle.
func (c *Coordinator) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Ledger returns the session ledger, nil before the first Start.
func (c *Coordinator) Ledger() *ledger.Ledger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger
}

// Summary returns the end-of-session summary once the session has stopped.
func (c *Coordinator) Summary() (models.SessionSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary == nil {
		return models.SessionSummary{}, false
	}
	return *c.summary, true
}

// MicEnabled reports a participant's mic state.
func (c *Coordinator) MicEnabled(participantID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.participants[participantID]
	return ok && p.micEnabled
}

// elapsed returns session-relative seconds. Callers hold the mutex.
func (c *Coordinator) elapsed() float64 {
	return c.now().Sub(c.startTime).Seconds()
}

func (c *Coordinator) broadcastFinal(seg models.TranscriptionSegment) {
	if c.broadcaster == nil {
		return
	}
	if err := c.broadcaster.BroadcastFinal(context.Background(), seg); err != nil {
		c.log.Error().Err(err).Str("segmentId", seg.ID).Msg("Final segment broadcast failed")
	}
}

func (c *Coordinator) broadcastInterim(seg models.TranscriptionSegment) {
	if c.broadcaster == nil {
		return
	}
	if err := c.broadcaster.BroadcastInterim(context.Background(), seg); err != nil {
		c.log.Error().Err(err).Str("segmentId", seg.ID).Msg("Interim segment broadcast failed")
	}
}
