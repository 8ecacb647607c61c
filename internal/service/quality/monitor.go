// Package quality classifies live transcription quality from audio levels.
package quality

import (
	"fmt"
	"sync"
)

// Tier is the coarse audio-quality bucket derived from recent levels.
type Tier int

const (
	TierPoor Tier = iota
	TierFair
	TierGood
	TierExcellent
)

// String returns the string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierGood:
		return "good"
	case TierFair:
		return "fair"
	case TierPoor:
		return "poor"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(t))
	}
}

// Classifier maps an average audio level (dB) to a quality tier.
// The default threshold classifier can be swapped for a model-backed one
// without touching the monitor.
type Classifier interface {
	Classify(avgDb float64) Tier
}

// ThresholdClassifier buckets the window average with fixed dB cutoffs.
// No hysteresis: rapid tier flips on noisy input are expected.
type ThresholdClassifier struct{}

// Classify implements Classifier.
func (ThresholdClassifier) Classify(avgDb float64) Tier {
	switch {
	case avgDb > -20:
		return TierExcellent
	case avgDb > -30:
		return TierGood
	case avgDb > -40:
		return TierFair
	default:
		return TierPoor
	}
}

// DefaultWindowSize is the number of level samples kept in the rolling window.
const DefaultWindowSize = 100

// TierChangeFunc is invoked when the classified tier changes.
type TierChangeFunc func(old, new Tier)

// Monitor keeps a fixed-capacity rolling window of audio-level samples and
// classifies the current transcription quality. It owns its window; all
// mutation goes through Record.
type Monitor struct {
	mu         sync.Mutex
	classifier Classifier
	window     []float64
	head       int
	sum        float64
	lastTier   Tier
	hasSamples bool
	onChange   TierChangeFunc
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClassifier replaces the default threshold classifier.
func WithClassifier(c Classifier) Option {
	return func(m *Monitor) { m.classifier = c }
}

// WithWindowSize sets the rolling window capacity.
func WithWindowSize(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.window = make([]float64, 0, n)
		}
	}
}

// WithTierChange registers a callback fired whenever the tier flips.
// The callback runs synchronously inside Record; keep it cheap.
func WithTierChange(fn TierChangeFunc) Option {
	return func(m *Monitor) { m.onChange = fn }
}

// NewMonitor creates a quality monitor with the default window and classifier.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		classifier: ThresholdClassifier{},
		window:     make([]float64, 0, DefaultWindowSize),
		lastTier:   TierPoor,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record adds one audio-level reading (dB), evicting the oldest sample when
// the window is full.
func (m *Monitor) Record(levelDb float64) {
	m.mu.Lock()

	if len(m.window) < cap(m.window) {
		m.window = append(m.window, levelDb)
		m.sum += levelDb
	} else {
		m.sum += levelDb - m.window[m.head]
		m.window[m.head] = levelDb
		m.head = (m.head + 1) % cap(m.window)
	}
	m.hasSamples = true

	tier := m.classifier.Classify(m.sum / float64(len(m.window)))
	old := m.lastTier
	m.lastTier = tier
	fn := m.onChange
	m.mu.Unlock()

	if fn != nil && tier != old {
		fn(old, tier)
	}
}

// CurrentTier returns the tier for the current window average.
// With no samples recorded yet it reports TierPoor.
func (m *Monitor) CurrentTier() Tier {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSamples {
		return TierPoor
	}
	return m.classifier.Classify(m.sum / float64(len(m.window)))
}

// Average returns the current window average in dB and whether any samples
// have been recorded.
func (m *Monitor) Average() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSamples {
		return 0, false
	}
	return m.sum / float64(len(m.window)), true
}
