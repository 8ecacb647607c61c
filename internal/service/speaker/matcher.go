// Package speaker provides a coarse speaker-profile matcher driven by simple
// acoustic features. It annotates transcript attribution; it is not a
// diarizer, and the primary attribution path never depends on it.
package speaker

import (
	"math"
	"sync"
)

// FeatureVector is the fixed set of acoustic features observed per frame.
type FeatureVector struct {
	Pitch            float64 `json:"pitch"`
	Energy           float64 `json:"energy"`
	SpectralCentroid float64 `json:"spectralCentroid"`
}

func (v FeatureVector) distance(o FeatureVector) float64 {
	dp := v.Pitch - o.Pitch
	de := v.Energy - o.Energy
	dc := v.SpectralCentroid - o.SpectralCentroid
	return math.Sqrt(dp*dp + de*de + dc*dc)
}

// FeatureExtractor turns a raw PCM frame into a FeatureVector. The built-in
// extractor is a cheap heuristic; a model-backed extractor can replace it
// without touching the matcher.
type FeatureExtractor interface {
	Extract(pcm []int16, sampleRate int) FeatureVector
}

// BasicExtractor derives features directly from the waveform: zero-crossing
// rate as a pitch proxy, RMS level as energy, and the ratio of
// first-difference energy to signal energy as a spectral-centroid proxy.
type BasicExtractor struct{}

// Extract implements FeatureExtractor.
func (BasicExtractor) Extract(pcm []int16, sampleRate int) FeatureVector {
	if len(pcm) == 0 {
		return FeatureVector{}
	}

	var sumSq, diffSq float64
	crossings := 0
	for i, s := range pcm {
		f := float64(s)
		sumSq += f * f
		if i > 0 {
			d := f - float64(pcm[i-1])
			diffSq += d * d
			if (s >= 0) != (pcm[i-1] >= 0) {
				crossings++
			}
		}
	}

	n := float64(len(pcm))
	rms := math.Sqrt(sumSq / n)

	v := FeatureVector{
		// crossings per second, halved: two crossings per cycle
		Pitch:  float64(crossings) * float64(sampleRate) / n / 2,
		Energy: rms,
	}
	if sumSq > 0 {
		v.SpectralCentroid = math.Sqrt(diffSq/sumSq) * float64(sampleRate) / (2 * math.Pi)
	}
	return v
}

// Profile is the stored moving-average feature profile for one speaker.
type Profile struct {
	SpeakerID  string
	Confidence float64 // last match confidence against this profile
	Features   FeatureVector
}

// DefaultMatchThreshold is the minimum similarity for a positive match.
const DefaultMatchThreshold = 0.7

// Unknown is returned by Match when no profile clears the threshold.
const Unknown = "unknown"

// Matcher keeps per-speaker moving-average profiles and scores incoming
// frames against them. It owns its profile map; all mutation goes through
// Observe.
type Matcher struct {
	mu        sync.RWMutex
	profiles  map[string]*Profile
	threshold float64
}

// NewMatcher creates a matcher with the default similarity threshold.
func NewMatcher() *Matcher {
	return NewMatcherWithThreshold(DefaultMatchThreshold)
}

// NewMatcherWithThreshold creates a matcher with a custom threshold.
func NewMatcherWithThreshold(threshold float64) *Matcher {
	return &Matcher{
		profiles:  make(map[string]*Profile),
		threshold: threshold,
	}
}

// Observe folds a new frame's features into the speaker's profile. The first
// observation seeds the profile; later ones are averaged in.
func (m *Matcher) Observe(speakerID string, v FeatureVector) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[speakerID]
	if !ok {
		m.profiles[speakerID] = &Profile{SpeakerID: speakerID, Features: v}
		return
	}
	p.Features = FeatureVector{
		Pitch:            (p.Features.Pitch + v.Pitch) / 2,
		Energy:           (p.Features.Energy + v.Energy) / 2,
		SpectralCentroid: (p.Features.SpectralCentroid + v.SpectralCentroid) / 2,
	}
}

// Match scores v against every known profile and returns the best speaker
// with its similarity, or Unknown when no profile clears the threshold.
// Similarity is normalized inverse distance in [0,1].
func (m *Matcher) Match(v FeatureVector) (string, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	best := Unknown
	bestSim := 0.0
	var bestProfile *Profile
	for id, p := range m.profiles {
		sim := similarity(v, p.Features)
		if sim > bestSim {
			best, bestSim, bestProfile = id, sim, p
		}
	}

	if bestSim < m.threshold {
		return Unknown, bestSim
	}
	bestProfile.Confidence = bestSim
	return best, bestSim
}

// Profile returns a copy of the stored profile for a speaker.
func (m *Matcher) Profile(speakerID string) (Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[speakerID]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// Known returns the number of stored profiles.
func (m *Matcher) Known() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}

// similarity maps the euclidean distance between two vectors, scaled by
// their magnitudes, into [0,1]. Identical vectors score 1.
func similarity(a, b FeatureVector) float64 {
	scale := math.Max(magnitude(a), magnitude(b))
	if scale == 0 {
		return 1
	}
	return 1 / (1 + a.distance(b)/scale)
}

func magnitude(v FeatureVector) float64 {
	return math.Sqrt(v.Pitch*v.Pitch + v.Energy*v.Energy + v.SpectralCentroid*v.SpectralCentroid)
}
