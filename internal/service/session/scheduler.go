package session

import (
	"time"

	"collab-transcript-core/internal/models"
)

// flushScheduler periodically materializes non-empty interim buffers into
// the ledger so partial speech is visible within one tick of being
// recognized. Each tick runs under the coordinator mutex, so a flush can
// never race OnFinal into resurrecting an already-cleared buffer.
type flushScheduler struct {
	c        *Coordinator
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newFlushScheduler(c *Coordinator, interval time.Duration) *flushScheduler {
	return &flushScheduler{
		c:        c,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (s *flushScheduler) start() {
	go s.run()
}

func (s *flushScheduler) run() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.c.flushTick()
		case <-s.stopCh:
			return
		}
	}
}

// stop halts the scheduler and waits for an in-flight tick to finish.
func (s *flushScheduler) stop() {
	close(s.stopCh)
	<-s.doneCh
}

// flushTick materializes an interim segment for every mic-enabled
// participant with buffered partial text.
func (c *Coordinator) flushTick() {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}

	var flushed []models.TranscriptionSegment
	for _, p := range c.participants {
		if !p.micEnabled || p.interimBuffer == "" {
			continue
		}
		seg := c.buildInterimLocked(p)
		c.ledger.ReplaceActive(p.id, seg)
		flushed = append(flushed, seg)
	}
	c.metrics.RecordFlushTick(len(flushed))
	c.mu.Unlock()

	for _, seg := range flushed {
		c.broadcastInterim(seg)
	}
}
