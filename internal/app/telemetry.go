package app

import (
	"sync"
	"time"
)

// frameTiming tracks per-stream arrival telemetry for admitted frames.
type frameTiming struct {
	mu       sync.Mutex
	frames   uint64
	last     time.Time
	lastGap  time.Duration
	worstGap time.Duration
}

func (t *frameTiming) observe(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.last.IsZero() {
		gap := now.Sub(t.last)
		t.lastGap = gap
		if gap > t.worstGap {
			t.worstGap = gap
		}
	}
	t.frames++
	t.last = now
}

// TimingStats is a read-only telemetry snapshot.
type TimingStats struct {
	Frames     uint64 `json:"frames"`
	LastGapMs  int64  `json:"last_gap_ms"`
	WorstGapMs int64  `json:"worst_gap_ms"`
}

func (t *frameTiming) snapshot() TimingStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TimingStats{
		Frames:     t.frames,
		LastGapMs:  t.lastGap.Milliseconds(),
		WorstGapMs: t.worstGap.Milliseconds(),
	}
}
