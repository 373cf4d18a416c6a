package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voice-gateway/internal/core"
	"github.com/dkeye/voice-gateway/internal/domain"
)

// EgressPublisher is the single-writer guard for one outbound audio stream.
// It drops rather than queues: malformed frames, replayed or out-of-order
// timestamps, and frames arriving while a publish is in flight are all
// discarded. No out-of-order or overlapping output, ever.
type EgressPublisher struct {
	mu     sync.Mutex
	lastTS int64
	busy   bool

	out core.FramePublisher
}

func NewEgressPublisher(out core.FramePublisher) *EgressPublisher {
	return &EgressPublisher{out: out}
}

// Publish forwards one frame downstream. Returns whether the frame was
// accepted; rejected frames are not retried.
func (p *EgressPublisher) Publish(frame domain.AudioFrame) bool {
	if !frame.ValidFormat() {
		return false
	}

	p.mu.Lock()
	if frame.TimestampMs <= p.lastTS {
		p.mu.Unlock()
		return false
	}
	if p.busy {
		p.mu.Unlock()
		return false
	}
	p.busy = true
	p.lastTS = frame.TimestampMs
	p.mu.Unlock()

	// The busy flag is released on every path, including publish failure.
	defer func() {
		p.mu.Lock()
		p.busy = false
		p.mu.Unlock()
	}()

	if err := p.out.WriteFrame(frame); err != nil {
		log.Error().Err(err).Str("module", "app.egress").Msg("publish failed, frame dropped")
	}
	return true
}

// EgressRegistry hands out one publisher per outbound stream so that
// contention on one stream never blocks another.
type EgressRegistry struct {
	mu      sync.RWMutex
	streams map[string]*EgressPublisher

	newOut func() core.FramePublisher
}

func NewEgressRegistry(newOut func() core.FramePublisher) *EgressRegistry {
	return &EgressRegistry{
		streams: make(map[string]*EgressPublisher),
		newOut:  newOut,
	}
}

func (r *EgressRegistry) GetOrCreate(streamID string) *EgressPublisher {
	r.mu.RLock()
	p, ok := r.streams[streamID]
	r.mu.RUnlock()
	if ok {
		return p
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok = r.streams[streamID]; ok {
		return p
	}
	p = NewEgressPublisher(r.newOut())
	r.streams[streamID] = p
	return p
}

func (r *EgressRegistry) Remove(streamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streams, streamID)
}
