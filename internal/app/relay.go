package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voice-gateway/internal/domain"
)

// ForwardedFrame is an admitted frame together with its attach-time context.
type ForwardedFrame struct {
	Track domain.Track
	Frame domain.AudioFrame
}

// ForwardQueue decouples ingress admission from the downstream consumer.
// Forward never blocks: when the consumer falls behind, frames are dropped
// and counted instead of stalling the media path.
type ForwardQueue struct {
	frames chan ForwardedFrame

	mu      sync.Mutex
	dropped uint64
	closed  bool
}

func NewForwardQueue(buffer int) *ForwardQueue {
	if buffer <= 0 {
		buffer = 64
	}
	return &ForwardQueue{frames: make(chan ForwardedFrame, buffer)}
}

func (q *ForwardQueue) Forward(track domain.Track, frame domain.AudioFrame) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	select {
	case q.frames <- ForwardedFrame{Track: track, Frame: frame}:
	default:
		q.dropped++
		if q.dropped%100 == 1 {
			log.Warn().
				Str("module", "app.relay").
				Uint64("dropped", q.dropped).
				Msg("forward queue full, dropping frames")
		}
	}
	q.mu.Unlock()
}

// Frames is the consumer side of the queue.
func (q *ForwardQueue) Frames() <-chan ForwardedFrame {
	return q.frames
}

func (q *ForwardQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *ForwardQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.frames)
	q.mu.Unlock()
}
