package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voice-gateway/internal/core"
	"github.com/dkeye/voice-gateway/internal/domain"
)

type trackEntry struct {
	track  domain.Track
	timing frameTiming
}

// TrackRegistry is the ingress gate: it knows which published audio tracks
// belong to which call and decides, per frame, whether audio is relayed.
// Bot audio is never relayed back into the call path; that is the privacy
// boundary between synthesized speech and the caller-facing stream.
type TrackRegistry struct {
	mu     sync.RWMutex
	tracks map[domain.TrackSid]*trackEntry

	sink core.FrameSink
}

func NewTrackRegistry(sink core.FrameSink) *TrackRegistry {
	return &TrackRegistry{
		tracks: make(map[domain.TrackSid]*trackEntry),
		sink:   sink,
	}
}

// Attach registers a published track. The role is fixed here and never
// re-resolved. Attaching an already-known sid is a no-op: the original
// context wins.
func (r *TrackRegistry) Attach(track domain.Track) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tracks[track.Sid]; ok {
		return false
	}
	r.tracks[track.Sid] = &trackEntry{track: track}
	log.Info().
		Str("module", "app.tracks").
		Str("track_sid", string(track.Sid)).
		Str("call_id", string(track.CallID)).
		Str("role", string(track.Role)).
		Msg("attached audio ingress")
	return true
}

// Detach removes a track; unknown sids are a no-op.
func (r *TrackRegistry) Detach(sid domain.TrackSid) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tracks[sid]; !ok {
		return false
	}
	delete(r.tracks, sid)
	log.Info().Str("module", "app.tracks").Str("track_sid", string(sid)).Msg("detached audio ingress")
	return true
}

// DetachCall removes every track owned by a call, as part of teardown.
func (r *TrackRegistry) DetachCall(id domain.CallID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for sid, e := range r.tracks {
		if e.track.CallID == id {
			delete(r.tracks, sid)
			n++
		}
	}
	if n > 0 {
		log.Info().Str("module", "app.tracks").Str("call_id", string(id)).Int("tracks", n).Msg("detached call tracks")
	}
	return n
}

// Admit decides whether an inbound frame is relayed. Drops are silent:
// unknown sid, unsupported sample rate, or a bot-owned track. Admitted
// frames are counted and handed to the sink, which must not block.
func (r *TrackRegistry) Admit(sid domain.TrackSid, frame domain.AudioFrame) bool {
	r.mu.RLock()
	e, ok := r.tracks[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if !domain.ValidSampleRate(frame.SampleRate) {
		return false
	}
	if e.track.Role == domain.RoleBot {
		return false
	}

	e.timing.observe(time.Now())
	r.sink.Forward(e.track, frame)
	return true
}

// Context returns the attach-time context for a sid.
func (r *TrackRegistry) Context(sid domain.TrackSid) (domain.Track, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tracks[sid]
	if !ok {
		return domain.Track{}, false
	}
	return e.track, true
}

// TrackView is a read-only snapshot for APIs.
type TrackView struct {
	Track  domain.Track `json:"track"`
	Timing TimingStats  `json:"timing"`
}

// CallTracks lists the tracks of one call with their telemetry.
func (r *TrackRegistry) CallTracks(id domain.CallID) []TrackView {
	r.mu.RLock()
	entries := make([]*trackEntry, 0, len(r.tracks))
	for _, e := range r.tracks {
		if e.track.CallID == id {
			entries = append(entries, e)
		}
	}
	r.mu.RUnlock()

	out := make([]TrackView, 0, len(entries))
	for _, e := range entries {
		out = append(out, TrackView{Track: e.track, Timing: e.timing.snapshot()})
	}
	return out
}
