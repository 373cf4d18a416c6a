package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voice-gateway/internal/core"
	"github.com/dkeye/voice-gateway/internal/domain"
)

// RecordingController keeps the callId→recordingId mapping and drives the
// platform recorder. Recordings are best-effort: a failed start or stop is
// logged and the call proceeds; they are never authoritative call state.
type RecordingController struct {
	mu     sync.Mutex
	active map[domain.CallID]string

	api core.RecorderAPI
	dir string
}

func NewRecordingController(api core.RecorderAPI, dir string) *RecordingController {
	if dir == "" {
		dir = "recordings"
	}
	return &RecordingController{
		active: make(map[domain.CallID]string),
		api:    api,
		dir:    dir,
	}
}

// Start requests a composite recording for the call's room. No-op when one
// is already tracked. The entry is claimed before the external call so a
// concurrent Start for the same call cannot double-record.
func (c *RecordingController) Start(ctx context.Context, id domain.CallID) {
	c.mu.Lock()
	if _, ok := c.active[id]; ok {
		c.mu.Unlock()
		return
	}
	c.active[id] = ""
	c.mu.Unlock()

	room := id.RoomName()
	path := fmt.Sprintf("%s/%s_%s.mp4", c.dir, room, uuid.NewString())

	recID, err := c.api.StartRecording(ctx, room, path)
	if err != nil {
		log.Error().Err(err).Str("module", "app.recording").Str("call_id", string(id)).Msg("failed to start recording, call proceeds without it")
		c.mu.Lock()
		delete(c.active, id)
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.active[id] = recID
	c.mu.Unlock()
	log.Info().Str("module", "app.recording").Str("call_id", string(id)).Str("recording_id", recID).Msg("recording started")
}

// Stop ends the call's recording if one is tracked. The tracking entry is
// removed whether or not the external stop succeeds.
func (c *RecordingController) Stop(ctx context.Context, id domain.CallID) {
	c.mu.Lock()
	recID, ok := c.active[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.active, id)
	c.mu.Unlock()

	if recID == "" {
		// Start claimed the entry but the external call had not finished.
		return
	}
	if err := c.api.StopRecording(ctx, recID); err != nil {
		log.Error().Err(err).Str("module", "app.recording").Str("call_id", string(id)).Str("recording_id", recID).Msg("failed to stop recording")
		return
	}
	log.Info().Str("module", "app.recording").Str("call_id", string(id)).Str("recording_id", recID).Msg("recording stopped")
}

func (c *RecordingController) Recording(id domain.CallID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.active[id]
	return ok
}
