package lk

import (
	"github.com/livekit/protocol/livekit"

	"github.com/dkeye/voice-gateway/internal/core"
	"github.com/dkeye/voice-gateway/internal/domain"
)

// DecodeEvent maps a verified LiveKit webhook event onto the gateway's
// tagged lifecycle variant. Unknown event names decode to EventUnknown and
// a missing callId leaves CallID empty; both are handled downstream as
// accepted no-ops, never as errors.
func DecodeEvent(ev *livekit.WebhookEvent) core.LifecycleEvent {
	out := core.LifecycleEvent{Kind: kindOf(ev.Event)}

	if ev.Room != nil {
		if id, ok := domain.CallIDFromRoomMetadata(ev.Room.Metadata); ok {
			out.CallID = id
		}
	}
	if ev.Participant != nil {
		out.Participant = &core.ParticipantRecord{
			Identity: ev.Participant.Identity,
			Metadata: ev.Participant.Metadata,
		}
	}
	if ev.Track != nil {
		kind := domain.TrackVideo
		if ev.Track.Type == livekit.TrackType_AUDIO {
			kind = domain.TrackAudio
		}
		out.Track = &core.TrackRecord{
			Sid:  domain.TrackSid(ev.Track.Sid),
			Kind: kind,
		}
	}
	return out
}

func kindOf(name string) core.EventKind {
	switch name {
	case "room_started":
		return core.EventRoomStarted
	case "room_finished":
		return core.EventRoomFinished
	case "participant_joined":
		return core.EventParticipantJoined
	case "participant_left":
		return core.EventParticipantLeft
	case "track_published":
		return core.EventTrackPublished
	case "track_unpublished":
		return core.EventTrackUnpublished
	}
	return core.EventUnknown
}
