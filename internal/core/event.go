package core

import "github.com/dkeye/voice-gateway/internal/domain"

// EventKind enumerates the lifecycle notifications the router dispatches on.
// Anything the decoder does not recognize maps to EventUnknown, which the
// router accepts and ignores.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventRoomStarted
	EventRoomFinished
	EventParticipantJoined
	EventParticipantLeft
	EventTrackPublished
	EventTrackUnpublished
)

func (k EventKind) String() string {
	switch k {
	case EventRoomStarted:
		return "room_started"
	case EventRoomFinished:
		return "room_finished"
	case EventParticipantJoined:
		return "participant_joined"
	case EventParticipantLeft:
		return "participant_left"
	case EventTrackPublished:
		return "track_published"
	case EventTrackUnpublished:
		return "track_unpublished"
	}
	return "unknown"
}

// TrackRecord is the track payload of a lifecycle event.
type TrackRecord struct {
	Sid  domain.TrackSid
	Kind domain.TrackKind
}

// LifecycleEvent is a verified, decoded platform notification.
// CallID is empty when the room metadata carried none; such events are
// acknowledged and discarded. Participant and Track are set only for the
// event kinds that carry them.
type LifecycleEvent struct {
	Kind        EventKind
	CallID      domain.CallID
	Participant *ParticipantRecord
	Track       *TrackRecord
}
