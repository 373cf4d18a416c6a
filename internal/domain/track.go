package domain

type (
	TrackSid  string
	TrackKind string
)

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// Track binds a published media track to its call and owner.
// Role is fixed at publish time and never re-resolved afterwards.
type Track struct {
	Sid           TrackSid  `json:"sid"`
	Kind          TrackKind `json:"kind"`
	CallID        CallID    `json:"callId"`
	ParticipantID string    `json:"participantId"`
	Role          Role      `json:"role"`
}
