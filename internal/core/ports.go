package core

import (
	"context"

	"github.com/dkeye/voice-gateway/internal/domain"
)

// RoomRecord is a read-only view of a platform room.
type RoomRecord struct {
	Name     domain.RoomName
	Metadata string
}

// ParticipantRecord is a read-only view of a platform participant.
type ParticipantRecord struct {
	Identity string
	Metadata string
}

// RoomAPI is the platform's room service. Calls may block on the network;
// the caller does not retry them, the platform boundary is assumed
// idempotent or safely retriable.
type RoomAPI interface {
	ListRooms(ctx context.Context) ([]RoomRecord, error)
	CreateRoom(ctx context.Context, name domain.RoomName, metadata string, maxParticipants int) error
	ListParticipants(ctx context.Context, room domain.RoomName) ([]ParticipantRecord, error)
	RemoveParticipant(ctx context.Context, room domain.RoomName, identity string) error
	DeleteRoom(ctx context.Context, room domain.RoomName) error
}

// RecorderAPI starts and stops composite recordings on the platform.
type RecorderAPI interface {
	StartRecording(ctx context.Context, room domain.RoomName, filepath string) (recordingID string, err error)
	StopRecording(ctx context.Context, recordingID string) error
}

// FrameSink receives admitted ingress frames. Implementations must not
// block the caller on downstream consumer latency.
type FrameSink interface {
	Forward(track domain.Track, frame domain.AudioFrame)
}

// FramePublisher performs the actual outbound publish of one frame.
type FramePublisher interface {
	WriteFrame(frame domain.AudioFrame) error
}
