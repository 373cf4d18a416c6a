// Package events carries the call lifecycle notifications the orchestrator
// publishes to other subsystems (bot handoff controller, operator feeds).
package events

import "github.com/dkeye/voice-gateway/internal/domain"

// Event is one lifecycle notification, always scoped to a call.
type Event interface {
	Call() domain.CallID
	Name() string
}

type CallStarted struct {
	CallID   domain.CallID
	RoomName domain.RoomName
}

func (e CallStarted) Call() domain.CallID { return e.CallID }
func (e CallStarted) Name() string        { return "call.started" }

type CallEnded struct {
	CallID   domain.CallID
	RoomName domain.RoomName
	Reason   string
}

func (e CallEnded) Call() domain.CallID { return e.CallID }
func (e CallEnded) Name() string        { return "call.ended" }

type ParticipantJoined struct {
	CallID        domain.CallID
	ParticipantID string
	Role          domain.Role
}

func (e ParticipantJoined) Call() domain.CallID { return e.CallID }
func (e ParticipantJoined) Name() string        { return "participant.joined" }

type ParticipantLeft struct {
	CallID        domain.CallID
	ParticipantID string
	Role          domain.Role
}

func (e ParticipantLeft) Call() domain.CallID { return e.CallID }
func (e ParticipantLeft) Name() string        { return "participant.left" }

type HandoffRequested struct {
	CallID domain.CallID
	From   domain.Role
}

func (e HandoffRequested) Call() domain.CallID { return e.CallID }
func (e HandoffRequested) Name() string        { return "handoff.requested" }

type HandoffCompleted struct {
	CallID domain.CallID
	To     domain.Role
}

func (e HandoffCompleted) Call() domain.CallID { return e.CallID }
func (e HandoffCompleted) Name() string        { return "handoff.completed" }
