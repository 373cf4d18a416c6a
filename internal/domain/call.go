// Package domain contains entity without logic, just meta-data
package domain

import "encoding/json"

type (
	CallID   string
	RoomName string
)

// RoomPrefix ties a platform room back to the call it carries.
const RoomPrefix = "call_"

// MaxCallParticipants is driver + bot + one human.
const MaxCallParticipants = 3

func (id CallID) RoomName() RoomName {
	return RoomName(RoomPrefix + string(id))
}

// RoomMetadata is the JSON blob stored on the platform room.
type RoomMetadata struct {
	CallID CallID `json:"callId"`
}

func (m RoomMetadata) Encode() string {
	b, _ := json.Marshal(m)
	return string(b)
}

// CallIDFromRoomMetadata extracts the callId from room metadata.
// Malformed or empty metadata yields ok=false, never an error.
func CallIDFromRoomMetadata(metadata string) (CallID, bool) {
	if metadata == "" {
		return "", false
	}
	var m RoomMetadata
	if err := json.Unmarshal([]byte(metadata), &m); err != nil || m.CallID == "" {
		return "", false
	}
	return m.CallID, true
}

type CallState int

const (
	CallCreated CallState = iota
	CallActive
	CallClosing
	CallClosed
)

func (s CallState) String() string {
	switch s {
	case CallCreated:
		return "created"
	case CallActive:
		return "active"
	case CallClosing:
		return "closing"
	case CallClosed:
		return "closed"
	}
	return "unknown"
}

type Role string

const (
	RoleDriver Role = "driver"
	RoleBot    Role = "bot"
	RoleHuman  Role = "human"
)

func ValidRole(r Role) bool {
	return r == RoleDriver || r == RoleBot || r == RoleHuman
}

// Participant is a member of exactly one call.
type Participant struct {
	Identity string `json:"identity"`
	Role     Role   `json:"role"`
}
