package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voice-gateway/internal/core"
	"github.com/dkeye/voice-gateway/internal/domain"
)

type recordingStopper interface {
	Stop(ctx context.Context, id domain.CallID)
}

type callEntry struct {
	// mu serializes every operation on this call, including the external
	// platform calls made during create and teardown. Create and close for
	// the same call can never interleave; unrelated calls never contend.
	mu sync.Mutex

	state        domain.CallState
	roomName     domain.RoomName
	ensured      bool // external room existence confirmed
	wasActive    bool
	ended        bool // call.ended already emitted (or decided) for this call
	driver       string
	participants map[string]domain.Role
}

// CallRegistry owns the callId→room mapping and the per-call state machine:
// Created → Active (driver joined) → Closing (driver left) → Closed.
type CallRegistry struct {
	mu    sync.RWMutex
	calls map[domain.CallID]*callEntry

	api core.RoomAPI
	rec recordingStopper
}

func NewCallRegistry(api core.RoomAPI, rec recordingStopper) *CallRegistry {
	return &CallRegistry{
		calls: make(map[domain.CallID]*callEntry),
		api:   api,
		rec:   rec,
	}
}

func (r *CallRegistry) getOrCreateEntry(id domain.CallID) *callEntry {
	r.mu.RLock()
	e, ok := r.calls[id]
	r.mu.RUnlock()
	if ok {
		return e
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.calls[id]; ok {
		return e
	}
	e = &callEntry{
		state:        domain.CallCreated,
		roomName:     id.RoomName(),
		participants: make(map[string]domain.Role),
	}
	r.calls[id] = e
	log.Info().Str("module", "app.rooms").Str("call_id", string(id)).Msg("registered call")
	return e
}

// CreateOrGet registers the call and makes sure its platform room exists.
// Idempotent: concurrent invocations for one call converge on a single
// external create, later callers just read the registry.
func (r *CallRegistry) CreateOrGet(ctx context.Context, id domain.CallID) (domain.RoomName, error) {
	e := r.getOrCreateEntry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ensured || e.state == domain.CallClosed {
		return e.roomName, nil
	}

	rooms, err := r.api.ListRooms(ctx)
	if err != nil {
		return e.roomName, err
	}
	exists := false
	for _, rec := range rooms {
		if rec.Name == e.roomName {
			exists = true
			break
		}
	}
	if !exists {
		meta := domain.RoomMetadata{CallID: id}.Encode()
		if err := r.api.CreateRoom(ctx, e.roomName, meta, domain.MaxCallParticipants); err != nil {
			return e.roomName, err
		}
		log.Info().Str("module", "app.rooms").Str("room", string(e.roomName)).Msg("created platform room")
	}
	e.ensured = true
	return e.roomName, nil
}

// AddParticipant records a join. Duplicate identities are a no-op.
// started reports the Created→Active transition: the first driver joining.
func (r *CallRegistry) AddParticipant(id domain.CallID, identity string, role domain.Role) (added, started bool) {
	e := r.getOrCreateEntry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == domain.CallClosed {
		return false, false
	}
	if _, ok := e.participants[identity]; ok {
		return false, false
	}
	e.participants[identity] = role

	if role == domain.RoleDriver && e.state == domain.CallCreated {
		e.state = domain.CallActive
		e.wasActive = true
		e.driver = identity
		started = true
	}
	return true, started
}

// RemoveParticipant records a leave. Unknown call or identity is a no-op;
// the returned role is the one persisted at join time, falling back to the
// caller's resolution when the join was never seen.
// ended reports the Active→Closing transition: the active driver leaving.
func (r *CallRegistry) RemoveParticipant(id domain.CallID, identity string, fallback domain.Role) (role domain.Role, removed, ended bool) {
	r.mu.RLock()
	e, ok := r.calls[id]
	r.mu.RUnlock()
	if !ok {
		return fallback, false, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	role, ok = e.participants[identity]
	if !ok {
		return fallback, false, false
	}
	delete(e.participants, identity)

	if role == domain.RoleDriver && identity == e.driver && e.state == domain.CallActive {
		e.state = domain.CallClosing
		e.ended = true
		ended = true
	}
	return role, true, ended
}

// Close tears the call down: remove every participant, stop any recording,
// delete the platform room, drop the registry entry. Each external step is
// independently fallible and only logged; local removal always happens.
// endedNow reports that the call had gone Active but call.ended was never
// decided before this teardown.
func (r *CallRegistry) Close(ctx context.Context, id domain.CallID) (existed, endedNow bool) {
	r.mu.RLock()
	e, ok := r.calls[id]
	r.mu.RUnlock()
	if !ok {
		return false, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == domain.CallClosed {
		return false, false
	}
	e.state = domain.CallClosing
	endedNow = e.wasActive && !e.ended
	e.ended = true

	if e.ensured {
		participants, err := r.api.ListParticipants(ctx, e.roomName)
		if err != nil {
			log.Error().Err(err).Str("module", "app.rooms").Str("room", string(e.roomName)).Msg("list participants failed, continuing teardown")
		}
		for _, p := range participants {
			if err := r.api.RemoveParticipant(ctx, e.roomName, p.Identity); err != nil {
				log.Error().Err(err).Str("module", "app.rooms").Str("room", string(e.roomName)).Str("identity", p.Identity).Msg("remove participant failed, continuing teardown")
			}
		}
	}

	r.rec.Stop(ctx, id)

	if e.ensured {
		if err := r.api.DeleteRoom(ctx, e.roomName); err != nil {
			log.Error().Err(err).Str("module", "app.rooms").Str("room", string(e.roomName)).Msg("delete room failed, clearing local entry anyway")
		}
	}

	e.state = domain.CallClosed

	r.mu.Lock()
	delete(r.calls, id)
	r.mu.Unlock()

	log.Info().Str("module", "app.rooms").Str("call_id", string(id)).Msg("call closed")
	return true, endedNow
}

func (r *CallRegistry) Known(id domain.CallID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.calls[id]
	return ok
}

func (r *CallRegistry) State(id domain.CallID) (domain.CallState, bool) {
	r.mu.RLock()
	e, ok := r.calls[id]
	r.mu.RUnlock()
	if !ok {
		return domain.CallClosed, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, true
}

// CallView is a read-only snapshot for APIs.
type CallView struct {
	CallID       domain.CallID        `json:"call_id"`
	RoomName     domain.RoomName      `json:"room_name"`
	State        string               `json:"state"`
	Participants []domain.Participant `json:"participants"`
}

func (r *CallRegistry) Snapshot() []CallView {
	r.mu.RLock()
	entries := make(map[domain.CallID]*callEntry, len(r.calls))
	for id, e := range r.calls {
		entries[id] = e
	}
	r.mu.RUnlock()

	out := make([]CallView, 0, len(entries))
	for id, e := range entries {
		e.mu.Lock()
		view := CallView{
			CallID:       id,
			RoomName:     e.roomName,
			State:        e.state.String(),
			Participants: make([]domain.Participant, 0, len(e.participants)),
		}
		for identity, role := range e.participants {
			view.Participants = append(view.Participants, domain.Participant{Identity: identity, Role: role})
		}
		e.mu.Unlock()
		out = append(out, view)
	}
	return out
}

// IDs returns the currently registered calls, for shutdown sweeps.
func (r *CallRegistry) IDs() []domain.CallID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.CallID, 0, len(r.calls))
	for id := range r.calls {
		out = append(out, id)
	}
	return out
}
