// Package orch routes verified lifecycle events into the call registries.
// Every handler is idempotent: webhook redelivery changes nothing after the
// first successful application.
package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voice-gateway/internal/app"
	"github.com/dkeye/voice-gateway/internal/app/events"
	"github.com/dkeye/voice-gateway/internal/core"
	"github.com/dkeye/voice-gateway/internal/domain"
)

type Orchestrator struct {
	Calls      *app.CallRegistry
	Tracks     *app.TrackRegistry
	Recordings *app.RecordingController
	Egress     *app.EgressRegistry
	Bus        *events.Bus
}

// HandleEvent dispatches one decoded lifecycle event. Events without a
// callId and unknown event kinds are accepted and discarded.
func (o *Orchestrator) HandleEvent(ctx context.Context, ev core.LifecycleEvent) {
	if ev.CallID == "" {
		log.Debug().Str("module", "orch").Str("event", ev.Kind.String()).Msg("event without callId, ignoring")
		return
	}

	switch ev.Kind {
	case core.EventRoomStarted:
		o.onRoomStarted(ctx, ev.CallID)
	case core.EventRoomFinished:
		o.onRoomFinished(ctx, ev.CallID)
	case core.EventParticipantJoined:
		o.onParticipantJoined(ctx, ev)
	case core.EventParticipantLeft:
		o.onParticipantLeft(ctx, ev)
	case core.EventTrackPublished:
		o.onTrackPublished(ev)
	case core.EventTrackUnpublished:
		o.onTrackUnpublished(ev)
	default:
		log.Debug().Str("module", "orch").Str("event", ev.Kind.String()).Msg("unknown event kind, ignoring")
	}
}

func (o *Orchestrator) onRoomStarted(ctx context.Context, id domain.CallID) {
	if _, err := o.Calls.CreateOrGet(ctx, id); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("call_id", string(id)).Msg("create-or-get room failed")
	}
}

func (o *Orchestrator) onParticipantJoined(ctx context.Context, ev core.LifecycleEvent) {
	if ev.Participant == nil {
		return
	}
	role := app.ResolveRole(ev.Participant.Identity, ev.Participant.Metadata)

	added, started := o.Calls.AddParticipant(ev.CallID, ev.Participant.Identity, role)
	if !added {
		return
	}

	o.Bus.Publish(events.ParticipantJoined{
		CallID:        ev.CallID,
		ParticipantID: ev.Participant.Identity,
		Role:          role,
	})

	if started {
		o.Bus.Publish(events.CallStarted{CallID: ev.CallID, RoomName: ev.CallID.RoomName()})
		o.Recordings.Start(ctx, ev.CallID)
	}
}

func (o *Orchestrator) onParticipantLeft(ctx context.Context, ev core.LifecycleEvent) {
	if ev.Participant == nil {
		return
	}
	// The join-time role is preferred; the metadata carried on the event is
	// the fallback when this process never saw the join.
	fallback := app.ResolveRole(ev.Participant.Identity, ev.Participant.Metadata)

	role, removed, ended := o.Calls.RemoveParticipant(ev.CallID, ev.Participant.Identity, fallback)
	if !removed {
		return
	}

	o.Bus.Publish(events.ParticipantLeft{
		CallID:        ev.CallID,
		ParticipantID: ev.Participant.Identity,
		Role:          role,
	})

	if ended {
		o.Bus.Publish(events.CallEnded{CallID: ev.CallID, RoomName: ev.CallID.RoomName(), Reason: "driver left"})
		o.teardown(ctx, ev.CallID)
	}
}

func (o *Orchestrator) onRoomFinished(ctx context.Context, id domain.CallID) {
	existed, endedNow := o.Calls.Close(ctx, id)
	if !existed {
		return
	}
	if endedNow {
		o.Bus.Publish(events.CallEnded{CallID: id, RoomName: id.RoomName(), Reason: "room finished"})
	}
	o.cleanupCall(id)
}

func (o *Orchestrator) onTrackPublished(ev core.LifecycleEvent) {
	if ev.Track == nil || ev.Participant == nil {
		return
	}
	if ev.Track.Kind != domain.TrackAudio {
		return
	}
	role := app.ResolveRole(ev.Participant.Identity, ev.Participant.Metadata)
	o.Tracks.Attach(domain.Track{
		Sid:           ev.Track.Sid,
		Kind:          ev.Track.Kind,
		CallID:        ev.CallID,
		ParticipantID: ev.Participant.Identity,
		Role:          role,
	})
}

func (o *Orchestrator) onTrackUnpublished(ev core.LifecycleEvent) {
	if ev.Track == nil || ev.Track.Kind != domain.TrackAudio {
		return
	}
	o.Tracks.Detach(ev.Track.Sid)
}

func (o *Orchestrator) teardown(ctx context.Context, id domain.CallID) {
	if _, endedNow := o.Calls.Close(ctx, id); endedNow {
		// call.ended was already decided by the driver-left transition, so
		// this only fires for teardown paths that bypassed it.
		o.Bus.Publish(events.CallEnded{CallID: id, RoomName: id.RoomName(), Reason: "teardown"})
	}
	o.cleanupCall(id)
}

func (o *Orchestrator) cleanupCall(id domain.CallID) {
	o.Tracks.DetachCall(id)
	if o.Egress != nil {
		o.Egress.Remove(string(id))
	}
	o.Bus.Forget(string(id))
}

// RequestHandoff asks for a bot→human handoff on a known call.
func (o *Orchestrator) RequestHandoff(id domain.CallID) bool {
	if !o.Calls.Known(id) {
		return false
	}
	o.Bus.Publish(events.HandoffRequested{CallID: id, From: domain.RoleBot})
	return true
}

// CompleteHandoff marks a handoff as finished on a known call.
func (o *Orchestrator) CompleteHandoff(id domain.CallID) bool {
	if !o.Calls.Known(id) {
		return false
	}
	o.Bus.Publish(events.HandoffCompleted{CallID: id, To: domain.RoleHuman})
	return true
}

// Shutdown closes every registered call, best-effort externally but always
// clearing local state.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	for _, id := range o.Calls.IDs() {
		if _, endedNow := o.Calls.Close(ctx, id); endedNow {
			o.Bus.Publish(events.CallEnded{CallID: id, RoomName: id.RoomName(), Reason: "shutdown"})
		}
		o.cleanupCall(id)
	}
}

// CallDetail is the observation-API view of one call.
type CallDetail struct {
	app.CallView
	Tracks    []app.TrackView `json:"tracks"`
	Recording bool            `json:"recording"`
}

// Snapshot joins the registries into a read-only overview.
func (o *Orchestrator) Snapshot() []CallDetail {
	views := o.Calls.Snapshot()
	out := make([]CallDetail, 0, len(views))
	for _, v := range views {
		out = append(out, CallDetail{
			CallView:  v,
			Tracks:    o.Tracks.CallTracks(v.CallID),
			Recording: o.Recordings.Recording(v.CallID),
		})
	}
	return out
}
