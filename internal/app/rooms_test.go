package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/voice-gateway/internal/core"
	"github.com/dkeye/voice-gateway/internal/domain"
)

type fakeRoomAPI struct {
	mu           sync.Mutex
	existing     []core.RoomRecord
	participants []core.ParticipantRecord

	listErr   error
	removeErr error
	deleteErr error

	createCalls int
	removed     []string
	deleted     []domain.RoomName
}

func (f *fakeRoomAPI) ListRooms(context.Context) ([]core.RoomRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing, f.listErr
}

func (f *fakeRoomAPI) CreateRoom(_ context.Context, name domain.RoomName, metadata string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.existing = append(f.existing, core.RoomRecord{Name: name, Metadata: metadata})
	return nil
}

func (f *fakeRoomAPI) ListParticipants(context.Context, domain.RoomName) ([]core.ParticipantRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.participants, nil
}

func (f *fakeRoomAPI) RemoveParticipant(_ context.Context, _ domain.RoomName, identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, identity)
	return f.removeErr
}

func (f *fakeRoomAPI) DeleteRoom(_ context.Context, room domain.RoomName) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, room)
	return f.deleteErr
}

type fakeStopper struct {
	mu      sync.Mutex
	stopped []domain.CallID
}

func (f *fakeStopper) Stop(_ context.Context, id domain.CallID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, id)
}

func TestCreateOrGetRoomIsIdempotent(t *testing.T) {
	api := &fakeRoomAPI{}
	r := NewCallRegistry(api, &fakeStopper{})
	ctx := context.Background()

	first, err := r.CreateOrGet(ctx, "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.CreateOrGet(ctx, "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second || first != "call_1" {
		t.Fatalf("room names diverged: %q vs %q", first, second)
	}
	if api.createCalls != 1 {
		t.Fatalf("expected exactly 1 external create, got %d", api.createCalls)
	}
}

func TestCreateOrGetRoomConcurrentSingleCreate(t *testing.T) {
	api := &fakeRoomAPI{}
	r := NewCallRegistry(api, &fakeStopper{})
	ctx := context.Background()

	var wg sync.WaitGroup
	names := make([]domain.RoomName, 16)
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names[i], _ = r.CreateOrGet(ctx, "1")
		}(i)
	}
	wg.Wait()

	if api.createCalls != 1 {
		t.Fatalf("expected exactly 1 external create, got %d", api.createCalls)
	}
	for _, n := range names {
		if n != "call_1" {
			t.Fatalf("caller observed %q, want call_1", n)
		}
	}
}

func TestCreateOrGetRoomSkipsCreateWhenRoomExists(t *testing.T) {
	api := &fakeRoomAPI{existing: []core.RoomRecord{{Name: "call_1"}}}
	r := NewCallRegistry(api, &fakeStopper{})

	if _, err := r.CreateOrGet(context.Background(), "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.createCalls != 0 {
		t.Fatalf("expected no external create, got %d", api.createCalls)
	}
}

func TestCloseRoomUnknownIsNoop(t *testing.T) {
	api := &fakeRoomAPI{}
	r := NewCallRegistry(api, &fakeStopper{})

	existed, _ := r.Close(context.Background(), "ghost")
	if existed {
		t.Fatal("close of unknown call reported existed")
	}
	if len(api.deleted) != 0 {
		t.Fatal("close of unknown call hit the platform")
	}
}

func TestCloseRoomClearsEntryWhenDeleteFails(t *testing.T) {
	api := &fakeRoomAPI{deleteErr: errors.New("platform down")}
	r := NewCallRegistry(api, &fakeStopper{})
	ctx := context.Background()

	if _, err := r.CreateOrGet(ctx, "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	existed, _ := r.Close(ctx, "1")
	if !existed {
		t.Fatal("expected close to report existed")
	}
	if r.Known("1") {
		t.Fatal("registry entry survived a failed external delete")
	}
}

func TestCloseRoomContinuesPastRemovalFailures(t *testing.T) {
	api := &fakeRoomAPI{
		participants: []core.ParticipantRecord{{Identity: "driver-1"}, {Identity: "caller-2"}},
		removeErr:    errors.New("unreachable"),
	}
	stopper := &fakeStopper{}
	r := NewCallRegistry(api, stopper)
	ctx := context.Background()

	if _, err := r.CreateOrGet(ctx, "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Close(ctx, "1")

	if len(api.removed) != 2 {
		t.Fatalf("expected both removals attempted, got %d", len(api.removed))
	}
	if len(stopper.stopped) != 1 {
		t.Fatalf("expected recording stop attempted, got %d", len(stopper.stopped))
	}
	if len(api.deleted) != 1 {
		t.Fatalf("expected room delete attempted, got %d", len(api.deleted))
	}
	if r.Known("1") {
		t.Fatal("registry entry survived teardown")
	}
}

func TestDriverJoinActivatesCallOnce(t *testing.T) {
	r := NewCallRegistry(&fakeRoomAPI{}, &fakeStopper{})

	added, started := r.AddParticipant("1", "driver-1", domain.RoleDriver)
	if !added || !started {
		t.Fatalf("first driver join: added=%v started=%v", added, started)
	}
	if st, _ := r.State("1"); st != domain.CallActive {
		t.Fatalf("state after driver join = %v, want active", st)
	}

	// Redelivered join changes nothing.
	added, started = r.AddParticipant("1", "driver-1", domain.RoleDriver)
	if added || started {
		t.Fatalf("redelivered join: added=%v started=%v", added, started)
	}

	// A second driver never re-triggers the start transition.
	added, started = r.AddParticipant("1", "driver-2", domain.RoleDriver)
	if !added || started {
		t.Fatalf("second driver: added=%v started=%v", added, started)
	}
}

func TestDriverLeaveEndsCall(t *testing.T) {
	r := NewCallRegistry(&fakeRoomAPI{}, &fakeStopper{})
	r.AddParticipant("1", "driver-1", domain.RoleDriver)
	r.AddParticipant("1", "caller-2", domain.RoleHuman)

	role, removed, ended := r.RemoveParticipant("1", "caller-2", domain.RoleHuman)
	if !removed || ended || role != domain.RoleHuman {
		t.Fatalf("human leave: role=%v removed=%v ended=%v", role, removed, ended)
	}

	// Join-time role wins over the fallback resolution.
	role, removed, ended = r.RemoveParticipant("1", "driver-1", domain.RoleHuman)
	if !removed || !ended || role != domain.RoleDriver {
		t.Fatalf("driver leave: role=%v removed=%v ended=%v", role, removed, ended)
	}
	if st, _ := r.State("1"); st != domain.CallClosing {
		t.Fatalf("state after driver leave = %v, want closing", st)
	}

	// Redelivery is a no-op.
	_, removed, _ = r.RemoveParticipant("1", "driver-1", domain.RoleDriver)
	if removed {
		t.Fatal("redelivered leave removed again")
	}
}

func TestCloseReportsEndedOnlyForActiveCalls(t *testing.T) {
	r := NewCallRegistry(&fakeRoomAPI{}, &fakeStopper{})
	ctx := context.Background()

	// Never active: no call.ended due.
	r.AddParticipant("1", "caller-2", domain.RoleHuman)
	if _, endedNow := r.Close(ctx, "1"); endedNow {
		t.Fatal("call without a driver reported endedNow")
	}

	// Active and torn down without a driver leave: ended exactly once.
	r.AddParticipant("2", "driver-1", domain.RoleDriver)
	if _, endedNow := r.Close(ctx, "2"); !endedNow {
		t.Fatal("active call teardown did not report endedNow")
	}

	// Driver leave already decided call.ended; Close must not re-report.
	r.AddParticipant("3", "driver-1", domain.RoleDriver)
	r.RemoveParticipant("3", "driver-1", domain.RoleDriver)
	if _, endedNow := r.Close(ctx, "3"); endedNow {
		t.Fatal("close after driver leave reported endedNow twice")
	}
}
