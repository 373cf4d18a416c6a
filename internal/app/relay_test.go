package app

import (
	"testing"
)

func TestForwardQueueNeverBlocks(t *testing.T) {
	q := NewForwardQueue(1)
	track := driverTrack("TR_1")

	// Returns immediately even with no consumer and a full buffer.
	q.Forward(track, validFrame())
	q.Forward(track, validFrame())
	q.Forward(track, validFrame())

	if got := q.Dropped(); got != 2 {
		t.Fatalf("dropped = %d, want 2", got)
	}

	f := <-q.Frames()
	if f.Track.Sid != "TR_1" {
		t.Fatalf("unexpected frame context: %+v", f.Track)
	}
}

func TestForwardQueueCloseIsSafe(t *testing.T) {
	q := NewForwardQueue(1)
	q.Close()
	q.Close()

	// Forward after close must not panic on the closed channel.
	q.Forward(driverTrack("TR_1"), validFrame())

	if _, ok := <-q.Frames(); ok {
		t.Fatal("closed queue still delivered a frame")
	}
}
