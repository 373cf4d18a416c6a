// Package lk adapts the LiveKit server SDK to the gateway's platform ports.
package lk

import (
	"context"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/dkeye/voice-gateway/internal/core"
	"github.com/dkeye/voice-gateway/internal/domain"
)

// Client implements core.RoomAPI and core.RecorderAPI against a LiveKit
// deployment. It performs no retries; the SDK boundary is treated as
// idempotent or safely retriable.
type Client struct {
	rooms  *lksdk.RoomServiceClient
	egress *lksdk.EgressClient
	layout string
}

func NewClient(url, apiKey, apiSecret, layout string) *Client {
	if layout == "" {
		layout = "speaker-light"
	}
	return &Client{
		rooms:  lksdk.NewRoomServiceClient(url, apiKey, apiSecret),
		egress: lksdk.NewEgressClient(url, apiKey, apiSecret),
		layout: layout,
	}
}

func (c *Client) ListRooms(ctx context.Context) ([]core.RoomRecord, error) {
	resp, err := c.rooms.ListRooms(ctx, &livekit.ListRoomsRequest{})
	if err != nil {
		return nil, err
	}
	out := make([]core.RoomRecord, 0, len(resp.Rooms))
	for _, r := range resp.Rooms {
		out = append(out, core.RoomRecord{Name: domain.RoomName(r.Name), Metadata: r.Metadata})
	}
	return out, nil
}

func (c *Client) CreateRoom(ctx context.Context, name domain.RoomName, metadata string, maxParticipants int) error {
	_, err := c.rooms.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:            string(name),
		Metadata:        metadata,
		MaxParticipants: uint32(maxParticipants),
	})
	return err
}

func (c *Client) ListParticipants(ctx context.Context, room domain.RoomName) ([]core.ParticipantRecord, error) {
	resp, err := c.rooms.ListParticipants(ctx, &livekit.ListParticipantsRequest{Room: string(room)})
	if err != nil {
		return nil, err
	}
	out := make([]core.ParticipantRecord, 0, len(resp.Participants))
	for _, p := range resp.Participants {
		out = append(out, core.ParticipantRecord{Identity: p.Identity, Metadata: p.Metadata})
	}
	return out, nil
}

func (c *Client) RemoveParticipant(ctx context.Context, room domain.RoomName, identity string) error {
	_, err := c.rooms.RemoveParticipant(ctx, &livekit.RoomParticipantIdentity{
		Room:     string(room),
		Identity: identity,
	})
	return err
}

func (c *Client) DeleteRoom(ctx context.Context, room domain.RoomName) error {
	_, err := c.rooms.DeleteRoom(ctx, &livekit.DeleteRoomRequest{Room: string(room)})
	return err
}

func (c *Client) StartRecording(ctx context.Context, room domain.RoomName, filepath string) (string, error) {
	info, err := c.egress.StartRoomCompositeEgress(ctx, &livekit.RoomCompositeEgressRequest{
		RoomName:  string(room),
		Layout:    c.layout,
		AudioOnly: true,
		FileOutputs: []*livekit.EncodedFileOutput{{
			FileType: livekit.EncodedFileType_MP4,
			Filepath: filepath,
		}},
	})
	if err != nil {
		return "", err
	}
	return info.EgressId, nil
}

func (c *Client) StopRecording(ctx context.Context, recordingID string) error {
	_, err := c.egress.StopEgress(ctx, &livekit.StopEgressRequest{EgressId: recordingID})
	return err
}
