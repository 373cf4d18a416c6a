// Package rtc provides the WebRTC-backed outbound audio path.
package rtc

import (
	"encoding/binary"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/dkeye/voice-gateway/internal/domain"
)

// SamplePublisher writes PCM16 frames onto a local sample track. One
// publisher backs one outbound stream; the single-writer guard upstream
// guarantees WriteFrame is never called concurrently.
type SamplePublisher struct {
	track *webrtc.TrackLocalStaticSample
}

func NewSamplePublisher(streamID string) (*SamplePublisher, error) {
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{
			MimeType:  webrtc.MimeTypeOpus,
			ClockRate: domain.SampleRateWideband,
			Channels:  1,
		},
		"audio",
		streamID,
	)
	if err != nil {
		return nil, err
	}
	return &SamplePublisher{track: track}, nil
}

// Track exposes the underlying local track for peer connection wiring.
func (p *SamplePublisher) Track() *webrtc.TrackLocalStaticSample {
	return p.track
}

func (p *SamplePublisher) WriteFrame(f domain.AudioFrame) error {
	data := make([]byte, len(f.Samples)*2)
	for i, s := range f.Samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	duration := time.Duration(len(f.Samples)) * time.Second / time.Duration(f.SampleRate)
	return p.track.WriteSample(media.Sample{Data: data, Duration: duration})
}
