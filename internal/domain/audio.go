package domain

const (
	SampleRateNarrowband = 16000
	SampleRateWideband   = 48000
)

// AudioFrame is one chunk of signed 16-bit PCM audio, mono only.
type AudioFrame struct {
	Samples     []int16
	SampleRate  int
	Channels    int
	TimestampMs int64
}

func ValidSampleRate(rate int) bool {
	return rate == SampleRateNarrowband || rate == SampleRateWideband
}

// ValidFormat checks the frame shape the gateway is willing to carry.
// Timestamp ordering is the publisher's concern, not the frame's.
func (f AudioFrame) ValidFormat() bool {
	return f.Channels == 1 && ValidSampleRate(f.SampleRate) && len(f.Samples) > 0
}
