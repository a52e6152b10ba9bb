// Package audio provides microphone capture into a rate-tagged sample
// buffer, plus the decimating resampler that normalizes captures to the
// 16 kHz mono format the speech model expects.
package audio

// TargetRate is the sample rate the transcription model expects.
const TargetRate uint32 = 16000

// SampleBuffer accumulates mono float32 samples at a fixed rate.
// It has exactly one owner at a time: Capture appends to it while
// recording, then hands it off wholesale via Capture.Stop.
type SampleBuffer struct {
	rate    uint32
	samples []float32
}

// NewSampleBuffer returns an empty buffer tagged with the given rate.
func NewSampleBuffer(rate uint32) *SampleBuffer {
	return &SampleBuffer{rate: rate}
}

// Append adds samples to the end of the buffer.
func (b *SampleBuffer) Append(samples []float32) {
	b.samples = append(b.samples, samples...)
}

// Rate returns the sample rate the buffer is tagged with.
func (b *SampleBuffer) Rate() uint32 {
	return b.rate
}

// Len returns the number of samples held.
func (b *SampleBuffer) Len() int {
	return len(b.samples)
}

// Duration returns the buffer length in seconds.
func (b *SampleBuffer) Duration() float64 {
	if b.rate == 0 {
		return 0
	}
	return float64(len(b.samples)) / float64(b.rate)
}

// Samples returns the underlying sample slice without copying.
// The caller must be the buffer's sole owner.
func (b *SampleBuffer) Samples() []float32 {
	return b.samples
}

// Reset empties the buffer, keeping its capacity for reuse.
func (b *SampleBuffer) Reset() {
	b.samples = b.samples[:0]
}
