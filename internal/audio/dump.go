package audio

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV writes the buffer to path as a 16-bit PCM mono WAV at the
// buffer's rate. Used for the optional debug dump of the last capture.
func WriteWAV(path string, buf *SampleBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating wav file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, int(buf.Rate()), 16, 1, 1)

	samples := buf.Samples()
	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}

	ib := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: int(buf.Rate())},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(ib); err != nil {
		enc.Close()
		return fmt.Errorf("writing wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav file: %w", err)
	}
	return nil
}

// ReadWAV decodes a mono WAV file into a SampleBuffer tagged with the
// file's sample rate. Multi-channel files keep only the first channel.
func ReadWAV(path string) (*SampleBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening wav file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	ib, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding wav file: %w", err)
	}
	if ib.Format == nil || ib.Format.SampleRate == 0 {
		return nil, fmt.Errorf("wav file %q has no format header", path)
	}

	channels := ib.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	bitDepth := dec.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float32(int(1) << (bitDepth - 1))

	buf := NewSampleBuffer(uint32(ib.Format.SampleRate))
	samples := make([]float32, 0, len(ib.Data)/channels)
	for i := 0; i < len(ib.Data); i += channels {
		samples = append(samples, float32(ib.Data[i])/scale)
	}
	buf.Append(samples)
	return buf, nil
}
