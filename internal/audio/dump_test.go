package audio

import (
	"path/filepath"
	"testing"
)

func TestWriteAndReadWAV(t *testing.T) {
	buf := NewSampleBuffer(16000)
	buf.Append([]float32{0, 0.5, -0.5, 1, -1})

	path := filepath.Join(t.TempDir(), "capture.wav")
	if err := WriteWAV(path, buf); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	got, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if got.Rate() != 16000 {
		t.Errorf("Rate = %d, want 16000", got.Rate())
	}
	if got.Len() != buf.Len() {
		t.Fatalf("Len = %d, want %d", got.Len(), buf.Len())
	}
	// 16-bit quantization: values must round-trip within one step.
	for i, want := range buf.Samples() {
		diff := got.Samples()[i] - want
		if diff < 0 {
			diff = -diff
		}
		if diff > 1.0/32767*2 {
			t.Errorf("samples[%d] = %v, want %v within quantization error", i, got.Samples()[i], want)
		}
	}
}

func TestReadWAVMissingFile(t *testing.T) {
	if _, err := ReadWAV(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("ReadWAV on missing file should return error")
	}
}
