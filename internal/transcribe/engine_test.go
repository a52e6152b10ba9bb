package transcribe

import (
	"errors"
	"testing"

	"github.com/sotto-app/sotto/internal/audio"
)

// fakeTranscriber records invocations and returns canned output.
type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(samples []float32) (string, error) {
	f.calls++
	return f.text, f.err
}

func bufferOf(n int) *audio.SampleBuffer {
	buf := audio.NewSampleBuffer(audio.TargetRate)
	buf.Append(make([]float32, n))
	return buf
}

func TestProcessTooShortSkipsModel(t *testing.T) {
	f := &fakeTranscriber{text: "should not appear"}
	e := NewEngine(f, nil)

	// 150 ms at 16 kHz, well under the 300 ms gate.
	_, err := e.Process(bufferOf(2400))
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("Process(short) error = %v, want ErrTooShort", err)
	}
	if f.calls != 0 {
		t.Errorf("model invoked %d times for a too-short buffer, want 0", f.calls)
	}
}

func TestProcessGateBoundary(t *testing.T) {
	// The gate is exclusive: 4799 samples skip, exactly 4800 transcribe.
	f := &fakeTranscriber{text: "ok"}
	e := NewEngine(f, nil)

	if _, err := e.Process(bufferOf(4799)); !errors.Is(err, ErrTooShort) {
		t.Errorf("Process(4799 samples) error = %v, want ErrTooShort", err)
	}
	if f.calls != 0 {
		t.Fatalf("model invoked below the gate")
	}

	text, err := e.Process(bufferOf(4800))
	if err != nil {
		t.Fatalf("Process(4800 samples) error = %v", err)
	}
	if text != "ok" || f.calls != 1 {
		t.Errorf("Process(4800) = %q with %d calls, want %q with 1 call", text, f.calls, "ok")
	}
}

func TestProcessNilBuffer(t *testing.T) {
	e := NewEngine(&fakeTranscriber{}, nil)
	if _, err := e.Process(nil); !errors.Is(err, ErrTooShort) {
		t.Errorf("Process(nil) error = %v, want ErrTooShort", err)
	}
}

func TestProcessReturnsModelText(t *testing.T) {
	f := &fakeTranscriber{text: "hello world"}
	e := NewEngine(f, nil)

	text, err := e.Process(bufferOf(32000)) // 2.0s at 16 kHz
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if text != "hello world" {
		t.Errorf("Process() = %q, want %q", text, "hello world")
	}
}

func TestProcessWrapsModelError(t *testing.T) {
	wantErr := errors.New("inference blew up")
	f := &fakeTranscriber{err: wantErr}
	e := NewEngine(f, nil)

	_, err := e.Process(bufferOf(16000))
	if !errors.Is(err, wantErr) {
		t.Errorf("Process() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestProcessMarkerOnlyOutput(t *testing.T) {
	f := &fakeTranscriber{text: "[BLANK_AUDIO]"}
	e := NewEngine(f, nil)

	_, err := e.Process(bufferOf(16000))
	if !errors.Is(err, ErrNoSpeech) {
		t.Errorf("Process(marker only) error = %v, want ErrNoSpeech", err)
	}
}

func TestCleanTranscript(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello world", "hello world"},
		{"  hello   world  ", "hello world"},
		{"[BLANK_AUDIO]", ""},
		{"[ Silence ]", ""},
		{"(music)", ""},
		{"♪ ♪ ♪", ""},
		{"[BLANK_AUDIO] hello [noise] world", "hello world"},
		{"(clears throat) okay then", "okay then"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanTranscript(tt.in); got != tt.want {
			t.Errorf("CleanTranscript(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
