// Package transcribe gates finished captures and turns model output
// into clean, insertable text.
package transcribe

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sotto-app/sotto/internal/audio"
)

// MinDuration is the shortest capture worth transcribing. Anything
// below it (under 4800 samples at 16 kHz) is skipped without touching
// the model; a buffer of exactly this length transcribes.
const MinDuration = 300 * time.Millisecond

var (
	// ErrTooShort is returned for buffers below MinDuration. It is a
	// silent skip, not a failure: nothing is inserted, nothing logged
	// above debug level.
	ErrTooShort = errors.New("capture too short")
	// ErrNoSpeech is returned when the model produced only marker
	// noise or nothing at all.
	ErrNoSpeech = errors.New("no speech detected")
)

// Transcriber runs model inference on mono 16 kHz samples. Implemented
// by model.Coordinator.
type Transcriber interface {
	Transcribe(samples []float32) (string, error)
}

// Engine validates a finished SampleBuffer and runs it through the
// model, trimming marker tokens from the output.
type Engine struct {
	tr  Transcriber
	min time.Duration
	log *slog.Logger
}

// NewEngine creates an Engine with the default minimum duration.
func NewEngine(tr Transcriber, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{tr: tr, min: MinDuration, log: log}
}

// Process transcribes the buffer. The buffer is consumed: it must not
// be touched by the caller afterwards. Returns ErrTooShort below the
// minimum duration, ErrNoSpeech for empty output, or the model error.
func (e *Engine) Process(buf *audio.SampleBuffer) (string, error) {
	if buf == nil {
		return "", ErrTooShort
	}
	if buf.Duration() < e.min.Seconds() {
		e.log.Debug("capture below minimum duration, skipping",
			"duration", buf.Duration(), "min", e.min.Seconds())
		return "", ErrTooShort
	}

	start := time.Now()
	raw, err := e.tr.Transcribe(buf.Samples())
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	text := CleanTranscript(raw)
	if text == "" {
		return "", ErrNoSpeech
	}

	e.log.Info("transcribed",
		"duration", buf.Duration(),
		"elapsed", time.Since(start).Round(time.Millisecond),
		"chars", len(text))
	return text, nil
}

// markerRe matches the non-speech tokens whisper emits for silence and
// background noise, e.g. [BLANK_AUDIO], [ Silence ], (music), ♪.
var markerRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|♪`)

// CleanTranscript strips marker tokens and collapses the whitespace
// they leave behind. Real words always survive.
func CleanTranscript(raw string) string {
	cleaned := markerRe.ReplaceAllString(raw, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}
