package model

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// whisperHandle wraps a loaded whisper.cpp model.
type whisperHandle struct {
	id    string
	model whisper.Model
	opts  Options
}

// LoadWhisper is the production LoadFunc: it loads a ggml model file
// through the whisper.cpp bindings.
func LoadWhisper(id, path string, opts Options) (Handle, error) {
	m, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("loading whisper model %q: %w", path, err)
	}
	return &whisperHandle{id: id, model: m, opts: opts}, nil
}

func (h *whisperHandle) ID() string { return h.id }

func (h *whisperHandle) Close() error {
	if h.model != nil {
		return h.model.Close()
	}
	return nil
}

// Transcribe runs inference on mono 16 kHz samples. A fresh whisper
// context is created per call; the model weights are shared.
func (h *whisperHandle) Transcribe(samples []float32) (string, error) {
	ctx, err := h.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("creating whisper context: %w", err)
	}

	if lang := h.opts.Language; lang != "" {
		if err := ctx.SetLanguage(lang); err != nil {
			return "", fmt.Errorf("setting language %q: %w", lang, err)
		}
	}
	ctx.SetTranslate(h.opts.Translate)
	ctx.SetThreads(uint(h.threads()))

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}

	var segments []string
	for {
		seg, err := ctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper next segment: %w", err)
		}
		segments = append(segments, seg.Text)
	}

	return strings.TrimSpace(strings.Join(segments, " ")), nil
}

// threads leaves half the cores for the rest of the system.
func (h *whisperHandle) threads() int {
	if h.opts.Threads > 0 {
		return h.opts.Threads
	}
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}
