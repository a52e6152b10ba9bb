// Package model owns the speech model lifecycle: the catalog of known
// whisper variants, the on-disk store, and the Coordinator that
// serializes loading, switching and transcription on the single active
// model handle.
package model

import "errors"

var (
	// ErrModelNotAvailable is returned when the named model's data is
	// not present locally.
	ErrModelNotAvailable = errors.New("model not downloaded")
	// ErrBusy is returned when a switch is requested while a
	// transcription is in flight. Callers retry; nothing is queued.
	ErrBusy = errors.New("transcription in progress")
	// ErrActiveModel is returned when removal of the currently loaded
	// model is requested. The file is left untouched.
	ErrActiveModel = errors.New("model is currently active")
	// ErrNoModel is returned by Transcribe when no model has been
	// loaded yet.
	ErrNoModel = errors.New("no model loaded")
	// ErrUnknownModel is returned for ids that are not in the catalog.
	ErrUnknownModel = errors.New("unknown model id")
)

// ModelLoadError wraps a failed context load. The previously active
// handle stays loaded when this is returned.
type ModelLoadError struct {
	ID  string
	Err error
}

func (e *ModelLoadError) Error() string { return "loading model " + e.ID + ": " + e.Err.Error() }

func (e *ModelLoadError) Unwrap() error { return e.Err }

// Handle is a loaded, ready-to-run speech model context.
type Handle interface {
	// ID returns the catalog id the handle was loaded from.
	ID() string
	// Transcribe runs inference on mono 16 kHz float32 samples and
	// returns the raw transcript.
	Transcribe(samples []float32) (string, error)
	// Close releases the model context.
	Close() error
}

// LoadFunc loads a Handle for the model file at path. Injected into
// the Coordinator so tests run without the whisper runtime.
type LoadFunc func(id, path string, opts Options) (Handle, error)

// Options are the inference settings applied to each loaded handle.
type Options struct {
	// Language is a whisper language code, or "auto" for detection.
	Language string
	// Translate requests translate-to-English output instead of
	// native-language transcription.
	Translate bool
	// Threads caps inference threads; 0 means max(1, NumCPU/2).
	Threads int
}
