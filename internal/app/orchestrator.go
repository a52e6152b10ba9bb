// Package app wires hotkey transitions, audio capture, transcription
// and text insertion into the end-to-end dictation flow, and emits the
// status events that drive the tray indicator.
package app

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/sotto-app/sotto/internal/audio"
	"github.com/sotto-app/sotto/internal/hotkey"
	"github.com/sotto-app/sotto/internal/insert"
	"github.com/sotto-app/sotto/internal/model"
	"github.com/sotto-app/sotto/internal/transcribe"
)

// State is the orchestrator's position in the dictation flow.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateTranscribing
	StateInserting
)

// EventKind identifies a status event sent to the UI layer.
type EventKind int

const (
	// EventRecordingStarted fires when capture opens successfully.
	EventRecordingStarted EventKind = iota
	// EventRecordingStopped fires when the hotkey is released and the
	// buffer moves to transcription.
	EventRecordingStopped
	// EventTextInserted fires after a successful insertion.
	EventTextInserted
	// EventFailed fires on any failure branch; Failure names the kind.
	EventFailed
	// EventIdle fires whenever the flow returns to idle, so the
	// indicator can fall back to its default visual.
	EventIdle
)

// FailureKind classifies a failure event for the UI.
type FailureKind string

const (
	FailureDevice        FailureKind = "device"
	FailureNoModel       FailureKind = "no-model"
	FailureNoSpeech      FailureKind = "no-speech"
	FailureTranscription FailureKind = "transcription"
	FailureClipboard     FailureKind = "clipboard"
	FailureInsert        FailureKind = "insert"
)

// Event is a one-way status message from the pipeline to the UI layer.
// Sends never block; the pipeline does not wait for acknowledgment.
type Event struct {
	Kind    EventKind
	Failure FailureKind
	Text    string
	Err     error
}

// CaptureSource is the audio capture the orchestrator drives.
// Implemented by audio.Capture.
type CaptureSource interface {
	Start() error
	// Stop transfers ownership of the buffer; nil means the capture
	// was lost or discarded.
	Stop() *audio.SampleBuffer
	Abort()
}

// Engine transcribes a finished buffer. Implemented by
// transcribe.Engine.
type Engine interface {
	Process(buf *audio.SampleBuffer) (string, error)
}

// Inserter places text at the cursor. Implemented by insert.Inserter.
type Inserter interface {
	Insert(text string) error
}

// Orchestrator runs the Idle -> Recording -> Transcribing -> Inserting
// -> Idle state machine. Exactly one recording session exists at a
// time; hotkey events that do not fit the current state are ignored.
// No failure is fatal: every branch returns to Idle, ready for the
// next press.
type Orchestrator struct {
	capture  CaptureSource
	engine   Engine
	inserter Inserter
	log      *slog.Logger

	// DumpBuffer, when set, receives the finished buffer before
	// transcription (debug WAV dump). Errors are the hook's problem.
	DumpBuffer func(*audio.SampleBuffer)

	mu    sync.Mutex
	state State

	events chan Event
	wg     sync.WaitGroup
}

// New creates an Orchestrator in StateIdle.
func New(capture CaptureSource, engine Engine, inserter Inserter, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		capture:  capture,
		engine:   engine,
		inserter: inserter,
		log:      log,
		events:   make(chan Event, 32),
	}
}

// Events returns the status channel consumed by the tray/UI layer.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// State returns the current pipeline state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// HandleHotkey feeds one hotkey transition into the state machine.
// Runs on the event context; the blocking transcription is handed to a
// worker goroutine so this never stalls.
func (o *Orchestrator) HandleHotkey(ev hotkey.Event) {
	switch ev.Type {
	case hotkey.EventStart:
		o.onStart()
	case hotkey.EventStop:
		o.onStop()
	case hotkey.EventAbort:
		o.onAbort()
	}
}

// Wait blocks until any in-flight transcription worker finishes.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) onStart() {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return
	}
	if err := o.capture.Start(); err != nil {
		o.mu.Unlock()
		o.log.Error("failed to start recording", "error", err)
		o.emit(Event{Kind: EventFailed, Failure: FailureDevice, Err: err})
		o.emit(Event{Kind: EventIdle})
		return
	}
	o.state = StateRecording
	o.mu.Unlock()

	o.log.Info("recording started")
	o.emit(Event{Kind: EventRecordingStarted})
}

func (o *Orchestrator) onStop() {
	o.mu.Lock()
	if o.state != StateRecording {
		o.mu.Unlock()
		return
	}
	buf := o.capture.Stop()
	o.state = StateTranscribing
	o.mu.Unlock()

	o.log.Info("recording stopped")
	o.emit(Event{Kind: EventRecordingStopped})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.transcribeAndInsert(buf)
	}()
}

func (o *Orchestrator) onAbort() {
	o.mu.Lock()
	if o.state != StateRecording {
		o.mu.Unlock()
		return
	}
	o.capture.Abort()
	o.state = StateIdle
	o.mu.Unlock()

	o.log.Warn("recording aborted, capture discarded")
	o.emit(Event{Kind: EventIdle})
}

// transcribeAndInsert runs on the worker goroutine. Once it starts,
// the transcription always runs to completion or failure; releasing
// the hotkey earlier only ever cancels the capture phase.
func (o *Orchestrator) transcribeAndInsert(buf *audio.SampleBuffer) {
	if buf == nil {
		// Device lost mid-recording; partial capture already discarded.
		o.log.Error("capture lost before transcription")
		o.fail(FailureDevice, errors.New("capture device lost"))
		return
	}

	if o.DumpBuffer != nil {
		o.DumpBuffer(buf)
	}

	text, err := o.engine.Process(buf)
	switch {
	case errors.Is(err, transcribe.ErrTooShort):
		// Silent skip: back to idle, no error surfaced.
		o.toIdle()
		return
	case errors.Is(err, transcribe.ErrNoSpeech):
		o.log.Info("no speech detected, nothing to insert")
		o.fail(FailureNoSpeech, err)
		return
	case errors.Is(err, model.ErrNoModel):
		o.log.Error("transcription failed", "error", err)
		o.fail(FailureNoModel, err)
		return
	case err != nil:
		o.log.Error("transcription failed", "error", err)
		o.fail(FailureTranscription, err)
		return
	}

	o.mu.Lock()
	o.state = StateInserting
	o.mu.Unlock()

	if err := o.inserter.Insert(text); err != nil {
		o.log.Error("text insertion failed", "error", err)
		var cerr *insert.ClipboardError
		if errors.As(err, &cerr) {
			o.fail(FailureClipboard, err)
		} else {
			o.fail(FailureInsert, err)
		}
		return
	}

	o.log.Info("text inserted", "chars", len(text))
	o.emit(Event{Kind: EventTextInserted, Text: text})
	o.toIdle()
}

func (o *Orchestrator) fail(kind FailureKind, err error) {
	o.emit(Event{Kind: EventFailed, Failure: kind, Err: err})
	o.toIdle()
}

func (o *Orchestrator) toIdle() {
	o.mu.Lock()
	o.state = StateIdle
	o.mu.Unlock()
	o.emit(Event{Kind: EventIdle})
}

// emit sends without blocking; a slow or absent UI consumer can never
// stall the pipeline.
func (o *Orchestrator) emit(ev Event) {
	select {
	case o.events <- ev:
	default:
	}
}
