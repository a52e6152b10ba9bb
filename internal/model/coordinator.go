package model

import (
	"fmt"
	"log/slog"
	"sync"
)

// Coordinator owns the single active Handle. Transcribe and Switch
// share one mutex, so both are whole-call atomic with respect to each
// other: a switch can never observe a half-finished inference and an
// inference always runs against exactly one model context.
type Coordinator struct {
	store *Store
	load  LoadFunc
	opts  Options
	log   *slog.Logger

	// mu serializes Transcribe and Switch. Switch uses TryLock so a
	// request during an in-flight transcription fails fast with
	// ErrBusy instead of queuing.
	mu     sync.Mutex
	active Handle

	// idMu guards the activeID snapshot so status queries never wait
	// on a running inference.
	idMu     sync.RWMutex
	activeID string
}

// NewCoordinator creates a Coordinator with no model loaded.
func NewCoordinator(store *Store, load LoadFunc, opts Options, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		store: store,
		load:  load,
		opts:  opts,
		log:   log,
	}
}

// Switch loads the named model and makes it active. It fails with
// ErrBusy while a transcription is in flight (the caller retries),
// with ErrModelNotAvailable when the model file is absent, and with
// *ModelLoadError when loading fails — in which case the previous
// model stays active.
func (c *Coordinator) Switch(id string) error {
	if !c.mu.TryLock() {
		return ErrBusy
	}
	defer c.mu.Unlock()

	if c.active != nil && c.active.ID() == id {
		return nil
	}
	if !c.store.IsDownloaded(id) {
		return fmt.Errorf("%w: %q", ErrModelNotAvailable, id)
	}
	path, err := c.store.Path(id)
	if err != nil {
		return err
	}

	next, err := c.load(id, path, c.opts)
	if err != nil {
		c.log.Error("model load failed, keeping previous model", "model", id, "error", err)
		return &ModelLoadError{ID: id, Err: err}
	}

	// Only now is the old context torn down.
	if c.active != nil {
		if cerr := c.active.Close(); cerr != nil {
			c.log.Warn("closing previous model", "model", c.active.ID(), "error", cerr)
		}
	}
	c.active = next
	c.setActiveID(id)
	c.log.Info("model switched", "model", id)
	return nil
}

// Transcribe runs the active model on the samples. The call holds the
// model for its full duration and is never cancelled mid-flight.
func (c *Coordinator) Transcribe(samples []float32) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return "", ErrNoModel
	}
	return c.active.Transcribe(samples)
}

// Remove deletes the named model's file. The active model cannot be
// removed; the file is left untouched and ErrActiveModel is returned.
func (c *Coordinator) Remove(id string) error {
	if c.ActiveID() == id {
		return fmt.Errorf("%w: %q", ErrActiveModel, id)
	}
	return c.store.Remove(id)
}

// IsDownloaded reports whether the named model's data is present.
func (c *Coordinator) IsDownloaded(id string) bool {
	return c.store.IsDownloaded(id)
}

// ActiveID returns the id of the loaded model, or "" when none is.
func (c *Coordinator) ActiveID() string {
	c.idMu.RLock()
	defer c.idMu.RUnlock()
	return c.activeID
}

func (c *Coordinator) setActiveID(id string) {
	c.idMu.Lock()
	c.activeID = id
	c.idMu.Unlock()
}

// Close tears down the active handle.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	err := c.active.Close()
	c.active = nil
	c.setActiveID("")
	return err
}
