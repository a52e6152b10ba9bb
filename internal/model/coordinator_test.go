package model

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"
)

// fakeHandle is a controllable model handle.
type fakeHandle struct {
	id     string
	text   string
	err    error
	block  chan struct{} // when set, Transcribe waits for it to close
	closed bool
}

func (h *fakeHandle) ID() string { return h.id }

func (h *fakeHandle) Transcribe(samples []float32) (string, error) {
	if h.block != nil {
		<-h.block
	}
	return h.text, h.err
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

// fakeLoader builds a LoadFunc that records loads and can fail.
type fakeLoader struct {
	mu      sync.Mutex
	handles map[string]*fakeHandle
	failID  string
	loads   []string
}

func (l *fakeLoader) load(id, path string, opts Options) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads = append(l.loads, id)
	if id == l.failID {
		return nil, errors.New("corrupt model file")
	}
	h := &fakeHandle{id: id, text: "hello world"}
	if l.handles == nil {
		l.handles = make(map[string]*fakeHandle)
	}
	l.handles[id] = h
	return h, nil
}

func newTestCoordinator(t *testing.T) (*Coordinator, *Store, *fakeLoader) {
	t.Helper()
	store := NewStore(t.TempDir())
	loader := &fakeLoader{}
	return NewCoordinator(store, loader.load, Options{}, nil), store, loader
}

func TestSwitchNotDownloaded(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	if err := c.Switch("base"); !errors.Is(err, ErrModelNotAvailable) {
		t.Errorf("Switch(not downloaded) error = %v, want ErrModelNotAvailable", err)
	}
	if got := c.ActiveID(); got != "" {
		t.Errorf("ActiveID = %q, want empty", got)
	}
}

func TestSwitchLoads(t *testing.T) {
	c, s, _ := newTestCoordinator(t)
	seedModel(t, s, "base")

	if err := c.Switch("base"); err != nil {
		t.Fatalf("Switch() error = %v", err)
	}
	if got := c.ActiveID(); got != "base" {
		t.Errorf("ActiveID = %q, want %q", got, "base")
	}
}

func TestSwitchReplacesOldOnlyAfterLoad(t *testing.T) {
	c, s, loader := newTestCoordinator(t)
	seedModel(t, s, "base")
	seedModel(t, s, "small.en")

	if err := c.Switch("base"); err != nil {
		t.Fatalf("Switch(base) error = %v", err)
	}
	old := loader.handles["base"]

	if err := c.Switch("small.en"); err != nil {
		t.Fatalf("Switch(small.en) error = %v", err)
	}
	if !old.closed {
		t.Error("previous handle should be closed after a successful switch")
	}
	if got := c.ActiveID(); got != "small.en" {
		t.Errorf("ActiveID = %q, want %q", got, "small.en")
	}
}

func TestSwitchLoadFailureKeepsPrevious(t *testing.T) {
	c, s, loader := newTestCoordinator(t)
	seedModel(t, s, "base")
	seedModel(t, s, "small.en")

	if err := c.Switch("base"); err != nil {
		t.Fatalf("Switch(base) error = %v", err)
	}
	old := loader.handles["base"]

	loader.failID = "small.en"
	err := c.Switch("small.en")
	var lerr *ModelLoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("Switch(failing) error = %v, want *ModelLoadError", err)
	}
	if old.closed {
		t.Error("previous handle must stay loaded when the new load fails")
	}
	if got := c.ActiveID(); got != "base" {
		t.Errorf("ActiveID = %q, want %q after failed switch", got, "base")
	}

	// Transcription still works on the previous model.
	if _, terr := c.Transcribe(make([]float32, 16)); terr != nil {
		t.Errorf("Transcribe after failed switch error = %v", terr)
	}
}

func TestSwitchBusyDuringTranscription(t *testing.T) {
	c, s, loader := newTestCoordinator(t)
	seedModel(t, s, "base.en")
	seedModel(t, s, "base")

	if err := c.Switch("base.en"); err != nil {
		t.Fatalf("Switch(base.en) error = %v", err)
	}

	// Hold a transcription in flight.
	block := make(chan struct{})
	loader.handles["base.en"].block = block
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		c.Transcribe(make([]float32, 16))
		close(done)
	}()
	<-started
	waitUntilBusy(t, c)

	// The switch must fail fast, not queue.
	if err := c.Switch("base"); !errors.Is(err, ErrBusy) {
		t.Errorf("Switch during transcription error = %v, want ErrBusy", err)
	}
	if got := c.ActiveID(); got != "base.en" {
		t.Errorf("ActiveID = %q, want unchanged %q", got, "base.en")
	}

	close(block)
	<-done

	// The same request succeeds once the call completed.
	if err := c.Switch("base"); err != nil {
		t.Fatalf("Switch after transcription error = %v", err)
	}
	if got := c.ActiveID(); got != "base" {
		t.Errorf("ActiveID = %q, want %q", got, "base")
	}
}

// waitUntilBusy spins until the transcription goroutine holds the
// model mutex.
func waitUntilBusy(t *testing.T, c *Coordinator) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if !c.mu.TryLock() {
			return
		}
		c.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatal("transcription never acquired the model mutex")
}

func TestTranscribeNoModel(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	if _, err := c.Transcribe(make([]float32, 16)); !errors.Is(err, ErrNoModel) {
		t.Errorf("Transcribe without model error = %v, want ErrNoModel", err)
	}
}

func TestRemoveActiveModel(t *testing.T) {
	c, s, _ := newTestCoordinator(t)
	path := seedModel(t, s, "base")

	if err := c.Switch("base"); err != nil {
		t.Fatalf("Switch() error = %v", err)
	}
	if err := c.Remove("base"); !errors.Is(err, ErrActiveModel) {
		t.Errorf("Remove(active) error = %v, want ErrActiveModel", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("active model file must be left untouched")
	}
}

func TestRemoveInactiveModel(t *testing.T) {
	c, s, _ := newTestCoordinator(t)
	seedModel(t, s, "base")
	path := seedModel(t, s, "tiny.en")

	if err := c.Switch("base"); err != nil {
		t.Fatalf("Switch() error = %v", err)
	}
	if err := c.Remove("tiny.en"); err != nil {
		t.Fatalf("Remove(inactive) error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("inactive model file should be deleted")
	}
}

func TestSwitchSameModelIsNoOp(t *testing.T) {
	c, s, loader := newTestCoordinator(t)
	seedModel(t, s, "base")

	if err := c.Switch("base"); err != nil {
		t.Fatalf("Switch() error = %v", err)
	}
	if err := c.Switch("base"); err != nil {
		t.Fatalf("second Switch() error = %v", err)
	}
	if len(loader.loads) != 1 {
		t.Errorf("model loaded %d times, want 1", len(loader.loads))
	}
}

func TestCloseReleasesHandle(t *testing.T) {
	c, s, loader := newTestCoordinator(t)
	seedModel(t, s, "base")
	if err := c.Switch("base"); err != nil {
		t.Fatalf("Switch() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !loader.handles["base"].closed {
		t.Error("Close should close the active handle")
	}
	if got := c.ActiveID(); got != "" {
		t.Errorf("ActiveID after Close = %q, want empty", got)
	}
}
