package hotkey

import (
	"fmt"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// EventType is the pipeline-facing transition emitted by the Listener.
type EventType int

const (
	// EventStart signals a chord press (start recording).
	EventStart EventType = iota
	// EventStop signals the armed chord's release (stop and transcribe).
	EventStop
	// EventAbort signals the tap went away mid-hold (discard recording).
	EventAbort
)

// Event is emitted on the channel returned by Events.
type Event struct {
	Type EventType
}

// Chord is a set of lowercase gohook key names, e.g. ["alt", "space"].
type Chord []string

// ParseChord splits a "+"-separated chord spec like "ctrl+shift+d".
func ParseChord(spec string) (Chord, error) {
	parts := strings.Split(spec, "+")
	var keys Chord
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			return nil, fmt.Errorf("hotkey: empty key in chord %q", spec)
		}
		keys = append(keys, p)
	}
	return keys, nil
}

func (c Chord) String() string { return strings.Join(c, "+") }

// Listener registers the chords with the global event tap and emits
// debounced Start/Stop/Abort events.
type Listener struct {
	chords  []Chord
	machine *Machine
	ch      chan Event
	done    chan struct{}
	once    sync.Once
}

// NewListener creates a Listener for the given chords. Both chords act
// as the same trigger.
func NewListener(chords ...Chord) *Listener {
	return &Listener{
		chords:  chords,
		machine: NewMachine(len(chords)),
		ch:      make(chan Event, 16),
		done:    make(chan struct{}),
	}
}

// Events returns the channel that receives hotkey events.
// The channel is closed when the listener shuts down.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Start begins listening on the global event tap. It blocks until Stop
// is called; run it in a goroutine.
func (l *Listener) Start() {
	for i, chord := range l.chords {
		i := i
		hook.Register(hook.KeyDown, chord, func(e hook.Event) {
			l.emit(l.machine.Press(i))
		})
		hook.Register(hook.KeyUp, chord, func(e hook.Event) {
			l.emit(l.machine.Release(i))
		})
	}

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)

	// Tap is gone. If a chord was still held the recording must not
	// reach transcription.
	l.emit(l.machine.Interrupt())
	close(l.ch)
}

// emit forwards a machine transition without ever blocking the tap.
func (l *Listener) emit(a Action) {
	var ev Event
	switch a {
	case ActionStart:
		ev = Event{Type: EventStart}
	case ActionStop:
		ev = Event{Type: EventStop}
	case ActionAbort:
		ev = Event{Type: EventAbort}
	default:
		return
	}
	select {
	case l.ch <- ev:
	default: // drop rather than stall the hook thread
	}
}

// Stop terminates the listener. Safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
