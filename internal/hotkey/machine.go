// Package hotkey turns global key events into Start/Stop/Abort
// transitions for the recording pipeline. Two configured chords act as
// interchangeable triggers: key-down on either arms the machine and
// starts a recording, key-up on the armed chord stops it.
//
// The edge detection lives in Machine, which is pure and owns no OS
// resources; Listener feeds it from a gohook event tap.
package hotkey

import (
	"sync"
	"time"
)

// DefaultDebounce is how long after a chord's key-up a key-down of the
// same chord is ignored, so a bouncy switch cannot re-trigger.
const DefaultDebounce = 50 * time.Millisecond

// Action is the transition a key event produced, if any.
type Action int

const (
	// ActionNone means the event did not change state.
	ActionNone Action = iota
	// ActionStart means a chord was pressed while idle: start recording.
	ActionStart
	// ActionStop means the armed chord was released: stop recording.
	ActionStop
	// ActionAbort means the machine was forced back to idle while
	// armed (input tap lost): discard the recording.
	ActionAbort
)

// Machine edge-detects press/release of the configured chords.
//
// States: idle (armed == -1) and armed (armed == chord index).
// OS key-repeat shows up as extra key-downs of the armed chord; those
// are ignored. A key-up of a chord that is not armed is a no-op.
type Machine struct {
	mu          sync.Mutex
	armed       int
	lastRelease []time.Time
	debounce    time.Duration
	now         func() time.Time
}

// NewMachine creates a Machine for numChords chords with the default
// debounce window.
func NewMachine(numChords int) *Machine {
	return &Machine{
		armed:       -1,
		lastRelease: make([]time.Time, numChords),
		debounce:    DefaultDebounce,
		now:         time.Now,
	}
}

// Press handles a key-down of the chord at index i.
func (m *Machine) Press(i int) Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.lastRelease) {
		return ActionNone
	}
	if m.armed != -1 {
		return ActionNone // key-repeat or second chord while armed
	}
	if m.now().Sub(m.lastRelease[i]) < m.debounce {
		return ActionNone
	}
	m.armed = i
	return ActionStart
}

// Release handles a key-up of the chord at index i.
func (m *Machine) Release(i int) Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i != m.armed {
		return ActionNone // stray key-up, state unchanged
	}
	m.armed = -1
	m.lastRelease[i] = m.now()
	return ActionStop
}

// Interrupt forces the machine back to idle, e.g. when the event tap
// goes away while a chord is held.
func (m *Machine) Interrupt() Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.armed == -1 {
		return ActionNone
	}
	m.armed = -1
	return ActionAbort
}

// Armed reports whether a chord is currently held.
func (m *Machine) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed != -1
}
