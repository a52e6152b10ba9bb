package hotkey

import (
	"testing"
	"time"
)

// testMachine returns a two-chord machine with a controllable clock.
func testMachine() (*Machine, *time.Time) {
	now := time.Unix(1000, 0)
	m := NewMachine(2)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestPressArmsAndStarts(t *testing.T) {
	m, _ := testMachine()
	if got := m.Press(0); got != ActionStart {
		t.Fatalf("Press(0) = %v, want ActionStart", got)
	}
	if !m.Armed() {
		t.Error("machine should be armed after press")
	}
}

func TestKeyRepeatIgnored(t *testing.T) {
	m, _ := testMachine()
	m.Press(0)
	// OS key-repeat delivers more key-downs of the same chord.
	for i := 0; i < 5; i++ {
		if got := m.Press(0); got != ActionNone {
			t.Fatalf("repeated Press(0) = %v, want ActionNone", got)
		}
	}
}

func TestSecondChordWhileArmedIgnored(t *testing.T) {
	m, _ := testMachine()
	m.Press(0)
	if got := m.Press(1); got != ActionNone {
		t.Errorf("Press(1) while chord 0 armed = %v, want ActionNone", got)
	}
}

func TestReleaseStops(t *testing.T) {
	m, _ := testMachine()
	m.Press(1)
	if got := m.Release(1); got != ActionStop {
		t.Fatalf("Release(1) = %v, want ActionStop", got)
	}
	if m.Armed() {
		t.Error("machine should be idle after release")
	}
}

func TestStrayReleaseIsNoOp(t *testing.T) {
	m, _ := testMachine()
	// Key-up with no preceding matching key-down leaves state at idle.
	if got := m.Release(0); got != ActionNone {
		t.Fatalf("Release(0) while idle = %v, want ActionNone", got)
	}
	if m.Armed() {
		t.Error("stray release must not arm the machine")
	}

	// Key-up of the chord that is not armed is also a no-op.
	m.Press(0)
	if got := m.Release(1); got != ActionNone {
		t.Errorf("Release(1) while chord 0 armed = %v, want ActionNone", got)
	}
	if !m.Armed() {
		t.Error("non-matching release must not disarm the machine")
	}
}

func TestDebounceWindow(t *testing.T) {
	m, now := testMachine()
	m.Press(0)
	m.Release(0)

	// Re-press within the debounce window is swallowed.
	*now = now.Add(DefaultDebounce - time.Millisecond)
	if got := m.Press(0); got != ActionNone {
		t.Errorf("Press inside debounce window = %v, want ActionNone", got)
	}

	// At the window boundary the press goes through.
	*now = now.Add(time.Millisecond)
	if got := m.Press(0); got != ActionStart {
		t.Errorf("Press at debounce boundary = %v, want ActionStart", got)
	}
}

func TestDebouncePerChord(t *testing.T) {
	m, now := testMachine()
	m.Press(0)
	m.Release(0)

	// The other chord is not debounced by chord 0's release.
	*now = now.Add(time.Millisecond)
	if got := m.Press(1); got != ActionStart {
		t.Errorf("Press(1) right after Release(0) = %v, want ActionStart", got)
	}
}

func TestInterruptWhileArmed(t *testing.T) {
	m, _ := testMachine()
	m.Press(0)
	if got := m.Interrupt(); got != ActionAbort {
		t.Fatalf("Interrupt while armed = %v, want ActionAbort", got)
	}
	if m.Armed() {
		t.Error("machine should be idle after interrupt")
	}
}

func TestInterruptWhileIdle(t *testing.T) {
	m, _ := testMachine()
	if got := m.Interrupt(); got != ActionNone {
		t.Errorf("Interrupt while idle = %v, want ActionNone", got)
	}
}

func TestParseChord(t *testing.T) {
	tests := []struct {
		spec    string
		want    string
		wantErr bool
	}{
		{"alt+space", "alt+space", false},
		{"Ctrl + Shift + D", "ctrl+shift+d", false},
		{"space", "space", false},
		{"alt++space", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		chord, err := ParseChord(tt.spec)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseChord(%q) should fail", tt.spec)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseChord(%q) error = %v", tt.spec, err)
			continue
		}
		if chord.String() != tt.want {
			t.Errorf("ParseChord(%q) = %q, want %q", tt.spec, chord.String(), tt.want)
		}
	}
}
