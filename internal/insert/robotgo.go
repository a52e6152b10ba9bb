package insert

import (
	"fmt"
	"runtime"

	"github.com/go-vgo/robotgo"
)

// SystemClipboard is the robotgo-backed Clipboard.
type SystemClipboard struct{}

func (SystemClipboard) Read() (string, error) {
	return robotgo.ReadAll()
}

func (SystemClipboard) Write(text string) error {
	return robotgo.WriteAll(text)
}

// SystemKeyboard is the robotgo-backed Keyboard.
type SystemKeyboard struct{}

// Paste fires cmd+v on macOS and ctrl+v elsewhere. Any still-held alt
// key is released first so the chord's modifier cannot turn the paste
// into a different shortcut.
func (SystemKeyboard) Paste() error {
	_ = robotgo.KeyToggle("alt", "up")

	mod := "ctrl"
	if runtime.GOOS == "darwin" {
		mod = "cmd"
	}
	if err := robotgo.KeyTap("v", mod); err != nil {
		return fmt.Errorf("key tap %s+v: %w", mod, err)
	}
	return nil
}

func (SystemKeyboard) Type(text string) error {
	robotgo.TypeStr(text)
	return nil
}
