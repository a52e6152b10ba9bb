// Package insert places transcribed text at the cursor of the focused
// application. The paste method snapshots the clipboard, writes the
// text, fires the paste chord, and always restores the snapshot — on
// every exit path — so the user's clipboard survives the flow.
package insert

import (
	"fmt"
	"log/slog"
	"time"
)

// ClipboardError marks snapshot/write/restore failures. The restore
// step still executes when one is returned from an earlier step.
type ClipboardError struct {
	Op  string
	Err error
}

func (e *ClipboardError) Error() string { return "clipboard " + e.Op + ": " + e.Err.Error() }

func (e *ClipboardError) Unwrap() error { return e.Err }

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// Keyboard simulates keystrokes in the focused application.
type Keyboard interface {
	// Paste fires the platform paste chord (cmd+v / ctrl+v).
	Paste() error
	// Type enters text by simulating individual keystrokes.
	Type(text string) error
}

// Settle delays around the paste keystroke. The clipboard write needs
// time to propagate before the paste chord fires, and the paste needs
// to land before the snapshot overwrites the clipboard again.
const (
	writeSettle = 100 * time.Millisecond
	pasteSettle = 50 * time.Millisecond
)

// Inserter inserts text using either the paste or the type method.
type Inserter struct {
	cb     Clipboard
	kb     Keyboard
	method string // "paste" or "type"
	sleep  func(time.Duration)
	log    *slog.Logger
}

// New creates an Inserter. method must be "paste" or "type".
func New(cb Clipboard, kb Keyboard, method string, log *slog.Logger) *Inserter {
	if log == nil {
		log = slog.Default()
	}
	return &Inserter{cb: cb, kb: kb, method: method, sleep: time.Sleep, log: log}
}

// Insert places text at the cursor. Empty text is a no-op.
func (ins *Inserter) Insert(text string) error {
	if text == "" {
		return nil
	}
	if ins.method == "type" {
		if err := ins.kb.Type(text); err != nil {
			return fmt.Errorf("typing text: %w", err)
		}
		return nil
	}
	return ins.paste(text)
}

// paste runs the snapshot/write/paste/restore cycle. The snapshot is
// restored exactly once no matter which later step fails.
func (ins *Inserter) paste(text string) (err error) {
	snapshot, snapErr := ins.cb.Read()
	if snapErr != nil {
		// Nothing to restore, but the insertion still proceeds.
		ins.log.Warn("clipboard snapshot failed", "error", snapErr)
	} else {
		defer func() {
			if rerr := ins.cb.Write(snapshot); rerr != nil {
				ins.log.Error("clipboard restore failed", "error", rerr)
				if err == nil {
					err = &ClipboardError{Op: "restore", Err: rerr}
				}
			}
		}()
	}

	if werr := ins.cb.Write(text); werr != nil {
		return &ClipboardError{Op: "write", Err: werr}
	}

	// Let the clipboard update and the chord's modifiers release.
	ins.sleep(writeSettle)

	if perr := ins.kb.Paste(); perr != nil {
		// Reported, but the deferred restore still runs.
		return fmt.Errorf("paste keystroke: %w", perr)
	}

	// Let the focused app read the clipboard before it is restored.
	ins.sleep(pasteSettle)
	return nil
}
