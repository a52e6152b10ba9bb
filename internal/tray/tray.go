// Package tray renders the menu-bar indicator for the dictation
// pipeline using fyne.io/systray. It consumes the orchestrator's
// status channel and never feeds anything back into the pipeline.
package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"fyne.io/systray"

	"github.com/sotto-app/sotto/internal/app"
)

// IconState selects the indicator visual.
type IconState int

const (
	IconIdle IconState = iota
	IconRecording
	IconProcessing
	IconError
)

// Indicator is the running tray icon.
type Indicator struct {
	events      <-chan app.Event
	activeModel string
	onQuit      func()

	menuStatus *systray.MenuItem
	menuModel  *systray.MenuItem
	menuQuit   *systray.MenuItem
}

// New creates an Indicator fed by the orchestrator's event channel.
// onQuit is invoked when the user picks Quit from the menu.
func New(events <-chan app.Event, activeModel string, onQuit func()) *Indicator {
	return &Indicator{
		events:      events,
		activeModel: activeModel,
		onQuit:      onQuit,
	}
}

// Run starts the tray loop. It blocks until systray exits; call it
// from the main goroutine.
func (t *Indicator) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit tears the tray down, unblocking Run.
func (t *Indicator) Quit() {
	systray.Quit()
}

func (t *Indicator) onReady() {
	systray.SetIcon(iconBytes(IconIdle))
	systray.SetTooltip("sotto — hold the hotkey to dictate")

	t.menuStatus = systray.AddMenuItem("Status: idle", "Current pipeline state")
	t.menuStatus.Disable()
	t.menuModel = systray.AddMenuItem("Model: "+t.activeModel, "Active speech model")
	t.menuModel.Disable()
	systray.AddSeparator()
	t.menuQuit = systray.AddMenuItem("Quit", "Stop sotto")

	go func() {
		for {
			select {
			case ev, ok := <-t.events:
				if !ok {
					return
				}
				t.apply(ev)
			case <-t.menuQuit.ClickedCh:
				if t.onQuit != nil {
					t.onQuit()
				}
				return
			}
		}
	}()
}

// apply maps a pipeline event to an icon and status line.
func (t *Indicator) apply(ev app.Event) {
	switch ev.Kind {
	case app.EventRecordingStarted:
		systray.SetIcon(iconBytes(IconRecording))
		t.menuStatus.SetTitle("Status: recording")
	case app.EventRecordingStopped:
		systray.SetIcon(iconBytes(IconProcessing))
		t.menuStatus.SetTitle("Status: transcribing")
	case app.EventTextInserted:
		systray.SetIcon(iconBytes(IconIdle))
		t.menuStatus.SetTitle("Status: idle")
	case app.EventFailed:
		systray.SetIcon(iconBytes(IconError))
		t.menuStatus.SetTitle("Status: error (" + string(ev.Failure) + ")")
	case app.EventIdle:
		systray.SetIcon(iconBytes(IconIdle))
		t.menuStatus.SetTitle("Status: idle")
	}
}

// stateColors are the filled-dot colors per state.
var stateColors = map[IconState]color.RGBA{
	IconIdle:       {R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF},
	IconRecording:  {R: 0xE5, G: 0x39, B: 0x35, A: 0xFF},
	IconProcessing: {R: 0x42, G: 0xA5, B: 0xF5, A: 0xFF},
	IconError:      {R: 0xFB, G: 0x8C, B: 0x00, A: 0xFF},
}

// iconBytes renders a 22x22 filled dot as PNG. Icons are generated
// in-process so no assets need bundling.
func iconBytes(state IconState) []byte {
	const size = 22
	c := stateColors[state]

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	center := float64(size-1) / 2
	radius := float64(size)/2 - 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) - center
			dy := float64(y) - center
			if dx*dx+dy*dy <= radius*radius {
				img.Set(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
