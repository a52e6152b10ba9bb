package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sotto-app/sotto/internal/app"
	"github.com/sotto-app/sotto/internal/audio"
	"github.com/sotto-app/sotto/internal/config"
	"github.com/sotto-app/sotto/internal/hotkey"
	"github.com/sotto-app/sotto/internal/insert"
	"github.com/sotto-app/sotto/internal/model"
	"github.com/sotto-app/sotto/internal/transcribe"
	"github.com/sotto-app/sotto/internal/tray"
)

// runDaemon wires the full pipeline and blocks until shutdown.
func runDaemon() error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	// Model: the active id is read from persisted state; the daemon
	// never writes it.
	store := model.NewStore(cfg.ModelsDir)
	coord := model.NewCoordinator(store, model.LoadWhisper, model.Options{
		Language:  cfg.Transcribe.Language,
		Translate: cfg.Transcribe.Translate,
		Threads:   cfg.Transcribe.Threads,
	}, logger)
	defer coord.Close()

	activeID := store.ActiveModelID()
	if !coord.IsDownloaded(activeID) {
		return fmt.Errorf("model %q is not downloaded; run 'sotto models download %s' first", activeID, activeID)
	}

	logger.Info("loading model", "model", activeID)
	loadStart := time.Now()
	if err := coord.Switch(activeID); err != nil {
		return fmt.Errorf("loading model %q: %w", activeID, err)
	}
	logger.Info("model loaded", "model", activeID, "elapsed", time.Since(loadStart).Round(time.Millisecond))

	capture, err := audio.NewCapture(cfg.Audio.Channels, cfg.Audio.FallbackSampleRate)
	if err != nil {
		return fmt.Errorf("initializing audio capture: %w (check microphone permissions)", err)
	}
	defer capture.Close()

	engine := transcribe.NewEngine(coord, logger)
	inserter := insert.New(insert.SystemClipboard{}, insert.SystemKeyboard{}, cfg.Insert.Method, logger)
	orch := app.New(capture, engine, inserter, logger)

	if cfg.DebugDump {
		dumpPath := filepath.Join(cfg.ModelsDir, "..", "last_capture.wav")
		orch.DumpBuffer = func(buf *audio.SampleBuffer) {
			if err := audio.WriteWAV(dumpPath, buf); err != nil {
				logger.Warn("debug dump failed", "path", dumpPath, "error", err)
			}
		}
	}

	chords := make([]hotkey.Chord, 0, len(cfg.Hotkey.Chords))
	for _, spec := range cfg.Hotkey.Chords {
		chord, err := hotkey.ParseChord(spec)
		if err != nil {
			return err
		}
		chords = append(chords, chord)
	}
	listener := hotkey.NewListener(chords...)
	go listener.Start()

	logger.Info("ready",
		"hotkeys", strings.Join(cfg.Hotkey.Chords, " or "),
		"model", activeID,
		"insert", cfg.Insert.Method)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	quitCh := make(chan struct{}, 1)

	loop := func() {
		events := listener.Events()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					logger.Info("hotkey listener stopped")
					return
				}
				orch.HandleHotkey(ev)
			case sig := <-sigCh:
				logger.Info("shutting down", "signal", sig.String())
				shutdown(listener, capture, coord, orch)
			case <-quitCh:
				logger.Info("shutting down", "reason", "tray quit")
				shutdown(listener, capture, coord, orch)
			}
		}
	}

	if cfg.Tray.Enabled {
		// systray owns the main goroutine; the pipeline loop moves to
		// a worker.
		indicator := tray.New(orch.Events(), activeID, func() {
			select {
			case quitCh <- struct{}{}:
			default:
			}
		})
		go loop()
		indicator.Run()
		return nil
	}

	loop()
	return nil
}

// shutdown stops the capture, waits for any in-flight transcription,
// and exits. The process exits directly to avoid gohook's C cleanup
// crash; the OS reclaims the event hook.
func shutdown(listener *hotkey.Listener, capture *audio.Capture, coord *model.Coordinator, orch *app.Orchestrator) {
	listener.Stop()
	if capture.IsRecording() {
		capture.Abort()
	}
	orch.Wait()
	capture.Close()
	coord.Close()
	os.Exit(0)
}

// loadConfig loads the config from the given path, the default path,
// or built-in defaults, in that order.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		return config.Load(defaultPath)
	}
	return config.Default(), nil
}
