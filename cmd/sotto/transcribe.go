package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sotto-app/sotto/internal/audio"
	"github.com/sotto-app/sotto/internal/config"
	"github.com/sotto-app/sotto/internal/model"
	"github.com/sotto-app/sotto/internal/transcribe"
)

// transcribeCmd runs a WAV file through the same engine the hotkey
// pipeline uses, without touching audio devices, hotkeys or the tray.
var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file.wav>",
	Short: "Transcribe a WAV file with the active model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: config.ParseLogLevel(cfg.LogLevel),
		}))

		store := model.NewStore(cfg.ModelsDir)
		coord := model.NewCoordinator(store, model.LoadWhisper, model.Options{
			Language:  cfg.Transcribe.Language,
			Translate: cfg.Transcribe.Translate,
			Threads:   cfg.Transcribe.Threads,
		}, logger)
		defer coord.Close()

		activeID := store.ActiveModelID()
		if err := coord.Switch(activeID); err != nil {
			return fmt.Errorf("loading model %q: %w", activeID, err)
		}

		buf, err := audio.ReadWAV(args[0])
		if err != nil {
			return err
		}
		buf, err = resampleForModel(buf)
		if err != nil {
			return err
		}

		engine := transcribe.NewEngine(coord, logger)
		text, err := engine.Process(buf)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

// resampleForModel brings a decoded WAV down to the model's 16 kHz.
// Rates below the target are rejected: the decimator cannot upsample,
// and retagging the buffer would feed the model sped-up audio.
func resampleForModel(buf *audio.SampleBuffer) (*audio.SampleBuffer, error) {
	switch {
	case buf.Rate() == audio.TargetRate:
		return buf, nil
	case buf.Rate() < audio.TargetRate:
		return nil, fmt.Errorf("wav sample rate %d Hz is below the %d Hz the model expects", buf.Rate(), audio.TargetRate)
	}
	factor := audio.DecimationFactor(buf.Rate(), audio.TargetRate)
	resampled := audio.NewSampleBuffer(audio.TargetRate)
	resampled.Append(audio.Decimate(buf.Samples(), factor))
	return resampled, nil
}
