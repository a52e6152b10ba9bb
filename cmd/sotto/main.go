// sotto is a push-to-talk dictation daemon: hold a global hotkey,
// speak, release, and the transcript is pasted at the cursor.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "sotto",
	Short: "Push-to-talk dictation with a local whisper model",
	Long: `sotto sits in the system tray and listens for a global hotkey.
While the hotkey is held it records from the default microphone; on
release the capture is transcribed with a locally loaded whisper.cpp
model and the text is pasted at the cursor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: ~/.config/sotto/config.yaml)")
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(transcribeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
