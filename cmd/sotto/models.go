package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sotto-app/sotto/internal/model"
)

// The models subcommands are the settings/catalog collaborator: they
// manage the store and the persisted active-model id while the daemon
// only ever reads both.

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage downloaded speech models",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known models and their download state",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		active := store.ActiveModelID()
		for _, v := range model.Variants() {
			marker := " "
			if v.ID == active {
				marker = "*"
			}
			state := "not downloaded"
			if store.IsDownloaded(v.ID) {
				state = "downloaded"
			}
			fmt.Printf("%s %-16s %5d MB  %s\n", marker, v.ID, v.SizeMB, state)
		}
		return nil
	},
}

var modelsDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download a model from HuggingFace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return store.Download(args[0], os.Stdout)
	},
}

var modelsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a downloaded model file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		id := args[0]
		// The daemon holds the loaded context; here "active" means the
		// persisted id the next start would load.
		if store.ActiveModelID() == id {
			return fmt.Errorf("%w: %q (switch first with 'sotto models use')", model.ErrActiveModel, id)
		}
		if err := store.Remove(id); err != nil {
			if errors.Is(err, model.ErrModelNotAvailable) {
				return fmt.Errorf("model %q is not downloaded", id)
			}
			return err
		}
		fmt.Printf("removed %s\n", id)
		return nil
	},
}

var modelsUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Select the model loaded on the next start",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		id := args[0]
		if !store.IsDownloaded(id) {
			return fmt.Errorf("model %q is not downloaded; run 'sotto models download %s' first", id, id)
		}
		if err := store.WriteActiveModelID(id); err != nil {
			return err
		}
		fmt.Printf("active model set to %s\n", id)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDownloadCmd)
	modelsCmd.AddCommand(modelsRemoveCmd)
	modelsCmd.AddCommand(modelsUseCmd)
}

// openStore resolves the models dir from the config.
func openStore() (*model.Store, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return model.NewStore(cfg.ModelsDir), nil
}
