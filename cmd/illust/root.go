package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"illust/internal/config"
	"illust/internal/store"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		jsonOutput bool
		logLevel   string
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "illust",
		Short: "Illust stores per-sentence illustration images and moves them through portable archives",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the image database")

	cmd.AddCommand(
		newImagesCmd(cfg, &jsonOutput),
		newSentencesCmd(cfg, &jsonOutput),
		newBackupCmd(cfg, &jsonOutput),
		newSnapshotCmd(cfg, &jsonOutput),
	)

	return cmd
}

// withStore opens the image store, runs fn, and closes the store. Every
// command goes through here so the process holds a single connection to the
// backing database.
func withStore(cfg *config.Config, fn func(st *store.Store) error) error {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening image store: %w", err)
	}
	defer st.Close()
	return fn(st)
}
