package main

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"illust/internal/config"
	"illust/internal/manifest"
	"illust/internal/models"
	"illust/internal/reconcile"
	"illust/internal/store"
)

func newSentencesCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "sentences",
		Short: "Manage the sentence manifest",
	}

	cmd.PersistentFlags().StringVar(&manifestPath, "manifest", "", "sentence manifest file (default: configured manifest)")

	resolve := func() string {
		if manifestPath != "" {
			return manifestPath
		}
		return cfg.ManifestPath
	}

	cmd.AddCommand(
		newSentencesListCmd(cfg, jsonOutput, resolve),
		newSentencesAddCmd(resolve),
		newSentencesSyncCmd(cfg, resolve),
	)

	return cmd
}

func newSentencesListCmd(cfg *config.Config, jsonOutput *bool, resolve func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List manifest sentences with their statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			sentences, err := manifest.Load(resolve())
			if err != nil {
				return err
			}
			if *jsonOutput {
				return writeJSON(sentences)
			}
			for _, s := range sentences {
				if err := writePlain("%s [%s] %s\n", s.ID, s.Status, s.Text); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newSentencesAddCmd(resolve func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>...",
		Short: "Append sentences to the manifest",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolve()
			sentences, err := manifest.Load(path)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			sentences = append(sentences, models.Sentence{
				ID:     uuid.NewString(),
				Text:   text,
				Status: models.StatusPending,
			})
			return manifest.Save(path, sentences)
		},
	}
}

func newSentencesSyncCmd(cfg *config.Config, resolve func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Realign sentence statuses with the image store",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolve()
			sentences, err := manifest.Load(path)
			if err != nil {
				return err
			}
			return withStore(cfg, func(st *store.Store) error {
				synced, err := reconcile.SyncWithStore(cmd.Context(), st, sentences)
				if err != nil {
					return err
				}
				return manifest.Save(path, synced)
			})
		},
	}
}
