package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"illust/internal/backup"
	"illust/internal/config"
	"illust/internal/manifest"
	"illust/internal/reconcile"
	"illust/internal/store"
)

func newBackupCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and import .evb backup archives (sentences + images)",
	}

	cmd.AddCommand(
		newBackupExportCmd(cfg),
		newBackupImportCmd(cfg, jsonOutput),
	)

	return cmd
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newBackupExportCmd(cfg *config.Config) *cobra.Command {
	var (
		outputPath   string
		manifestPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the sentence list and every stored image to one .evb file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if manifestPath == "" {
				manifestPath = cfg.ManifestPath
			}
			sentences, err := manifest.Load(manifestPath)
			if err != nil {
				return err
			}

			return withStore(cfg, func(st *store.Store) error {
				opts := backup.ExportOptions{
					PickDestination: func() (io.WriteCloser, error) {
						if outputPath == "-" {
							return nopWriteCloser{os.Stdout}, nil
						}
						return os.Create(outputPath)
					},
					// Direct file writes rarely fail; if one does, land the
					// document in one shot instead.
					Fallback: func(data []byte) error {
						if outputPath == "-" {
							_, err := os.Stdout.Write(data)
							return err
						}
						return os.WriteFile(outputPath, data, 0o644)
					},
					OnProgress: progressPrinter("exporting"),
				}
				return backup.Export(cmd.Context(), st, sentences, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "backup.evb", "output file (- for stdout)")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "sentence manifest to include (default: configured manifest)")

	return cmd
}

func newBackupImportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		inputPath    string
		manifestPath string
		noManifest   bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Restore a .evb file into the store and merge its sentences into the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return errors.New("--input is required")
			}
			if manifestPath == "" {
				manifestPath = cfg.ManifestPath
			}

			f, err := os.Open(inputPath)
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}

			var res *backup.ImportResult
			err = withStore(cfg, func(st *store.Store) error {
				var ierr error
				res, ierr = backup.Import(cmd.Context(), st, f, info.Size(), backup.ImportOptions{
					OnProgress: progressPrinter("importing"),
				})
				if ierr != nil {
					return ierr
				}

				if noManifest {
					return nil
				}
				existing, err := manifest.Load(manifestPath)
				if err != nil {
					return err
				}
				merged := reconcile.Merge(existing, res.Sentences, res.LegacyImageIDs)
				merged, err = reconcile.SyncWithStore(cmd.Context(), st, merged)
				if err != nil {
					return err
				}
				return manifest.Save(manifestPath, merged)
			})
			if err != nil {
				return err
			}

			if *jsonOutput {
				return writeJSON(map[string]any{
					"images":           res.Images,
					"sentences":        len(res.Sentences),
					"legacy_image_ids": res.LegacyImageIDs,
				})
			}
			return writePlain("images: %d, sentences: %d, legacy ids: %d\n",
				res.Images, len(res.Sentences), len(res.LegacyImageIDs))
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input .evb file")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "sentence manifest to merge into (default: configured manifest)")
	cmd.Flags().BoolVar(&noManifest, "no-manifest", false, "restore images only, leave the manifest untouched")

	return cmd
}
