package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"illust/internal/config"
	"illust/internal/snapshot"
	"illust/internal/store"
)

func newSnapshotCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export and import segmented image-only snapshot chunks",
	}

	cmd.AddCommand(
		newSnapshotExportCmd(cfg, jsonOutput),
		newSnapshotImportCmd(cfg, jsonOutput),
	)

	return cmd
}

func newSnapshotExportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		outputDir string
		chunkSize int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the store as numbered chunk files, bounded memory per chunk",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chunkSize <= 0 {
				chunkSize = cfg.ChunkSize
			}
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return err
			}

			var paths []string
			err := withStore(cfg, func(st *store.Store) error {
				it, err := snapshot.Export(cmd.Context(), st, snapshot.Options{
					ChunkSize:  chunkSize,
					OnProgress: progressPrinter("snapshotting"),
				})
				if err != nil {
					return err
				}
				for i := 1; ; i++ {
					buf, err := it.Next(cmd.Context())
					if err != nil {
						return err
					}
					if buf == nil {
						return nil
					}
					path := filepath.Join(outputDir, fmt.Sprintf("images-%04d.db", i))
					if err := os.WriteFile(path, buf, 0o644); err != nil {
						return err
					}
					paths = append(paths, path)
				}
			})
			if err != nil {
				return err
			}

			if *jsonOutput {
				return writeJSON(map[string]any{"chunks": len(paths), "files": paths})
			}
			return writePlain("wrote %d chunk(s) to %s\n", len(paths), outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "snapshot", "directory for chunk files")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "rows per chunk (default: configured chunk size)")

	return cmd
}

func newSnapshotImportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <chunk-file>...",
		Short: "Restore one or more chunk files into the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total := 0
			err := withStore(cfg, func(st *store.Store) error {
				for _, path := range args {
					buf, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					n, err := snapshot.Import(cmd.Context(), st, buf)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					total += n
				}
				return nil
			})
			if err != nil {
				return err
			}

			if *jsonOutput {
				return writeJSON(map[string]any{"images": total})
			}
			return writePlain("restored %d image(s)\n", total)
		},
	}

	return cmd
}
