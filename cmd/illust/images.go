package main

import (
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"illust/internal/config"
	"illust/internal/store"
)

func newImagesCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Inspect and edit the image store directly",
	}

	cmd.AddCommand(
		newImagesListCmd(cfg, jsonOutput),
		newImagesGetCmd(cfg),
		newImagesPutCmd(cfg),
		newImagesRmCmd(cfg),
	)

	return cmd
}

func newImagesListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored image keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(st *store.Store) error {
				keys, err := st.ListKeys(cmd.Context())
				if err != nil {
					return err
				}
				sort.Strings(keys)
				if *jsonOutput {
					return writeJSON(map[string]any{"count": len(keys), "keys": keys})
				}
				for _, key := range keys {
					if err := writePlain("%s\n", key); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newImagesGetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the stored data URI for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(st *store.Store) error {
				value, ok, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("no image stored for key " + args[0])
				}
				return writePlain("%s\n", value)
			})
		},
	}
}

func newImagesPutCmd(cfg *config.Config) *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "put <key> [value]",
		Short: "Store a data URI under a key",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value string
			switch {
			case fromFile != "":
				data, err := os.ReadFile(fromFile)
				if err != nil {
					return err
				}
				value = strings.TrimSpace(string(data))
			case len(args) == 2:
				value = args[1]
			default:
				return errors.New("provide a value argument or --from-file")
			}
			return withStore(cfg, func(st *store.Store) error {
				return st.Put(cmd.Context(), args[0], value)
			})
		},
	}

	cmd.Flags().StringVar(&fromFile, "from-file", "", "read the data URI from a file")

	return cmd
}

func newImagesRmCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <key>...",
		Short: "Delete stored images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(st *store.Store) error {
				for _, key := range args {
					if err := st.Delete(cmd.Context(), key); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
