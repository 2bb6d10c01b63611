package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"subpulse/internal/config"
	"subpulse/internal/library"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string
	var titleFlag string

	cmd := &cobra.Command{
		Use:   "export <series>",
		Short: "Export a series' stored analyses to a JSON archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(_ *config.Config, store *library.Store) error {
				seriesID := strings.TrimSpace(args[0])
				data, err := store.Export(cmd.Context(), seriesID, titleFlag)
				if err != nil {
					return err
				}

				target := strings.TrimSpace(outputFlag)
				if target == "" {
					target = seriesID + ".subpulse.json"
				}
				target, err = config.ExpandPath(target)
				if err != nil {
					return err
				}
				if err := os.WriteFile(target, data, 0o644); err != nil {
					return fmt.Errorf("write archive: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", seriesID, target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Archive destination (defaults to <series>.subpulse.json)")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Series title recorded in the archive")
	return cmd
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var offsetFlag float64

	cmd := &cobra.Command{
		Use:   "import <archive>",
		Short: "Import a JSON archive into the episode store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(_ *config.Config, store *library.Store) error {
				path, err := config.ExpandPath(args[0])
				if err != nil {
					return err
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read archive: %w", err)
				}
				if offsetFlag != 0 {
					if data, err = overrideArchiveOffset(data, offsetFlag); err != nil {
						return err
					}
				}
				count, err := store.Import(cmd.Context(), data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d episodes from %s\n", count, filepath.Base(path))
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&offsetFlag, "offset", 0, "Apply this subtitle offset (seconds) to every imported episode")
	return cmd
}

// overrideArchiveOffset rewrites the archive's global offset so the store
// applies it to every episode on import.
func overrideArchiveOffset(data []byte, offset float64) ([]byte, error) {
	var archive library.Archive
	if err := json.Unmarshal(data, &archive); err != nil {
		return nil, fmt.Errorf("parse archive: %w", err)
	}
	archive.Meta.GlobalOffset = offset
	return json.Marshal(archive)
}
