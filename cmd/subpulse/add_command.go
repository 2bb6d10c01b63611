package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"subpulse/internal/config"
	"subpulse/internal/queue"
)

var videoExtensions = map[string]struct{}{
	".mkv":  {},
	".mp4":  {},
	".avi":  {},
	".webm": {},
	".mov":  {},
}

var subtitleExtensions = map[string]struct{}{
	".srt": {},
	".vtt": {},
	".ass": {},
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var seriesFlag string
	var titleFlag string
	var episodeFlag int
	var dirFlag bool

	cmd := &cobra.Command{
		Use:   "add <video> <subtitle> | add --dir <directory>",
		Short: "Queue a video and its subtitle file for enrichment",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(cfg *config.Config, store *queue.Store) error {
				if dirFlag {
					if len(args) != 1 {
						return errors.New("--dir takes a single directory argument")
					}
					return addDirectory(cmd, store, args[0], seriesFlag)
				}
				if len(args) != 2 {
					return errors.New("provide a video path and a subtitle path, or use --dir")
				}
				video, err := resolveFile(args[0], videoExtensions, "video")
				if err != nil {
					return err
				}
				sub, err := resolveFile(args[1], subtitleExtensions, "subtitle")
				if err != nil {
					return err
				}
				item, err := store.NewItem(cmd.Context(), video, sub, titleFlag, seriesFlag, episodeFlag)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued item #%d (%s)\n", item.ID, item.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&seriesFlag, "series", "", "Series identifier for the queued episodes")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Override the title inferred from the filename")
	cmd.Flags().IntVar(&episodeFlag, "episode", 0, "Episode number (otherwise derived from the title)")
	cmd.Flags().BoolVar(&dirFlag, "dir", false, "Queue every video/subtitle pair found in a directory")
	return cmd
}

// addDirectory pairs videos with subtitles that share a basename and queues
// each pair. Files without a counterpart are reported and skipped.
func addDirectory(cmd *cobra.Command, store *queue.Store, dir, seriesID string) error {
	abs, err := config.ExpandPath(dir)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	videos := map[string]string{}
	subs := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		base := strings.TrimSuffix(name, filepath.Ext(name))
		full := filepath.Join(abs, name)
		if _, ok := videoExtensions[ext]; ok {
			videos[base] = full
		} else if _, ok := subtitleExtensions[ext]; ok {
			subs[base] = full
		}
	}

	bases := make([]string, 0, len(videos))
	for base := range videos {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	out := cmd.OutOrStdout()
	queued := 0
	for _, base := range bases {
		sub, ok := subs[base]
		if !ok {
			fmt.Fprintf(out, "Skipping %s: no matching subtitle\n", filepath.Base(videos[base]))
			continue
		}
		item, err := store.NewItem(cmd.Context(), videos[base], sub, "", seriesID, 0)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Queued item #%d (%s)\n", item.ID, item.Title)
		queued++
	}
	if queued == 0 {
		return fmt.Errorf("no video/subtitle pairs found in %s", abs)
	}
	fmt.Fprintf(out, "Queued %d items\n", queued)
	return nil
}

func resolveFile(path string, allowed map[string]struct{}, kind string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s file does not exist: %s", kind, abs)
		}
		return "", fmt.Errorf("inspect %s file: %w", kind, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", abs)
	}
	ext := strings.ToLower(filepath.Ext(info.Name()))
	if _, ok := allowed[ext]; !ok {
		return "", fmt.Errorf("unsupported %s extension %q", kind, ext)
	}
	return abs, nil
}
