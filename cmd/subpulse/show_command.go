package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subpulse/internal/config"
	"subpulse/internal/library"
	"subpulse/internal/timeline"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var fullFlag bool

	cmd := &cobra.Command{
		Use:   "show <series> [episode]",
		Short: "Show stored analysis for a series or a single episode",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(_ *config.Config, store *library.Store) error {
				seriesID := strings.TrimSpace(args[0])
				if len(args) == 1 {
					return showSeries(cmd, store, seriesID)
				}
				episode, err := strconv.Atoi(args[1])
				if err != nil || episode <= 0 {
					return fmt.Errorf("invalid episode number %q", args[1])
				}
				return showEpisode(cmd, store, seriesID, episode, fullFlag)
			})
		},
	}

	cmd.Flags().BoolVar(&fullFlag, "full", false, "Print every dialogue line instead of a summary")
	return cmd
}

func showSeries(cmd *cobra.Command, store *library.Store, seriesID string) error {
	records, err := store.BulkGet(cmd.Context(), seriesID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No episodes stored for %s\n", seriesID)
		return nil
	}

	view := newTableView(
		numCol("Episode"), textCol("Title"), numCol("Lines"),
		numCol("Offset"), textCol("Updated"),
	)
	for _, record := range records {
		view.addRow(
			strconv.Itoa(record.Episode),
			record.Analysis.Title,
			strconv.Itoa(len(record.Analysis.Nodes)),
			fmt.Sprintf("%+.2fs", record.SubtitleOffset),
			record.UpdatedAt.Local().Format(time.DateTime),
		)
	}
	fmt.Fprintln(cmd.OutOrStdout(), view.render())
	return nil
}

func showEpisode(cmd *cobra.Command, store *library.Store, seriesID string, episode int, full bool) error {
	record, err := store.Get(cmd.Context(), seriesID, episode)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("no analysis stored for %s episode %d", seriesID, episode)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s episode %d: %s\n", seriesID, episode, record.Analysis.Title)
	fmt.Fprintf(out, "Lines: %d  Offset: %+.2fs  Updated: %s\n",
		len(record.Analysis.Nodes), record.SubtitleOffset, record.UpdatedAt.Local().Format(time.DateTime))

	nodes := record.Analysis.Nodes
	if !full && len(nodes) > 10 {
		nodes = nodes[:10]
		fmt.Fprintf(out, "Showing the first 10 lines (use --full for all %d)\n", len(record.Analysis.Nodes))
	}
	for _, node := range nodes {
		fmt.Fprintf(out, "[%s] %s\n", formatTimestamp(node.Start), joinTokens(node.SourceTokens))
		if gloss := joinTokens(node.TargetTokens); gloss != "" {
			fmt.Fprintf(out, "         %s\n", gloss)
		}
	}
	return nil
}

func joinTokens(tokens []timeline.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token.Text != "" {
			parts = append(parts, token.Text)
		}
	}
	return strings.Join(parts, " ")
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
