package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subpulse/internal/config"
	"subpulse/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(_ *config.Config, store *queue.Store) error {
				stats, err := store.Summarize(cmd.Context())
				if err != nil {
					return err
				}
				if stats.Total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				view := newTableView(textCol("Status"), numCol("Count"))
				view.addRow(string(queue.StatusPending), strconv.Itoa(stats.Pending))
				view.addRow(string(queue.StatusProcessing), strconv.Itoa(stats.Processing))
				view.addRow(string(queue.StatusCompleted), strconv.Itoa(stats.Completed))
				view.addRow(string(queue.StatusFailed), strconv.Itoa(stats.Failed))
				fmt.Fprintln(cmd.OutOrStdout(), view.render())
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(_ *config.Config, store *queue.Store) error {
				statuses := make([]queue.Status, 0, len(listStatuses))
				for _, raw := range listStatuses {
					status, ok := queue.ParseStatus(raw)
					if !ok {
						return fmt.Errorf("unknown queue status %q (valid: %s)", raw, statusList())
					}
					statuses = append(statuses, status)
				}

				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				view := newTableView(
					numCol("ID"), textCol("Title"), textCol("Status"),
					textCol("Progress"), textCol("Created"),
				)
				for _, item := range items {
					view.addRow(
						strconv.FormatInt(item.ID, 10),
						item.Title,
						string(item.Status),
						formatProgress(item),
						item.CreatedAt.Local().Format(time.DateTime),
					)
				}
				fmt.Fprintln(cmd.OutOrStdout(), view.render())
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func statusList() string {
	known := queue.AllStatuses()
	names := make([]string, len(known))
	for i, status := range known {
		names[i] = string(status)
	}
	return strings.Join(names, ", ")
}

func formatProgress(item *queue.Item) string {
	if item.Phase == "" {
		return fmt.Sprintf("%d%%", item.Progress)
	}
	return fmt.Sprintf("%d%% %s", item.Progress, item.Phase)
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withQueue(func(_ *config.Config, store *queue.Store) error {
				removed, err := store.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("queue item %d not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed item #%d\n", id)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Requeue a failed item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withQueue(func(_ *config.Config, store *queue.Store) error {
				retried, err := store.Retry(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !retried {
					return fmt.Errorf("queue item %d is not in a failed state", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued item #%d\n", id)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			return ctx.withQueue(func(_ *config.Config, store *queue.Store) error {
				var removed int64
				var err error
				var label string
				switch {
				case clearCompleted:
					removed, err = store.ClearCompleted(cmd.Context())
					label = "completed items"
				case clearFailed:
					removed, err = store.ClearFailed(cmd.Context())
					label = "failed items"
				default:
					removed, err = store.Clear(cmd.Context())
					label = "queue items"
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s\n", removed, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Only clear completed items")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Only clear failed items")
	return cmd
}
