package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/roster/internal/cli"
	"github.com/Veraticus/roster/internal/storage"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage database checkpoints",
		Long: `Create, list, restore, and delete database checkpoints.

A checkpoint is taken automatically before every import commit, so an import
can be undone by restoring the checkpoint taken just before it.`,
		Example: `  # Snapshot before a bulk change
  roster checkpoint create --tag before-cleanup

  # Undo the last import
  roster checkpoint list
  roster checkpoint restore auto-import-2026-03-01-090000`,
	}

	cmd.AddCommand(createCheckpointCmd())
	cmd.AddCommand(listCheckpointsCmd())
	cmd.AddCommand(restoreCheckpointCmd())
	cmd.AddCommand(deleteCheckpointCmd())

	return cmd
}

// withCheckpoints opens the database and hands its checkpoint manager to fn.
func withCheckpoints(ctx context.Context, fn func(*storage.CheckpointManager) error) error {
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	manager, err := store.NewCheckpointManager()
	if err != nil {
		return fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	return fn(manager)
}

func createCheckpointCmd() *cobra.Command {
	var tag, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new checkpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				info, err := manager.Create(ctx, tag, description)
				if err != nil {
					return fmt.Errorf("failed to create checkpoint: %w", err)
				}
				say(cmd.OutOrStdout(), fmt.Sprintf("%s Created checkpoint %s (%s)",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.InfoStyle.Render(info.ID),
					formatFileSize(info.FileSize)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "checkpoint name (generated when empty)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "what the checkpoint is for")
	return cmd
}

func listCheckpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all checkpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				checkpoints, err := manager.List(ctx)
				if err != nil {
					return fmt.Errorf("failed to list checkpoints: %w", err)
				}
				if len(checkpoints) == 0 {
					say(cmd.OutOrStdout(), cli.SubtitleStyle.Render("No checkpoints found."))
					return nil
				}

				now := time.Now()
				rows := make([][]string, 0, len(checkpoints))
				for _, cp := range checkpoints {
					kind := "manual"
					if cp.IsAuto {
						kind = "auto"
					}
					rows = append(rows, []string{
						cp.ID,
						formatRelativeTime(cp.CreatedAt, now),
						formatFileSize(cp.FileSize),
						strconv.Itoa(cp.Employees()),
						strconv.Itoa(cp.Branches()),
						kind,
					})
				}
				say(cmd.OutOrStdout(), cli.RenderTable(
					[]string{"Name", "Created", "Size", "Employees", "Branches", "Type"}, rows))
				return nil
			})
		},
	}
}

func restoreCheckpointCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <checkpoint-id>",
		Short: "Restore the database from a checkpoint",
		Long: `Replace the current database with a checkpoint. The current database is
backed up next to it first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				info, err := manager.Get(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to get checkpoint: %w", err)
				}

				if !force {
					out := cmd.OutOrStdout()
					say(out, cli.FormatWarning("This replaces the current database with checkpoint "+id))
					say(out, fmt.Sprintf("  Created:   %s", info.CreatedAt.Local().Format("2006-01-02 15:04:05")))
					say(out, fmt.Sprintf("  Employees: %d", info.Employees()))
					ok, err := cli.NewPrompter(cmd.InOrStdin(), out).Confirm(ctx, "Continue?")
					if err != nil {
						return err
					}
					if !ok {
						say(out, cli.SubtitleStyle.Render("Restore cancelled."))
						return nil
					}
				}

				if err := manager.Restore(ctx, id); err != nil {
					return fmt.Errorf("failed to restore checkpoint: %w", err)
				}
				say(cmd.OutOrStdout(), fmt.Sprintf("%s Restored from checkpoint %s",
					cli.SuccessStyle.Render(cli.SuccessIcon), cli.InfoStyle.Render(id)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

func deleteCheckpointCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <checkpoint-id>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				info, err := manager.Get(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to get checkpoint: %w", err)
				}

				if !force {
					out := cmd.OutOrStdout()
					say(out, cli.FormatWarning(fmt.Sprintf("This permanently deletes checkpoint %s (%s)", id, formatFileSize(info.FileSize))))
					ok, err := cli.NewPrompter(cmd.InOrStdin(), out).Confirm(ctx, "Continue?")
					if err != nil {
						return err
					}
					if !ok {
						say(out, cli.SubtitleStyle.Render("Deletion cancelled."))
						return nil
					}
				}

				if err := manager.Delete(ctx, id); err != nil {
					return fmt.Errorf("failed to delete checkpoint: %w", err)
				}
				say(cmd.OutOrStdout(), fmt.Sprintf("%s Deleted checkpoint %s",
					cli.SuccessStyle.Render(cli.SuccessIcon), cli.InfoStyle.Render(id)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}
