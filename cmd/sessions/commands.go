package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

const stampLayout = "2006-01-02 15:04"

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := ctx.open()
			if err != nil {
				return err
			}
			summaries, err := store.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No sessions stored")
				return nil
			}
			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, []string{s.SessionID, string(s.Status), s.CreatedAt.Local().Format(stampLayout)})
			}
			fmt.Fprintln(out, renderTable([]string{"Session", "Status", "Created"}, rows, nil))
			fmt.Fprintf(out, "%d sessions\n", len(summaries))
			return nil
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored session and its assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to delete all sessions without --yes")
			}
			store, _, err := ctx.open()
			if err != nil {
				return err
			}
			res, err := store.ClearAll(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Deleted %d objects\n", res.DeletedCount)
			if len(res.Errors) > 0 {
				rows := make([][]string, 0, len(res.Errors))
				for i, msg := range res.Errors {
					rows = append(rows, []string{strconv.Itoa(i + 1), msg})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "Error"}, rows, []columnAlignment{alignRight, alignLeft}))
				return fmt.Errorf("%d objects could not be deleted", len(res.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm deletion of all sessions")
	return cmd
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete session objects older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, retention, err := ctx.open()
			if err != nil {
				return err
			}
			if olderThan > 0 {
				retention = olderThan
			}
			deleted, err := store.Cleanup(cmd.Context(), retention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d objects older than %s\n", deleted, retention)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "retention override (default SESSION_RETENTION)")
	return cmd
}
