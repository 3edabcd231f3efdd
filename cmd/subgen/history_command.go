package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
				return nil
			}

			rows := make([]table.Row, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, table.Row{
					run.StartedAt.Local().Format(time.DateTime),
					run.VideoID,
					run.Title,
					run.ASRBackend,
					run.SubtitleMode,
					run.TargetLanguage,
					run.Status,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				table.Row{"Started", "Video", "Title", "ASR", "Mode", "Target", "Status"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}
