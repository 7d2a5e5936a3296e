package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/ragsync/internal/config"
	"github.com/mschirtzinger/ragsync/internal/history"
	"github.com/mschirtzinger/ragsync/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:     "history",
	GroupID: "info",
	Short:   "List past sync runs",
	Long: `List past sync runs recorded in the local run ledger, newest first.

--since accepts durations ("36h"), day counts ("7d"), dates ("2026-01-02")
and natural language ("yesterday", "3 days ago").

Example usage:
  ragsync history
  ragsync history --since "last week" --collection docs
  ragsync history --limit 5 --failures`,
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.String("since", "", "Only runs started after this time")
	f.Int("limit", 20, "Maximum number of runs to show")
	f.StringP("collection", "c", "", "Only runs for this dataset")
	f.Bool("failures", false, "List failed files of each run")
	f.String("history-db", config.DefaultHistoryDB(), "Run ledger database")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sinceText, _ := cmd.Flags().GetString("since")
	limit, _ := cmd.Flags().GetInt("limit")
	showFailures, _ := cmd.Flags().GetBool("failures")
	collection, _ := cmd.Flags().GetString("collection")

	since, err := history.ParseSince(sinceText, time.Now())
	if err != nil {
		return err
	}

	ui.Init(os.Stdout)

	store, err := history.Open(ctx, v.GetString(config.KeyHistoryDB))
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(ctx, history.Filter{
		Since:      since,
		Collection: collection,
		Limit:      limit,
	})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		total, err := store.Count(ctx)
		if err != nil {
			return err
		}
		if total == 0 {
			fmt.Println("No runs recorded")
		} else {
			fmt.Printf("No matching runs (%d recorded)\n", total)
		}
		return nil
	}

	for _, r := range runs {
		fmt.Printf("%s %s  %s  %s  uploaded %d/%d, skipped %d, failed %d  (%s)\n",
			runStatus(r),
			ui.RenderMuted(r.StartedAt.Local().Format("2006-01-02 15:04:05")),
			ui.RenderAccent(r.Collection),
			r.Dir,
			r.Succeeded, r.Attempted, r.Skipped, r.Failed,
			r.Duration().Round(time.Millisecond))
		if r.Error != "" {
			fmt.Printf("    %s\n", ui.RenderFail(r.Error))
		}

		if !showFailures || r.Failed == 0 {
			continue
		}
		failures, err := store.Failures(ctx, r.ID)
		if err != nil {
			return err
		}
		items := make([]string, 0, len(failures))
		for _, f := range failures {
			items = append(items, fmt.Sprintf("%s (%s)", f.Path, f.Reason))
		}
		ui.List(os.Stdout, items)
	}
	return nil
}

func runStatus(r history.Run) string {
	switch {
	case r.Error != "":
		return ui.RenderFail("✗")
	case r.Failed > 0:
		return ui.RenderWarn("!")
	default:
		return ui.RenderPass("✓")
	}
}
