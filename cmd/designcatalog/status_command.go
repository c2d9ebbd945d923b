package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"DesignCatalog/internal/app"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration, output files and recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApplication(func(a *app.Application) error {
				status, err := a.Status(cmd.Context(), recent)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, status)
				}
				renderStatus(cmd, status)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&recent, "recent", "n", 5, "Number of recent runs to list")
	return cmd
}

func renderStatus(cmd *cobra.Command, status app.Status) {
	w := cmd.OutOrStdout()
	source := status.ConfigSource
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Fprintf(w, "Config:       %s\n", source)
	fmt.Fprintf(w, "Repositories: %d\n", status.Repositories)
	fmt.Fprintf(w, "Terms:        %d\n", status.Terms)
	fmt.Fprintf(w, "Dedup mode:   %s\n", status.Mode)

	rows := make([][]string, 0, len(status.Files))
	for _, f := range status.Files {
		size, modified := "-", "-"
		if f.Exists {
			size = humanize.IBytes(uint64(f.Size))
			modified = f.ModTime.Format(time.DateTime)
		}
		rows = append(rows, []string{f.Name, f.Path, yesNo(f.Exists), size, modified})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"File", "Path", "Exists", "Size", "Modified"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))

	if len(status.RecentRuns) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}
	runs := make([][]string, 0, len(status.RecentRuns))
	for _, run := range status.RecentRuns {
		runs = append(runs, []string{
			run.StartedAt.Local().Format(time.DateTime),
			string(run.State),
			string(run.Outcome),
			run.Mode,
			strconv.Itoa(run.RawCount),
			strconv.Itoa(run.Filtered),
			strconv.Itoa(run.NewCount),
			strconv.Itoa(run.Failed),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Started", "State", "Outcome", "Mode", "Raw", "Filtered", "New", "Failed repos"},
		runs,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
}
