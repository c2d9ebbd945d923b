package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"DesignCatalog/internal/app"
)

func newNormalizeCommand(ctx *commandContext) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize a raw-results file into the catalog schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			in := firstNonEmpty(input, cfg.Files.RawResults)
			out := firstNonEmpty(output, cfg.Files.NormalizedResults, "data/normalized_results.csv")

			return ctx.withApplication(func(a *app.Application) error {
				stats, err := a.NormalizeFile(cmd.Context(), in, out)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{
						"input":        in,
						"output":       out,
						"original":     stats.Original,
						"transformed":  stats.Transformed,
						"dropped":      stats.Dropped,
						"success_rate": stats.SuccessRate(),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Original", "Transformed", "Dropped", "Success"},
					[][]string{{
						strconv.Itoa(stats.Original),
						strconv.Itoa(stats.Transformed),
						strconv.Itoa(stats.Dropped),
						fmt.Sprintf("%.1f%%", stats.SuccessRate()),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
				))
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Raw-results file (default files.raw_results)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Normalized file (default files.normalized_results)")
	return cmd
}

func newFilterCommand(ctx *commandContext) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Score a normalized file and keep the relevant Portuguese-checked rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			in := firstNonEmpty(input, cfg.Files.NormalizedResults, "data/normalized_results.csv")
			out := firstNonEmpty(output, cfg.Files.FilteredResults)

			return ctx.withApplication(func(a *app.Application) error {
				result, err := a.FilterFile(cmd.Context(), in, out)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{
						"input":      in,
						"output":     out,
						"kept":       result.Batch.Len(),
						"excluded":   result.Excluded,
						"irrelevant": result.Irrelevant,
						"unverified": result.Unverified,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Kept", "Excluded", "Irrelevant", "Language unverified"},
					[][]string{{
						strconv.Itoa(result.Batch.Len()),
						strconv.Itoa(result.Excluded),
						strconv.Itoa(result.Irrelevant),
						strconv.Itoa(result.Unverified),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
				))
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Normalized file (default files.normalized_results)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Filtered file (default files.filtered_results)")
	return cmd
}

func newDedupCommand(ctx *commandContext) *cobra.Command {
	var input, output string
	var createBase bool

	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Reconcile a filtered file against the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			in := firstNonEmpty(input, cfg.Files.FilteredResults)
			out := firstNonEmpty(output, cfg.Files.NewRecords)

			return ctx.withApplication(func(a *app.Application) error {
				report, err := a.DedupFile(cmd.Context(), in, out, createBase)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{
						"input":            in,
						"output":           out,
						"catalog":          cfg.Files.Catalog,
						"seeded":           report.Seeded,
						"catalog_records":  report.Catalog.Total,
						"catalog_sources":  report.Catalog.UniqueSources(),
						"new_records":      report.Result.New.Len(),
						"duplicates":       report.Result.Duplicates,
						"collapsed":        report.Result.CollapsedExisting,
						"catalog_replaced": report.Replaced,
						"degraded":         report.Result.Degraded,
					})
				}

				w := cmd.OutOrStdout()
				if report.Seeded {
					fmt.Fprintf(w, "Created catalog %s with %d records from %d sources\n",
						cfg.Files.Catalog, report.Catalog.Total, report.Catalog.UniqueSources())
					return nil
				}
				fmt.Fprintln(w, renderTable(
					[]string{"Catalog", "Sources", "Categories", "New", "Duplicates", "Catalog rewritten"},
					[][]string{{
						strconv.Itoa(report.Catalog.Total),
						strconv.Itoa(report.Catalog.UniqueSources()),
						strconv.Itoa(report.Catalog.UniqueCategories()),
						strconv.Itoa(report.Result.New.Len()),
						strconv.Itoa(report.Result.Duplicates),
						yesNo(report.Replaced),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				if report.New.Total > 0 {
					renderNewRecords(w, report.New)
				}
				if report.Result.Degraded {
					fmt.Fprintln(w, "warning: catalog has no link column, every row was reported as new")
				}
				fmt.Fprintf(w, "Wrote %s\n", out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Filtered file (default files.filtered_results)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "New-records file (default files.new_records)")
	cmd.Flags().BoolVar(&createBase, "create-base", false, "Seed a missing catalog from the input file")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
