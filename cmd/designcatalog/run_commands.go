package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"DesignCatalog/internal/app"
	"DesignCatalog/internal/config"
	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/usecase"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline once over every configured repository and term",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApplication(func(a *app.Application) error {
				summary, err := a.Run(cmd.Context())
				return ctx.printSummary(cmd, summary, err)
			})
		},
	}
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var repos []string
	var terms []string
	var pages int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run the pipeline for chosen repositories and terms",
		Long:  fmt.Sprintf("Manual search: the same pipeline restricted to --repo (display name or adapter key)\n"+
			"and --term, with at most %d pages per term.", config.MaxManualPages),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(terms) == 0 {
				return fmt.Errorf("at least one --term is required")
			}
			if pages < 1 {
				return fmt.Errorf("--pages must be positive")
			}
			if pages > config.MaxManualPages {
				fmt.Fprintf(cmd.ErrOrStderr(), "pages capped at %d\n", config.MaxManualPages)
			}
			return ctx.withApplication(func(a *app.Application) error {
				summary, err := a.Search(cmd.Context(), usecase.SearchRequest{
					Repositories: repos,
					Terms:        terms,
					MaxPages:     pages,
				})
				return ctx.printSummary(cmd, summary, err)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&repos, "repo", "r", nil, "Repository to query (repeatable, default all)")
	cmd.Flags().StringArrayVarP(&terms, "term", "t", nil, "Search term (repeatable)")
	cmd.Flags().IntVarP(&pages, "pages", "p", 5, "Pages per term")
	return cmd
}

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline now and then on the configured interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			addr := strings.TrimSpace(listen)
			if addr == "" {
				addr = cfg.Metrics.Listen
			}
			return ctx.withApplication(func(a *app.Application) error {
				return a.Schedule(cmd.Context(), addr)
			})
		},
	}

	cmd.Flags().StringVar(&listen, "metrics-listen", "", "Address for the /metrics endpoint (overrides metrics.listen)")
	return cmd
}

// printSummary renders the run and turns an aborted run into a command
// error.
func (c *commandContext) printSummary(cmd *cobra.Command, summary domain.RunSummary, runErr error) error {
	if c.jsonOutput() {
		if err := writeJSON(cmd, toSummaryJSON(summary)); err != nil {
			return err
		}
	} else {
		renderSummary(cmd.OutOrStdout(), summary)
	}
	if runErr != nil {
		return runErr
	}
	if summary.State == domain.StateAborted {
		return fmt.Errorf("run aborted: %s", summary.AbortReason)
	}
	return nil
}
