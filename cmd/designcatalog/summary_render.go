package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"DesignCatalog/internal/dedup"
	"DesignCatalog/internal/domain"
)

type summaryJSON struct {
	RunID        string                `json:"run_id"`
	State        domain.State          `json:"state"`
	Outcome      domain.Outcome        `json:"outcome,omitempty"`
	AbortReason  string                `json:"abort_reason,omitempty"`
	Mode         string                `json:"mode"`
	StartedAt    time.Time             `json:"started_at"`
	FinishedAt   time.Time             `json:"finished_at"`
	Counts       map[string]string     `json:"summary"`
	Excluded     int                   `json:"excluded_count"`
	Irrelevant   int                   `json:"irrelevant_count"`
	Collapsed    int                   `json:"collapsed_count"`
	Repositories []repositoryStatsJSON `json:"repositories"`
	Warnings     []string              `json:"warnings,omitempty"`
}

type repositoryStatsJSON struct {
	Repository string         `json:"repository"`
	Adapter    string         `json:"adapter"`
	Records    int            `json:"records"`
	Terms      map[string]int `json:"terms"`
	Errors     []string       `json:"errors,omitempty"`
}

func toSummaryJSON(s domain.RunSummary) summaryJSON {
	out := summaryJSON{
		RunID:       s.RunID,
		State:       s.State,
		Outcome:     s.Outcome,
		AbortReason: s.AbortReason,
		Mode:        s.Mode,
		StartedAt:   s.StartedAt,
		FinishedAt:  s.FinishedAt,
		Counts:      s.Map(),
		Excluded:    s.ExcludedCount,
		Irrelevant:  s.IrrelevantCount,
		Collapsed:   s.CollapsedCount,
		Warnings:    s.Warnings,
	}
	for _, repo := range s.Repositories {
		out.Repositories = append(out.Repositories, repositoryStatsJSON{
			Repository: repo.Repository,
			Adapter:    repo.Adapter,
			Records:    repo.Records,
			Terms:      repo.Terms,
			Errors:     repo.Errors,
		})
	}
	return out
}

func renderSummary(w io.Writer, s domain.RunSummary) {
	state := string(s.State)
	if s.Outcome != "" {
		state += " (" + string(s.Outcome) + ")"
	}
	fmt.Fprintf(w, "Run %s: %s in %s\n", s.RunID, state, s.Duration().Round(time.Millisecond))
	if s.AbortReason != "" {
		fmt.Fprintf(w, "Aborted: %s\n", s.AbortReason)
	}

	if len(s.Repositories) > 0 {
		rows := make([][]string, 0, len(s.Repositories))
		for _, repo := range s.Repositories {
			rows = append(rows, []string{
				repo.Repository,
				repo.Adapter,
				strconv.Itoa(repo.Records),
				sortedTerms(repo.Terms),
				strconv.Itoa(len(repo.Errors)),
			})
		}
		fmt.Fprintln(w, renderTable(
			[]string{"Repository", "Adapter", "Records", "Per term", "Errors"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight},
		))
	}

	counts := [][]string{
		{"raw", strconv.Itoa(s.RawCount)},
		{"normalized", strconv.Itoa(s.NormalizedCount)},
		{"excluded", strconv.Itoa(s.ExcludedCount)},
		{"irrelevant", strconv.Itoa(s.IrrelevantCount)},
		{"filtered", strconv.Itoa(s.FilteredCount)},
		{"new", strconv.Itoa(s.NewCount)},
	}
	if s.CollapsedCount > 0 {
		counts = append(counts, []string{"collapsed", strconv.Itoa(s.CollapsedCount)})
	}
	fmt.Fprintln(w, renderTable([]string{"Stage", "Records"}, counts, []columnAlignment{alignLeft, alignRight}))

	if len(s.NewRecords) > 0 {
		renderNewRecords(w, dedup.Statistics(s.NewRecords))
	}

	files := [][]string{
		{"raw", s.RawFile},
		{"filtered", s.FilteredFile},
		{"new records", s.NewRecordsFile},
		{"catalog", s.CatalogFile},
	}
	for _, f := range files {
		if f[1] != "" {
			fmt.Fprintf(w, "%-12s %s\n", f[0]+":", f[1])
		}
	}
	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func renderNewRecords(w io.Writer, stats dedup.Stats) {
	rows := make([][]string, 0, stats.UniqueSources())
	for _, c := range stats.Sources() {
		rows = append(rows, []string{c.Name, strconv.Itoa(c.Count)})
	}
	fmt.Fprintln(w, renderTable([]string{"New by source", "Records"}, rows, []columnAlignment{alignLeft, alignRight}))

	rows = rows[:0]
	for _, c := range stats.Categories() {
		rows = append(rows, []string{c.Name, strconv.Itoa(c.Count)})
	}
	fmt.Fprintln(w, renderTable([]string{"New by category", "Records"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func sortedTerms(terms map[string]int) string {
	keys := make([]string, 0, len(terms))
	for k := range terms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, terms[k]))
	}
	return strings.Join(parts, ", ")
}
