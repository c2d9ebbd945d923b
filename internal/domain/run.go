package domain

import (
	"strconv"
	"time"
)

// State is a pipeline stage.
type State string

const (
	StateAcquiring   State = "Acquiring"
	StateNormalizing State = "Normalizing"
	StateFiltering   State = "Filtering"
	StateReconciling State = "Reconciling"
	StateDone        State = "Done"
	StateAborted     State = "Aborted"
)

// Outcome qualifies a finished run.
type Outcome string

const (
	OutcomeCompleted         Outcome = "completed"
	OutcomeNoResults         Outcome = "no_results"
	OutcomePersistenceFailed Outcome = "persistence_failed"
)

// RunSummary is the structured result of one pipeline run.
type RunSummary struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	State       State
	AbortReason string
	Outcome     Outcome
	Mode        string

	RawCount        int
	NormalizedCount int
	FilteredCount   int
	ExcludedCount   int
	IrrelevantCount int
	NewCount        int
	CollapsedCount  int

	Repositories []RepositoryStats
	NewRecords   []CatalogRecord
	Warnings     []string

	RawFile        string
	NormalizedFile string
	FilteredFile   string
	NewRecordsFile string
	CatalogFile    string
}

// Map flattens the summary into the key/value form consumed by presentation
// layers.
func (s RunSummary) Map() map[string]string {
	return map[string]string{
		"raw_count":         strconv.Itoa(s.RawCount),
		"normalized_count":  strconv.Itoa(s.NormalizedCount),
		"filtered_count":    strconv.Itoa(s.FilteredCount),
		"new_records_count": strconv.Itoa(s.NewCount),
		"raw_file":          s.RawFile,
		"filtered_file":     s.FilteredFile,
		"new_records_file":  s.NewRecordsFile,
		"catalog_file":      s.CatalogFile,
		"outcome":           string(s.Outcome),
	}
}

// Duration is the wall time between start and finish.
func (s RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Warn appends a non-fatal message to the summary.
func (s *RunSummary) Warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// RunRecord is a persisted history row.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	State      State
	Outcome    Outcome
	Mode       string
	RawCount   int
	Filtered   int
	NewCount   int
	Failed     int
}

// RecordFromSummary projects a summary onto its history row.
func RecordFromSummary(s RunSummary) RunRecord {
	failed := 0
	for _, repo := range s.Repositories {
		if repo.Failed() {
			failed++
		}
	}
	return RunRecord{
		ID:         s.RunID,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		State:      s.State,
		Outcome:    s.Outcome,
		Mode:       s.Mode,
		RawCount:   s.RawCount,
		Filtered:   s.FilteredCount,
		NewCount:   s.NewCount,
		Failed:     failed,
	}
}
