// Package metrics
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/ports"
)

var (
	StageRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "designcatalog_stage_records_total",
			Help: "Records produced or removed per pipeline stage.",
		},
		[]string{"stage"},
	)
	Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "designcatalog_runs_total",
			Help: "Finished pipeline runs, labeled by outcome.",
		},
		[]string{"outcome"},
	)
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "designcatalog_run_duration_seconds",
			Help:    "Wall time of pipeline runs in seconds.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
	RepositoryErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "designcatalog_repository_errors_total",
			Help: "Failed adapter calls, labeled by repository.",
		},
		[]string{"repository"},
	)
	LastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "designcatalog_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		},
	)
)

func init() {
	prometheus.MustRegister(StageRecords)
	prometheus.MustRegister(Runs)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(RepositoryErrors)
	prometheus.MustRegister(LastRun)
}

// Recorder feeds run summaries into the collectors and optionally writes a
// node_exporter textfile after each run.
type Recorder struct {
	textfile string
	logger   *slog.Logger
}

var _ ports.RunObserver = (*Recorder)(nil)

// NewRecorder returns a recorder; textfile may be empty.
func NewRecorder(textfile string, logger *slog.Logger) *Recorder {
	return &Recorder{textfile: textfile, logger: logger}
}

// ObserveRun updates every collector from the summary.
func (r *Recorder) ObserveRun(summary domain.RunSummary) {
	StageRecords.WithLabelValues("raw").Add(float64(summary.RawCount))
	StageRecords.WithLabelValues("normalized").Add(float64(summary.NormalizedCount))
	StageRecords.WithLabelValues("filtered").Add(float64(summary.FilteredCount))
	StageRecords.WithLabelValues("excluded").Add(float64(summary.ExcludedCount))
	StageRecords.WithLabelValues("irrelevant").Add(float64(summary.IrrelevantCount))
	StageRecords.WithLabelValues("new").Add(float64(summary.NewCount))

	outcome := string(summary.Outcome)
	if summary.State == domain.StateAborted {
		outcome = "aborted"
	}
	Runs.WithLabelValues(outcome).Inc()

	if d := summary.Duration(); d > 0 {
		RunDuration.Observe(d.Seconds())
	}
	for _, repo := range summary.Repositories {
		if n := len(repo.Errors); n > 0 {
			RepositoryErrors.WithLabelValues(repo.Repository).Add(float64(n))
		}
	}

	finished := summary.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	LastRun.Set(float64(finished.Unix()))

	if r.textfile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(r.textfile, prometheus.DefaultGatherer); err != nil && r.logger != nil {
		r.logger.Warn("metrics textfile not written", "path", r.textfile, "error", err)
	}
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if logger != nil {
		logger.Info("exposing prometheus metrics", "address", addr)
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
