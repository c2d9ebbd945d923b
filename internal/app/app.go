package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"DesignCatalog/internal/config"
	"DesignCatalog/internal/dedup"
	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/infrastructure/langdetect"
	"DesignCatalog/internal/infrastructure/parser"
	"DesignCatalog/internal/infrastructure/scheduler"
	"DesignCatalog/internal/infrastructure/storage"
	"DesignCatalog/internal/infrastructure/telegram"
	"DesignCatalog/internal/logging"
	"DesignCatalog/internal/metrics"
	"DesignCatalog/internal/normalize"
	"DesignCatalog/internal/ports"
	"DesignCatalog/internal/relevance"
	"DesignCatalog/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	tables       *storage.TableStore
	catalog      *storage.FileCatalog
	history      *storage.HistoryStore
	normalizer   *normalize.Normalizer
	scorer       *relevance.Scorer
	deduplicator *dedup.Deduplicator
	pipeline     *usecase.Pipeline
}

// New builds the application from a validated configuration. The run
// history is optional: when its database cannot be opened the failure is
// logged and runs proceed without it.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	mode, err := dedup.ParseMode(cfg.Deduplication.Mode)
	if err != nil {
		return nil, &config.ConfigurationError{Key: "deduplication.mode", Reason: err.Error()}
	}

	client := &http.Client{Timeout: cfg.Acquisition.Timeout}
	registry, err := parser.NewRegistry(client, adapterSpecs(cfg.Adapters))
	if err != nil {
		return nil, &config.ConfigurationError{Key: "adapters", Reason: err.Error()}
	}

	source := parser.NewStrategySource(registry, parser.SourceOptions{
		Pause:       cfg.Pause,
		Parallelism: cfg.Acquisition.Parallelism,
	}, baseLogger.With("component", "source"))

	tables := storage.NewTableStore()
	application := &Application{
		cfg:          cfg,
		logger:       baseLogger,
		tables:       tables,
		catalog:      storage.NewFileCatalog(cfg.Files.Catalog, tables),
		normalizer:   normalize.New(baseLogger.With("component", "normalize")),
		deduplicator: dedup.New(mode, baseLogger.With("component", "dedup")),
	}
	application.scorer = relevance.NewScorer(
		langdetect.New(cfg.Filtering.RequireReliable),
		baseLogger.With("component", "relevance"),
		relevance.Options{
			ExtraRelevantTerms:  cfg.Filtering.ExtraRelevantTerms,
			ExtraExclusionTerms: cfg.Filtering.ExtraExclusionTerms,
		},
	)

	var history ports.RunHistory
	if cfg.History.Path != "" {
		store, err := storage.OpenHistory(cfg.History.Path)
		if err != nil {
			baseLogger.Warn("run history disabled", "path", cfg.History.Path, "error", err)
		} else {
			application.history = store
			history = store
		}
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		tg := cfg.Notifications.Telegram
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID, tg.APIBase)
	}

	application.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Config:       cfg,
		Source:       source,
		Normalizer:   application.normalizer,
		Scorer:       application.scorer,
		Deduplicator: application.deduplicator,
		Artifacts:    tables,
		Catalog:      application.catalog,
		History:      history,
		Observer:     metrics.NewRecorder(cfg.Metrics.Textfile, baseLogger.With("component", "metrics")),
		Notifier:     notifier,
		Logger:       baseLogger.With("component", "pipeline"),
	})
	return application, nil
}

func adapterSpecs(adapters []config.AdapterConfig) []parser.AdapterSpec {
	specs := make([]parser.AdapterSpec, 0, len(adapters))
	for _, a := range adapters {
		specs = append(specs, parser.AdapterSpec{Key: a.Key, Kind: a.Kind, URL: a.URL, Journal: a.Journal})
	}
	return specs
}

// Config returns the configuration the application was built with.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Close releases the history database.
func (a *Application) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) (domain.RunSummary, error) {
	return a.pipeline.Run(ctx)
}

// Search performs a manual pipeline execution.
func (a *Application) Search(ctx context.Context, req usecase.SearchRequest) (domain.RunSummary, error) {
	return a.pipeline.Search(ctx, req)
}

// Schedule runs the pipeline on the configured interval until ctx is done
// or the process receives SIGINT/SIGTERM. metricsAddr, when set, exposes
// /metrics for the lifetime of the schedule.
func (a *Application) Schedule(ctx context.Context, metricsAddr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, metricsAddr, a.logger.With("component", "metrics")); err != nil {
				a.logger.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	runs := make(chan usecase.RunResult)
	sched := usecase.NewScheduler(scheduler.NewIntervalScheduler(a.cfg.Schedule.Interval), a.pipeline, runs)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "interval", a.cfg.Schedule.Interval)

	for {
		select {
		case result := <-runs:
			if result.Err != nil {
				a.logger.Error("scheduled run failed", "trigger", result.Trigger, "error", result.Err)
			}
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := sched.Stop(stopCtx); err != nil {
				return fmt.Errorf("stop scheduler: %w", err)
			}
			a.logger.Info("scheduler stopped")
			return nil
		}
	}
}

// NormalizeFile normalizes a raw-results file into a catalog-shaped file.
func (a *Application) NormalizeFile(ctx context.Context, input, output string) (normalize.Stats, error) {
	raws, err := a.tables.ReadRaw(ctx, input)
	if err != nil {
		return normalize.Stats{}, fmt.Errorf("read %s: %w", input, err)
	}
	batch, stats, err := a.normalizer.Normalize(ctx, raws)
	if err != nil {
		return stats, err
	}
	if err := a.tables.WriteBatch(ctx, output, batch); err != nil {
		return stats, fmt.Errorf("write %s: %w", output, err)
	}
	return stats, nil
}

// FilterFile scores a normalized file and writes the relevant rows.
func (a *Application) FilterFile(ctx context.Context, input, output string) (relevance.FilterResult, error) {
	batch, err := a.tables.ReadBatch(ctx, input)
	if err != nil {
		return relevance.FilterResult{}, fmt.Errorf("read %s: %w", input, err)
	}
	if batch.Len() == 0 {
		return relevance.FilterResult{}, fmt.Errorf("%s: %w", input, domain.ErrEmptyBatch)
	}
	result := a.scorer.Filter(ctx, batch)
	if err := a.tables.WriteBatch(ctx, output, result.Batch); err != nil {
		return result, fmt.Errorf("write %s: %w", output, err)
	}
	return result, nil
}

// DedupReport is the outcome of a stand-alone reconciliation.
type DedupReport struct {
	Result   dedup.Result
	Catalog  dedup.Stats
	New      dedup.Stats
	Seeded   bool
	Replaced bool
}

// DedupFile reconciles a filtered file against the catalog and writes the
// new rows. createBase seeds a missing catalog from the input instead.
func (a *Application) DedupFile(ctx context.Context, input, output string, createBase bool) (DedupReport, error) {
	candidates, err := a.tables.ReadBatch(ctx, input)
	if err != nil {
		return DedupReport{}, fmt.Errorf("read %s: %w", input, err)
	}

	unlock, err := a.catalog.Lock(ctx)
	if err != nil {
		return DedupReport{}, err
	}
	defer func() {
		if err := unlock(); err != nil {
			a.logger.Warn("catalog unlock failed", "error", err)
		}
	}()

	if createBase {
		if _, err := os.Stat(a.catalog.Path()); err == nil {
			return DedupReport{}, fmt.Errorf("catalog %s already exists", a.catalog.Path())
		} else if !errors.Is(err, os.ErrNotExist) {
			return DedupReport{}, fmt.Errorf("check catalog: %w", err)
		}
		seeded := dedup.New(dedup.ModeAutoMerge, a.logger).Reconcile(candidates, nil)
		base := domain.Batch{Columns: candidates.Columns, Records: seeded.Catalog}
		if err := a.catalog.Replace(ctx, base); err != nil {
			return DedupReport{}, err
		}
		return DedupReport{Result: seeded, Catalog: dedup.Statistics(seeded.Catalog), Seeded: true}, nil
	}

	catalog, err := a.catalog.Load(ctx)
	if err != nil {
		return DedupReport{}, err
	}
	result := a.deduplicator.ReconcileCatalog(candidates, catalog)
	report := DedupReport{
		Result:  result,
		Catalog: dedup.Statistics(catalog.Records),
		New:     dedup.Statistics(result.New.Records),
	}

	if err := a.tables.WriteBatch(ctx, output, result.New); err != nil {
		return report, fmt.Errorf("write %s: %w", output, err)
	}
	if result.CatalogChanged {
		columns := catalog.Columns
		if len(columns) == 0 {
			columns = domain.CatalogColumns
		}
		if err := a.catalog.Replace(ctx, domain.Batch{Columns: columns, Records: result.Catalog}); err != nil {
			return report, err
		}
		report.Replaced = true
	}
	return report, nil
}

// FileStatus describes one configured artifact on disk.
type FileStatus struct {
	Name    string
	Path    string
	Exists  bool
	Size    int64
	ModTime time.Time
}

// Status summarizes the configuration, artifacts and recent runs.
type Status struct {
	ConfigSource string
	Repositories int
	Terms        int
	Mode         string
	Files        []FileStatus
	RecentRuns   []domain.RunRecord
}

// Status inspects artifacts and the run history.
func (a *Application) Status(ctx context.Context, recent int) (Status, error) {
	status := Status{
		ConfigSource: a.cfg.Source,
		Repositories: len(a.cfg.Repos),
		Terms:        len(a.cfg.Terms),
		Mode:         string(a.deduplicator.Mode()),
	}
	files := []struct{ name, path string }{
		{"raw_results", a.cfg.Files.RawResults},
		{"normalized_results", a.cfg.Files.NormalizedResults},
		{"filtered_results", a.cfg.Files.FilteredResults},
		{"new_records", a.cfg.Files.NewRecords},
		{"catalog", a.cfg.Files.Catalog},
		{"history", a.cfg.History.Path},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		fs := FileStatus{Name: f.name, Path: filepath.Clean(f.path)}
		if info, err := os.Stat(f.path); err == nil {
			fs.Exists = true
			fs.Size = info.Size()
			fs.ModTime = info.ModTime()
		}
		status.Files = append(status.Files, fs)
	}

	if a.history != nil {
		runs, err := a.history.Recent(ctx, recent)
		if err != nil {
			return status, fmt.Errorf("load run history: %w", err)
		}
		status.RecentRuns = runs
	}
	return status, nil
}
