package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"DesignCatalog/internal/config"
	"DesignCatalog/internal/dedup"
	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/normalize"
	"DesignCatalog/internal/ports"
	"DesignCatalog/internal/relevance"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Config       config.Config
	Source       ports.RecordSource
	Normalizer   *normalize.Normalizer
	Scorer       *relevance.Scorer
	Deduplicator *dedup.Deduplicator
	Artifacts    ports.ArtifactWriter
	Catalog      ports.CatalogStore
	History      ports.RunHistory
	Observer     ports.RunObserver
	Notifier     ports.Notifier
	Logger       *slog.Logger
	Clock        func() time.Time
}

// Pipeline implements the harvesting workflow: acquire, normalize, filter,
// reconcile.
type Pipeline struct {
	cfg          config.Config
	source       ports.RecordSource
	normalizer   *normalize.Normalizer
	scorer       *relevance.Scorer
	deduplicator *dedup.Deduplicator
	artifacts    ports.ArtifactWriter
	catalog      ports.CatalogStore
	history      ports.RunHistory
	observer     ports.RunObserver
	notifier     ports.Notifier
	logger       *slog.Logger
	clock        func() time.Time
}

// SearchRequest narrows a run to chosen repositories, terms and pages.
// Empty fields fall back to the configuration.
type SearchRequest struct {
	Repositories []string
	Terms        []string
	MaxPages     int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	normalizer := deps.Normalizer
	if normalizer == nil {
		normalizer = normalize.New(logger)
	}
	scorer := deps.Scorer
	if scorer == nil {
		scorer = relevance.NewScorer(nil, logger, relevance.Options{})
	}
	deduplicator := deps.Deduplicator
	if deduplicator == nil {
		mode, err := dedup.ParseMode(deps.Config.Deduplication.Mode)
		if err != nil {
			mode = dedup.ModeReview
		}
		deduplicator = dedup.New(mode, logger)
	}

	return &Pipeline{
		cfg:          deps.Config,
		source:       deps.Source,
		normalizer:   normalizer,
		scorer:       scorer,
		deduplicator: deduplicator,
		artifacts:    deps.Artifacts,
		catalog:      deps.Catalog,
		history:      deps.History,
		observer:     deps.Observer,
		notifier:     deps.Notifier,
		logger:       logger,
		clock:        clock,
	}
}

// Run executes the configured pipeline once.
func (p *Pipeline) Run(ctx context.Context) (domain.RunSummary, error) {
	return p.Search(ctx, SearchRequest{})
}

// Search runs the pipeline restricted to the request. Page limits above
// config.MaxManualPages are capped.
func (p *Pipeline) Search(ctx context.Context, req SearchRequest) (domain.RunSummary, error) {
	summary := p.newSummary()

	if err := p.cfg.Validate(); err != nil {
		return p.abort(ctx, summary, err)
	}
	plan, err := p.plan(req)
	if err != nil {
		return p.abort(ctx, summary, err)
	}

	p.execute(ctx, plan, &summary)
	p.finish(ctx, &summary)
	return summary, nil
}

func (p *Pipeline) newSummary() domain.RunSummary {
	return domain.RunSummary{
		RunID:          uuid.NewString(),
		StartedAt:      p.clock(),
		State:          domain.StateAcquiring,
		Mode:           string(p.deduplicator.Mode()),
		RawFile:        p.cfg.Files.RawResults,
		NormalizedFile: p.cfg.Files.NormalizedResults,
		FilteredFile:   p.cfg.Files.FilteredResults,
		NewRecordsFile: p.cfg.Files.NewRecords,
		CatalogFile:    p.cfg.Files.Catalog,
	}
}

func (p *Pipeline) plan(req SearchRequest) (ports.AcquisitionPlan, error) {
	repos := p.cfg.Repos.Select(req.Repositories)
	if len(repos) == 0 {
		return ports.AcquisitionPlan{}, &config.ConfigurationError{
			Key:    "repos",
			Reason: fmt.Sprintf("no configured repository matches %s", strings.Join(req.Repositories, ", ")),
		}
	}

	terms := p.cfg.Terms
	if len(req.Terms) > 0 {
		terms = nil
		for _, term := range req.Terms {
			if term = strings.TrimSpace(term); term != "" {
				terms = append(terms, term)
			}
		}
		if len(terms) == 0 {
			return ports.AcquisitionPlan{}, &config.ConfigurationError{Key: "terms", Reason: "search term is blank"}
		}
	}

	pages := p.cfg.MaxPages
	if req.MaxPages > 0 {
		pages = min(req.MaxPages, config.MaxManualPages)
	}

	plan := ports.AcquisitionPlan{Terms: terms, MaxPages: pages}
	for _, repo := range repos {
		plan.Repositories = append(plan.Repositories, ports.Repository{Name: repo.Name, Adapter: repo.Adapter})
	}
	return plan, nil
}

func (p *Pipeline) abort(ctx context.Context, summary domain.RunSummary, err error) (domain.RunSummary, error) {
	summary.State = domain.StateAborted
	summary.AbortReason = err.Error()
	p.logger.Error("run aborted", "run_id", summary.RunID, "error", err)
	p.finish(ctx, &summary)
	return summary, err
}

func (p *Pipeline) execute(ctx context.Context, plan ports.AcquisitionPlan, summary *domain.RunSummary) {
	log := p.logger.With("run_id", summary.RunID)
	log.Info("run started",
		"repositories", len(plan.Repositories),
		"terms", len(plan.Terms),
		"max_pages", plan.MaxPages,
		"mode", summary.Mode,
	)
	if p.deduplicator.Mode() == dedup.ModeAutoMerge {
		log.Warn("auto-merge enabled, the catalog will be rewritten", "catalog", summary.CatalogFile)
	}

	// Acquiring
	if p.source == nil {
		p.stop(summary, errors.New("record source is not configured"))
		return
	}
	raws, stats, err := p.source.Acquire(ctx, plan)
	summary.Repositories = stats
	summary.RawCount = len(raws)
	for _, repo := range stats {
		if repo.Failed() {
			summary.Warn(fmt.Sprintf("repository %s returned no records: %s", repo.Repository, strings.Join(repo.Errors, "; ")))
		}
	}
	if err != nil {
		p.stop(summary, err)
		return
	}
	if len(raws) == 0 {
		log.Info("no records acquired")
		summary.State = domain.StateDone
		summary.Outcome = domain.OutcomeNoResults
		return
	}
	if err := p.writeRaw(ctx, summary.RawFile, raws); err != nil {
		p.persistenceFailed(summary, "raw results", err)
	}

	// Normalizing
	summary.State = domain.StateNormalizing
	batch, normStats, err := p.normalizer.Normalize(ctx, raws)
	summary.NormalizedCount = batch.Len()
	if err != nil {
		if ctx.Err() != nil {
			p.stop(summary, err)
			return
		}
		log.Warn("normalized batch unusable", "error", err)
		summary.Warn(err.Error())
		summary.State = domain.StateDone
		summary.Outcome = domain.OutcomeNoResults
		return
	}
	log.Info("normalization finished",
		"original", normStats.Original,
		"transformed", normStats.Transformed,
		"success_rate", fmt.Sprintf("%.1f%%", normStats.SuccessRate()),
	)
	if summary.NormalizedFile != "" {
		if err := p.writeBatch(ctx, summary.NormalizedFile, batch); err != nil {
			p.persistenceFailed(summary, "normalized results", err)
		}
	}

	// Filtering
	summary.State = domain.StateFiltering
	filtered := p.scorer.Filter(ctx, batch)
	summary.FilteredCount = filtered.Batch.Len()
	summary.ExcludedCount = filtered.Excluded
	summary.IrrelevantCount = filtered.Irrelevant
	if err := p.writeBatch(ctx, summary.FilteredFile, filtered.Batch); err != nil {
		p.persistenceFailed(summary, "filtered results", err)
	}
	if ctx.Err() != nil {
		p.stop(summary, ctx.Err())
		return
	}

	// Reconciling
	summary.State = domain.StateReconciling
	p.reconcile(ctx, filtered.Batch, summary)
	if summary.State == domain.StateAborted {
		return
	}

	summary.State = domain.StateDone
	if summary.Outcome == "" {
		summary.Outcome = domain.OutcomeCompleted
	}
}

func (p *Pipeline) reconcile(ctx context.Context, candidates domain.Batch, summary *domain.RunSummary) {
	catalog := domain.NewBatch(nil)
	unreadable := false
	if p.catalog != nil {
		unlock, err := p.catalog.Lock(ctx)
		if err != nil {
			p.stop(summary, fmt.Errorf("lock catalog: %w", err))
			return
		}
		defer func() {
			if err := unlock(); err != nil {
				p.logger.Warn("catalog unlock failed", "path", p.catalog.Path(), "error", err)
			}
		}()

		loaded, err := p.catalog.Load(ctx)
		if err != nil {
			p.logger.Warn("catalog unreadable, treating as empty", "error", err)
			summary.Warn(err.Error())
			unreadable = true
		} else {
			catalog = loaded
		}
	}

	result := p.deduplicator.ReconcileCatalog(candidates, catalog)
	summary.NewCount = result.New.Len()
	summary.CollapsedCount = result.CollapsedExisting
	summary.NewRecords = result.New.Records
	if result.Degraded {
		summary.Warn("catalog could not be keyed by link, every candidate reported as new")
	}

	if err := p.writeBatch(ctx, summary.NewRecordsFile, result.New); err != nil {
		p.persistenceFailed(summary, "new records", err)
	}

	if !result.CatalogChanged || p.catalog == nil {
		return
	}
	// An unreadable catalog is never replaced with this run's view of it.
	if unreadable {
		p.logger.Warn("catalog left untouched", "path", p.catalog.Path(), "new_records", summary.NewRecordsFile)
		summary.Warn(fmt.Sprintf("catalog %s not updated because it could not be read; new records are in %s",
			p.catalog.Path(), summary.NewRecordsFile))
		return
	}
	columns := catalog.Columns
	if len(columns) == 0 {
		columns = domain.CatalogColumns
	}
	merged := domain.Batch{Columns: columns, Records: result.Catalog}
	if err := p.catalog.Replace(ctx, merged); err != nil {
		p.persistenceFailed(summary, "catalog", err)
		return
	}
	p.logger.Info("catalog updated",
		"path", p.catalog.Path(),
		"records", len(result.Catalog),
		"added", result.New.Len(),
		"collapsed", result.CollapsedExisting,
	)
}

func (p *Pipeline) writeRaw(ctx context.Context, path string, raws []domain.RawRecord) error {
	if p.artifacts == nil || path == "" {
		return nil
	}
	return p.artifacts.AppendRaw(ctx, path, raws)
}

func (p *Pipeline) writeBatch(ctx context.Context, path string, batch domain.Batch) error {
	if p.artifacts == nil || path == "" {
		return nil
	}
	return p.artifacts.WriteBatch(ctx, path, batch)
}

func (p *Pipeline) persistenceFailed(summary *domain.RunSummary, what string, err error) {
	p.logger.Error("write failed", "artifact", what, "error", err)
	summary.Warn(fmt.Sprintf("write %s: %v", what, err))
	summary.Outcome = domain.OutcomePersistenceFailed
}

func (p *Pipeline) stop(summary *domain.RunSummary, err error) {
	p.logger.Error("run aborted", "run_id", summary.RunID, "state", summary.State, "error", err)
	summary.State = domain.StateAborted
	summary.AbortReason = err.Error()
}

// finish feeds the side channels. None of them can fail the run.
func (p *Pipeline) finish(ctx context.Context, summary *domain.RunSummary) {
	summary.FinishedAt = p.clock()
	p.logger.Info("run finished",
		"run_id", summary.RunID,
		"state", summary.State,
		"outcome", summary.Outcome,
		"raw", summary.RawCount,
		"filtered", summary.FilteredCount,
		"new", summary.NewCount,
		"duration", summary.Duration().Round(time.Millisecond),
	)

	if p.history != nil {
		// Recorded even when ctx is cancelled.
		recordCtx := context.WithoutCancel(ctx)
		if err := p.history.Record(recordCtx, domain.RecordFromSummary(*summary)); err != nil {
			p.logger.Warn("run history not recorded", "error", err)
		}
	}
	if p.observer != nil {
		p.observer.ObserveRun(*summary)
	}
	if p.notifier != nil && summary.NewCount > 0 {
		if err := p.notifier.PublishDigest(ctx, buildDigestMessage(*summary)); err != nil {
			p.logger.Warn("digest not delivered", "error", err)
		}
	}
}

func buildDigestMessage(summary domain.RunSummary) string {
	if len(summary.NewRecords) == 0 {
		return ""
	}

	var formatted strings.Builder
	fmt.Fprintf(&formatted, "%d new records (%d raw, %d relevant)\n\n",
		summary.NewCount, summary.RawCount, summary.FilteredCount)
	for _, record := range summary.NewRecords {
		fmt.Fprintf(&formatted, "- %s\n%s, %s\nScore: %d\n%s\n\n",
			record.Title,
			record.Database,
			record.Year,
			record.RelevanceScore,
			record.Link)
	}
	return formatted.String()
}
