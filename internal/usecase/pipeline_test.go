package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"DesignCatalog/internal/config"
	"DesignCatalog/internal/dedup"
	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/infrastructure/storage"
	"DesignCatalog/internal/ports"
)

type stubSource struct {
	records []domain.RawRecord
	err     error

	mu    sync.Mutex
	plans []ports.AcquisitionPlan
}

func (s *stubSource) Acquire(_ context.Context, plan ports.AcquisitionPlan) ([]domain.RawRecord, []domain.RepositoryStats, error) {
	s.mu.Lock()
	s.plans = append(s.plans, plan)
	s.mu.Unlock()

	stats := make([]domain.RepositoryStats, 0, len(plan.Repositories))
	for _, repo := range plan.Repositories {
		stats = append(stats, domain.RepositoryStats{
			Repository: repo.Name,
			Adapter:    repo.Adapter,
			Records:    len(s.records),
			Terms:      map[string]int{},
		})
	}
	out := append([]domain.RawRecord(nil), s.records...)
	return out, stats, s.err
}

func (s *stubSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plans)
}

type memoryHistory struct {
	mu   sync.Mutex
	runs []domain.RunRecord
}

func (h *memoryHistory) Record(_ context.Context, run domain.RunRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, run)
	return nil
}

func (h *memoryHistory) Recent(_ context.Context, limit int) ([]domain.RunRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit > len(h.runs) {
		limit = len(h.runs)
	}
	return append([]domain.RunRecord(nil), h.runs[:limit]...), nil
}

type capturingObserver struct {
	summaries []domain.RunSummary
}

func (o *capturingObserver) ObserveRun(summary domain.RunSummary) {
	o.summaries = append(o.summaries, summary)
}

type capturingNotifier struct {
	digests []string
}

func (n *capturingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.digests = append(n.digests, digest)
	return nil
}

type brokenCatalog struct {
	path     string
	replaces int
}

func (c *brokenCatalog) Path() string { return c.path }

func (c *brokenCatalog) Lock(context.Context) (func() error, error) {
	return func() error { return nil }, nil
}

func (c *brokenCatalog) Load(context.Context) (domain.Batch, error) {
	return domain.Batch{}, &domain.ReconciliationError{Op: "read", Path: c.path, Err: errors.New("permission denied")}
}

func (c *brokenCatalog) Replace(context.Context, domain.Batch) error {
	c.replaces++
	return errors.New("unexpected replace")
}

type failingArtifacts struct {
	*storage.TableStore
	failPath string
}

func (f failingArtifacts) WriteBatch(ctx context.Context, path string, batch domain.Batch) error {
	if path == f.failPath {
		return errors.New("disk full")
	}
	return f.TableStore.WriteBatch(ctx, path, batch)
}

func scenarioRecords() []domain.RawRecord {
	return []domain.RawRecord{
		{
			Title:      "A experiência do usuário em portais de governo",
			Author:     "Silva, A.",
			Link:       "https://periodicos.example/article/view/1",
			Date:       "2021-05-03",
			SourceName: "Estudos em Design",
			SearchTerm: "experiência do usuário",
		},
		{
			Title:      "Lorem ipsum dolor sit amet",
			Link:       "https://periodicos.example/article/view/2",
			Date:       "2020",
			SourceName: "Estudos em Design",
			SearchTerm: "experiência do usuário",
		},
		{
			Title:      "Experiência do usuário no comércio eletrônico",
			Author:     "Souza, B.",
			Link:       "https://periodicos.example/article/view/3",
			Edition:    "v. 12 n. 2 (2019)",
			SourceName: "InfoDesign",
			SearchTerm: "experiência do usuário",
		},
		{
			Title:      "Medieval pottery techniques in northern Europe",
			Link:       "https://periodicos.example/article/view/4",
			Date:       "2018",
			SourceName: "InfoDesign",
			SearchTerm: "experiência do usuário",
		},
	}
}

func testConfig(t *testing.T, mode string) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Repos = config.Repositories{
		{Name: "Estudos em Design", Adapter: "estudos_em_design"},
		{Name: "InfoDesign", Adapter: "infodesign"},
	}
	cfg.Terms = []string{"experiência do usuário"}
	cfg.MaxPages = 2
	cfg.Pause = 0
	cfg.Deduplication.Mode = mode
	cfg.Files = config.FilesConfig{
		RawResults:        filepath.Join(dir, "raw.csv"),
		NormalizedResults: filepath.Join(dir, "normalized.csv"),
		FilteredResults:   filepath.Join(dir, "filtered.csv"),
		NewRecords:        filepath.Join(dir, "new.csv"),
		Catalog:           filepath.Join(dir, "catalog.csv"),
	}
	return cfg
}

func newTestPipeline(cfg config.Config, source ports.RecordSource, history ports.RunHistory) *Pipeline {
	mode, _ := dedup.ParseMode(cfg.Deduplication.Mode)
	tables := storage.NewTableStore()
	return NewPipeline(PipelineDeps{
		Config:       cfg,
		Source:       source,
		Deduplicator: dedup.New(mode, nil),
		Artifacts:    tables,
		Catalog:      storage.NewFileCatalog(cfg.Files.Catalog, tables),
		History:      history,
	})
}

func TestRunScenarioYieldsTwoPortugueseRecords(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "review")
	history := &memoryHistory{}
	observer := &capturingObserver{}
	notifier := &capturingNotifier{}

	tables := storage.NewTableStore()
	pipeline := NewPipeline(PipelineDeps{
		Config:    cfg,
		Source:    &stubSource{records: scenarioRecords()},
		Artifacts: tables,
		Catalog:   storage.NewFileCatalog(cfg.Files.Catalog, tables),
		History:   history,
		Observer:  observer,
		Notifier:  notifier,
	})

	summary, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.State != domain.StateDone || summary.Outcome != domain.OutcomeCompleted {
		t.Fatalf("state/outcome = %s/%s, want Done/completed (warnings %v)", summary.State, summary.Outcome, summary.Warnings)
	}
	if summary.RawCount != 4 || summary.NormalizedCount != 4 {
		t.Fatalf("raw/normalized = %d/%d, want 4/4", summary.RawCount, summary.NormalizedCount)
	}
	if summary.FilteredCount != 2 || summary.ExcludedCount != 1 || summary.IrrelevantCount != 1 {
		t.Fatalf("filtered/excluded/irrelevant = %d/%d/%d, want 2/1/1",
			summary.FilteredCount, summary.ExcludedCount, summary.IrrelevantCount)
	}
	if summary.NewCount != 2 {
		t.Fatalf("new = %d, want 2", summary.NewCount)
	}

	for _, path := range []string{cfg.Files.FilteredResults, cfg.Files.NewRecords} {
		batch, err := tables.ReadBatch(context.Background(), path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if batch.Len() != 2 {
			t.Fatalf("%s has %d rows, want 2", filepath.Base(path), batch.Len())
		}
		for _, record := range batch.Records {
			if record.RelevanceScore <= 0 {
				t.Fatalf("%s: %q has score %d", filepath.Base(path), record.Title, record.RelevanceScore)
			}
			if record.LanguageVerified != domain.LanguagePortuguese {
				t.Fatalf("%s: %q language = %q", filepath.Base(path), record.Title, record.LanguageVerified)
			}
			if strings.Contains(strings.ToLower(record.Title), "lorem") || strings.Contains(record.Title, "Medieval") {
				t.Fatalf("%s: unexpected row %q", filepath.Base(path), record.Title)
			}
		}
	}

	raws, err := tables.ReadRaw(context.Background(), cfg.Files.RawResults)
	if err != nil || len(raws) != 4 {
		t.Fatalf("raw file rows = %d, err %v", len(raws), err)
	}

	if _, err := os.Stat(cfg.Files.Catalog); !os.IsNotExist(err) {
		t.Fatalf("review mode must not create the catalog, stat err = %v", err)
	}

	if len(history.runs) != 1 || history.runs[0].NewCount != 2 || history.runs[0].ID != summary.RunID {
		t.Fatalf("history = %+v", history.runs)
	}
	if len(observer.summaries) != 1 {
		t.Fatalf("observer saw %d summaries", len(observer.summaries))
	}
	if len(notifier.digests) != 1 || !strings.Contains(notifier.digests[0], "comércio eletrônico") {
		t.Fatalf("digests = %q", notifier.digests)
	}

	m := summary.Map()
	if m["new_records_count"] != "2" || m["outcome"] != "completed" || m["catalog_file"] != cfg.Files.Catalog {
		t.Fatalf("summary map = %v", m)
	}
}

func TestRunAutoMergeIsIdempotent(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "auto-merge")
	source := &stubSource{records: scenarioRecords()}
	pipeline := newTestPipeline(cfg, source, nil)

	first, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.NewCount != 2 {
		t.Fatalf("first run new = %d, want 2", first.NewCount)
	}

	second, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.NewCount != 0 {
		t.Fatalf("second run new = %d, want 0", second.NewCount)
	}

	catalog, err := storage.NewTableStore().ReadBatch(context.Background(), cfg.Files.Catalog)
	if err != nil {
		t.Fatalf("read catalog: %v", err)
	}
	if catalog.Len() != 2 {
		t.Fatalf("catalog rows = %d, want 2", catalog.Len())
	}
	seen := map[string]bool{}
	for _, record := range catalog.Records {
		if seen[record.Link] {
			t.Fatalf("duplicate link %s in catalog", record.Link)
		}
		seen[record.Link] = true
	}
}

func TestRunWithoutRecordsReportsNoResults(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "review")
	history := &memoryHistory{}
	summary, err := newTestPipeline(cfg, &stubSource{}, history).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.State != domain.StateDone || summary.Outcome != domain.OutcomeNoResults {
		t.Fatalf("state/outcome = %s/%s", summary.State, summary.Outcome)
	}
	if _, err := os.Stat(cfg.Files.NewRecords); !os.IsNotExist(err) {
		t.Fatalf("no downstream file expected, stat err = %v", err)
	}
	if len(history.runs) != 1 || history.runs[0].Outcome != domain.OutcomeNoResults {
		t.Fatalf("history = %+v", history.runs)
	}
}

func TestRunRejectsInvalidConfigBeforeAcquiring(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "review")
	cfg.MaxPages = 0
	source := &stubSource{records: scenarioRecords()}

	summary, err := newTestPipeline(cfg, source, nil).Run(context.Background())
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("err = %v, want config.ErrInvalid", err)
	}
	var cfgErr *config.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Key != "max_pages" {
		t.Fatalf("err = %#v, want ConfigurationError for max_pages", err)
	}
	if summary.State != domain.StateAborted || summary.AbortReason == "" {
		t.Fatalf("state = %s reason = %q", summary.State, summary.AbortReason)
	}
	if source.calls() != 0 {
		t.Fatalf("source called %d times", source.calls())
	}
}

func TestRunTreatsUnreadableCatalogAsEmpty(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "review")
	pipeline := NewPipeline(PipelineDeps{
		Config:       cfg,
		Source:       &stubSource{records: scenarioRecords()},
		Deduplicator: dedup.New(dedup.ModeReview, nil),
		Artifacts:    storage.NewTableStore(),
		Catalog:      &brokenCatalog{path: cfg.Files.Catalog},
	})

	summary, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.NewCount != 2 || summary.Outcome != domain.OutcomeCompleted {
		t.Fatalf("new/outcome = %d/%s", summary.NewCount, summary.Outcome)
	}
	if len(summary.Warnings) == 0 || !strings.Contains(summary.Warnings[0], "permission denied") {
		t.Fatalf("warnings = %v", summary.Warnings)
	}
}

func TestAutoMergeKeepsUnreadableCatalog(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "auto-merge")
	tables := storage.NewTableStore()
	catalog := &brokenCatalog{path: cfg.Files.Catalog}
	pipeline := NewPipeline(PipelineDeps{
		Config:       cfg,
		Source:       &stubSource{records: scenarioRecords()},
		Deduplicator: dedup.New(dedup.ModeAutoMerge, nil),
		Artifacts:    tables,
		Catalog:      catalog,
	})

	summary, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if catalog.replaces != 0 {
		t.Fatalf("catalog replaced %d times after a failed read", catalog.replaces)
	}
	if summary.State != domain.StateDone || summary.Outcome != domain.OutcomeCompleted || summary.NewCount != 2 {
		t.Fatalf("state/outcome/new = %s/%s/%d", summary.State, summary.Outcome, summary.NewCount)
	}
	if !strings.Contains(strings.Join(summary.Warnings, "\n"), "not updated") {
		t.Fatalf("warnings = %v", summary.Warnings)
	}

	fresh, err := tables.ReadBatch(context.Background(), cfg.Files.NewRecords)
	if err != nil {
		t.Fatalf("read new records: %v", err)
	}
	if fresh.Len() != 2 {
		t.Fatalf("new records file has %d rows, want 2", fresh.Len())
	}
}

func TestRunMarksWriteFailures(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "review")
	tables := storage.NewTableStore()
	pipeline := NewPipeline(PipelineDeps{
		Config:    cfg,
		Source:    &stubSource{records: scenarioRecords()},
		Artifacts: failingArtifacts{TableStore: tables, failPath: cfg.Files.NewRecords},
		Catalog:   storage.NewFileCatalog(cfg.Files.Catalog, tables),
	})

	summary, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Outcome != domain.OutcomePersistenceFailed {
		t.Fatalf("outcome = %s, want persistence_failed", summary.Outcome)
	}
	if summary.State != domain.StateDone || summary.NewCount != 2 || summary.FilteredCount != 2 {
		t.Fatalf("state/new/filtered = %s/%d/%d", summary.State, summary.NewCount, summary.FilteredCount)
	}
}

func TestSearchNarrowsPlanAndCapsPages(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "review")
	source := &stubSource{}
	pipeline := newTestPipeline(cfg, source, nil)

	_, err := pipeline.Search(context.Background(), SearchRequest{
		Repositories: []string{"infodesign"},
		Terms:        []string{"  ergonomia  "},
		MaxPages:     500,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if source.calls() != 1 {
		t.Fatalf("source calls = %d", source.calls())
	}
	plan := source.plans[0]
	if plan.MaxPages != config.MaxManualPages {
		t.Fatalf("max pages = %d, want %d", plan.MaxPages, config.MaxManualPages)
	}
	if len(plan.Terms) != 1 || plan.Terms[0] != "ergonomia" {
		t.Fatalf("terms = %q", plan.Terms)
	}
	if len(plan.Repositories) != 1 || plan.Repositories[0].Name != "InfoDesign" {
		t.Fatalf("repositories = %+v", plan.Repositories)
	}

	_, err = pipeline.Search(context.Background(), SearchRequest{Repositories: []string{"unknown"}})
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("unknown repository err = %v", err)
	}
}

func TestSchedulerRunsPipelineOnEveryTick(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "review")
	source := &stubSource{}
	driver := &manualDriver{}
	runs := make(chan RunResult, 2)
	sched := NewScheduler(driver, newTestPipeline(cfg, source, nil), runs)

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	driver.fire(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	driver.fire(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 2; i++ {
		if result := <-runs; result.Err != nil {
			t.Fatalf("run %d: %v", i, result.Err)
		}
	}
	if source.calls() != 2 {
		t.Fatalf("source calls = %d, want 2", source.calls())
	}
	if err := sched.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

type manualDriver struct {
	job func(time.Time)
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error { return nil }

func (d *manualDriver) fire(at time.Time) { d.job(at) }
