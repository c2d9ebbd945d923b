package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/ports"
	"DesignCatalog/internal/scanner"
)

// SourceOptions tunes acquisition pacing and fan-out.
type SourceOptions struct {
	// Pause separates consecutive calls to one adapter and, when running
	// sequentially, consecutive repositories.
	Pause time.Duration
	// Parallelism bounds how many repositories are queried at once.
	Parallelism int
}

// StrategySource implements RecordSource via registered adapters.
type StrategySource struct {
	registry *scanner.Registry
	opts     SourceOptions
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ ports.RecordSource = (*StrategySource)(nil)

// NewStrategySource wires the adapter registry with pacing options.
func NewStrategySource(reg *scanner.Registry, opts SourceOptions, log *slog.Logger) *StrategySource {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &StrategySource{
		registry: reg,
		opts:     opts,
		logger:   log,
		locks:    map[string]*sync.Mutex{},
	}
}

type repositoryResult struct {
	records []domain.RawRecord
	stats   domain.RepositoryStats
}

// Acquire queries every (repository, term) pair of the plan. Adapter
// failures are recorded in the repository stats and never stop the loop;
// only a cancelled context ends it early, returning what was gathered.
func (s *StrategySource) Acquire(ctx context.Context, plan ports.AcquisitionPlan) ([]domain.RawRecord, []domain.RepositoryStats, error) {
	if s.registry == nil {
		return nil, nil, fmt.Errorf("adapter registry is not configured")
	}

	s.debug("acquire", "repositories", len(plan.Repositories), "terms", len(plan.Terms), "max_pages", plan.MaxPages)

	results := make([]repositoryResult, len(plan.Repositories))
	if s.opts.Parallelism == 1 {
		for i, repo := range plan.Repositories {
			if i > 0 {
				if err := sleepContext(ctx, s.opts.Pause); err != nil {
					break
				}
			}
			results[i] = s.acquireRepository(ctx, repo, plan)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.Parallelism)
		for i, repo := range plan.Repositories {
			g.Go(func() error {
				results[i] = s.acquireRepository(gctx, repo, plan)
				return nil
			})
		}
		_ = g.Wait()
	}

	var (
		aggregated []domain.RawRecord
		stats      = make([]domain.RepositoryStats, 0, len(results))
	)
	for i, result := range results {
		if result.stats.Repository == "" {
			result.stats = newStats(plan.Repositories[i])
			result.stats.Errors = append(result.stats.Errors, "skipped: acquisition interrupted")
		}
		aggregated = append(aggregated, result.records...)
		stats = append(stats, result.stats)
	}

	s.debug("strategy source done", "total_records", len(aggregated))
	if err := ctx.Err(); err != nil {
		return aggregated, stats, fmt.Errorf("acquisition interrupted: %w", err)
	}
	return aggregated, stats, nil
}

func newStats(repo ports.Repository) domain.RepositoryStats {
	return domain.RepositoryStats{
		Repository: repo.Name,
		Adapter:    repo.Adapter,
		Terms:      map[string]int{},
	}
}

func (s *StrategySource) acquireRepository(ctx context.Context, repo ports.Repository, plan ports.AcquisitionPlan) repositoryResult {
	result := repositoryResult{stats: newStats(repo)}

	adapter, err := s.registry.Resolve(repo.Adapter)
	if err != nil {
		s.warn("repository skipped", "repository", repo.Name, "error", err)
		result.stats.Errors = append(result.stats.Errors, err.Error())
		return result
	}

	lock := s.adapterLock(repo.Adapter)
	lock.Lock()
	defer lock.Unlock()

	for i, term := range plan.Terms {
		if i > 0 {
			if err := sleepContext(ctx, s.opts.Pause); err != nil {
				result.stats.Errors = append(result.stats.Errors, err.Error())
				break
			}
		}

		records, err := adapter.Search(ctx, term, plan.MaxPages)
		if err != nil {
			acqErr := &domain.AcquisitionError{Repository: repo.Name, Term: term, Err: err}
			s.warn("adapter call failed", "repository", repo.Name, "term", term, "partial", len(records), "error", err)
			result.stats.Errors = append(result.stats.Errors, acqErr.Error())
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
		}

		for j := range records {
			records[j].SourceName = repo.Name
			records[j].SearchTerm = term
		}
		result.records = append(result.records, records...)
		result.stats.Terms[term] += len(records)
		result.stats.Records += len(records)
		s.debug("term produced records", "repository", repo.Name, "term", term, "count", len(records))
	}
	return result
}

func (s *StrategySource) adapterLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
