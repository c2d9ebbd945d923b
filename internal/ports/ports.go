package ports

import (
	"context"
	"time"

	"DesignCatalog/internal/domain"
)

// AcquisitionPlan selects what one acquisition pass fetches.
type AcquisitionPlan struct {
	Repositories []Repository
	Terms        []string
	MaxPages     int
}

// Repository pairs a display name with the adapter key serving it.
type Repository struct {
	Name    string
	Adapter string
}

// RecordSource pulls raw records from the configured repositories.
type RecordSource interface {
	Acquire(ctx context.Context, plan AcquisitionPlan) ([]domain.RawRecord, []domain.RepositoryStats, error)
}

// LanguageDetector returns an ISO 639 code for the text.
type LanguageDetector interface {
	Detect(text string) (string, error)
}

// ArtifactWriter persists intermediate and final tables of a run.
type ArtifactWriter interface {
	AppendRaw(ctx context.Context, path string, records []domain.RawRecord) error
	WriteBatch(ctx context.Context, path string, batch domain.Batch) error
}

// CatalogStore owns the persistent catalog. Lock guards a whole
// read-modify-write cycle and returns the matching unlock.
type CatalogStore interface {
	Path() string
	Lock(ctx context.Context) (func() error, error)
	Load(ctx context.Context) (domain.Batch, error)
	Replace(ctx context.Context, batch domain.Batch) error
}

// RunHistory records finished runs.
type RunHistory interface {
	Record(ctx context.Context, run domain.RunRecord) error
	Recent(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// RunObserver receives every finished summary, e.g. for metrics.
type RunObserver interface {
	ObserveRun(summary domain.RunSummary)
}

// Notifier streams selected digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
