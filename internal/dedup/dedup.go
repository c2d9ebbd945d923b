package dedup

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"DesignCatalog/internal/domain"
)

// Mode selects what happens to the catalog after reconciliation.
type Mode string

const (
	// ModeReview leaves the catalog untouched; new records go to a side file.
	ModeReview Mode = "review"
	// ModeAutoMerge appends new records to the catalog.
	ModeAutoMerge Mode = "auto-merge"
)

// ParseMode accepts the configuration spelling of a mode. Empty means review.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeReview:
		return ModeReview, nil
	case ModeAutoMerge, "auto_merge", "automerge":
		return ModeAutoMerge, nil
	default:
		return "", fmt.Errorf("unknown deduplication mode %q", value)
	}
}

// Result is the outcome of one reconciliation.
type Result struct {
	// New holds candidates whose key is absent from the catalog, in candidate
	// order and schema.
	New domain.Batch
	// Catalog is the catalog value after reconciliation.
	Catalog []domain.CatalogRecord
	// CatalogChanged is set when Catalog differs from the input and should
	// be persisted.
	CatalogChanged bool
	// Degraded is set when keys could not be compared.
	Degraded bool
	// Duplicates counts candidates dropped because their key was seen.
	Duplicates int
	// CollapsedExisting counts catalog rows removed as duplicates in
	// auto-merge.
	CollapsedExisting int
}

// Deduplicator reconciles candidate batches against the catalog by link.
type Deduplicator struct {
	mode   Mode
	logger *slog.Logger
}

// New returns a deduplicator. An empty mode means review.
func New(mode Mode, logger *slog.Logger) *Deduplicator {
	if mode == "" {
		mode = ModeReview
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Deduplicator{mode: mode, logger: logger}
}

// Mode returns the configured mode.
func (d *Deduplicator) Mode() Mode {
	return d.mode
}

// ReconcileCatalog checks the catalog schema before reconciling. A catalog
// without a link column cannot be keyed, so every candidate is reported new
// and the catalog is never rewritten.
func (d *Deduplicator) ReconcileCatalog(candidates domain.Batch, catalog domain.Batch) Result {
	if len(catalog.Records) > 0 && !catalog.HasColumn(domain.ColumnLink) {
		d.logger.Warn("catalog has no link column, skipping comparison", "candidates", candidates.Len())
		return Result{
			New:      candidates,
			Catalog:  catalog.Records,
			Degraded: true,
		}
	}
	return d.Reconcile(candidates, catalog.Records)
}

// Reconcile returns the candidates whose key was never seen, scanning the
// existing catalog first and then the candidates so the first occurrence of
// a key wins.
func (d *Deduplicator) Reconcile(candidates domain.Batch, existing []domain.CatalogRecord) Result {
	if candidates.Len() > 0 && !candidates.HasColumn(domain.ColumnLink) {
		d.logger.Warn("candidate batch has no link column, passing through", "candidates", candidates.Len())
		return Result{New: candidates, Catalog: existing, Degraded: true}
	}

	seen := make(map[string]struct{}, len(existing)+candidates.Len())
	catalog := existing
	collapsed := 0
	if d.mode == ModeAutoMerge {
		catalog, collapsed = collapse(existing, seen)
		if collapsed > 0 {
			d.logger.Warn("duplicate keys collapsed in catalog", "removed", collapsed)
		}
	} else {
		for _, record := range existing {
			if key := record.Key(); key != "" {
				seen[key] = struct{}{}
			}
		}
	}

	// Auto-merge keys the blank link like any other so the merged catalog
	// stays unique; review never treats a link-less row as a duplicate.
	keyBlank := d.mode == ModeAutoMerge
	fresh := make([]domain.CatalogRecord, 0, candidates.Len())
	duplicates := 0
	for _, record := range candidates.Records {
		key := record.Key()
		if key != "" || keyBlank {
			if _, dup := seen[key]; dup {
				duplicates++
				continue
			}
			seen[key] = struct{}{}
		}
		fresh = append(fresh, record)
	}

	result := Result{
		New:               domain.Batch{Columns: candidates.Columns, Records: fresh},
		Catalog:           catalog,
		Duplicates:        duplicates,
		CollapsedExisting: collapsed,
	}

	if d.mode == ModeAutoMerge && (len(fresh) > 0 || collapsed > 0) {
		merged := make([]domain.CatalogRecord, 0, len(catalog)+len(fresh))
		merged = append(merged, catalog...)
		merged = append(merged, fresh...)
		result.Catalog = merged
		result.CatalogChanged = true
		d.logger.Warn("auto-merge will rewrite catalog", "existing", len(catalog), "added", len(fresh))
	}

	d.logger.Info("reconciliation finished",
		"mode", string(d.mode),
		"candidates", candidates.Len(),
		"existing", len(existing),
		"new", len(fresh),
		"duplicates", duplicates,
	)
	return result
}

// collapse keeps the first record per key, the blank key included, and
// records every key in seen.
func collapse(records []domain.CatalogRecord, seen map[string]struct{}) ([]domain.CatalogRecord, int) {
	out := make([]domain.CatalogRecord, 0, len(records))
	removed := 0
	for _, record := range records {
		key := record.Key()
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, record)
	}
	return out, removed
}
