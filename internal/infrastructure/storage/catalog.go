package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/ports"
)

const lockRetryDelay = 200 * time.Millisecond

// ErrCatalogLocked is returned when another process holds the catalog.
var ErrCatalogLocked = errors.New("catalog is locked by another process")

// FileCatalog is the CSV catalog guarded by an advisory lock file.
type FileCatalog struct {
	path   string
	tables *TableStore
	lock   *flock.Flock
}

var _ ports.CatalogStore = (*FileCatalog)(nil)

// NewFileCatalog binds the catalog at path; the lock lives next to it.
func NewFileCatalog(path string, tables *TableStore) *FileCatalog {
	if tables == nil {
		tables = NewTableStore()
	}
	return &FileCatalog{
		path:   path,
		tables: tables,
		lock:   flock.New(path + ".lock"),
	}
}

// Path returns the catalog file location.
func (c *FileCatalog) Path() string {
	return c.path
}

// Lock waits for the catalog lock until ctx is done.
func (c *FileCatalog) Lock(ctx context.Context) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}
	ok, err := c.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire catalog lock: %w", err)
	}
	if !ok {
		return nil, ErrCatalogLocked
	}
	return c.lock.Unlock, nil
}

// Load reads the catalog. A missing file is an empty catalog.
func (c *FileCatalog) Load(ctx context.Context) (domain.Batch, error) {
	batch, err := c.tables.ReadBatch(ctx, c.path)
	if err != nil {
		return domain.Batch{}, &domain.ReconciliationError{Op: "read", Path: c.path, Err: err}
	}
	return batch, nil
}

// Replace atomically rewrites the catalog.
func (c *FileCatalog) Replace(ctx context.Context, batch domain.Batch) error {
	if err := c.tables.WriteBatch(ctx, c.path, batch); err != nil {
		return &domain.ReconciliationError{Op: "write", Path: c.path, Err: err}
	}
	return nil
}
