package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch signals a stage produced nothing to hand downstream.
	ErrEmptyBatch = errors.New("empty batch")
	// ErrMissingColumn signals a batch schema lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrNoEssentialData signals every row lacks both title and link.
	ErrNoEssentialData = errors.New("essential data (title or link) is empty")
)

// AcquisitionError is a failed adapter call for one (repository, term) pair.
type AcquisitionError struct {
	Repository string
	Term       string
	Err        error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquire %s/%q: %v", e.Repository, e.Term, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// NormalizationError is a single record the normalizer had to drop.
type NormalizationError struct {
	Index  int
	Source string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize record %d from %s: %s", e.Index, e.Source, e.Reason)
}

// ReconciliationError wraps a catalog read or write failure.
type ReconciliationError struct {
	Op   string
	Path string
	Err  error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("%s catalog %s: %v", e.Op, e.Path, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
