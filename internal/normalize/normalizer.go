package normalize

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/textutil"
)

var quoteReplacer = strings.NewReplacer(`"`, "", "“", "", "”", "")

// Stats describes one normalization pass.
type Stats struct {
	Original    int
	Transformed int
	Dropped     int
}

// SuccessRate is the share of input records that survived, in percent.
func (s Stats) SuccessRate() float64 {
	if s.Original == 0 {
		return 0
	}
	return float64(s.Transformed) / float64(s.Original) * 100
}

// Normalizer maps raw adapter rows into canonical catalog records.
type Normalizer struct {
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// New builds a normalizer stamping records with the wall clock and uuid v4 ids.
func New(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Normalizer{
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Normalize converts every raw record independently. A record whose link
// cannot be derived is dropped and logged; the rest of the batch continues.
// An empty input yields an empty batch and no error; a non-empty input that
// fails validation returns the batch together with the validation error.
func (n *Normalizer) Normalize(ctx context.Context, raws []domain.RawRecord) (domain.Batch, Stats, error) {
	stats := Stats{Original: len(raws)}
	if len(raws) == 0 {
		return domain.NewBatch(nil), stats, nil
	}

	now := n.now()
	records := make([]domain.CatalogRecord, 0, len(raws))
	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			stats.Transformed = len(records)
			return domain.NewBatch(records), stats, fmt.Errorf("normalize interrupted: %w", err)
		}
		record, err := n.normalizeOne(i, raw, now)
		if err != nil {
			stats.Dropped++
			n.logger.Warn("record dropped", "error", err)
			continue
		}
		records = append(records, record)
	}
	stats.Transformed = len(records)

	batch := domain.NewBatch(records)
	n.logger.Info("records normalized",
		"original", stats.Original,
		"transformed", stats.Transformed,
		"dropped", stats.Dropped,
	)

	if err := Validate(batch); err != nil {
		return batch, stats, fmt.Errorf("validate normalized batch: %w", err)
	}
	return batch, stats, nil
}

func (n *Normalizer) normalizeOne(index int, raw domain.RawRecord, now time.Time) (domain.CatalogRecord, error) {
	link := DeriveLink(raw)
	if link == "" {
		return domain.CatalogRecord{}, &domain.NormalizationError{
			Index:  index,
			Source: raw.SourceName,
			Reason: "no link could be derived",
		}
	}

	year := ExtractYear(raw.Date, raw.Edition)
	if year == "" {
		n.logger.Debug("year not found", "link", link, "date", raw.Date, "edition", raw.Edition)
		year = domain.NoYear
	}

	database := MapDatabase(raw.SourceName)
	title := CleanText(raw.Title)

	return domain.CatalogRecord{
		ID:               n.newID(),
		CreatedAt:        now,
		Title:            title,
		Author:           CleanText(raw.Author),
		Year:             year,
		Type:             InferType(database, title, raw),
		Link:             link,
		Database:         database,
		Category:         InferCategory(raw.SearchTerm),
		CoverImage:       domain.NoImage,
		ExternalRecordID: domain.NoExternalID,
	}, nil
}

// DeriveLink returns the first usable link of the record: the main link,
// then the abstract, PDF and edition links.
func DeriveLink(raw domain.RawRecord) string {
	for _, candidate := range []string{raw.Link, raw.AbstractLink, raw.PDFLink, raw.EditionLink} {
		candidate = strings.TrimSpace(candidate)
		if !isPlaceholder(candidate) {
			return candidate
		}
	}
	return ""
}

// InferType classifies a record as article or book.
func InferType(database, title string, raw domain.RawRecord) domain.PublicationType {
	folded := textutil.Fold(database)
	for _, marker := range journalMarkers {
		if strings.Contains(folded, marker) {
			return domain.TypeArticle
		}
	}

	lowerTitle := textutil.Fold(title)
	for _, marker := range bookMarkers {
		if strings.Contains(lowerTitle, marker) {
			return domain.TypeBook
		}
	}

	if hasEvidence(raw.PDFLink) || hasEvidence(raw.AbstractLink) || hasEvidence(raw.EditionLink) {
		return domain.TypeArticle
	}

	return domain.TypeArticle
}

// InferCategory buckets a search term; unmatched terms fall into the default.
func InferCategory(searchTerm string) string {
	if category, ok := lookup(categoryTable, textutil.Fold(searchTerm)); ok {
		return category
	}
	return domain.DefaultCategory
}

// MapDatabase maps an adapter source name to its display name. Unknown
// sources pass through unchanged.
func MapDatabase(source string) string {
	source = strings.TrimSpace(source)
	if isPlaceholder(source) {
		return domain.UnknownDatabase
	}
	folded := strings.ReplaceAll(textutil.Fold(source), "_", " ")
	if name, ok := lookup(databaseTable, folded); ok {
		return name
	}
	return source
}

// CleanText trims and strips stray double quotes. Missing values such as
// "nan" become empty; adapter placeholders like "Sem título" are kept.
func CleanText(text string) string {
	cleaned := strings.TrimSpace(quoteReplacer.Replace(text))
	if _, ok := missingValues[strings.ToLower(cleaned)]; ok {
		return ""
	}
	return cleaned
}

// Validate checks a batch is usable downstream.
func Validate(batch domain.Batch) error {
	if batch.Len() == 0 {
		return domain.ErrEmptyBatch
	}

	if missing := batch.MissingColumns(requiredColumns); len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingColumn, strings.Join(missing, ", "))
	}

	for _, record := range batch.Records {
		if record.Title != "" || record.Link != "" {
			return nil
		}
	}
	return domain.ErrNoEssentialData
}

func hasEvidence(link string) bool {
	return !isPlaceholder(strings.TrimSpace(link))
}

func isPlaceholder(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return true
	}
	_, ok := placeholders[textutil.Fold(trimmed)]
	return ok
}
