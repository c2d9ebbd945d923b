package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/ports"
)

// Raw result columns, in file order.
var rawColumns = []string{
	"title", "author", "link", "date", "edition",
	"edition_link", "abstract_link", "pdf_link", "fonte", "termo",
}

var rawAliases = map[string]string{
	"source":      "fonte",
	"source_name": "fonte",
	"search_term": "termo",
	"term":        "termo",
}

var catalogAliases = map[string]string{
	"created_at":        domain.ColumnCreatedAt,
	"publication_type":  domain.ColumnType,
	"catalog_source":    domain.ColumnDatabase,
	"🔐 softr record id": domain.ColumnExternalRecordID,
	"softr record id":   domain.ColumnExternalRecordID,
}

var timestampLayouts = []string{
	domain.CreatedAtLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// TableStore reads and writes the CSV tables produced by a run.
type TableStore struct{}

var _ ports.ArtifactWriter = (*TableStore)(nil)

// NewTableStore returns a CSV table store.
func NewTableStore() *TableStore {
	return &TableStore{}
}

// ReadRaw loads a raw-results file. A missing file yields no records.
func (s *TableStore) ReadRaw(ctx context.Context, path string) ([]domain.RawRecord, error) {
	header, rows, err := readTable(ctx, path)
	if err != nil {
		return nil, err
	}

	index := headerIndex(header, rawAliases)
	records := make([]domain.RawRecord, 0, len(rows))
	for _, row := range rows {
		get := func(column string) string { return cell(row, index, column) }
		records = append(records, domain.RawRecord{
			Title:        get("title"),
			Author:       get("author"),
			Link:         get("link"),
			Date:         get("date"),
			Edition:      get("edition"),
			EditionLink:  get("edition_link"),
			AbstractLink: get("abstract_link"),
			PDFLink:      get("pdf_link"),
			SourceName:   get("fonte"),
			SearchTerm:   get("termo"),
		})
	}
	return records, nil
}

// AppendRaw adds records to the raw-results file, keeping earlier runs.
func (s *TableStore) AppendRaw(ctx context.Context, path string, records []domain.RawRecord) error {
	existing, err := s.ReadRaw(ctx, path)
	if err != nil {
		return fmt.Errorf("read previous raw results: %w", err)
	}

	all := append(existing, records...)
	rows := make([][]string, 0, len(all))
	for _, r := range all {
		rows = append(rows, []string{
			r.Title, r.Author, r.Link, r.Date, r.Edition,
			r.EditionLink, r.AbstractLink, r.PDFLink, r.SourceName, r.SearchTerm,
		})
	}
	return writeTable(path, rawColumns, rows)
}

// ReadBatch loads a catalog-shaped file. Unknown columns are carried in
// each record's Extra map. A missing file yields an empty batch with no
// columns.
func (s *TableStore) ReadBatch(ctx context.Context, path string) (domain.Batch, error) {
	header, rows, err := readTable(ctx, path)
	if err != nil {
		return domain.Batch{}, err
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = canonicalColumn(name, catalogAliases)
	}

	records := make([]domain.CatalogRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, decodeRecord(columns, row))
	}
	return domain.Batch{Columns: columns, Records: records}, nil
}

// WriteBatch replaces path with the batch, written in its column order.
func (s *TableStore) WriteBatch(ctx context.Context, path string, batch domain.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	columns := batch.Columns
	if len(columns) == 0 {
		columns = domain.CatalogColumns
	}

	rows := make([][]string, 0, len(batch.Records))
	for _, record := range batch.Records {
		rows = append(rows, encodeRecord(columns, record))
	}
	return writeTable(path, columns, rows)
}

func decodeRecord(columns, row []string) domain.CatalogRecord {
	var record domain.CatalogRecord
	for i, column := range columns {
		value := ""
		if i < len(row) {
			value = strings.TrimSpace(row[i])
		}
		switch column {
		case domain.ColumnID:
			record.ID = value
		case domain.ColumnCreatedAt:
			if ts, ok := parseTimestamp(value); ok {
				record.CreatedAt = ts
			} else if value != "" {
				setExtra(&record, column, value)
			}
		case domain.ColumnTitle:
			record.Title = value
		case domain.ColumnAuthor:
			record.Author = value
		case domain.ColumnYear:
			record.Year = value
		case domain.ColumnType:
			record.Type = domain.PublicationType(value)
		case domain.ColumnLink:
			record.Link = value
		case domain.ColumnDatabase:
			record.Database = value
		case domain.ColumnCategory:
			record.Category = value
		case domain.ColumnCoverImage:
			record.CoverImage = value
		case domain.ColumnExternalRecordID:
			record.ExternalRecordID = value
		case domain.ColumnRelevanceScore:
			if score, err := strconv.Atoi(value); err == nil {
				record.Scored = true
				record.RelevanceScore = score
			}
		case domain.ColumnLanguage:
			record.LanguageVerified = domain.LanguageLabel(value)
		default:
			setExtra(&record, column, value)
		}
	}
	return record
}

func encodeRecord(columns []string, record domain.CatalogRecord) []string {
	row := make([]string, len(columns))
	for i, column := range columns {
		switch column {
		case domain.ColumnID:
			row[i] = record.ID
		case domain.ColumnCreatedAt:
			if record.CreatedAt.IsZero() {
				row[i] = record.Extra[column]
			} else {
				row[i] = record.CreatedAt.Format(domain.CreatedAtLayout)
			}
		case domain.ColumnTitle:
			row[i] = record.Title
		case domain.ColumnAuthor:
			row[i] = record.Author
		case domain.ColumnYear:
			row[i] = record.Year
		case domain.ColumnType:
			row[i] = string(record.Type)
		case domain.ColumnLink:
			row[i] = record.Link
		case domain.ColumnDatabase:
			row[i] = record.Database
		case domain.ColumnCategory:
			row[i] = record.Category
		case domain.ColumnCoverImage:
			row[i] = record.CoverImage
		case domain.ColumnExternalRecordID:
			row[i] = record.ExternalRecordID
		case domain.ColumnRelevanceScore:
			if record.Scored {
				row[i] = strconv.Itoa(record.RelevanceScore)
			}
		case domain.ColumnLanguage:
			row[i] = string(record.LanguageVerified)
		default:
			row[i] = record.Extra[column]
		}
	}
	return row
}

func setExtra(record *domain.CatalogRecord, column, value string) {
	if record.Extra == nil {
		record.Extra = map[string]string{}
	}
	record.Extra[column] = value
}

func parseTimestamp(value string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func canonicalColumn(name string, aliases map[string]string) string {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
	if canonical, ok := aliases[key]; ok {
		return canonical
	}
	for _, column := range domain.CatalogColumns {
		if key == column {
			return column
		}
	}
	for _, column := range domain.ScoreColumns {
		if key == column {
			return column
		}
	}
	return strings.TrimSpace(name)
}

func headerIndex(header []string, aliases map[string]string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if canonical, ok := aliases[key]; ok {
			key = canonical
		}
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}

func cell(row []string, index map[string]int, column string) string {
	i, ok := index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readTable(ctx context.Context, path string) ([]string, [][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows of %s: %w", path, err)
	}
	return header, rows, nil
}

// writeTable writes to a temporary sibling and renames it over path, so a
// failed write leaves the previous file intact.
func writeTable(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
