package domain

// Column names of the canonical catalog schema, in file order.
const (
	ColumnID               = "id"
	ColumnCreatedAt        = "timestamp"
	ColumnTitle            = "title"
	ColumnAuthor           = "author"
	ColumnYear             = "year"
	ColumnType             = "type"
	ColumnLink             = "link"
	ColumnDatabase         = "database"
	ColumnCategory         = "category"
	ColumnCoverImage       = "cover_image"
	ColumnExternalRecordID = "external_record_id"
	ColumnRelevanceScore   = "relevance_score"
	ColumnLanguage         = "language_verified"
)

// CatalogColumns is the canonical column set of every catalog-shaped file.
var CatalogColumns = []string{
	ColumnID,
	ColumnCreatedAt,
	ColumnTitle,
	ColumnAuthor,
	ColumnYear,
	ColumnType,
	ColumnLink,
	ColumnDatabase,
	ColumnCategory,
	ColumnCoverImage,
	ColumnExternalRecordID,
}

// ScoreColumns are appended once records have been through the filter.
var ScoreColumns = []string{ColumnRelevanceScore, ColumnLanguage}

// Batch couples records with the column set they were produced or loaded with.
type Batch struct {
	Columns []string
	Records []CatalogRecord
}

// NewBatch returns a batch carrying the canonical columns.
func NewBatch(records []CatalogRecord) Batch {
	columns := make([]string, len(CatalogColumns))
	copy(columns, CatalogColumns)
	return Batch{Columns: columns, Records: records}
}

// HasColumn reports whether the batch schema contains name.
func (b Batch) HasColumn(name string) bool {
	for _, column := range b.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the entries of required absent from the schema.
func (b Batch) MissingColumns(required []string) []string {
	var missing []string
	for _, column := range required {
		if !b.HasColumn(column) {
			missing = append(missing, column)
		}
	}
	return missing
}

// WithScoreColumns returns a copy of the batch whose schema includes the
// filtering columns.
func (b Batch) WithScoreColumns(records []CatalogRecord) Batch {
	columns := make([]string, 0, len(b.Columns)+len(ScoreColumns))
	columns = append(columns, b.Columns...)
	for _, column := range ScoreColumns {
		if !b.HasColumn(column) {
			columns = append(columns, column)
		}
	}
	return Batch{Columns: columns, Records: records}
}

// Len returns the number of records.
func (b Batch) Len() int {
	return len(b.Records)
}
