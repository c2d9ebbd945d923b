package domain

import "time"

// Sentinels written in place of values the pipeline cannot populate.
const (
	NoYear          = "Sem ano"
	NoImage         = "Sem imagem"
	NoExternalID    = "Sem ID"
	UnknownDatabase = "Fonte não informada"
	DefaultCategory = "Fundamentos"
)

// CreatedAtLayout is the timestamp layout used by the catalog files.
const CreatedAtLayout = "02/01/2006 15:04:05"

// RawRecord is one result row as emitted by a source adapter.
type RawRecord struct {
	Title        string
	Author       string
	Link         string
	Date         string
	Edition      string
	EditionLink  string
	AbstractLink string
	PDFLink      string
	SourceName   string
	SearchTerm   string
}

// PublicationType classifies a catalog entry.
type PublicationType string

const (
	TypeArticle PublicationType = "Artigo"
	TypeBook    PublicationType = "Livro"
)

// LanguageLabel records whether the title was verified as Portuguese.
type LanguageLabel string

const (
	LanguagePortuguese LanguageLabel = "Português"
	LanguageUnverified LanguageLabel = "Não verificado"
)

// CatalogRecord is the canonical catalog entry.
type CatalogRecord struct {
	ID               string
	CreatedAt        time.Time
	Title            string
	Author           string
	Year             string
	Type             PublicationType
	Link             string
	Database         string
	Category         string
	CoverImage       string
	ExternalRecordID string

	// Set by the relevance filter. Scored is false for rows that never
	// went through it (for example curated catalog rows).
	Scored           bool
	RelevanceScore   int
	LanguageVerified LanguageLabel

	// Extra keeps columns this schema does not know about, keyed by header.
	Extra map[string]string
}

// Key is the deduplication fingerprint: the literal link.
func (r CatalogRecord) Key() string {
	return r.Link
}

// RepositoryStats summarises one repository's acquisition pass.
type RepositoryStats struct {
	Repository string
	Adapter    string
	Records    int
	Terms      map[string]int
	Errors     []string
}

// Failed reports whether every call for the repository errored.
func (s RepositoryStats) Failed() bool {
	return s.Records == 0 && len(s.Errors) > 0
}
