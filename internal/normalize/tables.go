package normalize

import (
	"strings"

	"DesignCatalog/internal/domain"
)

// mapping is one ordered substring rule: the first key contained in the
// input wins.
type mapping struct {
	key   string
	value string
}

// Keys are matched against folded (lower-case, accent-free) text.
var categoryTable = []mapping{
	{"experiencia", "Fundamentos"},
	{"usuario", "Fundamentos"},
	{"interface", "Visual"},
	{"usabilidade", "Fundamentos"},
	{"interacao", "Fundamentos"},
	{"sistema", "Tecnologia"},
	{"ergonomia", "Fundamentos"},
	{"digital", "Tecnologia"},
	{"informacao", "Informação"},
	{"tecnologia", "Tecnologia"},
	{"inteligencia artificial", "Tecnologia"},
	{"design thinking", "Processos"},
	{"ux", "Fundamentos"},
}

var databaseTable = []mapping{
	{"estudos em design", "Revista Estudos em Design"},
	{"infodesign", "InfoDesign"},
	{"human factors in design", "Human Factors in Design"},
	{"arcos design", "Arcos Design"},
	{"design e tecnologia", "Design e Tecnologia"},
	{"triades", "Tríades em Revista"},
	{"educacao grafica", "Educação Gráfica"},
}

// journalMarkers identify catalog sources that only publish articles.
var journalMarkers = []string{
	"revista",
	"journal",
	"estudos",
	"infodesign",
	"human factors",
	"arcos",
	"triades",
	"educacao grafica",
}

var bookMarkers = []string{"livro", "book", "manual", "guia"}

// placeholders are adapter fallbacks that mean "no value". Compared folded.
var placeholders = map[string]struct{}{
	"sem titulo":           {},
	"titulo nao informado": {},
	"no title":             {},
	"autor desconhecido":   {},
	"unknown author":       {},
	"data nao informada":   {},
	"no date":              {},
	"edicao nao informada": {},
	"sem url":              {},
	"no url":               {},
	"sem link":             {},
	"sem resumo":           {},
	"sem pdf":              {},
	"nan":                  {},
	"none":                 {},
	"<na>":                 {},
	"null":                 {},
}

// missingValues are the spellings of an absent cell in tabular input.
var missingValues = map[string]struct{}{
	"nan":  {},
	"none": {},
	"<na>": {},
	"null": {},
}

// requiredColumns must be present in every normalized batch.
var requiredColumns = domain.CatalogColumns

func lookup(table []mapping, folded string) (string, bool) {
	for _, m := range table {
		if strings.Contains(folded, m.key) {
			return m.value, true
		}
	}
	return "", false
}
