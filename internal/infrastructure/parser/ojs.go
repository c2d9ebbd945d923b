package parser

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/scanner"
)

// OJSLayout names the result markup of an Open Journal Systems theme.
type OJSLayout int

const (
	// LayoutSearchResults is the OJS 3 list: ul.search_results > li.
	LayoutSearchResults OJSLayout = iota
	// LayoutArticleSummary is the OJS 3 card: div.obj_article_summary.
	LayoutArticleSummary
	// LayoutLegacyTable is the OJS 2 table: table.listing rows.
	LayoutLegacyTable
)

// OJSScanner queries an Open Journal Systems search page.
type OJSScanner struct {
	name      string
	searchURL string
	journalID string
	layout    OJSLayout
	client    *http.Client
}

var _ scanner.Adapter = (*OJSScanner)(nil)

// NewOJSScanner wires an OJS adapter. journalID fills searchJournal when set.
func NewOJSScanner(name, searchURL, journalID string, layout OJSLayout, client *http.Client) *OJSScanner {
	return &OJSScanner{
		name:      name,
		searchURL: searchURL,
		journalID: journalID,
		layout:    layout,
		client:    defaultClient(client),
	}
}

// Name identifies the adapter inside the registry.
func (o *OJSScanner) Name() string {
	return o.name
}

// Search walks result pages until maxPages or an empty page.
func (o *OJSScanner) Search(ctx context.Context, term string, maxPages int) ([]domain.RawRecord, error) {
	var results []domain.RawRecord
	for page := 1; page <= maxPages; page++ {
		pageURL, err := o.pageURL(term, page)
		if err != nil {
			return nil, err
		}

		doc, err := fetchDocument(ctx, o.client, pageURL)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			return results, pageError(o.name, page, err)
		}

		records := o.extract(doc)
		if len(records) == 0 {
			break
		}
		results = append(results, records...)
	}
	return results, nil
}

func (o *OJSScanner) pageURL(term string, page int) (string, error) {
	params := url.Values{}
	params.Set("query", term)
	params.Set("searchPage", strconv.Itoa(page))
	if o.journalID != "" {
		params.Set("searchJournal", o.journalID)
	}
	return withQuery(o.searchURL, params)
}

func (o *OJSScanner) extract(doc *goquery.Document) []domain.RawRecord {
	switch o.layout {
	case LayoutArticleSummary:
		return extractCards(doc, "div.obj_article_summary", "h2.title, h3.title, div.title")
	case LayoutLegacyTable:
		return extractLegacyTable(doc)
	default:
		return extractCards(doc, "ul.search_results > li", "h3.title, h2.title, div.title")
	}
}

func extractCards(doc *goquery.Document, itemSelector, titleSelector string) []domain.RawRecord {
	var records []domain.RawRecord
	doc.Find(itemSelector).Each(func(_ int, item *goquery.Selection) {
		title := item.Find(titleSelector).First()
		records = append(records, domain.RawRecord{
			Title:  text(title, missingTitle),
			Author: text(item.Find("div.authors").First(), missingAuthor),
			Link:   href(doc, title.Find("a"), missingLink),
			Date:   text(item.Find("div.published").First(), missingDate),
		})
	})
	return records
}

// extractLegacyTable reads the OJS 2 listing where each hit spans two rows:
// edition, title and links first, authors in the following row.
func extractLegacyTable(doc *goquery.Document) []domain.RawRecord {
	var records []domain.RawRecord
	doc.Find(`table.listing tr[valign="top"]`).Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		edition := cells.Eq(0).Find("a").First()

		record := domain.RawRecord{
			Title:       text(cells.Eq(1), missingTitle),
			Author:      text(row.NextFiltered("tr"), missingAuthor),
			Edition:     text(edition, missingEdition),
			EditionLink: href(doc, edition, "Sem link"),
		}

		cells.Eq(2).Find("a").Each(func(_ int, link *goquery.Selection) {
			target := href(doc, link, "")
			switch {
			case strings.Contains(target, "article/download"):
				if record.PDFLink == "" {
					record.PDFLink = target
				}
			case strings.Contains(target, "article/view"):
				if record.AbstractLink == "" {
					record.AbstractLink = target
				} else if record.PDFLink == "" {
					record.PDFLink = target
				}
			}
		})
		if record.AbstractLink == "" {
			record.AbstractLink = "Sem resumo"
		}
		if record.PDFLink == "" {
			record.PDFLink = "Sem PDF"
		}
		records = append(records, record)
	})
	return records
}
