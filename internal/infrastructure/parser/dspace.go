package parser

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/scanner"
)

const dspacePageSize = 100

// DSpaceScanner queries a DSpace simple-search listing.
type DSpaceScanner struct {
	name      string
	searchURL string
	client    *http.Client
}

var _ scanner.Adapter = (*DSpaceScanner)(nil)

// NewDSpaceScanner wires a DSpace adapter.
func NewDSpaceScanner(name, searchURL string, client *http.Client) *DSpaceScanner {
	return &DSpaceScanner{name: name, searchURL: searchURL, client: defaultClient(client)}
}

// Name identifies the adapter inside the registry.
func (d *DSpaceScanner) Name() string {
	return d.name
}

// Search pages through results dspacePageSize rows at a time.
func (d *DSpaceScanner) Search(ctx context.Context, term string, maxPages int) ([]domain.RawRecord, error) {
	var results []domain.RawRecord
	for page := 0; page < maxPages; page++ {
		pageURL, err := dspacePageURL(d.searchURL, term, page)
		if err != nil {
			return nil, err
		}

		doc, err := fetchDocument(ctx, d.client, pageURL)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			return results, pageError(d.name, page+1, err)
		}

		records := extractDSpaceRows(doc)
		if len(records) == 0 {
			break
		}
		results = append(results, records...)
		if len(records) < dspacePageSize {
			break
		}
	}
	return results, nil
}

func dspacePageURL(base, term string, page int) (string, error) {
	params := url.Values{}
	params.Set("query", term)
	params.Set("rpp", strconv.Itoa(dspacePageSize))
	params.Set("sort_by", "score")
	params.Set("order", "DESC")
	params.Set("etal", "0")
	params.Set("start", strconv.Itoa(page*dspacePageSize))
	return withQuery(base, params)
}

func extractDSpaceRows(doc *goquery.Document) []domain.RawRecord {
	var records []domain.RawRecord
	doc.Find(`td[headers="t2"]`).Each(func(_ int, cell *goquery.Selection) {
		records = append(records, domain.RawRecord{
			Title:  text(cell.Find("a").First(), missingTitle),
			Author: text(cell.NextAllFiltered(`td[headers="t3"]`).First(), missingAuthor),
			Link:   href(doc, cell.Find("a"), missingLink),
			Date:   text(cell.PrevAllFiltered(`td[headers="t1"]`).First(), missingDate),
		})
	})
	return records
}
