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

// WordPressScanner queries a WordPress site search (?s=term).
type WordPressScanner struct {
	name    string
	siteURL string
	client  *http.Client
}

var _ scanner.Adapter = (*WordPressScanner)(nil)

// NewWordPressScanner wires a WordPress adapter rooted at siteURL.
func NewWordPressScanner(name, siteURL string, client *http.Client) *WordPressScanner {
	return &WordPressScanner{name: name, siteURL: siteURL, client: defaultClient(client)}
}

// Name identifies the adapter inside the registry.
func (w *WordPressScanner) Name() string {
	return w.name
}

// Search walks result pages until maxPages or an empty page.
func (w *WordPressScanner) Search(ctx context.Context, term string, maxPages int) ([]domain.RawRecord, error) {
	var results []domain.RawRecord
	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("s", term)
		if page > 1 {
			params.Set("paged", strconv.Itoa(page))
		}
		pageURL, err := withQuery(w.siteURL, params)
		if err != nil {
			return nil, err
		}

		doc, err := fetchDocument(ctx, w.client, pageURL)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			return results, pageError(w.name, page, err)
		}

		records := extractPosts(doc)
		if len(records) == 0 {
			break
		}
		results = append(results, records...)
	}
	return results, nil
}

func extractPosts(doc *goquery.Document) []domain.RawRecord {
	var records []domain.RawRecord
	doc.Find("article").Each(func(_ int, item *goquery.Selection) {
		title := item.Find("h1.entry-title, h2.entry-title").First()
		records = append(records, domain.RawRecord{
			Title:  text(title, missingTitle),
			Author: text(item.Find("p.author, .author").First(), missingAuthor),
			Link:   href(doc, title.Find("a"), missingLink),
			Date:   text(item.Find("p.date, time.entry-date").First(), missingDate),
		})
	})
	return records
}
