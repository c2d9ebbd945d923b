package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"DesignCatalog/internal/domain"
	"DesignCatalog/internal/scanner"
	"DesignCatalog/internal/textutil"
)

// FeedScanner reads an RSS/Atom feed and keeps the entries mentioning the
// term. Feeds have no pages; maxPages is ignored.
type FeedScanner struct {
	name    string
	feedURL string
	client  *http.Client
}

var _ scanner.Adapter = (*FeedScanner)(nil)

// NewFeedScanner wires a feed adapter.
func NewFeedScanner(name, feedURL string, client *http.Client) *FeedScanner {
	return &FeedScanner{name: name, feedURL: feedURL, client: defaultClient(client)}
}

// Name identifies the adapter inside the registry.
func (f *FeedScanner) Name() string {
	return f.name
}

// Search fetches the feed once and filters its items by term.
func (f *FeedScanner) Search(ctx context.Context, term string, _ int) ([]domain.RawRecord, error) {
	body, err := fetchBody(ctx, f.client, f.feedURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("feed parse failed: %w", err)
	}

	needle := textutil.Fold(strings.TrimSpace(term))
	var records []domain.RawRecord
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		haystack := textutil.Fold(item.Title + " " + item.Description)
		if needle != "" && !strings.Contains(haystack, needle) {
			continue
		}
		records = append(records, feedRecord(item))
	}
	return records, nil
}

func feedRecord(item *gofeed.Item) domain.RawRecord {
	record := domain.RawRecord{
		Title:  strings.TrimSpace(item.Title),
		Author: missingAuthor,
		Link:   strings.TrimSpace(item.Link),
		Date:   missingDate,
	}
	if record.Title == "" {
		record.Title = missingTitle
	}
	if record.Link == "" {
		record.Link = missingLink
	}

	var names []string
	for _, person := range item.Authors {
		if person != nil && strings.TrimSpace(person.Name) != "" {
			names = append(names, strings.TrimSpace(person.Name))
		}
	}
	if len(names) > 0 {
		record.Author = strings.Join(names, "; ")
	}

	switch {
	case item.PublishedParsed != nil:
		record.Date = item.PublishedParsed.Format("2006-01-02")
	case item.UpdatedParsed != nil:
		record.Date = item.UpdatedParsed.Format("2006-01-02")
	case item.Published != "":
		record.Date = item.Published
	}
	return record
}
