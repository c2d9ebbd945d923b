package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "DesignCatalog/1.0"

// Placeholders emitted for fields a result row does not carry. The
// normalizer treats them as absent.
const (
	missingTitle   = "Sem título"
	missingAuthor  = "Autor desconhecido"
	missingLink    = "Sem URL"
	missingDate    = "Data não informada"
	missingEdition = "Edição não informada"
)

func defaultClient(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{Timeout: 20 * time.Second}
	}
	return client
}

func fetchBody(ctx context.Context, client *http.Client, pageURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}
	return resp.Body, nil
}

func fetchDocument(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, error) {
	body, err := fetchBody(ctx, client, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if parsed, perr := url.Parse(pageURL); perr == nil {
		doc.Url = parsed
	}
	return doc, nil
}

// text returns the selection's whitespace-collapsed text or fallback.
func text(sel *goquery.Selection, fallback string) string {
	if sel.Length() == 0 {
		return fallback
	}
	value := strings.Join(strings.Fields(sel.Text()), " ")
	if value == "" {
		return fallback
	}
	return value
}

// href returns the first link target of sel resolved against the page URL.
func href(doc *goquery.Document, sel *goquery.Selection, fallback string) string {
	raw, ok := sel.First().Attr("href")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return fallback
	}
	return resolve(doc.Url, raw)
}

func resolve(base *url.URL, raw string) string {
	if base == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

func withQuery(base string, params url.Values) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search url %s: %w", base, err)
	}

	query := parsed.Query()
	for key, values := range params {
		query.Del(key)
		for _, value := range values {
			query.Add(key, value)
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// pageError reports a failure on a page after the first. Records gathered
// from earlier pages are returned alongside it.
func pageError(adapter string, page int, err error) error {
	return fmt.Errorf("%s page %d: %w", adapter, page, err)
}
