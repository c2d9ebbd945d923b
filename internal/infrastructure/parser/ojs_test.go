package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

const searchResultsPage = `
<html><body>
<ul class="search_results">
  <li>
    <h3 class="title"><a href="/index.php/hfd/article/view/101">Usabilidade em   interfaces</a></h3>
    <div class="authors">Ana Souza</div>
    <div class="published">2021-05-10</div>
  </li>
  <li>
    <h3 class="title"><a href="https://example.org/article/view/102">Jornada do usuário</a></h3>
  </li>
</ul>
</body></html>`

const articleSummaryPage = `
<html><body>
<div class="obj_article_summary">
  <h2 class="title"><a href="/triades/article/view/7">Design thinking na prática</a></h2>
  <div class="authors">Carlos Lima</div>
  <div class="published">(2019)</div>
</div>
</body></html>`

const legacyTablePage = `
<html><body>
<table class="listing">
  <tr valign="top">
    <td><a href="/design/issue/view/12">v. 10 n. 2 (2018)</a></td>
    <td>Ergonomia informacional</td>
    <td>
      <a href="/design/article/view/55">Resumo</a>
      <a href="/design/article/download/55/40">PDF</a>
    </td>
  </tr>
  <tr><td colspan="3">Maria Alves</td></tr>
</table>
</body></html>`

func TestBuildOJSPageURL(t *testing.T) {
	t.Parallel()

	o := NewOJSScanner("triades", "https://periodicos.ufjf.br/index.php/triades/search/search", "74", LayoutArticleSummary, nil)
	u, err := o.pageURL("experiência do usuário", 3)
	if err != nil {
		t.Fatalf("pageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}

	q := parsed.Query()
	if q.Get("query") != "experiência do usuário" {
		t.Fatalf("unexpected query %q", q.Get("query"))
	}
	if q.Get("searchPage") != "3" {
		t.Fatalf("expected searchPage=3, got %s", q.Get("searchPage"))
	}
	if q.Get("searchJournal") != "74" {
		t.Fatalf("expected searchJournal=74, got %s", q.Get("searchJournal"))
	}
}

func TestOJSSearchResultsLayout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("searchPage") != "1" {
			_, _ = w.Write([]byte(`<html><body><p>Nenhum resultado</p></body></html>`))
			return
		}
		_, _ = w.Write([]byte(searchResultsPage))
	}))
	defer server.Close()

	o := NewOJSScanner("hfd", server.URL+"/search/index", "", LayoutSearchResults, server.Client())
	records, err := o.Search(context.Background(), "ux", 5)
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Title != "Usabilidade em interfaces" {
		t.Fatalf("unexpected title %q", first.Title)
	}
	if first.Link != server.URL+"/index.php/hfd/article/view/101" {
		t.Fatalf("relative link not resolved: %s", first.Link)
	}
	if first.Author != "Ana Souza" || first.Date != "2021-05-10" {
		t.Fatalf("unexpected author/date %+v", first)
	}

	second := records[1]
	if second.Author != missingAuthor || second.Date != missingDate {
		t.Fatalf("expected placeholders, got %+v", second)
	}
}

func TestOJSArticleSummaryLayout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleSummaryPage))
	}))
	defer server.Close()

	o := NewOJSScanner("triades", server.URL, "74", LayoutArticleSummary, server.Client())
	records, err := o.Search(context.Background(), "design", 1)
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Design thinking na prática" || records[0].Date != "(2019)" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestOJSLegacyTableLayout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(legacyTablePage))
	}))
	defer server.Close()

	o := NewOJSScanner("estudos_em_design", server.URL, "1", LayoutLegacyTable, server.Client())
	records, err := o.Search(context.Background(), "ergonomia", 1)
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Title != "Ergonomia informacional" || rec.Author != "Maria Alves" {
		t.Fatalf("unexpected title/author %+v", rec)
	}
	if rec.Edition != "v. 10 n. 2 (2018)" || !strings.HasSuffix(rec.EditionLink, "/design/issue/view/12") {
		t.Fatalf("unexpected edition %+v", rec)
	}
	if !strings.HasSuffix(rec.AbstractLink, "/design/article/view/55") {
		t.Fatalf("unexpected abstract link %s", rec.AbstractLink)
	}
	if !strings.HasSuffix(rec.PDFLink, "/design/article/download/55/40") {
		t.Fatalf("unexpected pdf link %s", rec.PDFLink)
	}
}

func TestOJSSearchFirstPageFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	o := NewOJSScanner("hfd", server.URL, "", LayoutSearchResults, server.Client())
	if _, err := o.Search(context.Background(), "ux", 3); err == nil {
		t.Fatal("expected error when the first page fails")
	}
}

func TestOJSSearchLaterPageFailureKeepsResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("searchPage") == "2" {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(searchResultsPage))
	}))
	defer server.Close()

	o := NewOJSScanner("hfd", server.URL, "", LayoutSearchResults, server.Client())
	records, err := o.Search(context.Background(), "ux", 3)
	if err == nil {
		t.Fatal("expected page error")
	}
	if len(records) != 2 {
		t.Fatalf("expected first page records to survive, got %d", len(records))
	}
}
