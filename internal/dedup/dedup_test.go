package dedup

import (
	"testing"

	"DesignCatalog/internal/domain"
)

func rec(link, source, category string) domain.CatalogRecord {
	return domain.CatalogRecord{Title: "t " + link, Link: link, Database: source, Category: category}
}

func links(records []domain.CatalogRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Link
	}
	return out
}

func equalLinks(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReconcileEmptyCatalogKeepsEveryUniqueCandidate(t *testing.T) {
	t.Parallel()

	candidates := domain.NewBatch([]domain.CatalogRecord{rec("a", "", ""), rec("b", "", ""), rec("a", "", "")})
	result := New(ModeReview, nil).Reconcile(candidates, nil)

	if got := links(result.New.Records); !equalLinks(got, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", got)
	}
	if result.Duplicates != 1 {
		t.Fatalf("expected 1 intra-batch duplicate, got %d", result.Duplicates)
	}
	if result.CatalogChanged {
		t.Fatal("review mode must not change the catalog")
	}
}

func TestReconcileReviewLeavesCatalogUntouched(t *testing.T) {
	t.Parallel()

	existing := []domain.CatalogRecord{rec("a", "", ""), rec("a", "", "")}
	candidates := domain.NewBatch([]domain.CatalogRecord{rec("a", "", ""), rec("c", "", "")})
	result := New(ModeReview, nil).Reconcile(candidates, existing)

	if got := links(result.New.Records); !equalLinks(got, []string{"c"}) {
		t.Fatalf("expected [c], got %v", got)
	}
	if got := links(result.Catalog); !equalLinks(got, []string{"a", "a"}) {
		t.Fatalf("expected catalog unchanged, got %v", got)
	}
}

func TestReconcileAutoMergeCollapsesAndAppends(t *testing.T) {
	t.Parallel()

	existing := []domain.CatalogRecord{rec("a", "", ""), rec("b", "", ""), rec("a", "", "")}
	candidates := domain.NewBatch([]domain.CatalogRecord{rec("b", "", ""), rec("c", "", ""), rec("c", "", "")})
	result := New(ModeAutoMerge, nil).Reconcile(candidates, existing)

	if got := links(result.Catalog); !equalLinks(got, []string{"a", "b", "c"}) {
		t.Fatalf("expected merged [a b c], got %v", got)
	}
	if result.CollapsedExisting != 1 {
		t.Fatalf("expected 1 collapsed row, got %d", result.CollapsedExisting)
	}
	if !result.CatalogChanged {
		t.Fatal("expected catalog change")
	}

	keys := map[string]int{}
	for _, r := range result.Catalog {
		keys[r.Key()]++
	}
	for key, n := range keys {
		if n != 1 {
			t.Fatalf("key %s appears %d times", key, n)
		}
	}
}

func TestReconcileAutoMergeKeepsOneLinklessRow(t *testing.T) {
	t.Parallel()

	existing := []domain.CatalogRecord{rec("", "", ""), rec("a", "", ""), rec("", "", "")}
	candidates := domain.NewBatch([]domain.CatalogRecord{rec("", "", ""), rec("b", "", "")})

	merged := New(ModeAutoMerge, nil).Reconcile(candidates, existing)
	if got := links(merged.Catalog); !equalLinks(got, []string{"", "a", "b"}) {
		t.Fatalf("expected merged [\"\" a b], got %q", got)
	}
	if merged.CollapsedExisting != 1 || merged.Duplicates != 1 {
		t.Fatalf("collapsed/duplicates = %d/%d, want 1/1", merged.CollapsedExisting, merged.Duplicates)
	}

	review := New(ModeReview, nil).Reconcile(candidates, existing)
	if got := links(review.New.Records); !equalLinks(got, []string{"", "b"}) {
		t.Fatalf("review should report link-less candidates as new, got %q", got)
	}
	if len(review.Catalog) != 3 {
		t.Fatalf("review changed the catalog: %d rows", len(review.Catalog))
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	t.Parallel()

	dedup := New(ModeAutoMerge, nil)
	candidates := domain.NewBatch([]domain.CatalogRecord{rec("x", "", ""), rec("y", "", "")})
	first := dedup.Reconcile(candidates, []domain.CatalogRecord{rec("w", "", "")})
	second := dedup.Reconcile(candidates, first.Catalog)

	if second.New.Len() != 0 {
		t.Fatalf("expected no new records on second pass, got %v", links(second.New.Records))
	}
	if second.CatalogChanged {
		t.Fatal("second pass must not change the catalog")
	}
	if !equalLinks(links(second.Catalog), links(first.Catalog)) {
		t.Fatalf("catalog drifted: %v vs %v", links(second.Catalog), links(first.Catalog))
	}
}

func TestReconcileWithoutLinkColumnPassesThrough(t *testing.T) {
	t.Parallel()

	candidates := domain.Batch{Columns: []string{domain.ColumnTitle}, Records: []domain.CatalogRecord{{Title: "x"}, {Title: "y"}}}
	result := New(ModeAutoMerge, nil).Reconcile(candidates, []domain.CatalogRecord{rec("a", "", "")})

	if !result.Degraded {
		t.Fatal("expected degraded result")
	}
	if result.New.Len() != 2 || result.CatalogChanged {
		t.Fatalf("expected pass-through without catalog change, got %+v", result)
	}
}

func TestReconcileCatalogWithoutLinkColumn(t *testing.T) {
	t.Parallel()

	catalog := domain.Batch{Columns: []string{domain.ColumnTitle}, Records: []domain.CatalogRecord{{Title: "old"}}}
	candidates := domain.NewBatch([]domain.CatalogRecord{rec("a", "", "")})
	result := New(ModeAutoMerge, nil).ReconcileCatalog(candidates, catalog)

	if !result.Degraded || result.CatalogChanged || result.New.Len() != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	cases := map[string]Mode{
		"":           ModeReview,
		"review":     ModeReview,
		"Auto-Merge": ModeAutoMerge,
		"auto_merge": ModeAutoMerge,
	}
	for input, want := range cases {
		got, err := ParseMode(input)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParseMode("merge-everything"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestStatistics(t *testing.T) {
	t.Parallel()

	stats := Statistics([]domain.CatalogRecord{
		rec("a", "InfoDesign", "Visual"),
		rec("b", "InfoDesign", "Fundamentos"),
		rec("c", "Arcos Design", "Fundamentos"),
	})
	if stats.Total != 3 || stats.UniqueSources() != 2 || stats.UniqueCategories() != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	sources := stats.Sources()
	if sources[0].Name != "InfoDesign" || sources[0].Count != 2 {
		t.Fatalf("expected InfoDesign first, got %+v", sources)
	}
}
