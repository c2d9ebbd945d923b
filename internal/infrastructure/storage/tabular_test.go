package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"DesignCatalog/internal/domain"
)

func TestAppendRawAccumulates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "raw.csv")
	store := NewTableStore()

	first := []domain.RawRecord{{Title: "Usabilidade", Link: "https://a", SourceName: "InfoDesign", SearchTerm: "ux"}}
	second := []domain.RawRecord{{Title: "Interação", Link: "https://b", Date: "2021-03-01"}}

	if err := store.AppendRaw(ctx, path, first); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := store.AppendRaw(ctx, path, second); err != nil {
		t.Fatalf("second append: %v", err)
	}

	got, err := store.ReadRaw(ctx, path)
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].SourceName != "InfoDesign" || got[0].SearchTerm != "ux" {
		t.Fatalf("source/term lost: %+v", got[0])
	}
	if got[1].Date != "2021-03-01" {
		t.Fatalf("expected date to round trip, got %+v", got[1])
	}
}

func TestReadRawMissingFile(t *testing.T) {
	t.Parallel()

	got, err := NewTableStore().ReadRaw(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v, %v", got, err)
	}
}

func TestReadBatchAliasesAndExtraColumns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.csv")
	content := "id,created_at,title,author,year,publication_type,link,catalog_source,category,cover_image,🔐 Softr Record ID,notes\n" +
		"1,05/03/2024 10:20:30,Usabilidade,Silva,2020,Artigo,https://a,InfoDesign,Fundamentos,Sem imagem,rec42,curated\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store := NewTableStore()
	batch, err := store.ReadBatch(context.Background(), path)
	if err != nil {
		t.Fatalf("read batch: %v", err)
	}
	if missing := batch.MissingColumns(domain.CatalogColumns); len(missing) != 0 {
		t.Fatalf("aliases not resolved, missing %v", missing)
	}

	rec := batch.Records[0]
	if rec.Database != "InfoDesign" || rec.ExternalRecordID != "rec42" || rec.Type != domain.TypeArticle {
		t.Fatalf("unexpected record %+v", rec)
	}
	want := time.Date(2024, 3, 5, 10, 20, 30, 0, time.Local)
	if !rec.CreatedAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, rec.CreatedAt)
	}
	if rec.Extra["notes"] != "curated" {
		t.Fatalf("extra column lost: %+v", rec.Extra)
	}

	out := filepath.Join(t.TempDir(), "out.csv")
	if err := store.WriteBatch(context.Background(), out, batch); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	written, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(written), "notes") || !strings.Contains(string(written), "curated") {
		t.Fatalf("extra column not written back:\n%s", written)
	}
}

func TestWriteBatchScoreColumns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "filtered.csv")
	batch := domain.NewBatch(nil).WithScoreColumns([]domain.CatalogRecord{{
		Title:            "UX design",
		Link:             "https://a",
		Scored:           true,
		RelevanceScore:   5,
		LanguageVerified: domain.LanguagePortuguese,
	}})

	store := NewTableStore()
	if err := store.WriteBatch(ctx, path, batch); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := store.ReadBatch(ctx, path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Records[0].RelevanceScore != 5 || !got.Records[0].Scored || got.Records[0].LanguageVerified != domain.LanguagePortuguese {
		t.Fatalf("score columns lost: %+v", got.Records[0])
	}
}

func TestFileCatalogLockAndReplace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	catalog := NewFileCatalog(filepath.Join(t.TempDir(), "base", "catalog.csv"), nil)

	unlock, err := catalog.Lock(ctx)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	empty, err := catalog.Load(ctx)
	if err != nil || empty.Len() != 0 {
		t.Fatalf("expected empty catalog, got %v, %v", empty, err)
	}

	batch := domain.NewBatch([]domain.CatalogRecord{{ID: "1", Title: "Usabilidade", Link: "https://a"}})
	if err := catalog.Replace(ctx, batch); err != nil {
		t.Fatalf("replace: %v", err)
	}
	loaded, err := catalog.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 1 || loaded.Records[0].Link != "https://a" {
		t.Fatalf("unexpected catalog %+v", loaded.Records)
	}
}

func TestFileCatalogLockTimesOut(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.csv")
	holder := NewFileCatalog(path, nil)
	unlock, err := holder.Lock(context.Background())
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := NewFileCatalog(path, nil).Lock(ctx); err == nil {
		t.Fatal("expected second lock to fail while the first is held")
	}
}
