package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/storage"
	vectorstore_mocks "github.com/radulovicigor/CBCGchatbot/internal/vectorstore/mocks"
)

const collectionJSON = `[
  {"id": "n1", "title": "Vijest", "content": "Sadržaj vijesti", "source": "cbcg.me", "url": "https://cbcg.me/a", "published_at": "2025-01-10", "type": "news"},
  {"id": "n1", "title": "Druga vijest", "content": "Isti id", "source": "cbcg.me", "type": "news"},
  {"title": "Vijest", "content": "Isti naslov", "source": "cbcg.me", "type": "news"},
  {"id": "e1", "title": "Prazno", "content": "", "source": "cbcg.me", "type": "news"},
  {"id": "pdf_page_1_0", "title": "SEPA Q&A", "content": "SEPA je jedinstvena platna oblast.", "source": "pdf:SEPA_QnA", "page": 1, "type": "faq"},
  {"id": "pdf_page_2_0", "title": "SEPA Q&A", "content": "SEPA kreditni transfer traje najviše jedan radni dan.", "source": "pdf:SEPA_QnA", "page": 2, "type": "faq"},
  {"id": "pdf_page_2_1", "title": "SEPA Q&A", "content": "IBAN je obavezan za SEPA plaćanja.", "source": "pdf:SEPA_QnA", "page": 2, "type": "faq"},
  {"title": "SEPA Q&A", "content": "Direktno zaduženje zahtijeva saglasnost platioca.", "source": "pdf:SEPA_QnA", "page": 3}
]`

type fakeIndexer struct {
	built  [][]document.Document
	err    error
	embeds int
}

func (f *fakeIndexer) Build(_ context.Context, docs []document.Document) error {
	if f.err != nil {
		return f.err
	}
	f.built = append(f.built, docs)
	return nil
}

func (f *fakeIndexer) Embed(_ context.Context, _ string) []float32 {
	f.embeds++
	return []float32{1, 0, 0}
}

type fakeMirror struct {
	*vectorstore_mocks.MockVectorStore
	ensured map[string]int
}

func (f *fakeMirror) EnsureCollection(_ context.Context, collection string, vectorSize int) error {
	f.ensured[collection] = vectorSize
	return nil
}

func newTestStore(t *testing.T) *storage.DocumentRepo {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}
	return storage.NewDocumentRepo(db)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestPipeline_ImportJSON(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	pipeline := NewPipeline(repo, &fakeIndexer{}, nil)

	path := filepath.Join(t.TempDir(), "parsed_data.json")
	writeFile(t, path, collectionJSON)

	res, err := pipeline.ImportJSON(ctx, path)
	if err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}
	want := Result{Read: 8, Inserted: 5, Duplicates: 2, Rejected: 1}
	if res != want {
		t.Errorf("ImportJSON() = %+v, want %+v", res, want)
	}

	docs, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(docs) != 5 {
		t.Fatalf("stored %d documents, want 5", len(docs))
	}

	// Every chunk of the PDF shares one title and must survive the import.
	wantPages := []int{1, 2, 2, 3}
	for i, page := range wantPages {
		doc := docs[i+1]
		if doc.Title != "SEPA Q&A" || doc.Type != document.TypeFAQ || doc.Page == nil || *doc.Page != page {
			t.Errorf("pdf record %d = %+v, want faq on page %d", i, doc, page)
		}
	}
	if docs[4].ID == "" {
		t.Error("missing id should be derived from content")
	}

	// A second import of the same file adds nothing.
	res, err = pipeline.ImportJSON(ctx, path)
	if err != nil {
		t.Fatalf("second ImportJSON() error = %v", err)
	}
	if res.Inserted != 0 || res.Duplicates != 7 {
		t.Errorf("second ImportJSON() = %+v, want everything deduplicated", res)
	}
}

func TestPipeline_ImportJSON_Errors(t *testing.T) {
	ctx := context.Background()
	pipeline := NewPipeline(newTestStore(t), &fakeIndexer{}, nil)
	dir := t.TempDir()

	if _, err := pipeline.ImportJSON(ctx, filepath.Join(dir, "missing.json")); err == nil {
		t.Error("ImportJSON() should fail for a missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, `{"not": "a list"}`)
	if _, err := pipeline.ImportJSON(ctx, bad); err == nil {
		t.Error("ImportJSON() should fail for malformed JSON")
	}
}

func TestPipeline_IngestFAQ(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	pipeline := NewPipeline(repo, &fakeIndexer{}, nil)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sepa_vodic.md"), sepaGuide)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, ".git", "hidden.md"), "# Skriveno\n\nNe.")

	res, err := pipeline.IngestFAQ(ctx, dir)
	if err != nil {
		t.Fatalf("IngestFAQ() error = %v", err)
	}
	if res.Inserted != 3 {
		t.Errorf("IngestFAQ() inserted %d, want 3", res.Inserted)
	}

	count, _ := repo.Count(ctx)
	if count != 3 {
		t.Errorf("store holds %d documents, want 3", count)
	}
}

func TestPipeline_Rebuild(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	indexer := &fakeIndexer{}
	pipeline := NewPipeline(repo, indexer, nil)

	path := filepath.Join(t.TempDir(), "parsed_data.json")
	writeFile(t, path, collectionJSON)
	if _, err := pipeline.ImportJSON(ctx, path); err != nil {
		t.Fatal(err)
	}

	n, err := pipeline.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if n != 5 || len(indexer.built) != 1 || len(indexer.built[0]) != 5 {
		t.Errorf("Rebuild() indexed %d documents, builds = %d", n, len(indexer.built))
	}
	if indexer.embeds != 0 {
		t.Error("Rebuild() without a mirror should not embed")
	}
}

func TestPipeline_Rebuild_BuildError(t *testing.T) {
	pipeline := NewPipeline(newTestStore(t), &fakeIndexer{err: errors.New("embedding provider down")}, nil)

	if _, err := pipeline.Rebuild(context.Background()); err == nil {
		t.Error("Rebuild() should report a failed build")
	}
}

func TestPipeline_Rebuild_Mirror(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	repo := newTestStore(t)
	mirror := &fakeMirror{
		MockVectorStore: vectorstore_mocks.NewMockVectorStore(ctrl),
		ensured:         map[string]int{},
	}
	indexer := &fakeIndexer{}
	pipeline := NewPipeline(repo, indexer, &MirrorOptions{
		Store:          mirror,
		FAQCollection:  "faq_sepa",
		NewsCollection: "news_cbcg",
		Dim:            3,
	})

	path := filepath.Join(t.TempDir(), "parsed_data.json")
	writeFile(t, path, collectionJSON)
	if _, err := pipeline.ImportJSON(ctx, path); err != nil {
		t.Fatal(err)
	}

	mirror.EXPECT().Upsert(gomock.Any(), "faq_sepa", gomock.Len(4)).Return(nil)
	mirror.EXPECT().Upsert(gomock.Any(), "news_cbcg", gomock.Len(1)).Return(nil)

	if _, err := pipeline.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if mirror.ensured["faq_sepa"] != 3 || mirror.ensured["news_cbcg"] != 3 {
		t.Errorf("collections ensured = %v", mirror.ensured)
	}
	if indexer.embeds != 5 {
		t.Errorf("embedded %d documents, want 5", indexer.embeds)
	}
}

func TestPipeline_Refresh(t *testing.T) {
	ctx := context.Background()
	indexer := &fakeIndexer{}
	pipeline := NewPipeline(newTestStore(t), indexer, nil)

	path := filepath.Join(t.TempDir(), "parsed_data.json")
	writeFile(t, path, collectionJSON)

	if err := pipeline.Refresh(ctx, path); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(indexer.built) != 1 {
		t.Fatalf("first Refresh() should rebuild, builds = %d", len(indexer.built))
	}

	if err := pipeline.Refresh(ctx, path); err != nil {
		t.Fatalf("second Refresh() error = %v", err)
	}
	if len(indexer.built) != 1 {
		t.Errorf("Refresh() without new documents should not rebuild, builds = %d", len(indexer.built))
	}
}
