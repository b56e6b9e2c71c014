// ABOUTME: Tests for chunking, URL tagging, import and approval
// ABOUTME: Import runs against in-memory SQLite with a deterministic fake embedder
package kb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/frontdesk/internal/config"
	"github.com/harper/frontdesk/internal/models"
	"github.com/harper/frontdesk/internal/retrieval"
	"github.com/harper/frontdesk/internal/storage/sqlite"
)

func TestChunkText_Empty(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
		{"tabs and newlines", "\t\n\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if chunks := ChunkText(tt.text, 800, 120); chunks != nil {
				t.Errorf("ChunkText() = %v, want nil", chunks)
			}
		})
	}
}

func TestChunkText_CollapsesWhitespace(t *testing.T) {
	chunks := ChunkText("Hearing   tests\n\nand\tfittings.", 800, 120)
	if len(chunks) != 1 || chunks[0] != "Hearing tests and fittings." {
		t.Errorf("ChunkText() = %q", chunks)
	}
}

func TestChunkText_Overlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 200) // 2000 runes
	chunks := ChunkText(text, 800, 120)

	// starts at 0, 680, 1360
	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3", len(chunks))
	}
	if len(chunks[0]) != 800 || len(chunks[1]) != 800 || len(chunks[2]) != 640 {
		t.Errorf("chunk lengths = %d/%d/%d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if chunks[0][680:] != chunks[1][:120] {
		t.Error("consecutive chunks should share 120 characters")
	}
}

func TestTagForURL(t *testing.T) {
	tests := []struct {
		url  string
		want models.ChunkTag
	}{
		{"https://clinic.example/Contact-Us", models.TagPolicy},
		{"https://clinic.example/insurance", models.TagPolicy},
		{"https://clinic.example/services/hearing", models.TagServices},
		{"https://clinic.example/about", models.TagGeneral},
	}
	for _, tt := range tests {
		if got := TagForURL(tt.url); got != tt.want {
			t.Errorf("TagForURL(%q) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

type lengthEmbedder struct {
	fail bool
}

func (e lengthEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.fail {
		return nil, errors.New("rate limited")
	}
	return []float32{1, float32(len(text) % 7)}, nil
}

func newStore(t *testing.T) *sqlite.Storage {
	t.Helper()
	store, err := sqlite.NewStorageInMemory()
	if err != nil {
		t.Fatalf("NewStorageInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

var testDocs = []Document{
	{URL: "https://clinic.example/insurance", Title: "Insurance", Text: "We accept Medicare and most plans."},
	{URL: "https://clinic.example/services", Title: "Services", Text: "Hearing tests and hearing aid fittings."},
	{URL: "https://clinic.example/empty", Title: "Empty", Text: "  "},
}

func TestImportApprovalRule(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	imp := NewImporter(store.Chunks, store.Audit, Options{
		ManualPolicyApproval: true,
		Now:                  func() time.Time { return time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC) },
	})

	res, err := imp.Import(ctx, testDocs, "admin")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Sources != 2 || res.Upserted != 2 || res.Pending != 1 || res.Embedded != 0 {
		t.Errorf("result = %+v", res)
	}
	if res.Version != "20250304100000" {
		t.Errorf("Version = %q", res.Version)
	}

	approved, _ := store.Chunks.ListApproved(ctx)
	if len(approved) != 1 || approved[0].Tag != models.TagServices {
		t.Errorf("approved = %+v, want only the services chunk", approved)
	}
	pending, _ := store.Chunks.ListPending(ctx)
	if len(pending) != 1 || pending[0].Tag != models.TagPolicy {
		t.Errorf("pending = %+v, want the insurance chunk", pending)
	}

	entries, _ := store.Audit.Recent(ctx, 10)
	if len(entries) != 1 || entries[0].Action != "kb_import" || entries[0].Actor != "admin" {
		t.Errorf("audit = %+v", entries)
	}
}

func TestImportWithoutManualApproval(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	imp := NewImporter(store.Chunks, store.Audit, Options{})

	if _, err := imp.Import(ctx, testDocs, "admin"); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	approved, _ := store.Chunks.ListApproved(ctx)
	if len(approved) != 2 {
		t.Errorf("approved = %d, want 2", len(approved))
	}
}

func TestReimportUpserts(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	imp := NewImporter(store.Chunks, store.Audit, Options{ManualPolicyApproval: true})

	if _, err := imp.Import(ctx, testDocs, "admin"); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	pending, _ := store.Chunks.ListPending(ctx)
	if _, err := imp.Approve(ctx, []string{pending[0].ChunkID}, true, "admin"); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if _, err := imp.Import(ctx, testDocs, "admin"); err != nil {
		t.Fatalf("second Import() error = %v", err)
	}

	all, _ := store.Chunks.ListAll(ctx)
	if len(all) != 2 {
		t.Errorf("chunks after re-import = %d, want 2", len(all))
	}
	pending, _ = store.Chunks.ListPending(ctx)
	if len(pending) != 1 {
		t.Errorf("re-import should reset policy approval, pending = %d", len(pending))
	}
}

func TestApproveAuditsAndIndexes(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	index, err := retrieval.NewVectorIndex(lengthEmbedder{})
	if err != nil {
		t.Fatalf("NewVectorIndex() error = %v", err)
	}
	imp := NewImporter(store.Chunks, store.Audit, Options{
		ManualPolicyApproval: true,
		Embedder:             lengthEmbedder{},
		Index:                index,
	})

	res, err := imp.Import(ctx, testDocs, "admin")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Embedded != 2 || index.Count() != 2 {
		t.Errorf("embedded = %d indexed = %d, want 2/2", res.Embedded, index.Count())
	}

	// only the services chunk is approved so far
	refs, err := index.Search(ctx, "anything", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(refs) != 1 || refs[0].Title != "Services" {
		t.Errorf("refs before approval = %+v", refs)
	}

	pending, _ := store.Chunks.ListPending(ctx)
	n, err := imp.Approve(ctx, []string{pending[0].ChunkID, "missing"}, true, "reviewer")
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Approve() = %d, want 1", n)
	}

	refs, _ = index.Search(ctx, "anything", 5)
	if len(refs) != 2 {
		t.Errorf("refs after approval = %d, want 2", len(refs))
	}

	entries, _ := store.Audit.Recent(ctx, 1)
	if entries[0].Action != "kb_approval" || entries[0].Actor != "reviewer" {
		t.Errorf("latest audit = %+v", entries[0])
	}
}

func TestImportEmbeddingFailureIsBestEffort(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	imp := NewImporter(store.Chunks, store.Audit, Options{Embedder: lengthEmbedder{fail: true}})

	res, err := imp.Import(ctx, testDocs, "admin")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Upserted != 2 || res.Embedded != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestReadDocuments(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "services.txt"), []byte("Hearing tests."), 0o644); err != nil {
		t.Fatal(err)
	}

	docs, err := ReadDocuments([]config.Source{
		{URL: "https://clinic.example/services", File: "services.txt"},
	}, dir)
	if err != nil {
		t.Fatalf("ReadDocuments() error = %v", err)
	}
	if len(docs) != 1 || docs[0].Title != "services" || docs[0].Text != "Hearing tests." {
		t.Errorf("docs = %+v", docs)
	}

	if _, err := ReadDocuments([]config.Source{{URL: "u", File: "missing.txt"}}, dir); err == nil {
		t.Error("ReadDocuments() should fail for a missing file")
	}
	if _, err := ReadDocuments([]config.Source{{URL: "u"}}, dir); err == nil {
		t.Error("ReadDocuments() should fail for a source without a file")
	}
}
