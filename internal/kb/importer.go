// ABOUTME: Imports local knowledge files into approved-or-pending chunks
// ABOUTME: Re-imports upsert by content-derived id; embeddings and the vector index are best-effort
package kb

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/frontdesk/internal/config"
	"github.com/harper/frontdesk/internal/models"
	"github.com/harper/frontdesk/internal/retrieval"
)

// ChunkStore persists knowledge chunks
type ChunkStore interface {
	Upsert(ctx context.Context, chunk *models.KnowledgeChunk) error
	SetApproved(ctx context.Context, chunkIDs []string, approved bool) (int, error)
	Get(ctx context.Context, chunkID string) (*models.KnowledgeChunk, error)
}

// AuditRecorder writes audit entries
type AuditRecorder interface {
	Record(ctx context.Context, actor, action string, payload map[string]any) error
}

// Document is the text of one knowledge source
type Document struct {
	URL   string
	Title string
	Text  string
}

// ImportResult summarizes one import run
type ImportResult struct {
	Version  string `json:"version"`
	Sources  int    `json:"sources"`
	Upserted int    `json:"upserted_chunks"`
	Pending  int    `json:"pending_chunks"`
	Embedded int    `json:"embedded_chunks"`
}

// Options configure an Importer
type Options struct {
	// ManualPolicyApproval holds policy-tagged chunks until an operator approves them
	ManualPolicyApproval bool
	Embedder             retrieval.Embedder
	Index                *retrieval.VectorIndex
	Logger               *slog.Logger
	Now                  func() time.Time
}

// Importer loads documents into the knowledge base
type Importer struct {
	chunks ChunkStore
	audit  AuditRecorder
	opts   Options
}

// NewImporter creates an Importer
func NewImporter(chunks ChunkStore, audit AuditRecorder, opts Options) *Importer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Importer{chunks: chunks, audit: audit, opts: opts}
}

// ReadDocuments loads profile sources from disk. Relative files resolve against baseDir.
func ReadDocuments(sources []config.Source, baseDir string) ([]Document, error) {
	docs := make([]Document, 0, len(sources))
	for _, src := range sources {
		if src.File == "" {
			return nil, fmt.Errorf("source %s has no file", src.URL)
		}
		path := src.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read source %s: %w", src.URL, err)
		}
		title := src.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		docs = append(docs, Document{URL: src.URL, Title: title, Text: string(b)})
	}
	return docs, nil
}

// Import chunks and stores every document, then writes one kb_import audit entry
func (i *Importer) Import(ctx context.Context, docs []Document, actor string) (*ImportResult, error) {
	res := &ImportResult{Version: i.opts.Now().UTC().Format("20060102150405")}
	urls := make([]string, 0, len(docs))

	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			i.opts.Logger.Warn("skipping empty knowledge source", "url", doc.URL)
			continue
		}
		res.Sources++
		urls = append(urls, doc.URL)

		tag := TagForURL(doc.URL)
		approved := !(i.opts.ManualPolicyApproval && tag == models.TagPolicy)

		for idx, content := range ChunkText(doc.Text, DefaultChunkSize, DefaultChunkOverlap) {
			chunk := &models.KnowledgeChunk{
				ChunkID:   models.ChunkID(doc.URL, idx, content),
				SourceURL: doc.URL,
				Title:     doc.Title,
				Content:   content,
				Tag:       tag,
				Approved:  approved,
				Version:   res.Version,
				Embedding: i.embed(ctx, content),
			}
			if err := i.chunks.Upsert(ctx, chunk); err != nil {
				return nil, fmt.Errorf("store chunk %d of %s: %w", idx, doc.URL, err)
			}
			res.Upserted++
			if !approved {
				res.Pending++
			}
			if len(chunk.Embedding) > 0 {
				res.Embedded++
				i.reindex(ctx, chunk.ChunkID)
			}
		}
	}

	if err := i.audit.Record(ctx, actor, "kb_import", map[string]any{
		"urls":     urls,
		"version":  res.Version,
		"upserted": res.Upserted,
	}); err != nil {
		return nil, fmt.Errorf("audit kb import: %w", err)
	}

	i.opts.Logger.Info("knowledge import complete",
		"sources", res.Sources, "upserted", res.Upserted, "pending", res.Pending, "embedded", res.Embedded)
	return res, nil
}

// Approve sets the approval flag on chunks, records a kb_approval entry and refreshes the vector index.
// It returns how many chunks matched.
func (i *Importer) Approve(ctx context.Context, chunkIDs []string, approved bool, actor string) (int, error) {
	n, err := i.chunks.SetApproved(ctx, chunkIDs, approved)
	if err != nil {
		return 0, fmt.Errorf("set approval: %w", err)
	}

	if err := i.audit.Record(ctx, actor, "kb_approval", map[string]any{
		"chunk_ids": chunkIDs,
		"approved":  approved,
	}); err != nil {
		return 0, fmt.Errorf("audit kb approval: %w", err)
	}

	for _, id := range chunkIDs {
		i.reindex(ctx, id)
	}
	return n, nil
}

func (i *Importer) embed(ctx context.Context, content string) []float32 {
	if i.opts.Embedder == nil {
		return nil
	}
	emb, err := i.opts.Embedder.Embed(ctx, content)
	if err != nil {
		i.opts.Logger.Warn("embedding failed; chunk stored for lexical search only", "error", err)
		return nil
	}
	return emb
}

// reindex copies the stored chunk, with its corpus position and approval, into the vector index
func (i *Importer) reindex(ctx context.Context, chunkID string) {
	if i.opts.Index == nil {
		return
	}
	chunk, err := i.chunks.Get(ctx, chunkID)
	if err != nil {
		i.opts.Logger.Warn("vector index refresh skipped", "chunk_id", chunkID, "error", err)
		return
	}
	if err := i.opts.Index.Upsert(ctx, *chunk); err != nil {
		i.opts.Logger.Warn("vector index update failed", "chunk_id", chunkID, "error", err)
	}
}
