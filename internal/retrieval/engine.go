// ABOUTME: Retrieval engine that prefers dense vectors and falls back to lexical scoring
// ABOUTME: The vector path is optional; its failures are logged, never returned
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harper/frontdesk/internal/models"
)

// Engine is the retriever the pipeline calls
type Engine struct {
	source  ChunkSource
	lexical *Lexical
	vector  *VectorIndex
	logger  *slog.Logger
}

// NewEngine creates an engine. vector may be nil to use lexical scoring only.
func NewEngine(source ChunkSource, vector *VectorIndex, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source:  source,
		lexical: NewLexical(source),
		vector:  vector,
		logger:  logger,
	}
}

// Vector returns the dense index, or nil when disabled
func (e *Engine) Vector() *VectorIndex {
	return e.vector
}

// Search returns up to topK references for query
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]models.Reference, error) {
	if e.vector != nil {
		refs, err := e.vectorSearch(ctx, query, topK)
		if err == nil {
			return refs, nil
		}
		e.logger.Debug("vector search unavailable, using lexical", "error", err)
	}
	return e.lexical.Search(ctx, query, topK)
}

// vectorSearch keeps only hits the store still lists as approved. The index is loaded
// once per process, so another process may have withdrawn or edited a chunk since.
func (e *Engine) vectorSearch(ctx context.Context, query string, topK int) ([]models.Reference, error) {
	hits, err := e.vector.SearchHits(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	approved, err := e.source.ListApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("list approved chunks: %w", err)
	}
	current := make(map[string]*models.KnowledgeChunk, len(approved))
	for i := range approved {
		if approved[i].Approved {
			current[approved[i].ChunkID] = &approved[i]
		}
	}

	refs := make([]models.Reference, 0, len(hits))
	for _, h := range hits {
		c, ok := current[h.ChunkID]
		if !ok {
			continue
		}
		refs = append(refs, newReference(c.SourceURL, c.Title, c.Content, h.Similarity))
	}
	if len(refs) == 0 {
		return nil, ErrNoVectorResults
	}
	return refs, nil
}
