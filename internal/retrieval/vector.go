// ABOUTME: Dense-vector retrieval over approved chunk embeddings using chromem-go
// ABOUTME: Best effort only; every failure is reported so the engine can fall back to lexical
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/harper/frontdesk/internal/models"
	chromem "github.com/philippgille/chromem-go"
)

const collectionName = "kb_chunks"

// ErrNoVectorResults means the vector path had nothing to say
var ErrNoVectorResults = errors.New("no vector results")

// Embedder turns text into a dense vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex keeps chunk embeddings in an in-process chromem collection
type VectorIndex struct {
	embedder Embedder
	col      *chromem.Collection
}

// NewVectorIndex creates an empty index that embeds queries with embedder
func NewVectorIndex(embedder Embedder) (*VectorIndex, error) {
	if embedder == nil {
		return nil, errors.New("vector index requires an embedder")
	}

	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, chromem.EmbeddingFunc(embedder.Embed))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &VectorIndex{embedder: embedder, col: col}, nil
}

// Upsert stores a chunk that already carries an embedding. Chunks without one are skipped.
// Adding a document with an existing ID replaces it.
func (v *VectorIndex) Upsert(ctx context.Context, chunk models.KnowledgeChunk) error {
	if len(chunk.Embedding) == 0 {
		return nil
	}

	err := v.col.AddDocument(ctx, chromem.Document{
		ID:        chunk.ChunkID,
		Content:   chunk.Content,
		Embedding: chunk.Embedding,
		Metadata: map[string]string{
			"approved":   strconv.FormatBool(chunk.Approved),
			"source_url": chunk.SourceURL,
			"title":      chunk.Title,
			"seq":        strconv.FormatInt(chunk.Seq, 10),
		},
	})
	if err != nil {
		return fmt.Errorf("add vector %s: %w", chunk.ChunkID, err)
	}
	return nil
}

// Load indexes every chunk that has an embedding and returns how many were added
func (v *VectorIndex) Load(ctx context.Context, chunks []models.KnowledgeChunk) (int, error) {
	n := 0
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		if err := v.Upsert(ctx, c); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Count returns the number of indexed chunks
func (v *VectorIndex) Count() int {
	return v.col.Count()
}

// Hit is a vector match tied back to the chunk it came from
type Hit struct {
	ChunkID    string
	Similarity float64
	Reference  models.Reference
}

// Search embeds the query and returns the nearest chunks the index believes are approved
func (v *VectorIndex) Search(ctx context.Context, query string, topK int) ([]models.Reference, error) {
	hits, err := v.SearchHits(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	refs := make([]models.Reference, len(hits))
	for i, h := range hits {
		refs[i] = h.Reference
	}
	return refs, nil
}

// SearchHits is Search with chunk IDs kept. The approval flag it filters on is the one
// seen at index time, so callers sharing a database should re-check it.
func (v *VectorIndex) SearchHits(ctx context.Context, query string, topK int) (hits []Hit, err error) {
	defer func() {
		if r := recover(); r != nil {
			hits, err = nil, fmt.Errorf("vector search panicked: %v", r)
		}
	}()

	if topK <= 0 {
		return nil, ErrNoVectorResults
	}
	count := v.col.Count()
	if count == 0 {
		return nil, ErrNoVectorResults
	}
	// chromem rejects nResults larger than the collection
	if topK > count {
		topK = count
	}

	emb, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(emb) == 0 {
		return nil, fmt.Errorf("embed query: empty vector")
	}

	results, err := v.col.QueryEmbedding(ctx, emb, topK, map[string]string{"approved": "true"}, nil)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return seqOf(results[i]) < seqOf(results[j])
	})

	hits = make([]Hit, 0, len(results))
	for _, r := range results {
		if r.Similarity <= 0 {
			continue
		}
		hits = append(hits, Hit{
			ChunkID:    r.ID,
			Similarity: float64(r.Similarity),
			Reference:  newReference(r.Metadata["source_url"], r.Metadata["title"], r.Content, float64(r.Similarity)),
		})
	}
	if len(hits) == 0 {
		return nil, ErrNoVectorResults
	}
	return hits, nil
}

func seqOf(r chromem.Result) int64 {
	n, _ := strconv.ParseInt(r.Metadata["seq"], 10, 64)
	return n
}
