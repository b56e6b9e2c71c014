// ABOUTME: Knowledge chunk storage operations for SQLite
// ABOUTME: Stores optional embeddings as little-endian float32 BLOBs alongside the text
package sqlite

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/harper/frontdesk/internal/models"
)

// ChunkStore handles knowledge chunk persistence
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// Upsert inserts a chunk or refreshes an existing one with the same chunk ID.
// A refresh keeps the original insertion order and replaces the approval flag.
func (s *ChunkStore) Upsert(ctx context.Context, chunk *models.KnowledgeChunk) error {
	createdAt := chunk.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var blob []byte
	if len(chunk.Embedding) > 0 {
		blob = vectorToBlob(chunk.Embedding)
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO kb_chunks (chunk_id, source_url, title, content, tag, approved, version, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			source_url = excluded.source_url,
			title = excluded.title,
			content = excluded.content,
			tag = excluded.tag,
			approved = excluded.approved,
			version = excluded.version,
			embedding = excluded.embedding
	`, chunk.ChunkID, chunk.SourceURL, chunk.Title, chunk.Content, string(chunk.Tag),
		boolInt(chunk.Approved), chunk.Version, blob, createdAt.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert chunk %s: %w", chunk.ChunkID, err)
	}
	return nil
}

// SetApproved flips the approval flag on the given chunks. Returns the number of rows matched.
func (s *ChunkStore) SetApproved(ctx context.Context, chunkIDs []string, approved bool) (int, error) {
	if len(chunkIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunkIDs)), ",")
	args := make([]any, 0, len(chunkIDs)+1)
	args = append(args, boolInt(approved))
	for _, id := range chunkIDs {
		args = append(args, id)
	}

	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE kb_chunks SET approved = ? WHERE chunk_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("approve chunks: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ListApproved returns approved chunks in corpus insertion order
func (s *ChunkStore) ListApproved(ctx context.Context) ([]models.KnowledgeChunk, error) {
	return s.list(ctx, `WHERE approved = 1`)
}

// ListPending returns chunks awaiting approval
func (s *ChunkStore) ListPending(ctx context.Context) ([]models.KnowledgeChunk, error) {
	return s.list(ctx, `WHERE approved = 0`)
}

// ListAll returns every chunk in corpus insertion order
func (s *ChunkStore) ListAll(ctx context.Context) ([]models.KnowledgeChunk, error) {
	return s.list(ctx, ``)
}

// Get retrieves a chunk by its chunk ID
func (s *ChunkStore) Get(ctx context.Context, chunkID string) (*models.KnowledgeChunk, error) {
	chunks, err := s.list(ctx, `WHERE chunk_id = ?`, chunkID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrNotFound
	}
	return &chunks[0], nil
}

func (s *ChunkStore) list(ctx context.Context, where string, args ...any) ([]models.KnowledgeChunk, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT seq, chunk_id, source_url, title, content, tag, approved, version, embedding, created_at
		FROM kb_chunks
		`+where+`
		ORDER BY seq ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []models.KnowledgeChunk
	for rows.Next() {
		var (
			c         models.KnowledgeChunk
			tag       string
			approved  int
			blob      []byte
			createdAt int64
		)
		if err := rows.Scan(&c.Seq, &c.ChunkID, &c.SourceURL, &c.Title, &c.Content, &tag,
			&approved, &c.Version, &blob, &createdAt); err != nil {
			return nil, err
		}
		c.Tag = models.ChunkTag(tag)
		c.Approved = approved != 0
		if len(blob) > 0 {
			c.Embedding = blobToVector(blob)
		}
		c.CreatedAt = fromNanos(createdAt)
		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

// vectorToBlob converts a float32 slice to binary blob
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to float32 slice
func blobToVector(blob []byte) []float32 {
	count := len(blob) / 4
	vector := make([]float32, count)
	for i := 0; i < count; i++ {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}
