// ABOUTME: KnowledgeChunk is a unit of approved, retrievable clinic content
// ABOUTME: Chunk IDs are content-derived so re-imports upsert instead of duplicating
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ChunkTag classifies where a chunk came from
type ChunkTag string

const (
	TagPolicy   ChunkTag = "policy"
	TagServices ChunkTag = "services"
	TagGeneral  ChunkTag = "general"
)

// KnowledgeChunk is a retrievable text unit
type KnowledgeChunk struct {
	Seq       int64     `json:"-"`
	ChunkID   string    `json:"chunk_id"`
	SourceURL string    `json:"source_url"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tag       ChunkTag  `json:"tag"`
	Approved  bool      `json:"approved"`
	Version   string    `json:"version"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ChunkID derives the stable identifier of the idx-th chunk of a source
func ChunkID(sourceURL string, idx int, content string) string {
	prefix := []rune(content)
	if len(prefix) > 80 {
		prefix = prefix[:80]
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", sourceURL, idx, string(prefix))))
	return hex.EncodeToString(sum[:])
}
