// ABOUTME: Splits source text into overlapping fixed-size chunks for retrieval
// ABOUTME: Whitespace is collapsed first so chunk boundaries do not depend on formatting
package kb

import (
	"strings"

	"github.com/harper/frontdesk/internal/models"
)

const (
	// DefaultChunkSize is the chunk length in characters
	DefaultChunkSize = 800
	// DefaultChunkOverlap is how many characters consecutive chunks share
	DefaultChunkOverlap = 120
)

// ChunkText collapses whitespace and cuts text into chunks of size runes that overlap by overlap runes
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
		start = end - overlap
	}
	return chunks
}

// TagForURL classifies a source by its URL: contact and insurance pages carry policy
func TagForURL(url string) models.ChunkTag {
	lowered := strings.ToLower(url)
	switch {
	case strings.Contains(lowered, "contact"), strings.Contains(lowered, "insurance"):
		return models.TagPolicy
	case strings.Contains(lowered, "service"):
		return models.TagServices
	default:
		return models.TagGeneral
	}
}
