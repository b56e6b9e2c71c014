// ABOUTME: Lexical retrieval using term-frequency cosine similarity
// ABOUTME: Scores approved chunks against a query; ties keep corpus insertion order
package retrieval

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/harper/frontdesk/internal/models"
)

// SnippetLength is the number of characters of chunk content returned with a reference
const SnippetLength = 260

// DefaultTopK is the number of references the pipeline asks for
const DefaultTopK = 5

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// ChunkSource lists the approved corpus in insertion order
type ChunkSource interface {
	ListApproved(ctx context.Context) ([]models.KnowledgeChunk, error)
}

// Lexical scores chunks by term-frequency cosine similarity
type Lexical struct {
	source ChunkSource
}

// NewLexical creates a lexical searcher over source
func NewLexical(source ChunkSource) *Lexical {
	return &Lexical{source: source}
}

// Search returns at most topK references, highest score first
func (l *Lexical) Search(ctx context.Context, query string, topK int) ([]models.Reference, error) {
	if topK <= 0 {
		return nil, nil
	}

	chunks, err := l.source.ListApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("list approved chunks: %w", err)
	}

	q := termFrequencies(query)

	type scored struct {
		score float64
		chunk *models.KnowledgeChunk
	}
	var hits []scored
	for i := range chunks {
		// the source promises approved rows; check anyway so a bad source cannot leak drafts
		if !chunks[i].Approved {
			continue
		}
		score := cosine(q, termFrequencies(chunks[i].Title+" "+chunks[i].Content))
		if score <= 0 {
			continue
		}
		hits = append(hits, scored{score: score, chunk: &chunks[i]})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	refs := make([]models.Reference, 0, len(hits))
	for _, h := range hits {
		refs = append(refs, newReference(h.chunk.SourceURL, h.chunk.Title, h.chunk.Content, h.score))
	}
	return refs, nil
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func termFrequencies(text string) map[string]int {
	tf := make(map[string]int)
	for _, tok := range tokenize(text) {
		tf[tok]++
	}
	return tf
}

// cosine returns 0 when either vector has zero magnitude
func cosine(a, b map[string]int) float64 {
	var dot, magA, magB float64
	for term, n := range a {
		magA += float64(n * n)
		if m, ok := b[term]; ok {
			dot += float64(n * m)
		}
	}
	for _, m := range b {
		magB += float64(m * m)
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func newReference(sourceURL, title, content string, score float64) models.Reference {
	return models.Reference{
		SourceURL: sourceURL,
		Title:     title,
		Snippet:   snippet(content),
		Score:     math.Round(score*10000) / 10000,
	}
}

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) > SnippetLength {
		return string(runes[:SnippetLength])
	}
	return content
}
