package knowledge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// ErrEmptyIndex is returned when searching before Build
var ErrEmptyIndex = errors.New("knowledge index is empty")

// Chunk is one embedded piece of the document
type Chunk struct {
	ID     int
	Text   string
	Vector []float32
}

// Result is a chunk with its similarity to the query
type Result struct {
	Chunk Chunk
	Score float64
}

// Index holds embedded chunks in memory. Build once, then Search
// concurrently.
type Index struct {
	embedder Embedder

	mu     sync.RWMutex
	chunks []Chunk
}

// NewIndex creates an empty index using embedder
func NewIndex(embedder Embedder) *Index {
	return &Index{embedder: embedder}
}

// Build embeds texts and replaces the index contents
func (ix *Index) Build(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return errors.New("no chunks to index")
	}

	vecs, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed document chunks: %w", err)
	}
	if len(vecs) != len(texts) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(texts))
	}

	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{ID: i, Text: text, Vector: vecs[i]}
	}

	ix.mu.Lock()
	ix.chunks = chunks
	ix.mu.Unlock()
	return nil
}

// Len returns the number of indexed chunks
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// Search returns the k chunks most similar to query, best first. Ties keep
// document order.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Result, error) {
	ix.mu.RLock()
	chunks := ix.chunks
	ix.mu.RUnlock()

	if len(chunks) == 0 {
		return nil, ErrEmptyIndex
	}
	if k <= 0 {
		return nil, nil
	}

	qv, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results := make([]Result, len(chunks))
	for i, c := range chunks {
		results[i] = Result{Chunk: c, Score: cosine(qv, c.Vector)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// cosine similarity of a and b; 0 when either is zero or lengths differ
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Load reads the document at path, splits it with the default chunking and
// builds an index over it
func Load(ctx context.Context, path string, embedder Embedder) (*Index, error) {
	text, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}

	chunks := Split(text, DefaultChunkSize, DefaultChunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("knowledge document %s is empty", path)
	}

	ix := NewIndex(embedder)
	if err := ix.Build(ctx, chunks); err != nil {
		return nil, err
	}
	return ix, nil
}
