package knowledge

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Embedding settings
const (
	DefaultEmbedModel = "gemini-embedding-001"

	// maxEmbedBatch is the largest batch the embedding endpoint accepts
	maxEmbedBatch = 100

	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Embedder turns text into vectors. Documents and queries may be embedded
// differently.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// contentEmbedder is the part of *genai.Models the embedder needs
type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

var _ Embedder = (*GenAIEmbedder)(nil)

// GenAIEmbedder generates embeddings with the Gemini API
type GenAIEmbedder struct {
	models contentEmbedder
	model  string
}

// NewGenAIEmbedder embeds with client; an empty model selects
// DefaultEmbedModel
func NewGenAIEmbedder(client *genai.Client, model string) (*GenAIEmbedder, error) {
	if client == nil {
		return nil, errors.New("genai embedder: client is required")
	}
	return newGenAIEmbedder(client.Models, model), nil
}

func newGenAIEmbedder(m contentEmbedder, model string) *GenAIEmbedder {
	if model == "" {
		model = DefaultEmbedModel
	}
	return &GenAIEmbedder{models: m, model: model}
}

// Name identifies the engine in logs
func (e *GenAIEmbedder) Name() string {
	return "genai:" + e.model
}

// EmbedDocuments embeds texts in batches
func (e *GenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))
		vecs, err := e.embed(ctx, texts[start:end], taskRetrievalDocument)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// EmbedQuery embeds a single search query
func (e *GenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{text}, taskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *GenAIEmbedder) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := e.models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{TaskType: task})
	if err != nil {
		return nil, fmt.Errorf("genai embed failed: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, fmt.Errorf("genai embed returned %d embeddings for %d texts", got, len(texts))
	}

	vecs := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("genai embed returned an empty vector at %d", i)
		}
		vecs[i] = emb.Values
	}
	return vecs, nil
}
