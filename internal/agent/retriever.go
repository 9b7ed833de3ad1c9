package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/diogo/concierge/internal/knowledge"
)

// DefaultRetrieveK is how many chunks wine_info_retriever returns
const DefaultRetrieveK = 4

// Searcher finds the chunks most relevant to a query
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]knowledge.Result, error)
}

var _ Tool = (*RetrieverTool)(nil)

// RetrieverTool answers questions about the winery from the knowledge index
type RetrieverTool struct {
	index Searcher
	k     int
}

// NewRetrieverTool wraps index; k <= 0 uses DefaultRetrieveK
func NewRetrieverTool(index Searcher, k int) *RetrieverTool {
	if k <= 0 {
		k = DefaultRetrieveK
	}
	return &RetrieverTool{index: index, k: k}
}

func (r *RetrieverTool) Info() ToolInfo {
	return ToolInfo{
		Name: "wine_info_retriever",
		Desc: "Retrieves information about the wine business from the provided document. " +
			"Use this tool to answer questions about the business, its history, wines, or hours.",
		Parameters: map[string]*ParameterInfo{
			"query": {
				Type:     String,
				Desc:     "What to look up about the winery",
				Required: true,
			},
		},
	}
}

func (r *RetrieverTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}

	results, err := r.index.Search(ctx, query, r.k)
	if err != nil {
		return "", fmt.Errorf("knowledge search failed: %w", err)
	}

	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Chunk.Text
	}
	return strings.Join(texts, "\n\n"), nil
}
