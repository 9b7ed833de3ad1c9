package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/concierge/internal/errors"
)

const (
	// TavilyEndpoint is the Tavily search API
	TavilyEndpoint = "https://api.tavily.com/search"

	// DefaultSearchResults matches the number of hits the concierge cites
	DefaultSearchResults = 3

	maxSearchBody = 1 << 20
)

// Doer sends an HTTP request; tls_client.HttpClient satisfies it
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Tool = (*SearchTool)(nil)

// SearchTool looks up real-time information with the Tavily search API
type SearchTool struct {
	apiKey     string
	endpoint   string
	maxResults int
	doer       Doer
}

// SearchOption configures a SearchTool
type SearchOption func(*SearchTool)

// WithDoer replaces the HTTP client (used in tests)
func WithDoer(d Doer) SearchOption {
	return func(s *SearchTool) {
		if d != nil {
			s.doer = d
		}
	}
}

// WithEndpoint points the tool at another search URL
func WithEndpoint(url string) SearchOption {
	return func(s *SearchTool) {
		if url != "" {
			s.endpoint = url
		}
	}
}

// WithMaxResults sets how many results are returned
func WithMaxResults(n int) SearchOption {
	return func(s *SearchTool) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// NewSearchTool creates a Tavily-backed search tool
func NewSearchTool(apiKey string, opts ...SearchOption) (*SearchTool, error) {
	if apiKey == "" {
		return nil, apierrors.NewConfigError("TAVILY_API_KEY", "is required for web search")
	}

	s := &SearchTool{
		apiKey:     apiKey,
		endpoint:   TavilyEndpoint,
		maxResults: DefaultSearchResults,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.doer == nil {
		client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(),
			tls_client.WithTimeoutSeconds(30),
			tls_client.WithClientProfile(profiles.Chrome_120),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		s.doer = client
	}

	return s, nil
}

func (s *SearchTool) Info() ToolInfo {
	return ToolInfo{
		Name: "web_search",
		Desc: "Searches the web for real-time information such as news, events, " +
			"directions or anything not covered by the winery document.",
		Parameters: map[string]*ParameterInfo{
			"query": {
				Type:     String,
				Desc:     "The search query",
				Required: true,
			},
		},
	}
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

func (s *SearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(tavilyRequest{APIKey: s.apiKey, Query: query, MaxResults: s.maxResults})
	if err != nil {
		return "", fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	start := time.Now()
	resp, err := s.doer.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || apierrors.IsTimeoutError(err) {
			return "", apierrors.NewTimeoutError(fmt.Sprintf("web search after %s", time.Since(start).Round(time.Millisecond)))
		}
		return "", apierrors.NewNetworkErrorWithEndpoint("web search", s.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchBody))
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("web search", s.endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, s.endpoint, "web search failed", string(body))
	}

	return formatSearchResults(body, s.maxResults)
}

// formatSearchResults renders Tavily results as "title (url)\ncontent" blocks
func formatSearchResults(body []byte, limit int) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("search response is not valid JSON", "")
	}

	results := gjson.GetBytes(body, "results")
	if !results.IsArray() {
		return "", apierrors.NewParseError("missing results array", "results")
	}

	var blocks []string
	results.ForEach(func(_, r gjson.Result) bool {
		title := r.Get("title").String()
		url := r.Get("url").String()
		content := strings.TrimSpace(r.Get("content").String())

		header := title
		if url != "" {
			header = fmt.Sprintf("%s (%s)", title, url)
		}
		blocks = append(blocks, strings.TrimSpace(header+"\n"+content))
		return len(blocks) < limit
	})

	if len(blocks) == 0 {
		return "No results found.", nil
	}
	return strings.Join(blocks, "\n\n"), nil
}
