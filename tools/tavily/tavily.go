// Package tavily provides a web search tool backed by the Tavily API.
package tavily

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	tavilygo "github.com/diverged/tavily-go"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/edgeagent/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/edgeagent", "tavily")

const (
	// ToolName is the name the model uses to invoke the tool.
	ToolName = "websearch"
	// EnvAPIKey is the environment variable with the API key.
	EnvAPIKey = "TAVILY_API_KEY"
)

// ErrNoAPIKey is returned when the API key is not configured.
var ErrNoAPIKey = errors.Newf("%s is not set", EnvAPIKey)

// SearchResult represents the structure for a search response
type SearchResult struct {
	Results []tavilyModels.SearchResult `json:"results" yaml:"results"`
	Answer  string                      `json:"answer,omitempty" yaml:"answer,omitempty"`
}

// Tool is a tool that provides a web search functionality
type Tool struct {
	name        string
	apiKey      string
	baseURL     string
	depth       string
	httpClient  *http.Client
	description string
}

var _ tools.ITool = (*Tool)(nil)

// New returns the tool with the API key from the TAVILY_API_KEY environment variable.
func New() (*Tool, error) {
	return NewWithAPIKey(os.Getenv(EnvAPIKey))
}

// NewWithAPIKey returns the tool with the provided API key.
func NewWithAPIKey(apiKey string) (*Tool, error) {
	if apiKey == "" {
		return nil, errors.WithStack(ErrNoAPIKey)
	}
	return &Tool{
		name:        ToolName,
		apiKey:      apiKey,
		depth:       "basic",
		httpClient:  &http.Client{Timeout: tools.DefaultTimeout},
		description: "Search the web and get an aggregated answer with sources. Input: search query",
	}, nil
}

func (t *Tool) WithBaseURL(baseURL string) *Tool {
	t.baseURL = baseURL
	return t
}

func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	if client != nil {
		t.httpClient = client
	}
	return t
}

// WithSearchDepth sets the search depth, "basic" or "advanced".
func (t *Tool) WithSearchDepth(depth string) *Tool {
	if depth != "" {
		t.depth = depth
	}
	return t
}

// WithName sets the name the model uses to invoke the tool,
// for example "search" when Tavily replaces the default search tool.
func (t *Tool) WithName(name string) *Tool {
	if name != "" {
		t.name = name
	}
	return t
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

// Search performs the web search.
func (t *Tool) Search(ctx context.Context, query string) (*SearchResult, error) {
	if query == "" {
		return nil, errors.WithStack(tools.ErrEmptyInput)
	}

	client := tavilygo.NewClient(t.apiKey)
	if t.baseURL != "" {
		client.BaseURL = t.baseURL
	}
	if t.httpClient != nil {
		client.HTTPClient = t.httpClient
	}

	searchResp, err := tavilygo.Search(client, tavilyModels.SearchRequest{
		Query:         query,
		SearchDepth:   t.depth,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform search")
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "searched",
		"query", query,
		"results", len(searchResp.Results),
	)

	return &SearchResult{
		Results: searchResp.Results,
		Answer:  searchResp.Answer,
	}, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	res, err := t.Search(ctx, strings.TrimSpace(input))
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

func (r *SearchResult) String() string {
	var buf bytes.Buffer
	if r.Answer != "" {
		fmt.Fprintf(&buf, "ANSWER: %s\n", r.Answer)
	}

	for _, result := range r.Results {
		fmt.Fprintf(&buf, "- URL: %s\n", result.URL)
		fmt.Fprintf(&buf, "  TITLE: %s\n", result.Title)
		fmt.Fprintf(&buf, "  SCORE: %f\n", result.Score)
		fmt.Fprintf(&buf, "  CONTENT: %s\n", result.Content)
	}

	return buf.String()
}
