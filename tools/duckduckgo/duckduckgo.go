// Package duckduckgo provides a web search tool backed by the DuckDuckGo Instant Answer API.
package duckduckgo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/edgeagent", "duckduckgo")

const (
	// ToolName is the name the model uses to invoke the tool.
	ToolName = "search"
	// DefaultBaseURL is the Instant Answer API endpoint.
	DefaultBaseURL = "https://api.duckduckgo.com/"
	// NoResults is returned when the API has neither an abstract nor related topics.
	NoResults = "No results found"

	maxTopics   = 3
	maxBodySize = 1 << 20
)

// Response is the subset of the Instant Answer API response used by the tool.
type Response struct {
	Abstract      string         `json:"Abstract"`
	AbstractURL   string         `json:"AbstractURL"`
	Heading       string         `json:"Heading"`
	RelatedTopics []RelatedTopic `json:"RelatedTopics"`
}

// RelatedTopic is a related topic entry, groups carry nested Topics and no Text.
type RelatedTopic struct {
	Text     string         `json:"Text"`
	FirstURL string         `json:"FirstURL"`
	Topics   []RelatedTopic `json:"Topics,omitempty"`
}

// Tool is a tool that provides a web search functionality.
type Tool struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

var _ tools.ITool = (*Tool)(nil)

// New returns the search tool.
func New() *Tool {
	return &Tool{
		baseURL:    DefaultBaseURL,
		userAgent:  "edgeagent/1.0",
		httpClient: &http.Client{Timeout: tools.DefaultTimeout},
	}
}

func (t *Tool) WithBaseURL(baseURL string) *Tool {
	if baseURL != "" {
		t.baseURL = baseURL
	}
	return t
}

func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	if client != nil {
		t.httpClient = client
	}
	return t
}

func (t *Tool) WithUserAgent(userAgent string) *Tool {
	if userAgent != "" {
		t.userAgent = userAgent
	}
	return t
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return "Search the web for information. Input: search query"
}

// Call returns the abstract for the query, or up to 3 related topics,
// or "No results found".
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return "", errors.WithStack(tools.ErrEmptyInput)
	}

	res, err := t.Search(ctx, query)
	if err != nil {
		return "", err
	}
	return res.Summary(), nil
}

// Search queries the Instant Answer API.
func (t *Tool) Search(ctx context.Context, query string) (*Response, error) {
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base URL")
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform search")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	res := new(Response)
	if err = json.Unmarshal(body, res); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "searched",
		"query", query,
		"abstract", len(res.Abstract),
		"topics", len(res.RelatedTopics),
	)
	return res, nil
}

// Summary returns the text handed back to the model.
func (r *Response) Summary() string {
	if r.Abstract != "" {
		return r.Abstract
	}

	var lines []string
	for _, topic := range r.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		lines = append(lines, topic.Text)
		if len(lines) == maxTopics {
			break
		}
	}
	if len(lines) == 0 {
		return NoResults
	}
	return strings.Join(lines, "\n")
}
