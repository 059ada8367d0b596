package tavily_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/edgeagent/tools"
	"github.com/effective-security/edgeagent/tools/tavily"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New(t *testing.T) {
	t.Setenv(tavily.EnvAPIKey, "")
	_, err := tavily.New()
	assert.True(t, errors.Is(err, tavily.ErrNoAPIKey))
	assert.EqualError(t, err, "TAVILY_API_KEY is not set")

	t.Setenv(tavily.EnvAPIKey, "testkey")
	tool, err := tavily.New()
	require.NoError(t, err)
	assert.Equal(t, tavily.ToolName, tool.Name())
	assert.Contains(t, tool.Description(), "Input: search query")

	assert.Equal(t, "search", tool.WithName("search").Name())
	assert.Equal(t, "search", tool.WithName("").Name())
}

func Test_Tool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req tavilyModels.SearchRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, err)

		assert.Equal(t, "What is capital of France", req.Query)
		assert.Equal(t, "basic", req.SearchDepth)

		resp := tavily.SearchResult{
			Results: []tavilyModels.SearchResult{
				{Title: "Test Result", URL: "https://example.com", Content: "Test content", Score: 0.9},
			},
		}
		if req.IncludeAnswer {
			resp.Answer = "Paris"
		}

		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	ctx := context.Background()

	tool, err := tavily.NewWithAPIKey("testkey")
	require.NoError(t, err)
	tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())

	res, err := tool.Call(ctx, "  What is capital of France\n")
	require.NoError(t, err)
	exp := `ANSWER: Paris
- URL: https://example.com
  TITLE: Test Result
  SCORE: 0.900000
  CONTENT: Test content
`
	assert.Equal(t, exp, res)

	_, err = tool.Call(ctx, " ")
	assert.True(t, errors.Is(err, tools.ErrEmptyInput))
}

func Test_SearchResult_String(t *testing.T) {
	assert.Empty(t, (&tavily.SearchResult{}).String())
	assert.Equal(t, "ANSWER: 42\n", (&tavily.SearchResult{Answer: "42"}).String())
}

func Test_Tool_Real(t *testing.T) {
	// uncomment to run Real Tests
	t.Skip("skipping real test")

	apikey := os.Getenv(tavily.EnvAPIKey)
	if apikey == "" {
		t.Skip("TAVILY_API_KEY is not set")
	}

	tool, err := tavily.New()
	require.NoError(t, err)

	resp, err := tool.Call(context.Background(), "What is capital of France")
	require.NoError(t, err)
	assert.Contains(t, resp, "Paris")
}
