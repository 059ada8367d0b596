package googleai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/effective-security/edgeagent/pkg/llms/googleai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNew(t *testing.T) {
	t.Setenv(googleai.APIKeyEnvVarName, "")
	_, err := googleai.New(context.Background())
	assert.EqualError(t, err, "googleai: missing API key, set it in the GOOGLE_API_KEY environment variable")

	t.Setenv(googleai.APIKeyEnvVarName, "env-key")
	llm, err := googleai.New(context.Background(), googleai.WithDefaultModel("gemini-test"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-test", llm.GetName())
	assert.Equal(t, llms.ProviderGoogleAI, llm.GetProviderType())
}

func TestConvertMessages(t *testing.T) {
	system, history, err := googleai.ConvertMessages([]llms.Message{
		llms.SystemMessage("You are helpful."),
		llms.UserMessage("Hi"),
		llms.AssistantMessage("Hello"),
	})
	require.NoError(t, err)
	require.NotNil(t, system)
	assert.Equal(t, "You are helpful.", system.Parts[0].Text)
	require.Len(t, history, 2)
	assert.EqualValues(t, genai.RoleUser, history[0].Role)
	assert.EqualValues(t, genai.RoleModel, history[1].Role)

	system, _, err = googleai.ConvertMessages([]llms.Message{llms.UserMessage("Hi")})
	require.NoError(t, err)
	assert.Nil(t, system)

	_, _, err = googleai.ConvertMessages([]llms.Message{{Role: "tool"}})
	assert.EqualError(t, err, "role tool not supported")
}

func TestGenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req, "systemInstruction")
		assert.Len(t, req["contents"], 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "It is "}, {"text": "sunny."}]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 3, "totalTokenCount": 10}
		}`))
	}))
	defer server.Close()

	llm, err := googleai.New(context.Background(),
		googleai.WithAPIKey("test-key"),
		googleai.WithDefaultModel("gemini-test"),
		googleai.WithBaseURL(server.URL+"/"),
		googleai.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.SystemMessage("You are helpful."),
		llms.UserMessage("Weather?"),
	}, llms.WithMaxTokens(32))
	require.NoError(t, err)

	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "It is sunny.", text)

	choice := resp.Choices[0]
	assert.Equal(t, "STOP", choice.StopReason)
	assert.Equal(t, int64(7), choice.GenerationInfo["InputTokens"])
	assert.Equal(t, int64(3), choice.GenerationInfo["OutputTokens"])
	assert.Equal(t, int64(10), choice.GenerationInfo["TotalTokens"])
}
