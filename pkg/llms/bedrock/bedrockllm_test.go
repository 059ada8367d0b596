package bedrock_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/effective-security/edgeagent/pkg/llms/bedrock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T, handler http.HandlerFunc) *bedrockruntime.Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return bedrockruntime.New(bedrockruntime.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(server.URL),
		Credentials:  credentials.NewStaticCredentialsProvider("AKIDTEST", "secret", ""),
		HTTPClient:   server.Client(),
	})
}

func TestAnthropicModel(t *testing.T) {
	rt := newRuntime(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/invoke"), r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), "AKIDTEST")

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bedrock-2023-05-31", req["anthropic_version"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"message","role":"assistant","content":[{"type":"text","text":"Hi!"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":1}}`))
	})

	model, err := bedrock.NewModel(context.Background(),
		bedrock.WithModel(bedrock.ModelAnthropicClaude3Haiku),
		bedrock.WithClient(rt),
	)
	require.NoError(t, err)
	assert.Equal(t, bedrock.ModelAnthropicClaude3Haiku, model.GetName())
	assert.Equal(t, llms.ProviderBedrock, model.GetProviderType())

	_, raw := model.(llms.Completer)
	assert.False(t, raw)

	resp, err := model.GenerateContent(context.Background(), []llms.Message{llms.UserMessage("Hello")})
	require.NoError(t, err)
	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "Hi!", text)
}

func TestMetaModel(t *testing.T) {
	var prompt string
	rt := newRuntime(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt, _ = req["prompt"].(string)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"generation":" Sunny. ","prompt_token_count":5,"generation_token_count":2,"stop_reason":"stop"}`))
	})

	model, err := bedrock.NewModel(context.Background(),
		bedrock.WithModel(bedrock.ModelMetaLlama3_8B),
		bedrock.WithClient(rt),
	)
	require.NoError(t, err)

	completer, ok := model.(llms.Completer)
	require.True(t, ok)

	resp, err := completer.Complete(context.Background(), "<|user|>\nWeather?</s>\n<|assistant|>\n", llms.WithMaxTokens(32))
	require.NoError(t, err)
	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, " Sunny. ", text)
	assert.Equal(t, "<|user|>\nWeather?</s>\n<|assistant|>\n", prompt)
}

func TestNew_Config(t *testing.T) {
	t.Setenv("AWS_REGION", "us-west-2")

	llm, err := bedrock.New(context.Background(),
		bedrock.WithRegion("eu-west-1"),
		bedrock.WithCredentials("AKIDTEST", "secret"),
		bedrock.WithModel(bedrock.ModelMetaLlama3_2_1B),
	)
	require.NoError(t, err)
	assert.True(t, llm.SupportsRawPrompt())
	assert.Equal(t, bedrock.ModelMetaLlama3_2_1B, llm.GetName())
}
