package bedrockclient

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	modelID string
	body    map[string]any
	resp    string
	err     error
}

func (f *fakeRuntime) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.modelID = aws.ToString(params.ModelId)
	f.body = map[string]any{}
	if err := json.Unmarshal(params.Body, &f.body); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.resp)}, nil
}

func TestGetProvider(t *testing.T) {
	tests := []struct {
		name     string
		modelID  string
		expected string
	}{
		{
			name:     "Direct Anthropic model ID",
			modelID:  "anthropic.claude-3-sonnet-20240229-v1:0",
			expected: "anthropic",
		},
		{
			name:     "Inference Profile with US region",
			modelID:  "us.anthropic.claude-3-5-sonnet-20241022-v2:0",
			expected: "anthropic",
		},
		{
			name:     "Direct Amazon model ID",
			modelID:  "amazon.titan-text-premier-v1:0",
			expected: "amazon",
		},
		{
			name:     "Direct Meta model ID",
			modelID:  "meta.llama3-2-1b-instruct-v1:0",
			expected: "meta",
		},
		{
			name:     "Inference Profile with Meta",
			modelID:  "us.meta.llama3-2-11b-instruct-v1:0",
			expected: "meta",
		},
		{
			name:     "Single part model ID",
			modelID:  "anthropic",
			expected: "anthropic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetProvider(tt.modelID))
		})
	}

	assert.True(t, SupportsRawPrompt("us.meta.llama3-2-1b-instruct-v1:0"))
	assert.False(t, SupportsRawPrompt("anthropic.claude-3-haiku-20240307-v1:0"))
}

var transcript = []Message{
	{Role: llms.RoleSystem, Content: "You are helpful."},
	{Role: llms.RoleUser, Content: "Weather in Tokyo?"},
	{Role: llms.RoleAssistant, Content: "<action>weather</action>\n<input>Tokyo</input>"},
	{Role: llms.RoleUser, Content: "Tool result: Tokyo: +18°C"},
}

func TestAnthropicCompletion(t *testing.T) {
	rt := &fakeRuntime{
		resp: `{"type":"message","role":"assistant","content":[{"type":"text","text":"It is 18°C."}],"stop_reason":"end_turn","usage":{"input_tokens":20,"output_tokens":5}}`,
	}
	c := NewClient(rt)

	resp, err := c.CreateCompletion(context.Background(), "anthropic.claude-3-haiku-20240307-v1:0", transcript, &llms.CallOptions{MaxTokens: 100, Temperature: 0.7})
	require.NoError(t, err)

	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "It is 18°C.", text)
	assert.Equal(t, int64(25), resp.Choices[0].GenerationInfo["TotalTokens"])

	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", rt.modelID)
	assert.Equal(t, AnthropicLatestVersion, rt.body["anthropic_version"])
	assert.Equal(t, "You are helpful.", rt.body["system"])
	assert.EqualValues(t, 100, rt.body["max_tokens"])
	assert.Len(t, rt.body["messages"], 3)

	rt.resp = `{"type":"message","content":[]}`
	_, err = c.CreateCompletion(context.Background(), "anthropic.claude-3-haiku-20240307-v1:0", transcript, &llms.CallOptions{})
	assert.True(t, errors.Is(err, llms.ErrEmptyResponse))

	rt.err = errors.New("throttled")
	_, err = c.CreateCompletion(context.Background(), "anthropic.claude-3-haiku-20240307-v1:0", transcript, &llms.CallOptions{})
	assert.EqualError(t, err, "bedrock: failed to invoke model: throttled")
}

func TestProcessInputMessagesAnthropic(t *testing.T) {
	msgs, system, err := processInputMessagesAnthropic([]Message{
		{Role: llms.RoleSystem, Content: "a"},
		{Role: llms.RoleSystem, Content: "b"},
		{Role: llms.RoleUser, Content: "hi"},
		{Role: llms.RoleUser, Content: "there"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a\nb", system)
	require.Len(t, msgs, 1)
	assert.Len(t, msgs[0].Content, 2)

	_, _, err = processInputMessagesAnthropic([]Message{{Role: "tool", Content: "x"}})
	assert.True(t, errors.Is(err, llms.ErrUnexpectedRole))
}

func TestMetaCompletion(t *testing.T) {
	rt := &fakeRuntime{
		resp: `{"generation":"Hello there!<|eot_id|>ignored","prompt_token_count":9,"generation_token_count":4,"stop_reason":"stop"}`,
	}
	c := NewClient(rt)

	resp, err := c.CreateCompletion(context.Background(), "meta.llama3-8b-instruct-v1:0", transcript[:2], &llms.CallOptions{StopWords: []string{"<|eot_id|>"}})
	require.NoError(t, err)

	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", text)
	assert.Equal(t, int64(9), resp.Choices[0].GenerationInfo["InputTokens"])
	assert.EqualValues(t, 512, rt.body["max_gen_len"])

	exp := "<|begin_of_text|>" +
		"<|start_header_id|>system<|end_header_id|>\n\nYou are helpful.<|eot_id|>" +
		"<|start_header_id|>user<|end_header_id|>\n\nWeather in Tokyo?<|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|>\n\n"
	assert.Equal(t, exp, rt.body["prompt"])

	_, err = c.CreateRawCompletion(context.Background(), "meta.llama3-8b-instruct-v1:0", "<|user|>\nhi</s>\n<|assistant|>\n", &llms.CallOptions{MaxTokens: 16})
	require.NoError(t, err)
	assert.Equal(t, "<|user|>\nhi</s>\n<|assistant|>\n", rt.body["prompt"])
	assert.EqualValues(t, 16, rt.body["max_gen_len"])

	_, err = c.CreateRawCompletion(context.Background(), "anthropic.claude-v2", "x", &llms.CallOptions{})
	assert.True(t, errors.Is(err, ErrUnsupportedProvider))

	_, err = c.CreateCompletion(context.Background(), "cohere.command-r-v1:0", transcript, &llms.CallOptions{})
	assert.True(t, errors.Is(err, ErrUnsupportedProvider))
}
