package bedrockclient

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/pkg/llms"
)

// Ref: https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-meta.html

// metaTextGenerationInput is the input to the model.
type metaTextGenerationInput struct {
	// The prompt that you want to pass to the model. Required
	Prompt string `json:"prompt"`
	// Used to control the randomness of the generation. Optional, default = 0.5
	Temperature float64 `json:"temperature,omitempty"`
	// Used to lower value to ignore less probable options. Optional, default = 0.9
	TopP float64 `json:"top_p,omitempty"`
	// The maximum number of tokens to generate per result. Optional, default = 512
	MaxGenLen int `json:"max_gen_len,omitempty"`
}

// metaTextGenerationOutput is the output of the model.
type metaTextGenerationOutput struct {
	// The generated text.
	Generation string `json:"generation"`
	// The number of tokens in the prompt.
	PromptTokenCount int64 `json:"prompt_token_count"`
	// The number of tokens in the generated text.
	GenerationTokenCount int64 `json:"generation_token_count"`
	// The reason why the response stopped generating text.
	// One of: ["stop", "length"]
	StopReason string `json:"stop_reason"`
}

func createMetaCompletion(ctx context.Context,
	client InvokeModelAPI,
	modelID string,
	prompt string,
	options *llms.CallOptions,
) (*llms.ContentResponse, error) {
	input := &metaTextGenerationInput{
		Prompt:      prompt,
		Temperature: options.Temperature,
		TopP:        options.TopP,
		MaxGenLen:   getMaxTokens(options.MaxTokens, 512),
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, errors.Wrap(err, "bedrock: failed to marshal request")
	}

	resp, err := client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Accept:      aws.String("*/*"),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, errors.Wrap(err, "bedrock: failed to invoke model")
	}

	var output metaTextGenerationOutput
	if err = json.Unmarshal(resp.Body, &output); err != nil {
		return nil, errors.Wrap(err, "bedrock: failed to decode response")
	}

	// Bedrock has no stop sequences for Meta models
	text := output.Generation
	for _, stop := range options.StopWords {
		if idx := strings.Index(text, stop); idx >= 0 {
			text = text[:idx]
		}
	}

	return llms.NewTextResponse(text, output.StopReason, map[string]any{
		"InputTokens":  output.PromptTokenCount,
		"OutputTokens": output.GenerationTokenCount,
		"TotalTokens":  output.PromptTokenCount + output.GenerationTokenCount,
	}), nil
}

// formatLlama3Prompt applies the Llama 3 instruct template.
func formatLlama3Prompt(messages []Message) string {
	var sb strings.Builder
	sb.WriteString("<|begin_of_text|>")
	for _, m := range messages {
		sb.WriteString("<|start_header_id|>")
		sb.WriteString(string(m.Role))
		sb.WriteString("<|end_header_id|>\n\n")
		sb.WriteString(m.Content)
		sb.WriteString("<|eot_id|>")
	}
	sb.WriteString("<|start_header_id|>assistant<|end_header_id|>\n\n")
	return sb.String()
}
