// Package openai implements llms.Model for the OpenAI API
// and servers compatible with it.
package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/effective-security/x/values"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// ErrMissingToken is returned when no API key is configured.
var ErrMissingToken = errors.New("openai: missing API key, set it in the OPENAI_API_KEY environment variable")

type LLM struct {
	client openai.Client
	model  string
}

// RawPromptLLM is an OpenAI compatible model that also accepts
// a formatted prompt on the completions endpoint.
type RawPromptLLM struct {
	*LLM
}

var (
	_ llms.Model     = (*LLM)(nil)
	_ llms.Completer = (*RawPromptLLM)(nil)
)

func newOptions(opts ...Option) *options {
	o := &options{
		token:        os.Getenv(tokenEnvVarName),
		model:        os.Getenv(modelEnvVarName),
		baseURL:      os.Getenv(baseURLEnvVarName),
		organization: os.Getenv(organizationEnvVarName),
		maxRetries:   2,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.model = values.StringsCoalesce(o.model, DefaultChatModel)
	o.baseURL = values.StringsCoalesce(o.baseURL, DefaultBaseURL)
	return o
}

// New returns a new OpenAI LLM.
func New(opts ...Option) (*LLM, error) {
	o := newOptions(opts...)
	return newLLM(o)
}

// NewModel returns the model, as RawPromptLLM when WithRawPrompt is enabled.
func NewModel(opts ...Option) (llms.Model, error) {
	o := newOptions(opts...)
	l, err := newLLM(o)
	if err != nil {
		return nil, err
	}
	if o.rawPrompt {
		return &RawPromptLLM{LLM: l}, nil
	}
	return l, nil
}

func newLLM(o *options) (*LLM, error) {
	if o.token == "" {
		return nil, ErrMissingToken
	}

	sdkOpts := []option.RequestOption{
		option.WithAPIKey(o.token),
		option.WithBaseURL(o.baseURL),
		option.WithMaxRetries(o.maxRetries),
	}
	if o.organization != "" {
		sdkOpts = append(sdkOpts, option.WithOrganization(o.organization))
	}
	if o.httpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(o.httpClient))
	}

	return &LLM{
		client: openai.NewClient(sdkOpts...),
		model:  o.model,
	}, nil
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderOpenAI
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(append([]llms.CallOption{llms.WithModel(o.model)}, options...)...)

	chatMsgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llms.RoleSystem:
			chatMsgs = append(chatMsgs, openai.SystemMessage(m.Content))
		case llms.RoleUser:
			chatMsgs = append(chatMsgs, openai.UserMessage(m.Content))
		case llms.RoleAssistant:
			chatMsgs = append(chatMsgs, openai.AssistantMessage(m.Content))
		default:
			return nil, errors.WithMessagef(llms.ErrUnexpectedRole, "openai: role %q", m.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(opts.Model),
		Messages: chatMsgs,
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = openai.Float(opts.TopP)
	}
	if opts.Seed != 0 {
		params.Seed = openai.Int(int64(opts.Seed))
	}
	if len(opts.StopWords) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: opts.StopWords}
	}
	if len(opts.Metadata) > 0 {
		params.Metadata = make(shared.Metadata, len(opts.Metadata))
		for k, v := range opts.Metadata {
			params.Metadata[k] = fmt.Sprint(v)
		}
	}

	result, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "openai: failed to create chat completion")
	}
	if len(result.Choices) == 0 {
		return nil, errors.WithStack(llms.ErrEmptyResponse)
	}

	choices := make([]*llms.ContentChoice, len(result.Choices))
	for i, c := range result.Choices {
		choices[i] = &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: string(c.FinishReason),
			GenerationInfo: map[string]any{
				"InputTokens":  result.Usage.PromptTokens,
				"OutputTokens": result.Usage.CompletionTokens,
				"TotalTokens":  result.Usage.TotalTokens,
			},
		}
	}
	return &llms.ContentResponse{Choices: choices}, nil
}

// Complete implements llms.Completer with the completions endpoint.
func (o *RawPromptLLM) Complete(ctx context.Context, prompt string, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(append([]llms.CallOption{llms.WithModel(o.model)}, options...)...)

	params := openai.CompletionNewParams{
		Model:  openai.CompletionNewParamsModel(opts.Model),
		Prompt: openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = openai.Float(opts.TopP)
	}
	if opts.Seed != 0 {
		params.Seed = openai.Int(int64(opts.Seed))
	}
	if len(opts.StopWords) > 0 {
		params.Stop = openai.CompletionNewParamsStopUnion{OfStringArray: opts.StopWords}
	}

	result, err := o.client.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "openai: failed to create completion")
	}
	if len(result.Choices) == 0 {
		return nil, errors.WithStack(llms.ErrEmptyResponse)
	}

	choices := make([]*llms.ContentChoice, len(result.Choices))
	for i, c := range result.Choices {
		choices[i] = &llms.ContentChoice{
			Content:    c.Text,
			StopReason: string(c.FinishReason),
			GenerationInfo: map[string]any{
				"InputTokens":  result.Usage.PromptTokens,
				"OutputTokens": result.Usage.CompletionTokens,
				"TotalTokens":  result.Usage.TotalTokens,
			},
		}
	}
	return &llms.ContentResponse{Choices: choices}, nil
}
