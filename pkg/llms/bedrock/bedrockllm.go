// Package bedrock implements llms.Model for the AWS Bedrock runtime.
// Anthropic Claude and Meta Llama model families are supported.
package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/effective-security/edgeagent/pkg/llms/bedrock/internal/bedrockclient"
)

const defaultModel = ModelAnthropicClaude3Haiku

// LLM is a Bedrock LLM implementation.
type LLM struct {
	modelID string
	client  *bedrockclient.Client
}

// RawPromptLLM is a Bedrock model that also accepts a formatted prompt.
type RawPromptLLM struct {
	*LLM
}

var (
	_ llms.Model     = (*LLM)(nil)
	_ llms.Completer = (*RawPromptLLM)(nil)
)

// New creates a new Bedrock LLM implementation.
func New(ctx context.Context, opts ...Option) (*LLM, error) {
	o := &options{
		modelID: defaultModel,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.client == nil {
		var loadOpts []func(*config.LoadOptions) error
		if o.region != "" {
			loadOpts = append(loadOpts, config.WithRegion(o.region))
		}
		if o.accessKeyID != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(o.accessKeyID, o.secretAccessKey, ""),
			))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Wrap(err, "bedrock: failed to load AWS config")
		}
		o.client = bedrockruntime.NewFromConfig(cfg)
	}

	return &LLM{
		client:  bedrockclient.NewClient(o.client),
		modelID: o.modelID,
	}, nil
}

// NewModel returns the model, as RawPromptLLM if the model family
// accepts a formatted prompt.
func NewModel(ctx context.Context, opts ...Option) (llms.Model, error) {
	l, err := New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if l.SupportsRawPrompt() {
		return &RawPromptLLM{LLM: l}, nil
	}
	return l, nil
}

// GetName implements the Model interface.
func (l *LLM) GetName() string {
	return l.modelID
}

// GetProviderType implements the Model interface.
func (l *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderBedrock
}

// SupportsRawPrompt returns true if the model accepts a formatted prompt.
func (l *LLM) SupportsRawPrompt() bool {
	return bedrockclient.SupportsRawPrompt(l.modelID)
}

// GenerateContent implements llms.Model.
func (l *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(append([]llms.CallOption{llms.WithModel(l.modelID)}, options...)...)

	m := make([]bedrockclient.Message, 0, len(messages))
	for _, msg := range messages {
		m = append(m, bedrockclient.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return l.client.CreateCompletion(ctx, opts.Model, m, opts)
}

// Complete implements llms.Completer.
func (l *RawPromptLLM) Complete(ctx context.Context, prompt string, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(append([]llms.CallOption{llms.WithModel(l.modelID)}, options...)...)
	return l.client.CreateRawCompletion(ctx, opts.Model, prompt, opts)
}
