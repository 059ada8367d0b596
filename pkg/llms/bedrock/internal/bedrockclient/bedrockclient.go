package bedrockclient

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/pkg/llms"
)

// Provider names, as found in the model ID.
const (
	ProviderAnthropic = "anthropic"
	ProviderMeta      = "meta"
)

// ErrUnsupportedProvider is returned for model families without an adapter.
var ErrUnsupportedProvider = errors.New("bedrock: unsupported provider")

// InvokeModelAPI is the part of the Bedrock runtime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client is a Bedrock client.
type Client struct {
	client InvokeModelAPI
}

// Message is a chunk of text that will be sent to the provider.
//
// The provider may then transform the message to its own
// format before sending it to the LLM model API.
type Message struct {
	Role    llms.Role
	Content string
}

// GetProvider returns the model family of the model ID.
func GetProvider(modelID string) string {
	// Handle Inference Profiles (e.g., "us.anthropic.claude-3-5-sonnet-20241022-v2:0")
	// and direct model IDs (e.g., "anthropic.claude-3-sonnet-20240229-v1:0")
	parts := strings.Split(modelID, ".")
	if len(parts) >= 2 {
		// a two letter lower case prefix is a region
		if len(parts[0]) == 2 && strings.ToLower(parts[0]) == parts[0] {
			return parts[1]
		}
		return parts[0]
	}
	return parts[0]
}

// SupportsRawPrompt returns true for model families that take a formatted prompt.
func SupportsRawPrompt(modelID string) bool {
	return GetProvider(modelID) == ProviderMeta
}

// NewClient creates a new Bedrock client.
func NewClient(client InvokeModelAPI) *Client {
	return &Client{
		client: client,
	}
}

// CreateCompletion creates a new completion response from the provider
// after sending the messages to the provider.
func (c *Client) CreateCompletion(ctx context.Context,
	modelID string,
	messages []Message,
	options *llms.CallOptions,
) (*llms.ContentResponse, error) {
	switch provider := GetProvider(modelID); provider {
	case ProviderAnthropic:
		return createAnthropicCompletion(ctx, c.client, modelID, messages, options)
	case ProviderMeta:
		return createMetaCompletion(ctx, c.client, modelID, formatLlama3Prompt(messages), options)
	default:
		return nil, errors.WithMessagef(ErrUnsupportedProvider, "provider %q", provider)
	}
}

// CreateRawCompletion sends an already formatted prompt.
func (c *Client) CreateRawCompletion(ctx context.Context,
	modelID string,
	prompt string,
	options *llms.CallOptions,
) (*llms.ContentResponse, error) {
	if !SupportsRawPrompt(modelID) {
		return nil, errors.WithMessagef(ErrUnsupportedProvider, "raw prompt is not supported by %q", modelID)
	}
	return createMetaCompletion(ctx, c.client, modelID, prompt, options)
}

func getMaxTokens(maxTokens, defaultValue int) int {
	if maxTokens <= 0 {
		return defaultValue
	}
	return maxTokens
}
