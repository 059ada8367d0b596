package bedrock

import (
	"github.com/effective-security/edgeagent/pkg/llms/bedrock/internal/bedrockclient"
)

// Model IDs commonly available on Bedrock.
const (
	ModelAnthropicClaude3Haiku = "anthropic.claude-3-haiku-20240307-v1:0"
	ModelMetaLlama3_8B         = "meta.llama3-8b-instruct-v1:0"
	ModelMetaLlama3_2_1B       = "us.meta.llama3-2-1b-instruct-v1:0"
)

// InvokeModelAPI is the part of the Bedrock runtime client used by the LLM,
// satisfied by *bedrockruntime.Client.
type InvokeModelAPI = bedrockclient.InvokeModelAPI

type options struct {
	modelID         string
	region          string
	accessKeyID     string
	secretAccessKey string
	client          InvokeModelAPI
}

// Option is an option for the Bedrock LLM.
type Option func(*options)

// WithModel allows setting a custom modelId.
func WithModel(modelID string) Option {
	return func(o *options) {
		if modelID != "" {
			o.modelID = modelID
		}
	}
}

// WithRegion sets the AWS region, otherwise the default AWS config is used.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithCredentials sets static AWS credentials.
func WithCredentials(accessKeyID, secretAccessKey string) Option {
	return func(o *options) {
		o.accessKeyID = accessKeyID
		o.secretAccessKey = secretAccessKey
	}
}

// WithClient allows setting a custom bedrockruntime.Client.
func WithClient(client InvokeModelAPI) Option {
	return func(o *options) {
		o.client = client
	}
}
