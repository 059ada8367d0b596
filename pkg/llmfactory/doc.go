// Package llmfactory creates LLM models from configuration, supporting
// OpenAI compatible servers, Anthropic, Gemini and Bedrock providers.
package llmfactory
