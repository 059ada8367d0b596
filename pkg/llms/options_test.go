package llms_test

import (
	"testing"

	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	meta := map[string]any{"test": "test"}
	stopWords := []string{"</s>"}
	opts := llms.NewCallOptions(
		llms.WithModel("test"),
		llms.WithMaxTokens(256),
		llms.WithTemperature(0.7),
		llms.WithTopP(0.95),
		llms.WithStopWords(stopWords),
		llms.WithSeed(123),
		llms.WithMetadata(meta),
	)

	assert.Equal(t, "test", opts.Model)
	assert.Equal(t, 256, opts.MaxTokens)
	assert.Equal(t, 0.7, opts.Temperature)
	assert.Equal(t, 0.95, opts.TopP)
	assert.Equal(t, stopWords, opts.StopWords)
	assert.Equal(t, 123, opts.Seed)
	assert.Equal(t, meta, opts.Metadata)

	replaced := llms.NewCallOptions(
		llms.WithModel("ignored"),
		llms.WithOptions(llms.CallOptions{Model: "other", MaxTokens: 8}),
	)
	assert.Equal(t, "other", replaced.Model)
	assert.Equal(t, 8, replaced.MaxTokens)
	assert.Zero(t, replaced.Temperature)
}
