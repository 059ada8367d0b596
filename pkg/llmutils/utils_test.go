package llmutils_test

import (
	"strings"
	"testing"

	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/effective-security/edgeagent/pkg/llmutils"
	"github.com/stretchr/testify/assert"
)

func Test_Encoders(t *testing.T) {
	msg := llms.UserMessage("hi")
	assert.Equal(t, `{"role":"user","content":"hi"}`, llmutils.ToJSON(msg))
	assert.Equal(t, "null", llmutils.ToJSON(nil))
}

func Test_PrintMessages(t *testing.T) {
	var buf strings.Builder
	llmutils.PrintMessages(&buf, []llms.Message{
		llms.SystemMessage("sys"),
		llms.UserMessage("Weather in Tokyo?"),
		llms.AssistantMessage("<action>weather</action><input>Tokyo</input>"),
	})
	exp := `SYSTEM: sys
USER: Weather in Tokyo?
ASSISTANT: <action>weather</action><input>Tokyo</input>
`
	assert.Equal(t, exp, buf.String())
}

func Test_CountSizes(t *testing.T) {
	msgs := []llms.Message{
		llms.SystemMessage("abc"),
		llms.UserMessage("de"),
	}
	// "system"+"abc"+"user"+"de"
	assert.Equal(t, uint64(15), llmutils.CountMessagesContentSize(msgs))
	assert.Equal(t, uint64(0), llmutils.CountMessagesContentSize(nil))

	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: "hello", GenerationInfo: map[string]any{"InputTokens": int64(10), "OutputTokens": int64(2), "TotalTokens": int64(12)}},
			nil,
			{Content: "!", GenerationInfo: map[string]any{"InputTokens": int64(1), "OutputTokens": int64(1), "TotalTokens": int64(2)}},
		},
	}
	assert.Equal(t, uint64(6), llmutils.CountResponseContentSize(resp))
	assert.Equal(t, uint64(0), llmutils.CountResponseContentSize(nil))

	in, out, total := llmutils.CountTokens(resp)
	assert.Equal(t, int64(11), in)
	assert.Equal(t, int64(3), out)
	assert.Equal(t, int64(14), total)

	in, out, total = llmutils.CountTokens(nil)
	assert.Zero(t, in+out+total)
}

func Test_FindLastUserQuestion(t *testing.T) {
	msgs := []llms.Message{
		llms.SystemMessage("sys"),
		llms.UserMessage("first"),
		llms.AssistantMessage("answer"),
		llms.UserMessage("Tool result: Tokyo: +18°C"),
		llms.AssistantMessage("done"),
	}
	assert.Equal(t, "Tool result: Tokyo: +18°C", llmutils.FindLastUserQuestion(msgs))
	assert.Empty(t, llmutils.FindLastUserQuestion(msgs[:1]))
}

func Test_EnsureEndsWithNewline(t *testing.T) {
	assert.Equal(t, "", llmutils.EnsureEndsWithNewline("  "))
	assert.Equal(t, "a\n", llmutils.EnsureEndsWithNewline(" a "))
	assert.Equal(t, "a\n", llmutils.EnsureEndsWithNewline("a\n\n"))
}
