package store_test

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/pkg/llms"
	"github.com/effective-security/edgeagent/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MemoryStore(t *testing.T) {
	st := store.NewMemoryStore()
	assert.Empty(t, st.Messages("chat1"))
	assert.Empty(t, st.Chats())
	require.NoError(t, st.Reset("chat1"))

	assert.EqualError(t, st.Add("", llms.UserMessage("Hello")), "chat ID is required")

	err := st.Add("chat1", llms.UserMessage("Hello"), llms.Message{Role: "tool", Content: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llms.ErrUnexpectedRole))
	// nothing is added on error
	assert.Empty(t, st.Messages("chat1"))

	require.NoError(t, st.Add("chat1", llms.UserMessage("Hello"), llms.AssistantMessage("Hi there!")))
	require.NoError(t, st.Add("chat2", llms.UserMessage("Weather in Tokyo?")))

	messages := st.Messages("chat1")
	require.Len(t, messages, 2)
	assert.Equal(t, llms.UserMessage("Hello"), messages[0])
	assert.Equal(t, llms.AssistantMessage("Hi there!"), messages[1])

	// the returned slice is a copy
	messages[0].Content = "changed"
	assert.Equal(t, "Hello", st.Messages("chat1")[0].Content)

	assert.Equal(t, []string{"chat1", "chat2"}, st.Chats())

	require.NoError(t, st.Reset("chat1"))
	assert.Empty(t, st.Messages("chat1"))
	assert.Len(t, st.Messages("chat2"), 1)
	assert.Equal(t, []string{"chat2"}, st.Chats())
}

func Test_MemoryStore_Concurrent(t *testing.T) {
	st := store.NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, st.Add("chat", llms.UserMessage("q"), llms.AssistantMessage("a")))
		}()
	}
	wg.Wait()

	messages := st.Messages("chat")
	require.Len(t, messages, 20)
	// pairs are never interleaved
	for i := 0; i < len(messages); i += 2 {
		assert.Equal(t, llms.RoleUser, messages[i].Role)
		assert.Equal(t, llms.RoleAssistant, messages[i+1].Role)
	}
}
