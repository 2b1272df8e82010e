package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-lawyer-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteParsesContentAndUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"model":             "llama3",
			"message":           map[string]interface{}{"role": "assistant", "content": "hello"},
			"done":              true,
			"prompt_eval_count": 12,
			"eval_count":        7,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	completion, err := p.Complete(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, "hello", completion.Content)
	assert.Empty(t, completion.ToolCalls)
	assert.Equal(t, 12, completion.Usage.PromptTokens)
	assert.Equal(t, 7, completion.Usage.CompletionTokens)
}

func TestCompleteParsesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "search_documents", req.Tools[0].Function.Name)

		w.Write([]byte(`{
			"model": "llama3",
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [
					{"function": {"name": "search_documents", "arguments": {"query": "limitation period"}}}
				]
			},
			"done": true
		}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	tools := []llm.ToolSpec{{
		Name:        "search_documents",
		Description: "Search the document collection",
		Parameters:  map[string]interface{}{"type": "object"},
	}}

	completion, err := p.Complete(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, tools)
	require.NoError(t, err)

	require.Len(t, completion.ToolCalls, 1)
	assert.Equal(t, "call_0", completion.ToolCalls[0].Id)
	assert.Equal(t, "search_documents", completion.ToolCalls[0].Name)
	assert.JSONEq(t, `{"query": "limitation period"}`, string(completion.ToolCalls[0].Arguments))
}

func TestCompleteProviderErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "missing")
	_, err := p.Complete(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, nil)
	require.Error(t, err)

	var provErr *llm.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "ollama", provErr.Provider)
}
