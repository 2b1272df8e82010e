package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"ai-lawyer-be/pkg/llm"
	"ai-lawyer-be/pkg/retrieval"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider replays a fixed sequence of completions. Once the
// script runs out it keeps returning the last entry.
type scriptedProvider struct {
	mu        sync.Mutex
	script    []*llm.Completion
	errs      []error
	calls     int
	histories [][]llm.Message
}

func (p *scriptedProvider) Complete(ctx context.Context, history []llm.Message, tools []llm.ToolSpec, options ...llm.Option) (*llm.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := make([]llm.Message, len(history))
	copy(snapshot, history)
	p.histories = append(p.histories, snapshot)

	idx := p.calls
	p.calls++
	if idx >= len(p.script) {
		idx = len(p.script) - 1
	}
	if idx < len(p.errs) && p.errs[idx] != nil {
		return nil, p.errs[idx]
	}
	return p.script[idx], nil
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func toolCallCompletion(id, name, args string) *llm.Completion {
	return &llm.Completion{
		ToolCalls: []llm.ToolCall{
			{Id: id, Name: name, Arguments: json.RawMessage(args)},
		},
		Usage: llm.Usage{PromptTokens: 10, CompletionTokens: 5},
	}
}

func answerCompletion(text string) *llm.Completion {
	return &llm.Completion{
		Content: text,
		Usage:   llm.Usage{PromptTokens: 10, CompletionTokens: 20},
	}
}

func registryWithTool(t *testing.T, name string, handler Handler) *Registry {
	t.Helper()
	registry := NewRegistry()
	require.NoError(t, registry.Register(name, "test tool", &jsonschema.Schema{Type: "object"}, handler))
	return registry
}

func collectEvents() (Emitter, *[]Event) {
	var mu sync.Mutex
	events := &[]Event{}
	return func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		*events = append(*events, e)
	}, events
}

func TestRunSingleTurnAnswer(t *testing.T) {
	provider := &scriptedProvider{script: []*llm.Completion{answerCompletion("The limitation period is five years.")}}
	registry := registryWithTool(t, "noop", func(ctx context.Context, args json.RawMessage) (*Result, error) {
		return &Result{}, nil
	})

	loop := NewLoop(provider, registry, testLogger(), 0)
	result, err := loop.Run(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, nil)

	require.NoError(t, err)
	assert.Equal(t, "The limitation period is five years.", result.Answer)
	assert.False(t, result.Incomplete)
	assert.Empty(t, result.ToolCalls)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, 10, result.Usage.PromptTokens)
	assert.Equal(t, 20, result.Usage.CompletionTokens)
}

func TestRunToolRoundTrip(t *testing.T) {
	provider := &scriptedProvider{script: []*llm.Completion{
		toolCallCompletion("call_0", "search", `{"query": "bail"}`),
		answerCompletion("Based on the documents, bail is regulated by article 35."),
	}}

	docs := []retrieval.RankedResult{
		{Item: retrieval.Item{Id: "chunk-1", Source: retrieval.SourceVector, Content: "article 35"}, NormalizedScore: 0.9, Rank: 1},
	}
	registry := registryWithTool(t, "search", func(ctx context.Context, args json.RawMessage) (*Result, error) {
		return &Result{Content: "Source 1:\narticle 35", Documents: docs}, nil
	})

	emitter, events := collectEvents()
	loop := NewLoop(provider, registry, testLogger(), 0)
	result, err := loop.Run(context.Background(), []llm.Message{{Role: "user", Content: "bail?"}}, emitter)

	require.NoError(t, err)
	assert.Equal(t, "Based on the documents, bail is regulated by article 35.", result.Answer)
	require.Len(t, result.ToolCalls, 1)
	record := result.ToolCalls[0]
	assert.Equal(t, ToolCallCompleted, record.Status)
	assert.Equal(t, "search", record.Name)
	assert.Equal(t, 1, record.ResultCount)
	assert.NotNil(t, record.CompletedAt)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "chunk-1", result.Documents[0].Id)

	// Usage accumulates across both model turns.
	assert.Equal(t, 20, result.Usage.PromptTokens)
	assert.Equal(t, 25, result.Usage.CompletionTokens)

	// The second model call must see the assistant tool request and the
	// tool result message.
	require.Len(t, provider.histories, 2)
	second := provider.histories[1]
	require.Len(t, second, 3)
	assert.Equal(t, "assistant", second[1].Role)
	require.Len(t, second[1].ToolCalls, 1)
	assert.Equal(t, "tool", second[2].Role)
	assert.Equal(t, "call_0", second[2].ToolCallId)
	assert.Equal(t, "Source 1:\narticle 35", second[2].Content)

	types := eventTypes(*events)
	assert.Contains(t, types, EventToolStart)
	assert.Contains(t, types, EventDocuments)
	assert.Contains(t, types, EventToolComplete)
	assert.Equal(t, EventDone, types[len(types)-1])
}

func TestRunToolFailureContinues(t *testing.T) {
	provider := &scriptedProvider{script: []*llm.Completion{
		toolCallCompletion("call_0", "flaky", `{}`),
		answerCompletion("I could not consult the external source, but generally the answer is X."),
	}}
	registry := registryWithTool(t, "flaky", func(ctx context.Context, args json.RawMessage) (*Result, error) {
		return nil, errors.New("upstream down")
	})

	loop := NewLoop(provider, registry, testLogger(), 0)
	result, err := loop.Run(context.Background(), []llm.Message{{Role: "user", Content: "q"}}, nil)

	require.NoError(t, err, "a tool failure must not fail the run")
	assert.NotEmpty(t, result.Answer)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, ToolCallError, result.ToolCalls[0].Status)
	assert.Contains(t, result.ToolCalls[0].Error, "upstream down")

	// The model is told about the failure instead of being lied to.
	second := provider.histories[1]
	assert.Contains(t, second[len(second)-1].Content, "Tool call failed")
}

func TestRunUnknownToolReportedToModel(t *testing.T) {
	provider := &scriptedProvider{script: []*llm.Completion{
		toolCallCompletion("call_0", "ghost", `{}`),
		answerCompletion("done"),
	}}
	registry := NewRegistry()

	loop := NewLoop(provider, registry, testLogger(), 0)
	result, err := loop.Run(context.Background(), []llm.Message{{Role: "user", Content: "q"}}, nil)

	require.NoError(t, err)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, ToolCallError, result.ToolCalls[0].Status)
	assert.Contains(t, result.ToolCalls[0].Error, "unknown tool")
}

func TestRunProviderErrorIsFatal(t *testing.T) {
	providerErr := &llm.ProviderError{Provider: "openai", Err: errors.New("429 rate limited")}
	provider := &scriptedProvider{
		script: []*llm.Completion{nil},
		errs:   []error{providerErr},
	}
	registry := NewRegistry()

	emitter, events := collectEvents()
	loop := NewLoop(provider, registry, testLogger(), 0)
	result, err := loop.Run(context.Background(), []llm.Message{{Role: "user", Content: "q"}}, emitter)

	require.Error(t, err)
	assert.Nil(t, result)

	var pe *llm.ProviderError
	assert.ErrorAs(t, err, &pe)

	types := eventTypes(*events)
	require.NotEmpty(t, types)
	assert.Equal(t, EventError, types[len(types)-1])
}

func TestRunExhaustsIterationBudget(t *testing.T) {
	// The model asks for a tool on every turn, forever.
	provider := &scriptedProvider{script: []*llm.Completion{
		toolCallCompletion("call_0", "search", `{}`),
	}}
	registry := registryWithTool(t, "search", func(ctx context.Context, args json.RawMessage) (*Result, error) {
		return &Result{Content: "partial findings"}, nil
	})

	loop := NewLoop(provider, registry, testLogger(), DefaultMaxIterations)
	result, err := loop.Run(context.Background(), []llm.Message{{Role: "user", Content: "q"}}, nil)

	require.NoError(t, err, "budget exhaustion is not an error")
	assert.True(t, result.Incomplete)
	assert.NotEmpty(t, result.Answer)
	assert.Equal(t, DefaultMaxIterations, result.Iterations)
	assert.Len(t, result.ToolCalls, DefaultMaxIterations)
	assert.Equal(t, DefaultMaxIterations, provider.calls, "no model calls beyond the budget")
}

func TestRunParallelToolCallsAllRecorded(t *testing.T) {
	provider := &scriptedProvider{script: []*llm.Completion{
		{
			ToolCalls: []llm.ToolCall{
				{Id: "call_0", Name: "search", Arguments: json.RawMessage(`{}`)},
				{Id: "call_1", Name: "search", Arguments: json.RawMessage(`{}`)},
				{Id: "call_2", Name: "search", Arguments: json.RawMessage(`{}`)},
			},
		},
		answerCompletion("combined answer"),
	}}
	registry := registryWithTool(t, "search", func(ctx context.Context, args json.RawMessage) (*Result, error) {
		return &Result{Content: "hit"}, nil
	})

	loop := NewLoop(provider, registry, testLogger(), 0)
	result, err := loop.Run(context.Background(), []llm.Message{{Role: "user", Content: "q"}}, nil)

	require.NoError(t, err)
	require.Len(t, result.ToolCalls, 3)
	for _, record := range result.ToolCalls {
		assert.Equal(t, ToolCallCompleted, record.Status)
	}

	// Tool messages keep the model's request order regardless of
	// completion order.
	second := provider.histories[1]
	require.Len(t, second, 5)
	assert.Equal(t, "call_0", second[2].ToolCallId)
	assert.Equal(t, "call_1", second[3].ToolCallId)
	assert.Equal(t, "call_2", second[4].ToolCallId)
}

func TestRunDeduplicatesDocumentsAcrossToolCalls(t *testing.T) {
	provider := &scriptedProvider{script: []*llm.Completion{
		{
			ToolCalls: []llm.ToolCall{
				{Id: "call_0", Name: "search", Arguments: json.RawMessage(`{"n": 0}`)},
				{Id: "call_1", Name: "search", Arguments: json.RawMessage(`{"n": 1}`)},
			},
		},
		answerCompletion("combined"),
	}}

	ranked := func(id string, score float64, rank int) retrieval.RankedResult {
		return retrieval.RankedResult{
			Item:            retrieval.Item{Id: id, Source: retrieval.SourceVector, Content: id, Score: score, HasScore: true},
			NormalizedScore: score,
			Rank:            rank,
		}
	}
	// Two similar searches returning an overlapping chunk.
	batches := [][]retrieval.RankedResult{
		{ranked("a", 0.9, 1), ranked("b", 0.5, 2)},
		{ranked("b", 0.8, 1), ranked("c", 0.4, 2)},
	}
	registry := registryWithTool(t, "search", func(ctx context.Context, args json.RawMessage) (*Result, error) {
		var req struct {
			N int `json:"n"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, err
		}
		return &Result{Content: "hits", Documents: batches[req.N]}, nil
	})

	loop := NewLoop(provider, registry, testLogger(), 0)
	result, err := loop.Run(context.Background(), []llm.Message{{Role: "user", Content: "q"}}, nil)

	require.NoError(t, err)
	require.Len(t, result.Documents, 3, "the overlapping chunk appears once")
	assert.Equal(t, "a", result.Documents[0].Id)
	assert.Equal(t, "b", result.Documents[1].Id)
	assert.Equal(t, 0.8, result.Documents[1].NormalizedScore, "best score wins")
	assert.Equal(t, "c", result.Documents[2].Id)
	for i, doc := range result.Documents {
		assert.Equal(t, i+1, doc.Rank)
	}
}

func TestRunSurvivesPanickingEmitter(t *testing.T) {
	provider := &scriptedProvider{script: []*llm.Completion{
		toolCallCompletion("call_0", "search", `{}`),
		answerCompletion("final"),
	}}
	registry := registryWithTool(t, "search", func(ctx context.Context, args json.RawMessage) (*Result, error) {
		return &Result{Content: "hit"}, nil
	})

	emitter := func(e Event) {
		panic("consumer went away")
	}

	loop := NewLoop(provider, registry, testLogger(), 0)
	result, err := loop.Run(context.Background(), []llm.Message{{Role: "user", Content: "q"}}, emitter)

	require.NoError(t, err)
	assert.Equal(t, "final", result.Answer)
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}
