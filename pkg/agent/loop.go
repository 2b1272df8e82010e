package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"ai-lawyer-be/pkg/llm"
	"ai-lawyer-be/pkg/retrieval"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxIterations = 15

	// Fallback answer when the iteration budget runs out before the
	// model produces any text.
	exhaustedAnswer = "I was unable to fully complete the research for this question within the allotted steps. The partial findings gathered so far may be incomplete."
)

// ToolCallStatus tracks a tool call through its lifecycle.
type ToolCallStatus string

const (
	ToolCallPending   ToolCallStatus = "PENDING"
	ToolCallRunning   ToolCallStatus = "RUNNING"
	ToolCallCompleted ToolCallStatus = "COMPLETED"
	ToolCallError     ToolCallStatus = "ERROR"
)

// ToolCallRecord is the audit trail of one tool invocation.
type ToolCallRecord struct {
	Id            string          `json:"id"`
	Name          string          `json:"name"`
	Arguments     json.RawMessage `json:"arguments"`
	Status        ToolCallStatus  `json:"status"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	ResultSummary string          `json:"result_summary,omitempty"`
	ResultCount   int             `json:"result_count"`
	Error         string          `json:"error,omitempty"`
}

// RunResult is the outcome of one agent run. Documents is the
// deduplicated union of every tool call's results, reranked as one set.
type RunResult struct {
	Answer     string
	Incomplete bool
	ToolCalls  []ToolCallRecord
	Documents  []retrieval.RankedResult
	Usage      llm.Usage
	Iterations int
}

// Loop drives the model/tool conversation until the model answers in
// plain text or the iteration budget runs out.
type Loop struct {
	provider      llm.LLMProvider
	registry      *Registry
	logger        *log.Logger
	maxIterations int
}

func NewLoop(provider llm.LLMProvider, registry *Registry, logger *log.Logger, maxIterations int) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Loop{
		provider:      provider,
		registry:      registry,
		logger:        logger,
		maxIterations: maxIterations,
	}
}

// Run executes the agent loop over the given conversation history.
//
// A failed tool call is reported back to the model and the run
// continues; a failed model call aborts the run with an error. An
// exhausted iteration budget is not an error: the result carries the
// best text the model produced so far, flagged Incomplete.
func (l *Loop) Run(ctx context.Context, history []llm.Message, emitter Emitter) (*RunResult, error) {
	specs, err := l.registry.Specs()
	if err != nil {
		return nil, fmt.Errorf("build tool specs: %w", err)
	}

	result := &RunResult{}
	lastContent := ""

	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		result.Iterations = iteration
		l.logger.Printf("[DEBUG] Agent iteration %d/%d (%d messages)", iteration, l.maxIterations, len(history))

		completion, err := l.provider.Complete(ctx, history, specs)
		if err != nil {
			safeEmit(emitter, l.logger, Event{Type: EventError, Data: map[string]string{"message": err.Error()}})
			return nil, fmt.Errorf("model call failed at iteration %d: %w", iteration, err)
		}

		result.Usage.PromptTokens += completion.Usage.PromptTokens
		result.Usage.CompletionTokens += completion.Usage.CompletionTokens

		if completion.Content != "" {
			lastContent = completion.Content
		}

		if len(completion.ToolCalls) == 0 {
			result.Answer = completion.Content
			result.Documents = retrieval.Rerank(result.Documents)
			safeEmit(emitter, l.logger, Event{Type: EventDone, Data: map[string]interface{}{
				"iterations": iteration,
			}})
			return result, nil
		}

		history = append(history, llm.Message{
			Role:      "assistant",
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		toolMessages := l.executeToolCalls(ctx, completion.ToolCalls, result, emitter)
		history = append(history, toolMessages...)
	}

	// Budget exhausted with the model still asking for tools.
	l.logger.Printf("[WARN] Agent run exhausted %d iterations without a final answer", l.maxIterations)

	answer := lastContent
	if answer == "" {
		answer = exhaustedAnswer
	}
	result.Answer = answer
	result.Incomplete = true
	result.Documents = retrieval.Rerank(result.Documents)

	safeEmit(emitter, l.logger, Event{Type: EventDone, Data: map[string]interface{}{
		"iterations": l.maxIterations,
		"incomplete": true,
	}})
	return result, nil
}

// executeToolCalls runs one batch of tool calls concurrently and
// returns the tool messages to append to the history, in the order the
// model requested them. Individual failures become ERROR records and
// error texts fed back to the model; they never abort the batch.
func (l *Loop) executeToolCalls(
	ctx context.Context,
	calls []llm.ToolCall,
	result *RunResult,
	emitter Emitter,
) []llm.Message {

	base := len(result.ToolCalls)
	for _, call := range calls {
		result.ToolCalls = append(result.ToolCalls, ToolCallRecord{
			Id:        call.Id,
			Name:      call.Name,
			Arguments: call.Arguments,
			Status:    ToolCallPending,
		})
	}

	messages := make([]llm.Message, len(calls))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i := range calls {
		i := i
		call := calls[i]

		g.Go(func() error {
			record := &result.ToolCalls[base+i]
			record.Status = ToolCallRunning
			record.StartedAt = time.Now()

			safeEmit(emitter, l.logger, Event{Type: EventToolStart, Data: map[string]interface{}{
				"id":   call.Id,
				"name": call.Name,
			}})

			res, err := l.registry.Invoke(gctx, call.Name, call.Arguments)

			now := time.Now()
			record.CompletedAt = &now

			var content string
			if err != nil {
				l.logger.Printf("[ERROR] Tool %s failed: %v", call.Name, err)
				record.Status = ToolCallError
				record.Error = err.Error()
				content = fmt.Sprintf("Tool call failed: %v", err)
			} else {
				record.Status = ToolCallCompleted
				record.ResultCount = len(res.Documents)
				record.ResultSummary = summarize(res.Content)
				content = res.Content

				if len(res.Documents) > 0 {
					mu.Lock()
					result.Documents = append(result.Documents, res.Documents...)
					mu.Unlock()
					safeEmit(emitter, l.logger, Event{Type: EventDocuments, Data: res.Documents})
				}
			}

			safeEmit(emitter, l.logger, Event{Type: EventToolComplete, Data: map[string]interface{}{
				"id":     call.Id,
				"name":   call.Name,
				"status": record.Status,
			}})

			messages[i] = llm.Message{
				Role:       "tool",
				Content:    content,
				ToolCallId: call.Id,
				Name:       call.Name,
			}
			return nil
		})
	}

	// Goroutines record their own failures, so Wait only synchronizes.
	_ = g.Wait()

	return messages
}

const summaryLimit = 200

func summarize(content string) string {
	if len(content) <= summaryLimit {
		return content
	}
	return content[:summaryLimit] + "..."
}
