package controller

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"ai-lawyer-be/internal/dto"
	"ai-lawyer-be/pkg/agent"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChatService replays a scripted event sequence the way the real
// pipelines do, then returns a fixed response or error.
type stubChatService struct {
	events []agent.Event
	res    *dto.QueryResponse
	err    error
}

func (s *stubChatService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	return nil, nil
}

func (s *stubChatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	return nil, nil
}

func (s *stubChatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	return nil, nil
}

func (s *stubChatService) DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error {
	return nil
}

func (s *stubChatService) Query(ctx context.Context, userId uuid.UUID, request *dto.QueryRequest, emit agent.Emitter) (*dto.QueryResponse, error) {
	for _, e := range s.events {
		if emit != nil {
			emit(e)
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

func newStreamApp(svc *stubChatService) *fiber.App {
	app := fiber.New()
	app.Use(func(ctx *fiber.Ctx) error {
		ctx.Locals("user_id", uuid.New().String())
		return ctx.Next()
	})
	app.Post("/query", NewChatController(svc).Query)
	return app
}

type decodedLine struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func streamLines(t *testing.T, app *fiber.App) []decodedLine {
	t.Helper()

	body := bytes.NewBufferString(`{"message": "hello", "stream": true}`)
	req := httptest.NewRequest(fiber.MethodPost, "/query", body)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/x-ndjson", resp.Header.Get(fiber.HeaderContentType))

	var lines []decodedLine
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		var line decodedLine
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestStreamEndsWithSingleDoneCarryingPayload(t *testing.T) {
	svc := &stubChatService{
		events: []agent.Event{
			{Type: agent.EventToken, Data: "the answer"},
			{Type: agent.EventDone, Data: map[string]interface{}{"iterations": 1}},
		},
		res: &dto.QueryResponse{
			ChatSessionId: uuid.New(),
			MessageId:     uuid.New(),
			Answer:        "the answer",
			Citations:     []dto.CitationView{},
			ToolCalls:     []dto.ToolCallView{},
		},
	}

	lines := streamLines(t, newStreamApp(svc))
	require.NotEmpty(t, lines)

	doneCount := 0
	for _, line := range lines {
		if line.Type == "done" {
			doneCount++
		}
	}
	assert.Equal(t, 1, doneCount)

	last := lines[len(lines)-1]
	require.Equal(t, "done", last.Type)

	var payload dto.QueryResponse
	require.NoError(t, json.Unmarshal(last.Data, &payload))
	assert.Equal(t, svc.res.ChatSessionId, payload.ChatSessionId)
	assert.Equal(t, "the answer", payload.Answer)
}

func TestStreamFailureEndsWithSingleErrorEvent(t *testing.T) {
	svc := &stubChatService{
		events: []agent.Event{
			{Type: agent.EventError, Data: map[string]string{"message": "model call failed"}},
		},
		err: errors.New("model call failed"),
	}

	lines := streamLines(t, newStreamApp(svc))
	require.NotEmpty(t, lines)

	errorCount := 0
	for _, line := range lines {
		if line.Type == "error" {
			errorCount++
		}
	}
	assert.Equal(t, 1, errorCount)
	assert.Equal(t, "error", lines[len(lines)-1].Type)
}

func TestStreamForwardsProgressEvents(t *testing.T) {
	svc := &stubChatService{
		events: []agent.Event{
			{Type: agent.EventToolStart, Data: map[string]interface{}{"name": "search_documents"}},
			{Type: agent.EventToolComplete, Data: map[string]interface{}{"name": "search_documents"}},
			{Type: agent.EventToken, Data: "answer"},
			{Type: agent.EventDone, Data: map[string]interface{}{"iterations": 2}},
		},
		res: &dto.QueryResponse{Answer: "answer"},
	}

	lines := streamLines(t, newStreamApp(svc))
	require.Len(t, lines, 4)
	assert.Equal(t, "tool_start", lines[0].Type)
	assert.Equal(t, "tool_complete", lines[1].Type)
	assert.Equal(t, "token", lines[2].Type)
	assert.Equal(t, "done", lines[3].Type)
}
