package service

import (
	"context"
	"testing"

	"ai-lawyer-be/internal/config"
	"ai-lawyer-be/internal/dto"
	"ai-lawyer-be/internal/entity"
	"ai-lawyer-be/internal/repository/contract"
	"ai-lawyer-be/internal/repository/memory"
	"ai-lawyer-be/internal/repository/specification"
	"ai-lawyer-be/internal/repository/unitofwork"
	"ai-lawyer-be/pkg/agent"
	"ai-lawyer-be/pkg/embedding"
	"ai-lawyer-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeLLM struct {
	completions  []*llm.Completion
	calls        int
	lastMessages []llm.Message
}

func (f *fakeLLM) Complete(ctx context.Context, history []llm.Message, tools []llm.ToolSpec, options ...llm.Option) (*llm.Completion, error) {
	f.lastMessages = history
	idx := f.calls
	if idx >= len(f.completions) {
		idx = len(f.completions) - 1
	}
	f.calls++
	return f.completions[idx], nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	c, err := f.Complete(ctx, nil, nil)
	if err != nil {
		return "", err
	}
	return c.Content, nil
}

type fakeEmbedding struct{}

func (f *fakeEmbedding) Generate(text, taskType string) (*embedding.Result, error) {
	return &embedding.Result{Values: []float32{0.1, 0.2, 0.3}}, nil
}

type fakeSessionStore struct {
	sessions map[uuid.UUID]*entity.ChatSession
	created  []*entity.ChatSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*entity.ChatSession)}
}

func (f *fakeSessionStore) Create(ctx context.Context, s *entity.ChatSession) error {
	f.sessions[s.Id] = s
	f.created = append(f.created, s)
	return nil
}
func (f *fakeSessionStore) Update(ctx context.Context, s *entity.ChatSession) error { return nil }
func (f *fakeSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.sessions, id)
	return nil
}

// FindOne honors ByID and OwnedByUser, which is all the service uses.
func (f *fakeSessionStore) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	var byId *uuid.UUID
	var byUser *uuid.UUID
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			id := s.ID
			byId = &id
		case specification.OwnedByUser:
			uid := s.UserID
			byUser = &uid
		}
	}
	if byId == nil {
		return nil, nil
	}
	sess, ok := f.sessions[*byId]
	if !ok {
		return nil, nil
	}
	if byUser != nil && sess.UserId != *byUser {
		return nil, nil
	}
	return sess, nil
}

func (f *fakeSessionStore) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	out := make([]*entity.ChatSession, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSessionStore) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.sessions)), nil
}

type fakeMessageStore struct {
	messages []*entity.ChatMessage
}

func (f *fakeMessageStore) Create(ctx context.Context, m *entity.ChatMessage) error {
	f.messages = append(f.messages, m)
	return nil
}
func (f *fakeMessageStore) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeMessageStore) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return nil
}
func (f *fakeMessageStore) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	return nil, nil
}
func (f *fakeMessageStore) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	return f.messages, nil
}
func (f *fakeMessageStore) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.messages)), nil
}

type fakeCitationStore struct {
	citations []*entity.ChatCitation
}

func (f *fakeCitationStore) Create(ctx context.Context, c *entity.ChatCitation) error {
	f.citations = append(f.citations, c)
	return nil
}
func (f *fakeCitationStore) CreateBulk(ctx context.Context, cs []*entity.ChatCitation) error {
	f.citations = append(f.citations, cs...)
	return nil
}
func (f *fakeCitationStore) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatCitation, error) {
	return f.citations, nil
}

type fakeToolCallStore struct {
	calls []*entity.AgentToolCall
}

func (f *fakeToolCallStore) Create(ctx context.Context, c *entity.AgentToolCall) error {
	f.calls = append(f.calls, c)
	return nil
}
func (f *fakeToolCallStore) CreateBulk(ctx context.Context, cs []*entity.AgentToolCall) error {
	f.calls = append(f.calls, cs...)
	return nil
}
func (f *fakeToolCallStore) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AgentToolCall, error) {
	return f.calls, nil
}

type fakeAgentStore struct {
	agents map[uuid.UUID]*entity.Agent
}

func (f *fakeAgentStore) Create(ctx context.Context, a *entity.Agent) error { return nil }
func (f *fakeAgentStore) Update(ctx context.Context, a *entity.Agent) error { return nil }
func (f *fakeAgentStore) Delete(ctx context.Context, id uuid.UUID) error    { return nil }
func (f *fakeAgentStore) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Agent, error) {
	for _, spec := range specs {
		if s, ok := spec.(specification.ByID); ok {
			return f.agents[s.ID], nil
		}
	}
	return nil, nil
}
func (f *fakeAgentStore) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Agent, error) {
	return nil, nil
}

type fakeUow struct {
	sessions   *fakeSessionStore
	messages   *fakeMessageStore
	citations  *fakeCitationStore
	toolCalls  *fakeToolCallStore
	agents     *fakeAgentStore
	committed  int
	rolledBack int
}

func newFakeUow() *fakeUow {
	return &fakeUow{
		sessions:  newFakeSessionStore(),
		messages:  &fakeMessageStore{},
		citations: &fakeCitationStore{},
		toolCalls: &fakeToolCallStore{},
		agents:    &fakeAgentStore{agents: make(map[uuid.UUID]*entity.Agent)},
	}
}

func (f *fakeUow) Begin(ctx context.Context) error { return nil }
func (f *fakeUow) Commit() error                   { f.committed++; return nil }
func (f *fakeUow) Rollback() error                 { f.rolledBack++; return nil }

func (f *fakeUow) CollectionRepository() contract.CollectionRepository       { return nil }
func (f *fakeUow) DocumentRepository() contract.DocumentRepository           { return nil }
func (f *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository { return nil }
func (f *fakeUow) ChatSessionRepository() contract.ChatSessionRepository     { return f.sessions }
func (f *fakeUow) ChatMessageRepository() contract.ChatMessageRepository     { return f.messages }
func (f *fakeUow) ChatCitationRepository() contract.ChatCitationRepository   { return f.citations }
func (f *fakeUow) AgentRepository() contract.AgentRepository                 { return f.agents }
func (f *fakeUow) AgentToolCallRepository() contract.AgentToolCallRepository { return f.toolCalls }

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

func testConfig() *config.Config {
	return &config.Config{
		Ai:        config.AIConfig{MaxIterations: 15},
		Retrieval: config.RetrievalConfig{TopK: 10},
	}
}

func newTestChatService(uow *fakeUow, provider llm.LLMProvider) IChatService {
	return NewChatService(
		&fakeFactory{uow: uow},
		&fakeEmbedding{},
		provider,
		memory.NewSessionRepository(),
		nil,
		nil,
		testConfig(),
	)
}

// --- tests ---

func TestQueryPersistsOneUserAndOneAssistantMessage(t *testing.T) {
	uow := newFakeUow()
	provider := &fakeLLM{completions: []*llm.Completion{
		{Content: "The answer.", Usage: llm.Usage{PromptTokens: 12, CompletionTokens: 7}},
	}}
	svc := newTestChatService(uow, provider)
	userId := uuid.New()

	res, err := svc.Query(context.Background(), userId, &dto.QueryRequest{
		Message: "What is the statute of limitations?",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "The answer.", res.Answer)
	assert.False(t, res.Incomplete)
	assert.Equal(t, 12, res.Usage.PromptTokens)
	assert.Equal(t, 7, res.Usage.CompletionTokens)
	assert.Empty(t, res.Citations)
	assert.Empty(t, res.ToolCalls)

	require.Len(t, uow.messages.messages, 2)
	assert.Equal(t, entity.RoleUser, uow.messages.messages[0].Role)
	assert.Equal(t, "What is the statute of limitations?", uow.messages.messages[0].Chat)
	assert.Equal(t, entity.RoleAssistant, uow.messages.messages[1].Role)
	assert.Equal(t, "The answer.", uow.messages.messages[1].Chat)
	assert.Equal(t, 12, uow.messages.messages[1].PromptTokens)
	assert.Equal(t, 7, uow.messages.messages[1].CompletionTokens)
	assert.Equal(t, 1, uow.committed)
}

func TestQueryCreatesSessionTitledAfterFirstMessage(t *testing.T) {
	uow := newFakeUow()
	provider := &fakeLLM{completions: []*llm.Completion{{Content: "ok"}}}
	svc := newTestChatService(uow, provider)

	res, err := svc.Query(context.Background(), uuid.New(), &dto.QueryRequest{
		Message: "Short question",
	}, nil)
	require.NoError(t, err)

	require.Len(t, uow.sessions.created, 1)
	assert.Equal(t, res.ChatSessionId, uow.sessions.created[0].Id)
	assert.Equal(t, "Short question", uow.sessions.created[0].Title)
}

func TestQueryRejectsForeignSession(t *testing.T) {
	uow := newFakeUow()
	owner := uuid.New()
	sess := &entity.ChatSession{Id: uuid.New(), UserId: owner}
	uow.sessions.sessions[sess.Id] = sess

	provider := &fakeLLM{completions: []*llm.Completion{{Content: "ok"}}}
	svc := newTestChatService(uow, provider)

	_, err := svc.Query(context.Background(), uuid.New(), &dto.QueryRequest{
		Message:       "hello",
		ChatSessionId: &sess.Id,
	}, nil)
	require.Error(t, err)
	assert.Empty(t, uow.messages.messages)
}

func TestQueryReusesOwnedSession(t *testing.T) {
	uow := newFakeUow()
	userId := uuid.New()
	sess := &entity.ChatSession{Id: uuid.New(), UserId: userId, Title: "existing"}
	uow.sessions.sessions[sess.Id] = sess

	provider := &fakeLLM{completions: []*llm.Completion{{Content: "ok"}}}
	svc := newTestChatService(uow, provider)

	res, err := svc.Query(context.Background(), userId, &dto.QueryRequest{
		Message:       "follow-up",
		ChatSessionId: &sess.Id,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, sess.Id, res.ChatSessionId)
	assert.Empty(t, uow.sessions.created)
}

func TestQueryEmitsEventsAndReturnsIdenticalPayload(t *testing.T) {
	uow := newFakeUow()
	provider := &fakeLLM{completions: []*llm.Completion{{Content: "streamed answer"}}}
	svc := newTestChatService(uow, provider)

	var events []agent.Event
	res, err := svc.Query(context.Background(), uuid.New(), &dto.QueryRequest{
		Message: "stream this",
	}, func(event agent.Event) {
		events = append(events, event)
	})
	require.NoError(t, err)

	require.NotEmpty(t, events)
	var sawToken, sawDone bool
	for _, e := range events {
		switch e.Type {
		case agent.EventToken:
			sawToken = true
			assert.Equal(t, "streamed answer", e.Data)
		case agent.EventDone:
			sawDone = true
		}
	}
	assert.True(t, sawToken)
	assert.True(t, sawDone)
	assert.Equal(t, "streamed answer", res.Answer)
}

func TestQueryAgentModeUsesPersona(t *testing.T) {
	uow := newFakeUow()
	persona := &entity.Agent{
		Id:            uuid.New(),
		Name:          "Researcher",
		SystemPrompt:  "You research.",
		MaxIterations: 3,
	}
	uow.agents.agents[persona.Id] = persona

	provider := &fakeLLM{completions: []*llm.Completion{
		{Content: "agent answer", Usage: llm.Usage{PromptTokens: 5, CompletionTokens: 2}},
	}}
	svc := newTestChatService(uow, provider)

	collectionId := uuid.New()
	res, err := svc.Query(context.Background(), uuid.New(), &dto.QueryRequest{
		Message:      "research this",
		AgentId:      &persona.Id,
		CollectionId: &collectionId,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "agent answer", res.Answer)
	assert.False(t, res.Incomplete)
	assert.Equal(t, 5, res.Usage.PromptTokens)
	assert.Equal(t, 1, provider.calls)
	assert.Empty(t, uow.toolCalls.calls)

	// The persona's prompt leads the conversation.
	require.NotEmpty(t, provider.lastMessages)
	assert.Equal(t, "You research.", provider.lastMessages[0].Content)
}

// An agent without a collection has no document scope, so the query
// runs through the plain path instead of the tool loop.
func TestQueryAgentWithoutCollectionSkipsAgentLoop(t *testing.T) {
	uow := newFakeUow()
	persona := &entity.Agent{
		Id:           uuid.New(),
		Name:         "Researcher",
		SystemPrompt: "You research.",
	}
	uow.agents.agents[persona.Id] = persona

	provider := &fakeLLM{completions: []*llm.Completion{{Content: "plain answer"}}}
	svc := newTestChatService(uow, provider)

	res, err := svc.Query(context.Background(), uuid.New(), &dto.QueryRequest{
		Message: "research this",
		AgentId: &persona.Id,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "plain answer", res.Answer)
	require.Len(t, provider.lastMessages, 1, "no persona system prompt")
	assert.Equal(t, "research this", provider.lastMessages[0].Content)
}

func TestQueryAgentModeUnknownAgent(t *testing.T) {
	uow := newFakeUow()
	provider := &fakeLLM{completions: []*llm.Completion{{Content: "ok"}}}
	svc := newTestChatService(uow, provider)

	missing := uuid.New()
	collectionId := uuid.New()
	_, err := svc.Query(context.Background(), uuid.New(), &dto.QueryRequest{
		Message:      "hello",
		AgentId:      &missing,
		CollectionId: &collectionId,
	}, nil)
	require.Error(t, err)
}

func TestSessionTitleTruncation(t *testing.T) {
	long := make([]rune, 0, 120)
	for i := 0; i < 120; i++ {
		long = append(long, 'é')
	}
	title := sessionTitle(string(long))
	assert.Equal(t, sessionTitleLimit+3, len([]rune(title)))
	assert.Equal(t, "...", title[len(title)-3:])

	assert.Equal(t, "short", sessionTitle("  short  "))
	assert.Equal(t, "Unnamed session", sessionTitle("   "))
}

func TestSnippetTruncation(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}
	s := snippet(string(long))
	assert.Equal(t, snippetLimit+3, len([]rune(s)))
	assert.Equal(t, "short", snippet("short"))
}
