package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-lawyer-be/internal/config"
	"ai-lawyer-be/internal/constant"
	"ai-lawyer-be/internal/dto"
	"ai-lawyer-be/internal/entity"
	"ai-lawyer-be/internal/repository/memory"
	"ai-lawyer-be/internal/repository/specification"
	"ai-lawyer-be/internal/repository/unitofwork"
	"ai-lawyer-be/pkg/agent"
	"ai-lawyer-be/pkg/embedding"
	"ai-lawyer-be/pkg/events"
	"ai-lawyer-be/pkg/llm"
	pkgnats "ai-lawyer-be/pkg/nats"
	"ai-lawyer-be/pkg/retrieval"
	"ai-lawyer-be/pkg/retrieval/juportal"
	"ai-lawyer-be/pkg/store"

	"github.com/google/uuid"
)

// IChatService defines the chat orchestration interface
type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	Query(ctx context.Context, userId uuid.UUID, request *dto.QueryRequest, emit agent.Emitter) (*dto.QueryResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error
}

// chatService routes each query through one of three pipelines: the
// agent loop when both a persona and a collection are selected, plain
// RAG when there is something to retrieve from, and a bypass
// completion otherwise.
type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	llmProvider    llm.LLMProvider
	sessionRepo    *memory.SessionRepository
	juportalClient *juportal.Client
	natsPublisher  *pkgnats.Publisher // nil when NATS is unavailable
	cfg            *config.Config
	llmLogger      *log.Logger

	vectorSearcher *retrieval.VectorSearcher
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	llmProvider llm.LLMProvider,
	sessionRepo *memory.SessionRepository,
	juportalClient *juportal.Client,
	natsPublisher *pkgnats.Publisher,
	cfg *config.Config,
) IChatService {

	llmLogger := initLLMLogger()

	return &chatService{
		uowFactory:     uowFactory,
		llmProvider:    llmProvider,
		sessionRepo:    sessionRepo,
		juportalClient: juportalClient,
		natsPublisher:  natsPublisher,
		cfg:            cfg,
		llmLogger:      llmLogger,
		vectorSearcher: retrieval.NewVectorSearcher(embeddingProvider, llmLogger),
	}
}

func initLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// CreateSession creates a new chat session with a greeting message.
func (cs *chatService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     constant.DefaultSessionTitle,
		CreatedAt: now,
	}

	chatMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          constant.SessionGreeting,
		Role:          entity.RoleAssistant,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &chatMessage); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{
		ChatSessionId: chatSession.Id,
		Title:         chatSession.Title,
		CreatedAt:     chatSession.CreatedAt,
	}, nil
}

// GetAllSessions retrieves all chat sessions owned by the user.
func (cs *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		response = append(response, &dto.GetAllSessionsResponse{
			ChatSessionId: s.Id,
			Title:         s.Title,
			CollectionId:  s.CollectionId,
			AgentId:       s.AgentId,
			CreatedAt:     s.CreatedAt,
		})
	}

	return response, nil
}

// GetChatHistory retrieves the full message history of a session, with
// the citations attached to each assistant message.
func (cs *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	messageIds := make([]uuid.UUID, len(chatMessages))
	for i, msg := range chatMessages {
		messageIds[i] = msg.Id
	}

	citationsByMsgId := make(map[uuid.UUID][]dto.CitationView)
	if len(messageIds) > 0 {
		citations, err := uow.ChatCitationRepository().FindAll(ctx,
			specification.ByChatMessageIDs{ChatMessageIDs: messageIds},
			specification.OrderBy{Field: "rank", Desc: false},
		)
		if err != nil {
			return nil, err
		}
		for _, c := range citations {
			citationsByMsgId[c.ChatMessageId] = append(citationsByMsgId[c.ChatMessageId], dto.CitationView{
				SourceId:   c.SourceId,
				SourceType: c.SourceType,
				Title:      c.Title,
				Snippet:    c.Snippet,
				Score:      c.Score,
				Rank:       c.Rank,
				Metadata:   c.Metadata,
			})
		}
	}

	response := make([]*dto.GetChatHistoryResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		response = append(response, &dto.GetChatHistoryResponse{
			MessageId:  msg.Id,
			Chat:       msg.Chat,
			Role:       msg.Role,
			Incomplete: msg.Incomplete,
			Citations:  citationsByMsgId[msg.Id],
			CreatedAt:  msg.CreatedAt,
		})
	}

	return response, nil
}

// DeleteSession soft-deletes a session and evicts its cached state.
func (cs *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatSessionId},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found or access denied")
	}

	if err := uow.ChatSessionRepository().Delete(ctx, sess.Id); err != nil {
		return err
	}

	cs.sessionRepo.Delete(sess.Id.String())
	return nil
}

// queryOutcome is the pipeline-independent result a query pipeline
// hands back for persistence.
type queryOutcome struct {
	answer     string
	incomplete bool
	usage      llm.Usage
	documents  []retrieval.RankedResult
	toolCalls  []agent.ToolCallRecord
}

// Query answers one user message. The emit callback receives progress
// events while the pipeline runs; passing nil disables streaming. The
// returned response is identical either way.
func (cs *chatService) Query(ctx context.Context, userId uuid.UUID, request *dto.QueryRequest, emit agent.Emitter) (*dto.QueryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := cs.resolveSession(ctx, uow, userId, request)
	if err != nil {
		return nil, err
	}

	collectionId := request.CollectionId
	if collectionId == nil {
		collectionId = session.CollectionId
	}
	agentId := request.AgentId
	if agentId == nil {
		agentId = session.AgentId
	}

	topK := retrieval.ClampTopK(cs.cfg.Retrieval.TopK)
	if request.TopK != nil {
		topK = retrieval.ClampTopK(*request.TopK)
	}

	history, err := cs.loadHistory(ctx, uow, session.Id)
	if err != nil {
		return nil, err
	}

	emitter := cs.runEmitter(userId, session.Id, emit)

	useRag := true
	if request.UseRag != nil {
		useRag = *request.UseRag
	}
	useVector := collectionId != nil && useRag
	useExternal := request.UseJuportal

	var outcome *queryOutcome
	mode := store.ModeBypass

	switch {
	case agentId != nil && collectionId != nil:
		mode = store.ModeAgent
		outcome, err = cs.runAgentPipeline(ctx, uow, *agentId, collectionId, topK, history, request.Message, emitter)
	case useVector || useExternal:
		mode = store.ModeRAG
		outcome, err = cs.runRagPipeline(ctx, uow, collectionId, useVector, useExternal, request.Message, topK, history, emitter)
	default:
		outcome, err = cs.runBypassPipeline(ctx, history, request.Message, emitter)
	}
	if err != nil {
		return nil, err
	}

	assistantMsg, err := cs.persistTurn(ctx, uow, session, request.Message, outcome)
	if err != nil {
		return nil, err
	}

	cs.updateSessionCache(session, userId, mode, collectionId, agentId, request.Message, outcome)

	return &dto.QueryResponse{
		ChatSessionId: session.Id,
		MessageId:     assistantMsg.Id,
		Answer:        outcome.answer,
		Incomplete:    outcome.incomplete,
		Citations:     citationViews(outcome.documents),
		ToolCalls:     toolCallViews(outcome.toolCalls),
		Usage: dto.UsageView{
			PromptTokens:     outcome.usage.PromptTokens,
			CompletionTokens: outcome.usage.CompletionTokens,
		},
	}, nil
}

// resolveSession loads the addressed session or creates one titled
// after the first message.
func (cs *chatService) resolveSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, request *dto.QueryRequest) (*entity.ChatSession, error) {
	if request.ChatSessionId != nil {
		sess, err := uow.ChatSessionRepository().FindOne(ctx,
			specification.ByID{ID: *request.ChatSessionId},
			specification.OwnedByUser{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			return nil, fmt.Errorf("session not found or access denied")
		}
		return sess, nil
	}

	session := &entity.ChatSession{
		Id:           uuid.New(),
		UserId:       userId,
		Title:        sessionTitle(request.Message),
		CollectionId: request.CollectionId,
		AgentId:      request.AgentId,
		CreatedAt:    time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

const sessionTitleLimit = 80

func sessionTitle(message string) string {
	title := strings.TrimSpace(message)
	if title == "" {
		return constant.DefaultSessionTitle
	}
	runes := []rune(title)
	if len(runes) > sessionTitleLimit {
		title = string(runes[:sessionTitleLimit]) + "..."
	}
	return title
}

// loadHistory replays the most recent messages as model history,
// oldest first.
func (cs *chatService) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]llm.Message, error) {
	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: constant.ChatHistoryLimit},
	)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, 0, len(chatMessages))
	for i := len(chatMessages) - 1; i >= 0; i-- {
		history = append(history, llm.Message{
			Role:    chatMessages[i].Role,
			Content: chatMessages[i].Chat,
		})
	}
	return history, nil
}

// runEmitter forwards pipeline events to the caller and mirrors them
// onto the event bus for the websocket feed. Bus failures are logged
// and ignored; telemetry must never break a run.
func (cs *chatService) runEmitter(userId uuid.UUID, sessionId uuid.UUID, emit agent.Emitter) agent.Emitter {
	return func(event agent.Event) {
		if emit != nil {
			emit(event)
		}

		if cs.natsPublisher == nil {
			return
		}
		busEvent := events.NewBaseEvent("run."+string(event.Type), map[string]interface{}{
			"user_id":    userId.String(),
			"session_id": sessionId.String(),
			"event_type": string(event.Type),
			"data":       event.Data,
		})
		if err := cs.natsPublisher.Publish(context.Background(), busEvent); err != nil {
			cs.llmLogger.Printf("[WARN] Failed to publish run event: %v", err)
		}
	}
}

// runAgentPipeline resolves the persona and drives the tool loop.
func (cs *chatService) runAgentPipeline(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	agentId uuid.UUID,
	collectionId *uuid.UUID,
	topK int,
	history []llm.Message,
	message string,
	emitter agent.Emitter,
) (*queryOutcome, error) {

	persona, err := uow.AgentRepository().FindOne(ctx, specification.ByID{ID: agentId})
	if err != nil {
		return nil, err
	}
	if persona == nil {
		return nil, fmt.Errorf("agent not found")
	}

	systemPrompt := persona.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = constant.DefaultAgentSystemPrompt
	}
	maxIterations := persona.MaxIterations
	if maxIterations <= 0 {
		maxIterations = cs.cfg.Ai.MaxIterations
	}

	registry, err := buildAgentRegistry(
		cs.vectorSearcher, uow, collectionId,
		cs.juportalClient, topK, cs.cfg.Retrieval.ScoreThreshold,
		cs.llmLogger,
	)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleUser, Content: message})

	loop := agent.NewLoop(cs.llmProvider, registry, cs.llmLogger, maxIterations)
	runResult, err := loop.Run(ctx, messages, emitter)
	if err != nil {
		return nil, err
	}

	return &queryOutcome{
		answer:     runResult.Answer,
		incomplete: runResult.Incomplete,
		usage:      runResult.Usage,
		documents:  runResult.Documents,
		toolCalls:  runResult.ToolCalls,
	}, nil
}

// runRagPipeline retrieves from the configured sources, merges the
// results and asks the model for a grounded answer.
func (cs *chatService) runRagPipeline(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	collectionId *uuid.UUID,
	useVector bool,
	useExternal bool,
	message string,
	topK int,
	history []llm.Message,
	emitter agent.Emitter,
) (*queryOutcome, error) {

	var items []retrieval.Item

	if useVector {
		vectorItems, err := cs.vectorSearcher.Search(ctx, uow, *collectionId, message, retrieval.SearchConfig{
			TopK:        topK,
			DBThreshold: cs.cfg.Retrieval.ScoreThreshold,
		})
		if err != nil {
			if !useExternal {
				// Vector index is the only source; surface the failure.
				return nil, err
			}
			cs.llmLogger.Printf("[WARN] Vector search failed, continuing with case law only: %v", err)
		} else {
			items = append(items, vectorItems...)
		}
	}

	if useExternal {
		caseLawItems, err := cs.juportalClient.Search(ctx, juportal.SearchCriteria{
			Keywords: message,
			Limit:    topK,
		})
		if err != nil {
			// Only context cancellation reaches here.
			return nil, err
		}
		items = append(items, caseLawItems...)
	}

	ranked := retrieval.Merge(items, topK)
	if len(ranked) > 0 {
		emitter(agent.Event{Type: agent.EventDocuments, Data: ranked})
	}

	var contextBlock strings.Builder
	for _, res := range ranked {
		content := res.Content
		if res.Title != "" {
			content = fmt.Sprintf("%s\n%s", res.Title, content)
		}
		contextBlock.WriteString(constant.FormatContextSource(res.Rank, content))
		contextBlock.WriteString("\n\n")
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleSystem,
		Content: constant.RAGSystemPrompt + contextBlock.String(),
	})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleUser, Content: message})

	cs.llmLogger.Printf("[DEBUG] RAG pipeline: %d sources, %d history messages", len(ranked), len(history))

	completion, err := cs.llmProvider.Complete(ctx, messages, nil)
	if err != nil {
		emitter(agent.Event{Type: agent.EventError, Data: map[string]string{"message": err.Error()}})
		return nil, err
	}

	// The provider completes in one shot, so the whole answer rides a
	// single token event. A streaming provider must emit fragments.
	emitter(agent.Event{Type: agent.EventToken, Data: completion.Content})
	emitter(agent.Event{Type: agent.EventDone, Data: map[string]interface{}{"iterations": 1}})

	return &queryOutcome{
		answer:    completion.Content,
		usage:     completion.Usage,
		documents: ranked,
	}, nil
}

// runBypassPipeline answers without retrieval.
func (cs *chatService) runBypassPipeline(
	ctx context.Context,
	history []llm.Message,
	message string,
	emitter agent.Emitter,
) (*queryOutcome, error) {

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleUser, Content: message})

	completion, err := cs.llmProvider.Complete(ctx, messages, nil)
	if err != nil {
		emitter(agent.Event{Type: agent.EventError, Data: map[string]string{"message": err.Error()}})
		return nil, err
	}

	// The provider completes in one shot, so the whole answer rides a
	// single token event. A streaming provider must emit fragments.
	emitter(agent.Event{Type: agent.EventToken, Data: completion.Content})
	emitter(agent.Event{Type: agent.EventDone, Data: map[string]interface{}{"iterations": 1}})

	return &queryOutcome{
		answer: completion.Content,
		usage:  completion.Usage,
	}, nil
}

// persistTurn writes the user message, the assistant message, its
// citations and its tool-call audit trail in one transaction.
func (cs *chatService) persistTurn(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	session *entity.ChatSession,
	userMessage string,
	outcome *queryOutcome,
) (*entity.ChatMessage, error) {

	now := time.Now()

	userMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          userMessage,
		Role:          entity.RoleUser,
		ChatSessionId: session.Id,
		CreatedAt:     now,
	}

	assistantMsg := &entity.ChatMessage{
		Id:               uuid.New(),
		Chat:             outcome.answer,
		Role:             entity.RoleAssistant,
		ChatSessionId:    session.Id,
		PromptTokens:     outcome.usage.PromptTokens,
		CompletionTokens: outcome.usage.CompletionTokens,
		Incomplete:       outcome.incomplete,
		CreatedAt:        now.Add(1 * time.Millisecond),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, userMsg); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMsg); err != nil {
		return nil, err
	}

	if citations := citationEntities(assistantMsg.Id, outcome.documents, now); len(citations) > 0 {
		if err := uow.ChatCitationRepository().CreateBulk(ctx, citations); err != nil {
			return nil, err
		}
	}

	if toolCalls := toolCallEntities(assistantMsg.Id, outcome.toolCalls, now); len(toolCalls) > 0 {
		if err := uow.AgentToolCallRepository().CreateBulk(ctx, toolCalls); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return assistantMsg, nil
}

func (cs *chatService) updateSessionCache(
	session *entity.ChatSession,
	userId uuid.UUID,
	mode string,
	collectionId *uuid.UUID,
	agentId *uuid.UUID,
	lastQuery string,
	outcome *queryOutcome,
) {
	cached := &store.Session{
		ID:            session.Id.String(),
		UserID:        userId.String(),
		Mode:          mode,
		LastQuery:     lastQuery,
		LastCitations: make([]store.Citation, 0, len(outcome.documents)),
	}
	if collectionId != nil {
		cached.CollectionID = collectionId.String()
	}
	if agentId != nil {
		cached.AgentID = agentId.String()
	}
	for _, doc := range outcome.documents {
		cached.LastCitations = append(cached.LastCitations, store.Citation{
			ID:         doc.Id,
			SourceType: string(doc.Source),
			Title:      doc.Title,
			Content:    doc.Content,
			Score:      doc.NormalizedScore,
			Metadata:   citationMetadata(doc),
		})
	}
	cs.sessionRepo.Save(cached)
}

func citationMetadata(doc retrieval.RankedResult) map[string]interface{} {
	switch {
	case doc.Vector != nil:
		return map[string]interface{}{
			"document_id": doc.Vector.DocumentId.String(),
			"chunk_index": doc.Vector.ChunkIndex,
		}
	case doc.External != nil:
		meta := map[string]interface{}{
			"court": doc.External.Court,
			"ecli":  doc.External.CaseId,
		}
		if doc.External.Date != nil {
			meta["date"] = doc.External.Date.Format("2006-01-02")
		}
		if doc.External.URL != "" {
			meta["url"] = doc.External.URL
		}
		return meta
	}
	return nil
}

func citationSourceId(doc retrieval.RankedResult) string {
	if doc.External != nil && doc.External.CaseId != "" {
		return doc.External.CaseId
	}
	return doc.Id
}

const snippetLimit = 500

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetLimit {
		return content
	}
	return string(runes[:snippetLimit]) + "..."
}

func citationEntities(messageId uuid.UUID, documents []retrieval.RankedResult, now time.Time) []*entity.ChatCitation {
	citations := make([]*entity.ChatCitation, 0, len(documents))
	for _, doc := range documents {
		citations = append(citations, &entity.ChatCitation{
			Id:            uuid.New(),
			ChatMessageId: messageId,
			SourceType:    string(doc.Source),
			SourceId:      citationSourceId(doc),
			Title:         doc.Title,
			Snippet:       snippet(doc.Content),
			Score:         doc.NormalizedScore,
			Rank:          doc.Rank,
			Metadata:      citationMetadata(doc),
			CreatedAt:     now,
		})
	}
	return citations
}

func toolCallEntities(messageId uuid.UUID, records []agent.ToolCallRecord, now time.Time) []*entity.AgentToolCall {
	calls := make([]*entity.AgentToolCall, 0, len(records))
	for _, record := range records {
		var arguments map[string]interface{}
		if len(record.Arguments) > 0 {
			if err := json.Unmarshal(record.Arguments, &arguments); err != nil {
				arguments = map[string]interface{}{"raw": string(record.Arguments)}
			}
		}

		startedAt := record.StartedAt
		calls = append(calls, &entity.AgentToolCall{
			Id:            uuid.New(),
			ChatMessageId: messageId,
			CallId:        record.Id,
			ToolName:      record.Name,
			Arguments:     arguments,
			Status:        string(record.Status),
			StartedAt:     &startedAt,
			CompletedAt:   record.CompletedAt,
			ResultSummary: record.ResultSummary,
			ResultCount:   record.ResultCount,
			Error:         record.Error,
			CreatedAt:     now,
		})
	}
	return calls
}

func citationViews(documents []retrieval.RankedResult) []dto.CitationView {
	views := make([]dto.CitationView, 0, len(documents))
	for _, doc := range documents {
		views = append(views, dto.CitationView{
			SourceId:   citationSourceId(doc),
			SourceType: string(doc.Source),
			Title:      doc.Title,
			Snippet:    snippet(doc.Content),
			Score:      doc.NormalizedScore,
			Rank:       doc.Rank,
			Metadata:   citationMetadata(doc),
		})
	}
	return views
}

func toolCallViews(records []agent.ToolCallRecord) []dto.ToolCallView {
	views := make([]dto.ToolCallView, 0, len(records))
	for _, record := range records {
		startedAt := record.StartedAt
		views = append(views, dto.ToolCallView{
			Id:            record.Id,
			Name:          record.Name,
			Status:        string(record.Status),
			StartedAt:     &startedAt,
			CompletedAt:   record.CompletedAt,
			ResultSummary: record.ResultSummary,
			ResultCount:   record.ResultCount,
			Error:         record.Error,
		})
	}
	return views
}
