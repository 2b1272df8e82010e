package mapper

import (
	"encoding/json"
	"time"

	"ai-lawyer-be/internal/entity"
	"ai-lawyer-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) SessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:           s.Id,
		UserId:       s.UserId,
		Title:        s.Title,
		CollectionId: s.CollectionId,
		AgentId:      s.AgentId,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    s.DeletedAt.Valid,
	}
}

func (m *ChatMapper) SessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:           s.Id,
		UserId:       s.UserId,
		Title:        s.Title,
		CollectionId: s.CollectionId,
		AgentId:      s.AgentId,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *ChatMapper) SessionsToEntities(sessions []*model.ChatSession) []*entity.ChatSession {
	entities := make([]*entity.ChatSession, len(sessions))
	for i, s := range sessions {
		entities[i] = m.SessionToEntity(s)
	}
	return entities
}

func (m *ChatMapper) MessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	var deletedAt *time.Time
	if msg.DeletedAt.Valid {
		t := msg.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !msg.UpdatedAt.IsZero() {
		t := msg.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatMessage{
		Id:               msg.Id,
		Chat:             msg.Chat,
		Role:             msg.Role,
		ChatSessionId:    msg.ChatSessionId,
		PromptTokens:     msg.PromptTokens,
		CompletionTokens: msg.CompletionTokens,
		Incomplete:       msg.Incomplete,
		CreatedAt:        msg.CreatedAt,
		UpdatedAt:        updatedAt,
		DeletedAt:        deletedAt,
		IsDeleted:        msg.DeletedAt.Valid,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if msg.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *msg.DeletedAt, Valid: true}
	} else if msg.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if msg.UpdatedAt != nil {
		updatedAt = *msg.UpdatedAt
	}

	return &model.ChatMessage{
		Id:               msg.Id,
		Chat:             msg.Chat,
		Role:             msg.Role,
		ChatSessionId:    msg.ChatSessionId,
		PromptTokens:     msg.PromptTokens,
		CompletionTokens: msg.CompletionTokens,
		Incomplete:       msg.Incomplete,
		CreatedAt:        msg.CreatedAt,
		UpdatedAt:        updatedAt,
		DeletedAt:        deletedAt,
	}
}

func (m *ChatMapper) MessagesToEntities(messages []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(messages))
	for i, msg := range messages {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}

func (m *ChatMapper) CitationToEntity(c *model.ChatCitation) *entity.ChatCitation {
	if c == nil {
		return nil
	}

	var metadata map[string]interface{}
	if len(c.Metadata) > 0 {
		// Best effort: corrupt metadata degrades to nil, the citation row survives.
		_ = json.Unmarshal(c.Metadata, &metadata)
	}

	return &entity.ChatCitation{
		Id:            c.Id,
		ChatMessageId: c.ChatMessageId,
		SourceType:    c.SourceType,
		SourceId:      c.SourceId,
		Title:         c.Title,
		Snippet:       c.Snippet,
		Score:         c.Score,
		Rank:          c.Rank,
		Metadata:      metadata,
		CreatedAt:     c.CreatedAt,
	}
}

func (m *ChatMapper) CitationToModel(c *entity.ChatCitation) *model.ChatCitation {
	if c == nil {
		return nil
	}

	var metadata datatypes.JSON
	if c.Metadata != nil {
		if raw, err := json.Marshal(c.Metadata); err == nil {
			metadata = datatypes.JSON(raw)
		}
	}

	return &model.ChatCitation{
		Id:            c.Id,
		ChatMessageId: c.ChatMessageId,
		SourceType:    c.SourceType,
		SourceId:      c.SourceId,
		Title:         c.Title,
		Snippet:       c.Snippet,
		Score:         c.Score,
		Rank:          c.Rank,
		Metadata:      metadata,
		CreatedAt:     c.CreatedAt,
	}
}

func (m *ChatMapper) CitationsToEntities(citations []*model.ChatCitation) []*entity.ChatCitation {
	entities := make([]*entity.ChatCitation, len(citations))
	for i, c := range citations {
		entities[i] = m.CitationToEntity(c)
	}
	return entities
}
