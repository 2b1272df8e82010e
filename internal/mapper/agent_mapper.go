package mapper

import (
	"encoding/json"
	"time"

	"ai-lawyer-be/internal/entity"
	"ai-lawyer-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AgentMapper struct{}

func NewAgentMapper() *AgentMapper {
	return &AgentMapper{}
}

func (m *AgentMapper) ToEntity(a *model.Agent) *entity.Agent {
	if a == nil {
		return nil
	}

	var deletedAt *time.Time
	if a.DeletedAt.Valid {
		t := a.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	return &entity.Agent{
		Id:            a.Id,
		Name:          a.Name,
		Description:   a.Description,
		SystemPrompt:  a.SystemPrompt,
		Model:         a.Model,
		MaxIterations: a.MaxIterations,
		UserId:        a.UserId,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     updatedAt,
		DeletedAt:     deletedAt,
		IsDeleted:     a.DeletedAt.Valid,
	}
}

func (m *AgentMapper) ToModel(a *entity.Agent) *model.Agent {
	if a == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if a.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *a.DeletedAt, Valid: true}
	} else if a.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	return &model.Agent{
		Id:            a.Id,
		Name:          a.Name,
		Description:   a.Description,
		SystemPrompt:  a.SystemPrompt,
		Model:         a.Model,
		MaxIterations: a.MaxIterations,
		UserId:        a.UserId,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     updatedAt,
		DeletedAt:     deletedAt,
	}
}

func (m *AgentMapper) ToEntities(agents []*model.Agent) []*entity.Agent {
	entities := make([]*entity.Agent, len(agents))
	for i, a := range agents {
		entities[i] = m.ToEntity(a)
	}
	return entities
}

func (m *AgentMapper) ToolCallToEntity(c *model.AgentToolCall) *entity.AgentToolCall {
	if c == nil {
		return nil
	}

	var arguments map[string]interface{}
	if len(c.Arguments) > 0 {
		_ = json.Unmarshal(c.Arguments, &arguments)
	}

	return &entity.AgentToolCall{
		Id:            c.Id,
		ChatMessageId: c.ChatMessageId,
		CallId:        c.CallId,
		ToolName:      c.ToolName,
		Arguments:     arguments,
		Status:        c.Status,
		StartedAt:     c.StartedAt,
		CompletedAt:   c.CompletedAt,
		ResultSummary: c.ResultSummary,
		ResultCount:   c.ResultCount,
		Error:         c.Error,
		CreatedAt:     c.CreatedAt,
	}
}

func (m *AgentMapper) ToolCallToModel(c *entity.AgentToolCall) *model.AgentToolCall {
	if c == nil {
		return nil
	}

	var arguments datatypes.JSON
	if c.Arguments != nil {
		if raw, err := json.Marshal(c.Arguments); err == nil {
			arguments = datatypes.JSON(raw)
		}
	}

	return &model.AgentToolCall{
		Id:            c.Id,
		ChatMessageId: c.ChatMessageId,
		CallId:        c.CallId,
		ToolName:      c.ToolName,
		Arguments:     arguments,
		Status:        c.Status,
		StartedAt:     c.StartedAt,
		CompletedAt:   c.CompletedAt,
		ResultSummary: c.ResultSummary,
		ResultCount:   c.ResultCount,
		Error:         c.Error,
		CreatedAt:     c.CreatedAt,
	}
}

func (m *AgentMapper) ToolCallsToEntities(calls []*model.AgentToolCall) []*entity.AgentToolCall {
	entities := make([]*entity.AgentToolCall, len(calls))
	for i, c := range calls {
		entities[i] = m.ToolCallToEntity(c)
	}
	return entities
}
