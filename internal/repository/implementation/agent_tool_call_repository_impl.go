package implementation

import (
	"context"

	"ai-lawyer-be/internal/entity"
	"ai-lawyer-be/internal/mapper"
	"ai-lawyer-be/internal/model"
	"ai-lawyer-be/internal/repository/contract"
	"ai-lawyer-be/internal/repository/specification"

	"gorm.io/gorm"
)

type AgentToolCallRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AgentMapper
}

func NewAgentToolCallRepository(db *gorm.DB) contract.AgentToolCallRepository {
	return &AgentToolCallRepositoryImpl{
		db:     db,
		mapper: mapper.NewAgentMapper(),
	}
}

func (r *AgentToolCallRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AgentToolCallRepositoryImpl) Create(ctx context.Context, call *entity.AgentToolCall) error {
	m := r.mapper.ToolCallToModel(call)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*call = *r.mapper.ToolCallToEntity(m)
	return nil
}

func (r *AgentToolCallRepositoryImpl) CreateBulk(ctx context.Context, calls []*entity.AgentToolCall) error {
	if len(calls) == 0 {
		return nil
	}
	models := make([]*model.AgentToolCall, len(calls))
	for i, c := range calls {
		models[i] = r.mapper.ToolCallToModel(c)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*calls[i] = *r.mapper.ToolCallToEntity(m)
	}
	return nil
}

func (r *AgentToolCallRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AgentToolCall, error) {
	var models []*model.AgentToolCall
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToolCallsToEntities(models), nil
}
