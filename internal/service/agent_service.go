package service

import (
	"context"
	"fmt"

	"ai-lawyer-be/internal/dto"
	"ai-lawyer-be/internal/entity"
	"ai-lawyer-be/internal/repository/specification"
	"ai-lawyer-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IAgentService interface {
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.AgentResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.AgentResponse, error)
}

type agentService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewAgentService(uowFactory unitofwork.RepositoryFactory) IAgentService {
	return &agentService{uowFactory: uowFactory}
}

// availableToUser matches built-in personas plus the user's own.
type availableToUser struct {
	UserID uuid.UUID
}

func (s availableToUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id IS NULL OR user_id = ?", s.UserID)
}

func (as *agentService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.AgentResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	agents, err := uow.AgentRepository().FindAll(ctx,
		availableToUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.AgentResponse, 0, len(agents))
	for _, a := range agents {
		response = append(response, agentResponse(a))
	}
	return response, nil
}

func (as *agentService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.AgentResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	persona, err := uow.AgentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		availableToUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if persona == nil {
		return nil, fmt.Errorf("agent not found or access denied")
	}
	return agentResponse(persona), nil
}

func agentResponse(a *entity.Agent) *dto.AgentResponse {
	return &dto.AgentResponse{
		Id:            a.Id,
		Name:          a.Name,
		Description:   a.Description,
		Model:         a.Model,
		MaxIterations: a.MaxIterations,
		CreatedAt:     a.CreatedAt,
	}
}
