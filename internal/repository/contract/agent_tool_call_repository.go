package contract

import (
	"context"

	"ai-lawyer-be/internal/entity"
	"ai-lawyer-be/internal/repository/specification"
)

type AgentToolCallRepository interface {
	Create(ctx context.Context, call *entity.AgentToolCall) error
	CreateBulk(ctx context.Context, calls []*entity.AgentToolCall) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AgentToolCall, error)
}
