package contract

import (
	"context"

	"ai-lawyer-be/internal/entity"
	"ai-lawyer-be/internal/repository/specification"
)

type ChatCitationRepository interface {
	Create(ctx context.Context, citation *entity.ChatCitation) error
	CreateBulk(ctx context.Context, citations []*entity.ChatCitation) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatCitation, error)
}
