package contract

import (
	"context"

	"ai-lawyer-be/internal/entity"
	"ai-lawyer-be/internal/repository/specification"

	"github.com/google/uuid"
)

type CollectionRepository interface {
	Create(ctx context.Context, collection *entity.Collection) error
	Update(ctx context.Context, collection *entity.Collection) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Collection, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Collection, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
