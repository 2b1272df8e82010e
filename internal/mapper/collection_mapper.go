package mapper

import (
	"time"

	"ai-lawyer-be/internal/entity"
	"ai-lawyer-be/internal/model"

	"gorm.io/gorm"
)

type CollectionMapper struct{}

func NewCollectionMapper() *CollectionMapper {
	return &CollectionMapper{}
}

func (m *CollectionMapper) ToEntity(c *model.Collection) *entity.Collection {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Collection{
		Id:          c.Id,
		Name:        c.Name,
		Description: c.Description,
		UserId:      c.UserId,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   c.DeletedAt.Valid,
	}
}

func (m *CollectionMapper) ToModel(c *entity.Collection) *model.Collection {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Collection{
		Id:          c.Id,
		Name:        c.Name,
		Description: c.Description,
		UserId:      c.UserId,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *CollectionMapper) ToEntities(collections []*model.Collection) []*entity.Collection {
	entities := make([]*entity.Collection, len(collections))
	for i, c := range collections {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
