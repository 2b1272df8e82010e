package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateCollectionRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description"`
}

type UpdateCollectionRequest struct {
	Id          uuid.UUID `json:"-"`
	Name        string    `json:"name" validate:"required,min=1,max=255"`
	Description string    `json:"description"`
}

type CollectionResponse struct {
	Id            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	DocumentCount int64     `json:"document_count"`
	CreatedAt     time.Time `json:"created_at"`
}
