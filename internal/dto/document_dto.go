package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	CollectionId uuid.UUID `json:"collection_id" validate:"required"`
	Title        string    `json:"title" validate:"required,min=1,max=255"`
	Content      string    `json:"content" validate:"required,min=1"`
}

type UpdateDocumentRequest struct {
	Id      uuid.UUID `json:"-"`
	Title   string    `json:"title" validate:"required,min=1,max=255"`
	Content string    `json:"content" validate:"required,min=1"`
}

type DocumentResponse struct {
	Id           uuid.UUID `json:"id"`
	CollectionId uuid.UUID `json:"collection_id"`
	Title        string    `json:"title"`
	Content      string    `json:"content,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublishIndexDocumentMessage is the payload placed on the indexing
// topic when a document is created or updated.
type PublishIndexDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
