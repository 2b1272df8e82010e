package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document indexing lifecycle.
const (
	DocumentStatusPending = "PENDING"
	DocumentStatusIndexed = "INDEXED"
	DocumentStatusFailed  = "FAILED"
)

type Document struct {
	Id           uuid.UUID
	Title        string
	Content      string
	Status       string
	CollectionId uuid.UUID
	UserId       uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
