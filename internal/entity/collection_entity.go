package entity

import (
	"time"

	"github.com/google/uuid"
)

type Collection struct {
	Id          uuid.UUID
	Name        string
	Description string
	UserId      uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
