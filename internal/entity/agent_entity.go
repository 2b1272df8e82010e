package entity

import (
	"time"

	"github.com/google/uuid"
)

// Agent is a configured research persona: a system prompt plus the
// model and iteration budget it runs with.
type Agent struct {
	Id            uuid.UUID
	Name          string
	Description   string
	SystemPrompt  string
	Model         string
	MaxIterations int
	UserId        *uuid.UUID // nil for built-in personas
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}
