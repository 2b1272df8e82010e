package entity

import (
	"time"

	"github.com/google/uuid"
)

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Id            uuid.UUID
	Chat          string
	Role          string
	ChatSessionId uuid.UUID

	// Token accounting for the model turn that produced this message.
	// Zero when the provider reported nothing.
	PromptTokens     int
	CompletionTokens int

	// Incomplete marks an assistant answer cut short by the agent's
	// iteration budget.
	Incomplete bool

	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
