package entity

import (
	"time"

	"github.com/google/uuid"
)

// AgentToolCall is the persisted audit record of one tool invocation
// made while producing an assistant message.
type AgentToolCall struct {
	Id            uuid.UUID
	ChatMessageId uuid.UUID
	CallId        string
	ToolName      string
	Arguments     map[string]interface{}
	Status        string
	StartedAt     *time.Time
	CompletedAt   *time.Time
	ResultSummary string
	ResultCount   int
	Error         string
	CreatedAt     time.Time
}
