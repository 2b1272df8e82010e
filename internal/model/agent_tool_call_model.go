package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AgentToolCall struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatMessageId uuid.UUID      `gorm:"type:uuid;not null;index"`
	CallId        string         `gorm:"type:varchar(100);not null"`
	ToolName      string         `gorm:"type:varchar(255);not null"`
	Arguments     datatypes.JSON `gorm:"type:jsonb"`
	Status        string         `gorm:"type:varchar(50);not null"`
	StartedAt     *time.Time
	CompletedAt   *time.Time
	ResultSummary string `gorm:"type:text"`
	ResultCount   int    `gorm:"not null;default:0"`
	Error         string `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (AgentToolCall) TableName() string {
	return "agent_tool_calls"
}
