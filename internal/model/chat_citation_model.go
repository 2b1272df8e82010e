package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatCitation struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatMessageId uuid.UUID      `gorm:"type:uuid;not null;index"`
	SourceType    string         `gorm:"type:varchar(50);not null"`
	SourceId      string         `gorm:"type:varchar(255);not null"`
	Title         string         `gorm:"type:text"`
	Snippet       string         `gorm:"type:text"`
	Score         float64        `gorm:"not null;default:0"`
	Rank          int            `gorm:"not null;default:0"`
	Metadata      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
}

func (ChatCitation) TableName() string {
	return "chat_citations"
}
