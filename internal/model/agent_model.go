package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Agent struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string         `gorm:"type:varchar(255);not null"`
	Description   string         `gorm:"type:text"`
	SystemPrompt  string         `gorm:"type:text;not null"`
	Model         string         `gorm:"type:varchar(100)"`
	MaxIterations int            `gorm:"not null;default:15"`
	UserId        *uuid.UUID     `gorm:"type:uuid;index"` // NULL = built-in persona
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (Agent) TableName() string {
	return "agents"
}
