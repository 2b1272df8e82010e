package dto

import (
	"time"

	"github.com/google/uuid"
)

type AgentResponse struct {
	Id            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Model         string    `json:"model,omitempty"`
	MaxIterations int       `json:"max_iterations"`
	CreatedAt     time.Time `json:"created_at"`
}
