package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatCitation links an assistant message to one retrieved source.
// SourceId is a chunk id for vector results and an ECLI for case law;
// Metadata carries the source-specific fields (court, date, url, ...).
type ChatCitation struct {
	Id            uuid.UUID
	ChatMessageId uuid.UUID
	SourceType    string
	SourceId      string
	Title         string
	Snippet       string
	Score         float64
	Rank          int
	Metadata      map[string]interface{}
	CreatedAt     time.Time
}
