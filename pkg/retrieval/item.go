package retrieval

import (
	"time"

	"github.com/google/uuid"
)

// SourceType discriminates where a retrieved item came from.
type SourceType string

const (
	SourceVector   SourceType = "VECTOR"
	SourceExternal SourceType = "EXTERNAL"
)

// VectorMetadata is carried by items retrieved from the chunk index.
type VectorMetadata struct {
	DocumentId uuid.UUID `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
}

// ExternalMetadata is carried by items retrieved from the case-law source.
type ExternalMetadata struct {
	Court  string     `json:"court"`
	Date   *time.Time `json:"date,omitempty"`
	CaseId string     `json:"case_id"` // ECLI identifier
	URL    string     `json:"url,omitempty"`
}

// Item is a single retrieved snippet from one source. Exactly one of
// Vector/External is set, matching Source; ranking code switches on
// Source so a new variant surfaces as a missed case, not silent data.
type Item struct {
	Id      string     `json:"id"` // stable identifier, unique within its source
	Source  SourceType `json:"source_type"`
	Title   string     `json:"title,omitempty"`
	Content string     `json:"content"`

	// Score is the source-local relevance score. HasScore is false for
	// sources that do not report one (the merger synthesizes a score
	// from the arrival position instead).
	Score    float64 `json:"score"`
	HasScore bool    `json:"-"`

	Vector   *VectorMetadata   `json:"vector,omitempty"`
	External *ExternalMetadata `json:"external,omitempty"`
}

// RankedResult is an Item placed in a merged, deduplicated result set.
type RankedResult struct {
	Item
	NormalizedScore float64 `json:"normalized_score"` // in [0,1]
	Rank            int     `json:"rank"`             // 1-based, strictly increasing
}
