package dto

import (
	"time"

	"github.com/google/uuid"
)

type QueryRequest struct {
	Message       string     `json:"message" validate:"required,min=1"`
	ChatSessionId *uuid.UUID `json:"session_id"`
	CollectionId  *uuid.UUID `json:"collection_id"`
	AgentId       *uuid.UUID `json:"agent_id"`
	UseRag        *bool      `json:"use_rag"`      // default true when a collection is set
	UseJuportal   bool       `json:"use_juportal"` // include external case law
	TopK          *int       `json:"top_k"`        // clamped server-side
	Stream        bool       `json:"stream"`
}

// UsageView always carries explicit numbers; an unreported usage is 0,
// not absent.
type UsageView struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type CitationView struct {
	SourceId   string                 `json:"source_id"`
	SourceType string                 `json:"source_type"`
	Title      string                 `json:"title,omitempty"`
	Snippet    string                 `json:"snippet"`
	Score      float64                `json:"score"`
	Rank       int                    `json:"rank"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

type ToolCallView struct {
	Id            string     `json:"id"`
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ResultSummary string     `json:"result_summary,omitempty"`
	ResultCount   int        `json:"result_count"`
	Error         string     `json:"error,omitempty"`
}

type QueryResponse struct {
	ChatSessionId uuid.UUID      `json:"session_id"`
	MessageId     uuid.UUID      `json:"message_id"`
	Answer        string         `json:"answer"`
	Incomplete    bool           `json:"incomplete"`
	Citations     []CitationView `json:"citations"`
	ToolCalls     []ToolCallView `json:"tool_calls"`
	Usage         UsageView      `json:"usage"`
}

type CreateSessionResponse struct {
	ChatSessionId uuid.UUID `json:"session_id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
}

type GetAllSessionsResponse struct {
	ChatSessionId uuid.UUID  `json:"session_id"`
	Title         string     `json:"title"`
	CollectionId  *uuid.UUID `json:"collection_id,omitempty"`
	AgentId       *uuid.UUID `json:"agent_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type GetChatHistoryResponse struct {
	MessageId  uuid.UUID      `json:"message_id"`
	Chat       string         `json:"chat"`
	Role       string         `json:"role"`
	Incomplete bool           `json:"incomplete"`
	Citations  []CitationView `json:"citations,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"session_id" validate:"required"`
}
