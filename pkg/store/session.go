package store

// Citation is a lightweight view of a retrieved source kept with the
// session so follow-up questions can refer back to it.
type Citation struct {
	ID         string                 `json:"id"`
	SourceType string                 `json:"source_type"`
	Title      string                 `json:"title"`
	Content    string                 `json:"content"`
	Score      float64                `json:"score"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// Session represents the active chat session state in memory.
type Session struct {
	ID     string `json:"id"` // ChatSessionID
	UserID string `json:"user_id"`
	Mode   string `json:"mode"` // "RAG" | "AGENT" | "BYPASS" - pipeline mode for the session

	// Collection and persona pinned for the lifetime of the session.
	CollectionID string `json:"collection_id,omitempty"`
	AgentID      string `json:"agent_id,omitempty"`

	// Sources surfaced by the most recent answer.
	LastCitations []Citation `json:"last_citations"`

	LastQuery string `json:"last_query"`
}

const (
	// Pipeline modes
	ModeRAG    = "RAG"
	ModeAgent  = "AGENT"
	ModeBypass = "BYPASS"
)
