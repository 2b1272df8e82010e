package embedding

// Result is a single embedding vector.
type Result struct {
	Values []float32
}

// Provider defines the interface for generating text embeddings.
// taskType distinguishes indexing ("RETRIEVAL_DOCUMENT") from querying
// ("RETRIEVAL_QUERY") for backends that care; others ignore it.
type Provider interface {
	Generate(text string, taskType string) (*Result, error)
}
