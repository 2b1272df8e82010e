package retrieval

import (
	"context"
	"fmt"
	"log"

	"ai-lawyer-be/internal/repository/specification"
	"ai-lawyer-be/internal/repository/unitofwork"
	"ai-lawyer-be/pkg/embedding"

	"github.com/google/uuid"
)

// VectorSearcher runs collection-scoped similarity search over the
// chunk index.
type VectorSearcher struct {
	embeddingProvider embedding.Provider
	logger            *log.Logger
}

func NewVectorSearcher(embeddingProvider embedding.Provider, logger *log.Logger) *VectorSearcher {
	return &VectorSearcher{
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

// SearchConfig encapsulates vector search parameters.
type SearchConfig struct {
	TopK           int
	DBThreshold    float64
	DocumentFilter *uuid.UUID // restrict to one document when set
}

// DefaultSearchConfig returns the default vector search configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		TopK:        DefaultTopK,
		DBThreshold: 0.0,
	}
}

// Search embeds the query and returns matching chunks as VECTOR items,
// ordered by similarity descending. A missing index or a failed
// embedding call surfaces as *Error; callers treat that as zero
// results unless the vector index is the only configured source.
func (s *VectorSearcher) Search(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	collectionId uuid.UUID,
	query string,
	config SearchConfig,
) ([]Item, error) {

	embeddingRes, err := s.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, &Error{Source: SourceVector, Err: fmt.Errorf("embedding generation failed: %w", err)}
	}

	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}

	scored, err := uow.DocumentChunkRepository().SearchSimilarWithScore(
		ctx,
		embeddingRes.Values,
		config.TopK,
		collectionId,
		config.DocumentFilter,
		config.DBThreshold,
	)
	if err != nil {
		s.logger.Printf("[ERROR] Vector search failed: %v", err)
		return nil, &Error{Source: SourceVector, Err: err}
	}

	s.logger.Printf("[DEBUG] Raw vector results: %d chunks", len(scored))

	items := make([]Item, 0, len(scored))
	for _, res := range scored {
		items = append(items, Item{
			Id:       res.Chunk.Id.String(),
			Source:   SourceVector,
			Content:  res.Chunk.Content,
			Score:    res.Similarity,
			HasScore: true,
			Vector: &VectorMetadata{
				DocumentId: res.Chunk.DocumentId,
				ChunkIndex: res.Chunk.ChunkIndex,
			},
		})
	}

	if err := s.hydrateTitles(ctx, uow, items); err != nil {
		s.logger.Printf("[WARN] Failed to hydrate chunk titles: %v", err)
	}

	return items, nil
}

func (s *VectorSearcher) hydrateTitles(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	items []Item,
) error {

	if len(items) == 0 {
		return nil
	}

	docIds := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool)
	for _, item := range items {
		if item.Vector != nil && !seen[item.Vector.DocumentId] {
			docIds = append(docIds, item.Vector.DocumentId)
			seen[item.Vector.DocumentId] = true
		}
	}

	docs, err := uow.DocumentRepository().FindAll(ctx, specification.ByIDs{IDs: docIds})
	if err != nil {
		return err
	}

	titleMap := make(map[uuid.UUID]string)
	for _, d := range docs {
		titleMap[d.Id] = d.Title
	}

	for i := range items {
		if items[i].Vector == nil {
			continue
		}
		if title, ok := titleMap[items[i].Vector.DocumentId]; ok {
			items[i].Title = title
		} else {
			items[i].Title = "Untitled Document"
		}
	}

	return nil
}
