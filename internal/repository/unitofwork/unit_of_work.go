package unitofwork

import (
	"context"

	"ai-lawyer-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CollectionRepository() contract.CollectionRepository
	DocumentRepository() contract.DocumentRepository
	DocumentChunkRepository() contract.DocumentChunkRepository

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	ChatCitationRepository() contract.ChatCitationRepository

	AgentRepository() contract.AgentRepository
	AgentToolCallRepository() contract.AgentToolCallRepository
}
