package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-lawyer-be/internal/dto"
	"ai-lawyer-be/internal/entity"
	"ai-lawyer-be/internal/repository/specification"
	"ai-lawyer-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Create(ctx context.Context, userId uuid.UUID, request *dto.CreateDocumentRequest) (*dto.DocumentResponse, error)
	Update(ctx context.Context, userId uuid.UUID, request *dto.UpdateDocumentRequest) (*dto.DocumentResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error)
	GetAllByCollection(ctx context.Context, userId uuid.UUID, collectionId uuid.UUID) ([]*dto.DocumentResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	Reindex(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
}

func NewDocumentService(uowFactory unitofwork.RepositoryFactory, publisherService IPublisherService) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
	}
}

// Create stores a document as PENDING and queues it for indexing.
func (ds *documentService) Create(ctx context.Context, userId uuid.UUID, request *dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	collection, err := uow.CollectionRepository().FindOne(ctx,
		specification.ByID{ID: request.CollectionId},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, fmt.Errorf("collection not found or access denied")
	}

	document := entity.Document{
		Id:           uuid.New(),
		Title:        request.Title,
		Content:      request.Content,
		Status:       entity.DocumentStatusPending,
		CollectionId: collection.Id,
		UserId:       userId,
		CreatedAt:    time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	if err := ds.publisherService.PublishIndexDocument(document.Id); err != nil {
		log.Printf("[WARN] Document %s created but index publish failed: %v", document.Id, err)
	}

	return documentResponse(&document, true), nil
}

// Update rewrites a document, resets it to PENDING and queues a
// reindex so stale chunks get replaced.
func (ds *documentService) Update(ctx context.Context, userId uuid.UUID, request *dto.UpdateDocumentRequest) (*dto.DocumentResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	document, err := ds.findOwned(ctx, uow, userId, request.Id)
	if err != nil {
		return nil, err
	}

	document.Title = request.Title
	document.Content = request.Content
	document.Status = entity.DocumentStatusPending
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		return nil, err
	}

	if err := ds.publisherService.PublishIndexDocument(document.Id); err != nil {
		log.Printf("[WARN] Document %s updated but index publish failed: %v", document.Id, err)
	}

	return documentResponse(document, true), nil
}

func (ds *documentService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	document, err := ds.findOwned(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}
	return documentResponse(document, true), nil
}

func (ds *documentService) GetAllByCollection(ctx context.Context, userId uuid.UUID, collectionId uuid.UUID) ([]*dto.DocumentResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	collection, err := uow.CollectionRepository().FindOne(ctx,
		specification.ByID{ID: collectionId},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, fmt.Errorf("collection not found or access denied")
	}

	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByCollectionID{CollectionID: collectionId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.DocumentResponse, 0, len(documents))
	for _, d := range documents {
		// Content omitted in listings to keep payloads small.
		response = append(response, documentResponse(d, false))
	}
	return response, nil
}

// Delete removes a document and its chunks in one transaction.
func (ds *documentService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	document, err := ds.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, document.Id); err != nil {
		return err
	}

	return uow.Commit()
}

// Reindex re-queues an existing document, typically after an indexing
// failure.
func (ds *documentService) Reindex(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	document, err := ds.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	document.Status = entity.DocumentStatusPending
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		return err
	}

	return ds.publisherService.PublishIndexDocument(document.Id)
}

func (ds *documentService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, id uuid.UUID) (*entity.Document, error) {
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fmt.Errorf("document not found or access denied")
	}
	return document, nil
}

func documentResponse(d *entity.Document, includeContent bool) *dto.DocumentResponse {
	response := &dto.DocumentResponse{
		Id:           d.Id,
		CollectionId: d.CollectionId,
		Title:        d.Title,
		Status:       d.Status,
		CreatedAt:    d.CreatedAt,
	}
	if includeContent {
		response.Content = d.Content
	}
	return response
}
