package service

import (
	"context"
	"fmt"
	"time"

	"ai-lawyer-be/internal/dto"
	"ai-lawyer-be/internal/entity"
	"ai-lawyer-be/internal/repository/specification"
	"ai-lawyer-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type ICollectionService interface {
	Create(ctx context.Context, userId uuid.UUID, request *dto.CreateCollectionRequest) (*dto.CollectionResponse, error)
	Update(ctx context.Context, userId uuid.UUID, request *dto.UpdateCollectionRequest) (*dto.CollectionResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.CollectionResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.CollectionResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type collectionService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewCollectionService(uowFactory unitofwork.RepositoryFactory) ICollectionService {
	return &collectionService{uowFactory: uowFactory}
}

func (cs *collectionService) Create(ctx context.Context, userId uuid.UUID, request *dto.CreateCollectionRequest) (*dto.CollectionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	collection := entity.Collection{
		Id:          uuid.New(),
		Name:        request.Name,
		Description: request.Description,
		UserId:      userId,
		CreatedAt:   time.Now(),
	}

	if err := uow.CollectionRepository().Create(ctx, &collection); err != nil {
		return nil, err
	}

	return collectionResponse(&collection, 0), nil
}

func (cs *collectionService) Update(ctx context.Context, userId uuid.UUID, request *dto.UpdateCollectionRequest) (*dto.CollectionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	collection, err := cs.findOwned(ctx, uow, userId, request.Id)
	if err != nil {
		return nil, err
	}

	collection.Name = request.Name
	collection.Description = request.Description
	if err := uow.CollectionRepository().Update(ctx, collection); err != nil {
		return nil, err
	}

	count, err := cs.documentCount(ctx, uow, collection.Id)
	if err != nil {
		return nil, err
	}
	return collectionResponse(collection, count), nil
}

func (cs *collectionService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.CollectionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	collection, err := cs.findOwned(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	count, err := cs.documentCount(ctx, uow, collection.Id)
	if err != nil {
		return nil, err
	}
	return collectionResponse(collection, count), nil
}

func (cs *collectionService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.CollectionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	collections, err := uow.CollectionRepository().FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.CollectionResponse, 0, len(collections))
	for _, c := range collections {
		count, err := cs.documentCount(ctx, uow, c.Id)
		if err != nil {
			return nil, err
		}
		response = append(response, collectionResponse(c, count))
	}
	return response, nil
}

// Delete removes a collection together with its documents and their
// chunks, in one transaction.
func (cs *collectionService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	collection, err := cs.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByCollectionId(ctx, collection.Id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().DeleteByCollectionId(ctx, collection.Id); err != nil {
		return err
	}
	if err := uow.CollectionRepository().Delete(ctx, collection.Id); err != nil {
		return err
	}

	return uow.Commit()
}

func (cs *collectionService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, id uuid.UUID) (*entity.Collection, error) {
	collection, err := uow.CollectionRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, fmt.Errorf("collection not found or access denied")
	}
	return collection, nil
}

func (cs *collectionService) documentCount(ctx context.Context, uow unitofwork.UnitOfWork, collectionId uuid.UUID) (int64, error) {
	return uow.DocumentRepository().Count(ctx,
		specification.ByCollectionID{CollectionID: collectionId},
		specification.NotDeleted{},
	)
}

func collectionResponse(c *entity.Collection, documentCount int64) *dto.CollectionResponse {
	return &dto.CollectionResponse{
		Id:            c.Id,
		Name:          c.Name,
		Description:   c.Description,
		DocumentCount: documentCount,
		CreatedAt:     c.CreatedAt,
	}
}
