package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByCollectionID struct {
	CollectionID uuid.UUID
}

func (s ByCollectionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("collection_id = ?", s.CollectionID)
}

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

type DocumentOwnedByUser struct {
	UserID uuid.UUID
}

func (s DocumentOwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("documents.user_id = ?", s.UserID)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}
