package service

import (
	"encoding/json"
	"log"

	"ai-lawyer-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IPublisherService interface {
	PublishIndexDocument(documentId uuid.UUID) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

// PublishIndexDocument queues a document for (re)indexing. Fire and
// forget: the caller has already committed the document row.
func (ps *publisherService) PublishIndexDocument(documentId uuid.UUID) error {
	payload := dto.PublishIndexDocumentMessage{DocumentId: documentId}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := ps.pubSub.Publish(ps.topicName, msg); err != nil {
		log.Printf("[ERROR] Failed to publish index message for document %s: %v", documentId, err)
		return err
	}
	return nil
}
