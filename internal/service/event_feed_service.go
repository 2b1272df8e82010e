package service

import (
	"context"
	"strings"

	"ai-lawyer-be/internal/websocket"
	"ai-lawyer-be/pkg/events"
	pkgnats "ai-lawyer-be/pkg/nats"

	"github.com/google/uuid"
)

// IEventFeedService bridges run telemetry from the event bus to the
// websocket hub, so any instance in the cluster can serve the feed for
// a run executing on another.
type IEventFeedService interface {
	Start() error
}

type eventFeedService struct {
	subscriber *pkgnats.Subscriber
	hub        *websocket.Hub
}

func NewEventFeedService(subscriber *pkgnats.Subscriber, hub *websocket.Hub) IEventFeedService {
	return &eventFeedService{
		subscriber: subscriber,
		hub:        hub,
	}
}

// Start subscribes to all run events with a durable consumer.
func (es *eventFeedService) Start() error {
	return es.subscriber.Subscribe("events.run.>", "run-event-feed", es.handle)
}

func (es *eventFeedService) handle(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	userIdStr, _ := payload["user_id"].(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		// No addressable user; drop rather than redeliver forever.
		return nil
	}

	sessionId, _ := payload["session_id"].(string)
	eventType, _ := payload["event_type"].(string)
	if eventType == "" {
		eventType = strings.TrimPrefix(event.EventType(), "events.run.")
	}

	es.hub.Send(userId, websocket.RunEvent{
		SessionId: sessionId,
		Type:      eventType,
		Data:      payload["data"],
	})
	return nil
}
