package service

import (
	"context"
	"fmt"

	"lamdam-be/internal/constant"
	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/internal/websocket"
	"lamdam-be/pkg/events"
	"lamdam-be/pkg/events/domain"
	pktNats "lamdam-be/pkg/nats"

	"github.com/google/uuid"
)

// RealtimeDelivery pushes frames to connected browsers.
// Implemented by the websocket Hub.
type RealtimeDelivery interface {
	Deliver(msg websocket.Message, audience websocket.Audience)
}

// NotificationService turns domain events into realtime pushes. It consumes
// the NATS stream when one is configured and otherwise receives events
// directly through Dispatch.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   RealtimeDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery RealtimeDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start(ctx context.Context) error {
	if s.subscriber == nil {
		return nil
	}
	if err := s.subscriber.Subscribe(ctx, pktNats.SubjectPrefix+">", "lamdam-realtime", s.Dispatch); err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("NotificationService", "Notification service started", nil)
	return nil
}

// Dispatch delivers a single event.
func (s *NotificationService) Dispatch(ctx context.Context, event events.Event) error {
	if s.delivery == nil {
		return nil
	}
	msg := websocket.Message{Type: event.EventType(), Data: event.Payload()}

	switch event.EventType() {
	case constant.EventRecordChanged, constant.EventRecordModerated:
		creator, err := uuid.Parse(events.Field(event, domain.KeyCreatorID))
		if err != nil {
			s.logger.Warn("NotificationService", "Record event without creator", map[string]interface{}{"type": event.EventType()})
			return nil
		}
		s.delivery.Deliver(msg, websocket.Audience{Record: &websocket.RecordScope{
			CreatorID: creator,
			Status:    entity.RecordStatus(events.Field(event, domain.KeyStatus)),
		}})

	case constant.EventCollectionUpdated:
		s.delivery.Deliver(msg, websocket.Audience{})

	case constant.EventUserBlocked:
		uid, err := uuid.Parse(events.Field(event, domain.KeyUserID))
		if err != nil {
			return nil
		}
		s.delivery.Deliver(msg, websocket.Audience{UserID: uid})

	default:
		s.logger.Debug("NotificationService", fmt.Sprintf("Ignoring event %s", event.EventType()), nil)
	}
	return nil
}
