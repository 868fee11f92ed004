package service

import (
	"context"
	"encoding/json"
	"fmt"

	"lamdam-be/internal/dto"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService stamps users' last activity from the activity topic.
type consumerService struct {
	subscriber message.Subscriber
	topic      string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewConsumerService(subscriber message.Subscriber, topic string, uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IConsumerService {
	return &consumerService{subscriber: subscriber, topic: topic, uowFactory: uowFactory, logger: log}
}

// Consume subscribes and stamps in the background until ctx is done or the
// subscriber closes.
func (s *consumerService) Consume(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, s.topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.topic, err)
	}

	go func() {
		for msg := range messages {
			if err := s.stamp(ctx, msg.Payload); err != nil {
				s.logger.Warn("ACTIVITY", "Activity not stamped", map[string]interface{}{"error": err.Error()})
			}
			// Stamps are best effort and a later action stamps again, so
			// nothing is redelivered.
			msg.Ack()
		}
	}()
	return nil
}

func (s *consumerService) stamp(ctx context.Context, payload []byte) error {
	var activity dto.ActivityMessage
	if err := json.Unmarshal(payload, &activity); err != nil {
		return fmt.Errorf("decode activity: %w", err)
	}
	return s.uowFactory.NewUnitOfWork(ctx).UserRepository().TouchActivity(ctx, activity.UserId, activity.At)
}
