package service

import (
	"context"
	"encoding/json"
	"time"

	"lamdam-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
	// PublishActivity records that a user did something. It never fails the
	// caller; activity tracking is best effort.
	PublishActivity(ctx context.Context, userId uuid.UUID)
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (s *publisherService) Publish(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return s.publisher.Publish(s.topicName, msg)
}

func (s *publisherService) PublishActivity(ctx context.Context, userId uuid.UUID) {
	payload, err := json.Marshal(dto.ActivityMessage{UserId: userId, At: time.Now()})
	if err != nil {
		return
	}
	_ = s.Publish(context.WithoutCancel(ctx), payload)
}
