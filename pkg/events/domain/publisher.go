// Package domain publishes the curation events other parts of the system
// react to: the realtime hub, audit consumers and the operator tooling.
package domain

import (
	"context"

	"lamdam-be/internal/constant"
	"lamdam-be/internal/pkg/logger"
	pkgEvents "lamdam-be/pkg/events"
	pktNats "lamdam-be/pkg/nats"

	"github.com/google/uuid"
)

// Payload keys shared by publishers and consumers.
const (
	KeyAction       = "action"
	KeyCollectionID = "collection_id"
	KeyRecordID     = "record_id"
	KeyCreatorID    = "creator_id"
	KeyStatus       = "status"
	KeyActorID      = "actor_id"
	KeyReason       = "reason"
	KeyCount        = "count"
	KeyUserID       = "user_id"
	KeyEmail        = "email"
)

// RecordChange describes a mutation of a single record.
type RecordChange struct {
	Action       string
	CollectionID uuid.UUID
	RecordID     string
	CreatorID    uuid.UUID
	Status       string
	ActorID      uuid.UUID
}

// Publisher abstracts event publishing for curation operations
type Publisher interface {
	PublishRecordChanged(ctx context.Context, change RecordChange)
	PublishRecordModerated(ctx context.Context, change RecordChange, reason string)
	PublishCollectionUpdated(ctx context.Context, collectionID uuid.UUID, count int64)
	PublishUserBlocked(ctx context.Context, userID uuid.UUID, email, reason string)
}

// Dispatcher handles an event in process. It receives events directly when
// no message bus is configured.
type Dispatcher interface {
	Dispatch(ctx context.Context, event pkgEvents.Event) error
}

// NatsPublisher implements Publisher using NATS
type NatsPublisher struct {
	publisher *pktNats.Publisher
	fallback  Dispatcher
	logger    logger.ILogger
}

// NewNatsPublisher creates a NATS backed publisher. publisher may be nil, in
// which case events go straight to fallback (when set).
func NewNatsPublisher(publisher *pktNats.Publisher, fallback Dispatcher, logger logger.ILogger) *NatsPublisher {
	return &NatsPublisher{
		publisher: publisher,
		fallback:  fallback,
		logger:    logger,
	}
}

func (p *NatsPublisher) publish(ctx context.Context, evt pkgEvents.Envelope) {
	if p.publisher == nil {
		if p.fallback == nil {
			return
		}
		if err := p.fallback.Dispatch(ctx, evt); err != nil {
			p.logger.Warn("EVENTS", "Local dispatch failed", map[string]interface{}{"type": evt.Type, "error": err.Error()})
		}
		return
	}

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish event", map[string]interface{}{"type": evt.Type, "error": err.Error()})
	}
}

func recordPayload(change RecordChange) map[string]interface{} {
	return map[string]interface{}{
		KeyAction:       change.Action,
		KeyCollectionID: change.CollectionID.String(),
		KeyRecordID:     change.RecordID,
		KeyCreatorID:    change.CreatorID.String(),
		KeyStatus:       change.Status,
		KeyActorID:      change.ActorID.String(),
	}
}

// PublishRecordChanged emits record_changed
func (p *NatsPublisher) PublishRecordChanged(ctx context.Context, change RecordChange) {
	p.publish(ctx, pkgEvents.New(constant.EventRecordChanged, recordPayload(change)))
}

// PublishRecordModerated emits record_moderated
func (p *NatsPublisher) PublishRecordModerated(ctx context.Context, change RecordChange, reason string) {
	data := recordPayload(change)
	if reason != "" {
		data[KeyReason] = reason
	}
	p.publish(ctx, pkgEvents.New(constant.EventRecordModerated, data))
}

// PublishCollectionUpdated emits collection_updated with the new count
func (p *NatsPublisher) PublishCollectionUpdated(ctx context.Context, collectionID uuid.UUID, count int64) {
	p.publish(ctx, pkgEvents.New(constant.EventCollectionUpdated, map[string]interface{}{
		KeyCollectionID: collectionID.String(),
		KeyCount:        count,
	}))
}

// PublishUserBlocked emits user_blocked
func (p *NatsPublisher) PublishUserBlocked(ctx context.Context, userID uuid.UUID, email, reason string) {
	p.publish(ctx, pkgEvents.New(constant.EventUserBlocked, map[string]interface{}{
		KeyUserID: userID.String(),
		KeyEmail:  email,
		KeyReason: reason,
	}))
}
