package contract

import (
	"context"

	"lamdam-be/internal/entity"
	"lamdam-be/internal/repository/specification"

	"github.com/google/uuid"
)

type CollectionRepository interface {
	Create(ctx context.Context, collection *entity.Collection) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Collection, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Collection, error)

	// AdjustCount adds delta to the denormalised record count.
	AdjustCount(ctx context.Context, id uuid.UUID, delta int64) error
	SetCount(ctx context.Context, id uuid.UUID, count int64) error
}
