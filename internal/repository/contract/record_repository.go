package contract

import (
	"context"

	"lamdam-be/internal/entity"
	"lamdam-be/internal/paging"
	"lamdam-be/internal/repository/specification"
)

// RecordRepository operates on the table of a single collection.
type RecordRepository interface {
	Store() string

	// Create inserts a record. A duplicate hash is a Conflict error.
	Create(ctx context.Context, record *entity.Record) error
	Update(ctx context.Context, record *entity.Record) error
	Delete(ctx context.Context, id string) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Record, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Record, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// InsertIgnoringDuplicates bulk inserts and skips rows whose hash already
	// exists. It returns the number of rows actually inserted.
	InsertIgnoringDuplicates(ctx context.Context, records []*entity.Record) (int64, error)

	// Fetcher exposes the filtered table to the keyset paginator.
	Fetcher(specs ...specification.Specification) paging.Fetcher[*entity.Record]
}
