package unitofwork

import (
	"context"

	"lamdam-be/internal/entity"
	"lamdam-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	CollectionRepository() contract.CollectionRepository
	StatsRepository() contract.StatsRepository

	// RecordRepository addresses the table of one collection.
	RecordRepository(store string, dataType entity.DataType) contract.RecordRepository
}
