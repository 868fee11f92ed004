package unitofwork

import (
	"context"
	"errors"

	"lamdam-be/internal/entity"
	"lamdam-be/internal/repository/contract"
	"lamdam-be/internal/repository/implementation"

	"gorm.io/gorm"
)

var (
	errTxActive = errors.New("unit of work: transaction already open")
	errNoTx     = errors.New("unit of work: no open transaction")
)

type gormUnitOfWork struct {
	db *gorm.DB
	tx *gorm.DB
}

func (u *gormUnitOfWork) conn() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *gormUnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errTxActive
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *gormUnitOfWork) Commit() error {
	if u.tx == nil {
		return errNoTx
	}
	tx := u.tx
	u.tx = nil
	return tx.Commit().Error
}

// Rollback is a no-op after Commit so it can always be deferred.
func (u *gormUnitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}
	tx := u.tx
	u.tx = nil
	return tx.Rollback().Error
}

func (u *gormUnitOfWork) UserRepository() contract.UserRepository {
	return implementation.NewUserRepository(u.conn())
}

func (u *gormUnitOfWork) CollectionRepository() contract.CollectionRepository {
	return implementation.NewCollectionRepository(u.conn())
}

func (u *gormUnitOfWork) StatsRepository() contract.StatsRepository {
	return implementation.NewStatsRepository(u.conn())
}

func (u *gormUnitOfWork) RecordRepository(store string, dataType entity.DataType) contract.RecordRepository {
	return implementation.NewRecordRepository(u.conn(), store, dataType)
}
