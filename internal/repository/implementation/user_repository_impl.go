package implementation

import (
	"context"
	"time"

	"lamdam-be/internal/entity"
	"lamdam-be/internal/mapper"
	"lamdam-be/internal/model"
	"lamdam-be/internal/repository/contract"
	"lamdam-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const duplicateUserMessage = "user already exists"

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{db: db, mapper: mapper.NewUserMapper()}
}

func (r *UserRepositoryImpl) users(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.User{})
}

// save inserts or overwrites the row and copies database defaults back.
func (r *UserRepositoryImpl) save(ctx context.Context, user *entity.User, insert bool) error {
	row := r.mapper.ToModel(user)
	tx := r.db.WithContext(ctx)
	if insert {
		tx = tx.Create(row)
	} else {
		tx = tx.Save(row)
	}
	if tx.Error != nil {
		return translateError(tx.Error, duplicateUserMessage)
	}
	*user = *r.mapper.ToEntity(row)
	return nil
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entity.User) error {
	return r.save(ctx, user, true)
}

func (r *UserRepositoryImpl) Update(ctx context.Context, user *entity.User) error {
	return r.save(ctx, user, false)
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var row model.User
	if err := scoped(r.db.WithContext(ctx), specs...).First(&row).Error; err != nil {
		if missing(err) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&row), nil
}

func (r *UserRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	var rows []*model.User
	if err := scoped(r.db.WithContext(ctx), specs...).Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(rows), nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	err := scoped(r.users(ctx), specs...).Count(&n).Error
	return n, err
}

func (r *UserRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.UserStatus) error {
	return r.users(ctx).Where("id = ?", id).Update("status", string(status)).Error
}

// TouchActivity moves last_activity forward; older timestamps are ignored so
// late deliveries cannot rewind it.
func (r *UserRepositoryImpl) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.users(ctx).
		Where("id = ? AND (last_activity IS NULL OR last_activity < ?)", id, at).
		UpdateColumn("last_activity", at).Error
}

// SumMonthlyTarget adds up the targets of every user holding role.
func (r *UserRepositoryImpl) SumMonthlyTarget(ctx context.Context, role entity.UserRole) (int, error) {
	var total int64
	err := r.users(ctx).
		Where("role = ?", string(role)).
		Select("COALESCE(SUM(monthly_target), 0)").
		Scan(&total).Error
	return int(total), err
}
