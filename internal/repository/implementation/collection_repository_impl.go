package implementation

import (
	"context"

	"lamdam-be/internal/entity"
	"lamdam-be/internal/mapper"
	"lamdam-be/internal/model"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/repository/contract"
	"lamdam-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CollectionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CollectionMapper
}

func NewCollectionRepository(db *gorm.DB) contract.CollectionRepository {
	return &CollectionRepositoryImpl{
		db:     db,
		mapper: mapper.NewCollectionMapper(),
	}
}

func (r *CollectionRepositoryImpl) Create(ctx context.Context, collection *entity.Collection) error {
	m := r.mapper.ToModel(collection)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err, "collection already exists")
	}
	*collection = *r.mapper.ToEntity(m)
	return nil
}

func (r *CollectionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Collection, error) {
	var m model.Collection
	query := scoped(r.db.WithContext(ctx), specs...)

	if err := query.First(&m).Error; err != nil {
		if missing(err) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *CollectionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Collection, error) {
	var ms []*model.Collection
	query := scoped(r.db.WithContext(ctx), specs...)

	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(ms), nil
}

func (r *CollectionRepositoryImpl) AdjustCount(ctx context.Context, id uuid.UUID, delta int64) error {
	res := r.db.WithContext(ctx).Model(&model.Collection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"count":        gorm.Expr("GREATEST(count + ?, 0)", delta),
			"last_updated": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("collection %s not found", id)
	}
	return nil
}

func (r *CollectionRepositoryImpl) SetCount(ctx context.Context, id uuid.UUID, count int64) error {
	return r.db.WithContext(ctx).Model(&model.Collection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"count":        count,
			"last_updated": gorm.Expr("NOW()"),
		}).Error
}
