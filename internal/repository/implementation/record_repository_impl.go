package implementation

import (
	"context"

	"lamdam-be/internal/entity"
	"lamdam-be/internal/mapper"
	"lamdam-be/internal/model"
	"lamdam-be/internal/paging"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/repository/contract"
	"lamdam-be/internal/repository/scope"
	"lamdam-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	duplicateRecordMessage = "already exists"
	importBatchSize        = 500
)

// RecordRepositoryImpl addresses one collection table. The store name must
// have been validated by the store registry before it gets here.
type RecordRepositoryImpl struct {
	db       *gorm.DB
	store    string
	dataType entity.DataType
	mapper   *mapper.RecordMapper
}

func NewRecordRepository(db *gorm.DB, store string, dataType entity.DataType) contract.RecordRepository {
	return &RecordRepositoryImpl{
		db:       db,
		store:    store,
		dataType: dataType,
		mapper:   mapper.NewRecordMapper(),
	}
}

func (r *RecordRepositoryImpl) Store() string {
	return r.store
}

func (r *RecordRepositoryImpl) table(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.store)
}

func (r *RecordRepositoryImpl) Create(ctx context.Context, record *entity.Record) error {
	m := r.mapper.ToModel(record)
	if err := r.table(ctx).Create(m).Error; err != nil {
		return translateError(err, duplicateRecordMessage)
	}
	*record = *r.mapper.ToEntity(m, r.dataType)
	return nil
}

// Update rewrites every mutable column. Identity and authorship are kept.
func (r *RecordRepositoryImpl) Update(ctx context.Context, record *entity.Record) error {
	m := r.mapper.ToModel(record)
	res := r.table(ctx).
		Where("id = ?", m.Id).
		Select("*").
		Omit("id", "creator", "creator_id", "created_at").
		Updates(m)
	if res.Error != nil {
		return translateError(res.Error, duplicateRecordMessage)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("record not found")
	}
	return nil
}

func (r *RecordRepositoryImpl) Delete(ctx context.Context, id string) (bool, error) {
	res := r.table(ctx).Where("id = ?", id).Delete(&model.Record{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *RecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Record, error) {
	var m model.Record
	query := scoped(r.table(ctx), specs...)

	if err := query.Take(&m).Error; err != nil {
		if missing(err) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m, r.dataType), nil
}

func (r *RecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Record, error) {
	var ms []*model.Record
	query := scoped(r.table(ctx), specs...)

	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(ms, r.dataType), nil
}

func (r *RecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := scoped(r.table(ctx), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RecordRepositoryImpl) InsertIgnoringDuplicates(ctx context.Context, records []*entity.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	ms := make([]*model.Record, len(records))
	for i, rec := range records {
		ms[i] = r.mapper.ToModel(rec)
	}

	res := r.table(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "hash"}}, DoNothing: true}).
		CreateInBatches(ms, importBatchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *RecordRepositoryImpl) Fetcher(specs ...specification.Specification) paging.Fetcher[*entity.Record] {
	return &recordFetcher{repo: r, specs: specs}
}

type recordFetcher struct {
	repo  *RecordRepositoryImpl
	specs []specification.Specification
}

func (f *recordFetcher) filtered(ctx context.Context) *gorm.DB {
	return scoped(f.repo.table(ctx), f.specs...)
}

func (f *recordFetcher) Fetch(ctx context.Context, b paging.Bound) ([]*entity.Record, error) {
	var ms []*model.Record
	err := f.filtered(ctx).
		Scopes(scope.Keyset(b.Cursor, b.Desc)).
		Limit(b.Limit).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return f.repo.mapper.ToEntities(ms, f.repo.dataType), nil
}

func (f *recordFetcher) Exists(ctx context.Context, b paging.Bound) (bool, error) {
	var ids []string
	err := f.filtered(ctx).
		Scopes(scope.Keyset(b.Cursor, b.Desc)).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

func (f *recordFetcher) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := f.filtered(ctx).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
