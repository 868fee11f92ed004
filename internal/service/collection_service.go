package service

import (
	"context"
	"strings"
	"time"

	"lamdam-be/internal/dto"
	"lamdam-be/internal/entity"
	"lamdam-be/internal/mapper"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/internal/registry"
	"lamdam-be/internal/repository/specification"
	"lamdam-be/internal/repository/unitofwork"
	"lamdam-be/pkg/events/domain"

	"github.com/google/uuid"
)

type ICollectionService interface {
	List(ctx context.Context) ([]*dto.CollectionResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.CollectionResponse, error)
	Create(ctx context.Context, creatorId uuid.UUID, req *dto.CreateCollectionRequest) (*dto.CollectionResponse, error)
	Recount(ctx context.Context, id uuid.UUID) (*dto.RecountResponse, error)
}

type collectionService struct {
	uowFactory     unitofwork.RepositoryFactory
	stores         StoreResolver
	eventPublisher domain.Publisher
	logger         logger.ILogger
}

func NewCollectionService(
	uowFactory unitofwork.RepositoryFactory,
	stores StoreResolver,
	eventPublisher domain.Publisher,
	logger logger.ILogger,
) ICollectionService {
	return &collectionService{
		uowFactory:     uowFactory,
		stores:         stores,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *collectionService) List(ctx context.Context) ([]*dto.CollectionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	cols, err := uow.CollectionRepository().FindAll(ctx, specification.OrderBy{Field: "created_at"})
	if err != nil {
		return nil, apperror.Internal(err, "list collections")
	}
	return mapper.CollectionsToResponse(cols), nil
}

func (s *collectionService) Show(ctx context.Context, id uuid.UUID) (*dto.CollectionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	col, err := uow.CollectionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, apperror.Internal(err, "load collection %s", id)
	}
	if col == nil {
		return nil, apperror.NotFound("collection not found")
	}
	return mapper.CollectionToResponse(col), nil
}

// Create registers a collection and creates its record table. The table is
// created first; an orphan table left by a failed insert is harmless and is
// reused when the name is taken again.
func (s *collectionService) Create(ctx context.Context, creatorId uuid.UUID, req *dto.CreateCollectionRequest) (*dto.CollectionResponse, error) {
	name := strings.TrimSpace(req.Name)
	if err := registry.ValidateName(name); err != nil {
		return nil, err
	}
	dataType := entity.DataType(req.DataType)
	if !dataType.Valid() {
		return nil, apperror.Validation("dataType must be one of [sft rm]")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.CollectionRepository().FindOne(ctx, specification.Filter("name", name))
	if err != nil {
		return nil, apperror.Internal(err, "check collection name")
	}
	if existing != nil {
		return nil, apperror.Conflict("collection %q already exists", name)
	}

	creator, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: creatorId})
	if err != nil {
		return nil, apperror.Internal(err, "load creator %s", creatorId)
	}
	if creator == nil {
		return nil, apperror.Unauthorized("Unknown user")
	}

	if err := s.stores.Ensure(ctx, name); err != nil {
		return nil, apperror.Internal(err, "create store %s", name)
	}

	now := time.Now()
	col := &entity.Collection{
		Id:          uuid.New(),
		Name:        name,
		Description: req.Description,
		Creator:     creator.Name,
		CreatorId:   creator.Id,
		CreatedAt:   now,
		LastUpdated: now,
		DataType:    dataType,
	}
	if err := uow.CollectionRepository().Create(ctx, col); err != nil {
		if apperror.KindOf(err) == apperror.KindConflict {
			return nil, err
		}
		return nil, apperror.Internal(err, "insert collection %s", name)
	}

	s.logger.Info("COLLECTIONS", "Collection created", map[string]interface{}{"name": name, "data_type": dataType, "creator_id": creatorId})
	s.eventPublisher.PublishCollectionUpdated(ctx, col.Id, 0)
	return mapper.CollectionToResponse(col), nil
}

// Recount repairs the denormalised count from the record table.
func (s *collectionService) Recount(ctx context.Context, id uuid.UUID) (*dto.RecountResponse, error) {
	store, err := s.stores.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.stores.Ensure(ctx, store.Name); err != nil {
		return nil, apperror.Internal(err, "ensure store %s", store.Name)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err, "begin transaction")
	}
	defer uow.Rollback()

	col, err := uow.CollectionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, apperror.Internal(err, "load collection %s", id)
	}
	if col == nil {
		return nil, apperror.NotFound("collection not found")
	}

	actual, err := uow.RecordRepository(store.Name, store.DataType).Count(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "count %s", store.Name)
	}
	if err := uow.CollectionRepository().SetCount(ctx, id, actual); err != nil {
		return nil, apperror.Internal(err, "store count of %s", store.Name)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err, "commit recount")
	}

	if actual != col.Count {
		s.logger.Warn("COLLECTIONS", "Collection count drifted", map[string]interface{}{"name": col.Name, "stored": col.Count, "actual": actual})
		s.eventPublisher.PublishCollectionUpdated(ctx, id, actual)
	}
	return &dto.RecountResponse{Id: id, Previous: col.Count, Count: actual}, nil
}
