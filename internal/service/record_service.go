package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"lamdam-be/internal/constant"
	"lamdam-be/internal/dto"
	"lamdam-be/internal/entity"
	"lamdam-be/internal/mapper"
	"lamdam-be/internal/paging"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/internal/registry"
	"lamdam-be/internal/repository/specification"
	"lamdam-be/internal/repository/unitofwork"
	"lamdam-be/pkg/events/domain"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// StoreResolver maps collections to their record tables.
// Implemented by registry.StoreRegistry.
type StoreResolver interface {
	Resolve(ctx context.Context, collectionID uuid.UUID) (registry.Store, error)
	Ensure(ctx context.Context, name string) error
	Names(ctx context.Context) ([]string, error)
}

type IRecordService interface {
	List(ctx context.Context, viewer specification.Viewer, req *dto.ListRecordsRequest) (*dto.ListRecordsResponse, error)
	Show(ctx context.Context, viewer specification.Viewer, collectionId uuid.UUID, id string) (*dto.RecordResponse, error)
	Create(ctx context.Context, viewer specification.Viewer, req *dto.CreateRecordRequest) (*dto.RecordResponse, error)
	Update(ctx context.Context, viewer specification.Viewer, req *dto.UpdateRecordRequest) (*dto.RecordResponse, error)
	Delete(ctx context.Context, viewer specification.Viewer, collectionId uuid.UUID, id string) error
	Move(ctx context.Context, viewer specification.Viewer, req *dto.MoveRecordRequest) (*dto.RecordResponse, error)
	ChangeStatus(ctx context.Context, viewer specification.Viewer, req *dto.ChangeStatusRequest) (*dto.RecordResponse, error)
	Export(ctx context.Context, req *dto.ExportRecordsRequest) ([]dto.AlpacaRecord, error)
	Import(ctx context.Context, viewer specification.Viewer, req *dto.ImportRecordsRequest) (*dto.ImportRecordsResponse, error)
}

type recordService struct {
	uowFactory       unitofwork.RepositoryFactory
	stores           StoreResolver
	publisherService IPublisherService
	eventPublisher   domain.Publisher
	approvalMode     bool
	logger           logger.ILogger
	now              func() time.Time
}

func NewRecordService(
	uowFactory unitofwork.RepositoryFactory,
	stores StoreResolver,
	publisherService IPublisherService,
	eventPublisher domain.Publisher,
	approvalMode bool,
	logger logger.ILogger,
) IRecordService {
	return &recordService{
		uowFactory:       uowFactory,
		stores:           stores,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		approvalMode:     approvalMode,
		logger:           logger,
		now:              time.Now,
	}
}

// openStore resolves a collection and makes sure its table exists.
func (s *recordService) openStore(ctx context.Context, collectionId uuid.UUID) (registry.Store, error) {
	if collectionId == uuid.Nil {
		return registry.Store{}, apperror.Validation("collectionId is required")
	}
	store, err := s.stores.Resolve(ctx, collectionId)
	if err != nil {
		return registry.Store{}, err
	}
	if err := s.stores.Ensure(ctx, store.Name); err != nil {
		return registry.Store{}, err
	}
	return store, nil
}

func validateRecordID(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return apperror.Validation("invalid record id %q", id)
	}
	return nil
}

func (s *recordService) List(ctx context.Context, viewer specification.Viewer, req *dto.ListRecordsRequest) (*dto.ListRecordsResponse, error) {
	collectionId, err := uuid.Parse(req.CollectionId)
	if err != nil {
		return nil, apperror.Validation("collectionId is required")
	}
	if req.FromId != "" && req.ToId != "" {
		return nil, apperror.Validation("fromId and toId are mutually exclusive")
	}
	for _, cursor := range []string{req.FromId, req.ToId} {
		if cursor == "" {
			continue
		}
		if err := validateRecordID(cursor); err != nil {
			return nil, err
		}
	}
	sort, err := paging.ParseSort(req.Sort)
	if err != nil {
		return nil, apperror.Validation("%s", err.Error())
	}

	store, err := s.openStore(ctx, collectionId)
	if err != nil {
		return nil, err
	}

	statuses, err := specification.ParseStatuses(req.Status)
	if err != nil {
		return nil, err
	}
	creators, err := specification.ParseCreators(req.Creators)
	if err != nil {
		return nil, err
	}
	features, err := specification.ParseFeatures(req.Features, store.DataType)
	if err != nil {
		return nil, err
	}

	filter := specification.RecordFilter{
		Keyword:  req.Keyword,
		Creators: creators,
		Features: features,
		Statuses: statuses,
		DataType: store.DataType,
		Viewer:   viewer,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.RecordRepository(store.Name, store.DataType)

	page, err := paging.Paginate(ctx, repo.Fetcher(filter.Specifications()...),
		func(r *entity.Record) string { return r.Id },
		paging.Request{FromID: req.FromId, ToID: req.ToId, Sort: sort, PageSize: constant.RecordPageSize},
	)
	if err != nil {
		return nil, apperror.Internal(err, "list records of %s", store.Name)
	}

	return &dto.ListRecordsResponse{
		Entries: mapper.RecordsToResponse(page.Entries, collectionId),
		Paging:  page.Paging,
	}, nil
}

// findVisible loads a record the viewer is allowed to read. Records hidden
// from the viewer are reported as missing.
func (s *recordService) findVisible(ctx context.Context, uow unitofwork.UnitOfWork, store registry.Store, viewer specification.Viewer, id string) (*entity.Record, error) {
	if err := validateRecordID(id); err != nil {
		return nil, err
	}
	rec, err := uow.RecordRepository(store.Name, store.DataType).FindOne(ctx, specification.ByRecordID{ID: id})
	if err != nil {
		return nil, apperror.Internal(err, "load record %s", id)
	}
	if rec == nil || !(specification.RecordFilter{Viewer: viewer}).Visible(rec) {
		return nil, apperror.NotFound("record not found")
	}
	return rec, nil
}

func canEdit(viewer specification.Viewer, rec *entity.Record) bool {
	return rec.CreatorId == viewer.ID || viewer.Role.CanModerate()
}

func (s *recordService) Show(ctx context.Context, viewer specification.Viewer, collectionId uuid.UUID, id string) (*dto.RecordResponse, error) {
	store, err := s.openStore(ctx, collectionId)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rec, err := s.findVisible(ctx, uow, store, viewer, id)
	if err != nil {
		return nil, err
	}
	return mapper.RecordToResponse(rec, collectionId), nil
}

// buildOutput checks the data type specific content of a request.
func buildOutput(dataType entity.DataType, req dto.RecordContentRequest) (entity.Output, error) {
	long := func(field, value string) error {
		if utf8.RuneCountInString(strings.TrimSpace(value)) < constant.MinOutputLength {
			return apperror.Validation("%s must be at least %d characters", field, constant.MinOutputLength)
		}
		return nil
	}

	if dataType == entity.DataTypeRM {
		if err := long("outputPositive", req.OutputPositive); err != nil {
			return nil, err
		}
		if err := long("outputNegative", req.OutputNegative); err != nil {
			return nil, err
		}
		return entity.RMOutput{Positive: req.OutputPositive, Negative: req.OutputNegative}, nil
	}

	if err := long("response", req.Response); err != nil {
		return nil, err
	}
	return entity.SFTOutput{Response: req.Response}, nil
}

func (s *recordService) Create(ctx context.Context, viewer specification.Viewer, req *dto.CreateRecordRequest) (*dto.RecordResponse, error) {
	store, err := s.openStore(ctx, req.CollectionId)
	if err != nil {
		return nil, err
	}
	output, err := buildOutput(store.DataType, req.RecordContentRequest)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	creator, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: viewer.ID})
	if err != nil {
		return nil, apperror.Internal(err, "load creator %s", viewer.ID)
	}
	if creator == nil {
		return nil, apperror.Unauthorized("Unknown user")
	}

	now := s.now()
	rec := &entity.Record{
		Id:          ulid.Make().String(),
		Prompt:      req.Prompt,
		Input:       req.Input,
		Output:      output,
		History:     mapper.HistoryFromPairs(req.History),
		Creator:     creator.Name,
		CreatorId:   creator.Id,
		CreatedAt:   now,
		LastUpdated: now,
		Status:      entity.RecordStatusPending,
	}
	rec.Hash = rec.ComputeHash()

	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err, "begin transaction")
	}
	defer uow.Rollback()

	if err := uow.RecordRepository(store.Name, store.DataType).Create(ctx, rec); err != nil {
		if apperror.KindOf(err) == apperror.KindConflict {
			return nil, err
		}
		return nil, apperror.Internal(err, "insert record into %s", store.Name)
	}
	if err := uow.CollectionRepository().AdjustCount(ctx, store.CollectionID, 1); err != nil {
		return nil, apperror.Internal(err, "update count of %s", store.Name)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err, "commit record insert")
	}

	s.afterChange(ctx, viewer, store, rec, constant.RecordActionCreated, true)
	return mapper.RecordToResponse(rec, store.CollectionID), nil
}

func (s *recordService) Update(ctx context.Context, viewer specification.Viewer, req *dto.UpdateRecordRequest) (*dto.RecordResponse, error) {
	store, err := s.openStore(ctx, req.CollectionId)
	if err != nil {
		return nil, err
	}
	output, err := buildOutput(store.DataType, req.RecordContentRequest)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rec, err := s.findVisible(ctx, uow, store, viewer, req.Id)
	if err != nil {
		return nil, err
	}
	if !canEdit(viewer, rec) {
		return nil, apperror.Forbidden("only the creator or a moderator can edit this record")
	}

	rec.Prompt = req.Prompt
	rec.Input = req.Input
	rec.Output = output
	rec.History = mapper.HistoryFromPairs(req.History)
	rec.Hash = rec.ComputeHash()
	rec.ResetToPending(viewer.ID, s.now())

	if err := uow.RecordRepository(store.Name, store.DataType).Update(ctx, rec); err != nil {
		if k := apperror.KindOf(err); k == apperror.KindConflict || k == apperror.KindNotFound {
			return nil, err
		}
		return nil, apperror.Internal(err, "update record %s", rec.Id)
	}

	s.afterChange(ctx, viewer, store, rec, constant.RecordActionUpdated, false)
	return mapper.RecordToResponse(rec, store.CollectionID), nil
}

func (s *recordService) Delete(ctx context.Context, viewer specification.Viewer, collectionId uuid.UUID, id string) error {
	store, err := s.openStore(ctx, collectionId)
	if err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rec, err := s.findVisible(ctx, uow, store, viewer, id)
	if err != nil {
		return err
	}
	if !canEdit(viewer, rec) {
		return apperror.Forbidden("only the creator or a moderator can delete this record")
	}

	if err := uow.Begin(ctx); err != nil {
		return apperror.Internal(err, "begin transaction")
	}
	defer uow.Rollback()

	deleted, err := uow.RecordRepository(store.Name, store.DataType).Delete(ctx, rec.Id)
	if err != nil {
		return apperror.Internal(err, "delete record %s", rec.Id)
	}
	if !deleted {
		return apperror.NotFound("record not found")
	}
	if err := uow.CollectionRepository().AdjustCount(ctx, store.CollectionID, -1); err != nil {
		return apperror.Internal(err, "update count of %s", store.Name)
	}
	if err := uow.Commit(); err != nil {
		return apperror.Internal(err, "commit record delete")
	}

	s.afterChange(ctx, viewer, store, rec, constant.RecordActionDeleted, true)
	return nil
}

// Move transfers a record between collections of the same data type. The
// delete, the insert and both counters commit together.
func (s *recordService) Move(ctx context.Context, viewer specification.Viewer, req *dto.MoveRecordRequest) (*dto.RecordResponse, error) {
	if req.CollectionId == req.TargetCollectionId {
		return nil, apperror.Validation("record is already in this collection")
	}
	source, err := s.openStore(ctx, req.CollectionId)
	if err != nil {
		return nil, err
	}
	target, err := s.openStore(ctx, req.TargetCollectionId)
	if err != nil {
		return nil, err
	}
	if source.DataType != target.DataType {
		return nil, apperror.Validation("cannot move a %s record into a %s collection", source.DataType, target.DataType)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err, "begin transaction")
	}
	defer uow.Rollback()

	rec, err := s.findVisible(ctx, uow, source, viewer, req.Id)
	if err != nil {
		return nil, err
	}
	if !canEdit(viewer, rec) {
		return nil, apperror.Forbidden("only the creator or a moderator can move this record")
	}

	deleted, err := uow.RecordRepository(source.Name, source.DataType).Delete(ctx, rec.Id)
	if err != nil {
		return nil, apperror.Internal(err, "delete record %s from %s", rec.Id, source.Name)
	}
	if !deleted {
		return nil, apperror.NotFound("record not found")
	}
	if err := uow.RecordRepository(target.Name, target.DataType).Create(ctx, rec); err != nil {
		if apperror.KindOf(err) == apperror.KindConflict {
			return nil, apperror.Conflict("already exists in the target collection")
		}
		return nil, apperror.Internal(err, "insert record %s into %s", rec.Id, target.Name)
	}
	if err := uow.CollectionRepository().AdjustCount(ctx, source.CollectionID, -1); err != nil {
		return nil, apperror.Internal(err, "update count of %s", source.Name)
	}
	if err := uow.CollectionRepository().AdjustCount(ctx, target.CollectionID, 1); err != nil {
		return nil, apperror.Internal(err, "update count of %s", target.Name)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err, "commit record move")
	}

	s.afterChange(ctx, viewer, source, rec, constant.RecordActionMoved, true)
	s.afterChange(ctx, viewer, target, rec, constant.RecordActionMoved, true)
	return mapper.RecordToResponse(rec, target.CollectionID), nil
}

func (s *recordService) ChangeStatus(ctx context.Context, viewer specification.Viewer, req *dto.ChangeStatusRequest) (*dto.RecordResponse, error) {
	if !s.approvalMode {
		return nil, apperror.Forbidden("approval mode is disabled")
	}
	if !viewer.Role.CanModerate() {
		return nil, apperror.Forbidden("only correctors and superusers can change the status")
	}
	status := entity.RecordStatus(req.Status)
	if !status.Valid() {
		return nil, apperror.Validation("status must be one of [pending approved rejected]")
	}

	store, err := s.openStore(ctx, req.CollectionId)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err, "begin transaction")
	}
	defer uow.Rollback()

	rec, err := s.findVisible(ctx, uow, store, viewer, req.Id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	switch status {
	case entity.RecordStatusApproved:
		rec.Approve(viewer.ID, now)
	case entity.RecordStatusRejected:
		rec.Reject(viewer.ID, now, strings.TrimSpace(req.RejectReason))
	default:
		rec.ResetToPending(viewer.ID, now)
	}

	if err := uow.RecordRepository(store.Name, store.DataType).Update(ctx, rec); err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, err
		}
		return nil, apperror.Internal(err, "update status of %s", rec.Id)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err, "commit status change")
	}

	s.eventPublisher.PublishRecordModerated(ctx, recordChange(store, rec, viewer, constant.RecordActionModerated), rec.Meta.RejectReason)
	s.publisherService.PublishActivity(ctx, viewer.ID)
	return mapper.RecordToResponse(rec, store.CollectionID), nil
}

// Export returns approved records only, which every role may read, so it
// needs no viewer. An empty id list exports every approved record of the
// collection.
func (s *recordService) Export(ctx context.Context, req *dto.ExportRecordsRequest) ([]dto.AlpacaRecord, error) {
	store, err := s.openStore(ctx, req.CollectionId)
	if err != nil {
		return nil, err
	}

	specs := []specification.Specification{
		specification.Filter("status", string(entity.RecordStatusApproved)),
		specification.OrderBy{Field: "id"},
	}
	if len(req.Ids) > 0 {
		for _, id := range req.Ids {
			if err := validateRecordID(id); err != nil {
				return nil, err
			}
		}
		specs = append(specs, specification.ByRecordIDs{IDs: req.Ids})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.RecordRepository(store.Name, store.DataType).FindAll(ctx, specs...)
	if err != nil {
		return nil, apperror.Internal(err, "export %s", store.Name)
	}

	out := make([]dto.AlpacaRecord, 0, len(records))
	for _, r := range records {
		out = append(out, mapper.RecordToAlpaca(r))
	}
	return out, nil
}

// Import bulk inserts records, skipping any whose content already exists.
// Importing the same payload twice inserts nothing the second time.
func (s *recordService) Import(ctx context.Context, viewer specification.Viewer, req *dto.ImportRecordsRequest) (*dto.ImportRecordsResponse, error) {
	if !viewer.Role.CanModerate() {
		return nil, apperror.Forbidden("only correctors and superusers can import records")
	}
	store, err := s.openStore(ctx, req.CollectionId)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	importer, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: viewer.ID})
	if err != nil {
		return nil, apperror.Internal(err, "load importer %s", viewer.ID)
	}
	if importer == nil {
		return nil, apperror.Unauthorized("Unknown user")
	}

	now := s.now()
	seen := make(map[string]struct{}, len(req.Records))
	records := make([]*entity.Record, 0, len(req.Records))
	for i, in := range req.Records {
		output, err := alpacaOutput(store.DataType, in.Output)
		if err != nil {
			return nil, apperror.Validation("record %d: %s", i, err.Error())
		}
		rec := &entity.Record{
			Id:          ulid.Make().String(),
			Prompt:      in.Instruction,
			Input:       in.Input,
			Output:      output,
			History:     mapper.HistoryFromPairs(in.History),
			Creator:     importer.Name,
			CreatorId:   importer.Id,
			CreatedAt:   now,
			LastUpdated: now,
			Status:      entity.RecordStatusPending,
		}
		rec.Hash = rec.ComputeHash()
		if _, dup := seen[rec.Hash]; dup {
			continue
		}
		seen[rec.Hash] = struct{}{}
		records = append(records, rec)
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err, "begin transaction")
	}
	defer uow.Rollback()

	inserted, err := uow.RecordRepository(store.Name, store.DataType).InsertIgnoringDuplicates(ctx, records)
	if err != nil {
		return nil, apperror.Internal(err, "import into %s", store.Name)
	}
	if inserted > 0 {
		if err := uow.CollectionRepository().AdjustCount(ctx, store.CollectionID, inserted); err != nil {
			return nil, apperror.Internal(err, "update count of %s", store.Name)
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err, "commit import")
	}

	s.logger.Info("RECORDS", "Import finished", map[string]interface{}{
		"collection": store.Name,
		"received":   len(req.Records),
		"inserted":   inserted,
	})
	if inserted > 0 {
		s.eventPublisher.PublishRecordChanged(ctx, domain.RecordChange{
			Action:       constant.RecordActionImported,
			CollectionID: store.CollectionID,
			CreatorID:    viewer.ID,
			Status:       string(entity.RecordStatusPending),
			ActorID:      viewer.ID,
		})
		s.publishCount(ctx, store.CollectionID)
	}
	s.publisherService.PublishActivity(ctx, viewer.ID)

	return &dto.ImportRecordsResponse{
		Success:  true,
		Inserted: inserted,
		Skipped:  int64(len(req.Records)) - inserted,
	}, nil
}

func alpacaOutput(dataType entity.DataType, out dto.AlpacaOutput) (entity.Output, error) {
	if dataType == entity.DataTypeRM {
		if len(out) != 2 {
			return nil, apperror.Validation("output must be a [positive, negative] pair")
		}
		return entity.RMOutput{Positive: out[0], Negative: out[1]}, nil
	}
	if len(out) != 1 {
		return nil, apperror.Validation("output must be a single string")
	}
	return entity.SFTOutput{Response: out[0]}, nil
}

func recordChange(store registry.Store, rec *entity.Record, viewer specification.Viewer, action string) domain.RecordChange {
	return domain.RecordChange{
		Action:       action,
		CollectionID: store.CollectionID,
		RecordID:     rec.Id,
		CreatorID:    rec.CreatorId,
		Status:       string(rec.Status),
		ActorID:      viewer.ID,
	}
}

func (s *recordService) afterChange(ctx context.Context, viewer specification.Viewer, store registry.Store, rec *entity.Record, action string, countChanged bool) {
	s.eventPublisher.PublishRecordChanged(ctx, recordChange(store, rec, viewer, action))
	if countChanged {
		s.publishCount(ctx, store.CollectionID)
	}
	s.publisherService.PublishActivity(ctx, viewer.ID)
}

func (s *recordService) publishCount(ctx context.Context, collectionId uuid.UUID) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	col, err := uow.CollectionRepository().FindOne(ctx, specification.ByID{ID: collectionId})
	if err != nil || col == nil {
		return
	}
	s.eventPublisher.PublishCollectionUpdated(ctx, col.Id, col.Count)
}
