package service

import (
	"context"

	"lamdam-be/internal/dto"
	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/repository/contract"
	"lamdam-be/internal/repository/specification"
	"lamdam-be/internal/repository/unitofwork"
	"lamdam-be/pkg/stats"

	"github.com/google/uuid"
)

type IStatsService interface {
	UserSeries(ctx context.Context, userId uuid.UUID, date string) (*dto.UserStatsSeriesResponse, error)
	// Summaries computes the month series of every given user with one
	// query per measurement mode.
	Summaries(ctx context.Context, users []*entity.User, date string) (map[uuid.UUID]stats.Series, error)
	OrgStats(ctx context.Context, date string) (*dto.OrgStatsResponse, error)
}

type statsService struct {
	uowFactory unitofwork.RepositoryFactory
	stores     StoreResolver
	aggregator *stats.Aggregator
}

func NewStatsService(uowFactory unitofwork.RepositoryFactory, stores StoreResolver, aggregator *stats.Aggregator) IStatsService {
	return &statsService{
		uowFactory: uowFactory,
		stores:     stores,
		aggregator: aggregator,
	}
}

func (s *statsService) period(date string) (stats.Period, error) {
	p, err := s.aggregator.Period(date)
	if err != nil {
		return stats.Period{}, apperror.Validation("%s", err.Error())
	}
	return p, nil
}

// correctorTarget is the organisation target: the sum of all annotators'
// monthly targets at the time of the call.
func correctorTarget(ctx context.Context, uow unitofwork.UnitOfWork) (int, error) {
	total, err := uow.UserRepository().SumMonthlyTarget(ctx, entity.UserRoleAnnotator)
	if err != nil {
		return 0, apperror.Internal(err, "sum annotator targets")
	}
	return total, nil
}

// storeNames lists every record table, creating the ones that are missing
// so the union query never references an absent table.
func (s *statsService) storeNames(ctx context.Context) ([]string, error) {
	names, err := s.stores.Names(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "list stores")
	}
	for _, name := range names {
		if err := s.stores.Ensure(ctx, name); err != nil {
			return nil, apperror.Internal(err, "ensure store %s", name)
		}
	}
	return names, nil
}

func (s *statsService) hourly(ctx context.Context, uow unitofwork.UnitOfWork, p stats.Period, actorIds []string, byEditor bool) ([]stats.HourBucket, error) {
	names, err := s.storeNames(ctx)
	if err != nil {
		return nil, err
	}
	from, to := s.aggregator.QueryRange(p)
	buckets, err := uow.StatsRepository().HourlyCounts(ctx, contract.HourlyQuery{
		Stores:   names,
		ActorIDs: actorIds,
		ByEditor: byEditor,
		From:     from,
		To:       to,
		Timezone: s.aggregator.Location().String(),
	})
	if err != nil {
		return nil, apperror.Internal(err, "hourly counts")
	}
	return buckets, nil
}

func (s *statsService) UserSeries(ctx context.Context, userId uuid.UUID, date string) (*dto.UserStatsSeriesResponse, error) {
	p, err := s.period(date)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, apperror.Internal(err, "load user %s", userId)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	target := user.MonthlyTarget
	if user.Role.MeasuredOnEdits() {
		if target, err = correctorTarget(ctx, uow); err != nil {
			return nil, err
		}
	}

	buckets, err := s.hourly(ctx, uow, p, []string{user.Id.String()}, user.Role.MeasuredOnEdits())
	if err != nil {
		return nil, err
	}

	return &dto.UserStatsSeriesResponse{
		UserId: user.Id,
		Role:   string(user.Role),
		Series: s.aggregator.Series(buckets, p, target),
	}, nil
}

func (s *statsService) Summaries(ctx context.Context, users []*entity.User, date string) (map[uuid.UUID]stats.Series, error) {
	p, err := s.period(date)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]stats.Series, len(users))
	if len(users) == 0 {
		return out, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	creators := map[string]int{}
	editors := map[string]int{}
	for _, u := range users {
		if u.Role.MeasuredOnEdits() {
			editors[u.Id.String()] = 0
		} else {
			creators[u.Id.String()] = u.MonthlyTarget
		}
	}
	if len(editors) > 0 {
		target, err := correctorTarget(ctx, uow)
		if err != nil {
			return nil, err
		}
		for id := range editors {
			editors[id] = target
		}
	}

	for _, group := range []struct {
		targets  map[string]int
		byEditor bool
	}{{creators, false}, {editors, true}} {
		if len(group.targets) == 0 {
			continue
		}
		ids := make([]string, 0, len(group.targets))
		for id := range group.targets {
			ids = append(ids, id)
		}
		buckets, err := s.hourly(ctx, uow, p, ids, group.byEditor)
		if err != nil {
			return nil, err
		}
		for id, series := range s.aggregator.SeriesByActor(buckets, p, group.targets) {
			out[uuid.MustParse(id)] = series
		}
	}
	return out, nil
}

// OrgStats reports per collection status counts and the organisation wide
// series of the month, measured on record creation.
func (s *statsService) OrgStats(ctx context.Context, date string) (*dto.OrgStatsResponse, error) {
	p, err := s.period(date)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	cols, err := uow.CollectionRepository().FindAll(ctx, specification.OrderBy{Field: "name"})
	if err != nil {
		return nil, apperror.Internal(err, "list collections")
	}
	names, err := s.storeNames(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := uow.StatsRepository().StatusCounts(ctx, names)
	if err != nil {
		return nil, apperror.Internal(err, "status counts")
	}
	byStore := make(map[string]*dto.CollectionStatusStats, len(cols))
	res := &dto.OrgStatsResponse{Collections: make([]*dto.CollectionStatusStats, 0, len(cols))}
	for _, c := range cols {
		row := &dto.CollectionStatusStats{CollectionId: c.Id, Name: c.Name, DataType: string(c.DataType)}
		byStore[c.Name] = row
		res.Collections = append(res.Collections, row)
	}
	for _, c := range counts {
		row, ok := byStore[c.Store]
		if !ok {
			continue
		}
		switch entity.RecordStatus(c.Status) {
		case entity.RecordStatusApproved:
			row.Approved += c.Count
		case entity.RecordStatusRejected:
			row.Rejected += c.Count
		default:
			row.Pending += c.Count
		}
		row.Total += c.Count
	}

	target, err := correctorTarget(ctx, uow)
	if err != nil {
		return nil, err
	}
	buckets, err := s.hourly(ctx, uow, p, nil, false)
	if err != nil {
		return nil, err
	}
	res.Series = s.aggregator.Series(buckets, p, target)
	return res, nil
}
