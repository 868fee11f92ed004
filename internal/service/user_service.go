package service

import (
	"context"
	"time"

	"lamdam-be/internal/constant"
	"lamdam-be/internal/dto"
	"lamdam-be/internal/entity"
	"lamdam-be/internal/mapper"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/internal/pkg/serverutils"
	"lamdam-be/internal/repository/specification"
	"lamdam-be/internal/repository/unitofwork"
	"lamdam-be/pkg/events/domain"

	"github.com/google/uuid"
)

type IUserService interface {
	List(ctx context.Context, req *dto.ListUsersRequest) (*dto.ListUsersResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error)
	Update(ctx context.Context, actorId uuid.UUID, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	LoadSession(ctx context.Context, userID string) (*serverutils.Session, error)
}

type userService struct {
	uowFactory     unitofwork.RepositoryFactory
	statsService   IStatsService
	eventPublisher domain.Publisher
	logger         logger.ILogger
}

func NewUserService(
	uowFactory unitofwork.RepositoryFactory,
	statsService IStatsService,
	eventPublisher domain.Publisher,
	logger logger.ILogger,
) IUserService {
	return &userService{
		uowFactory:     uowFactory,
		statsService:   statsService,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func pageBounds(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = constant.UserPageSizeDefault
	}
	if perPage > constant.UserPageSizeMax {
		perPage = constant.UserPageSizeMax
	}
	return page, perPage
}

func (s *userService) List(ctx context.Context, req *dto.ListUsersRequest) (*dto.ListUsersResponse, error) {
	page, perPage := pageBounds(req.Page, req.PerPage)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.UserRepository().Count(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "count users")
	}
	users, err := uow.UserRepository().FindAll(ctx,
		specification.OrderBy{Field: "registered_at"},
		specification.Pagination{Limit: perPage, Offset: (page - 1) * perPage},
	)
	if err != nil {
		return nil, apperror.Internal(err, "list users")
	}

	series, err := s.statsService.Summaries(ctx, users, req.Date)
	if err != nil {
		return nil, err
	}

	entries := make([]*dto.UserWithStats, 0, len(users))
	for _, u := range users {
		row := &dto.UserWithStats{UserResponse: *mapper.UserToResponse(u)}
		if sr, ok := series[u.Id]; ok {
			row.DailyTarget = sr.DailyTarget
			row.Stats = sr.Summary
		}
		entries = append(entries, row)
	}
	return &dto.ListUsersResponse{Entries: entries, Count: count}, nil
}

func (s *userService) Show(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, apperror.Internal(err, "load user %s", id)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}
	return mapper.UserToResponse(user), nil
}

// Update applies a superuser edit. Reactivating a user restarts their
// inactivity window so the sweeper does not block them again right away.
func (s *userService) Update(ctx context.Context, actorId uuid.UUID, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, apperror.Internal(err, "load user %s", req.Id)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	wasBlocked := user.Status == entity.UserStatusBlocked
	if req.Status != nil {
		status := entity.UserStatus(*req.Status)
		if !status.Valid() {
			return nil, apperror.Validation("status must be one of [active blocked]")
		}
		if status == entity.UserStatusBlocked && user.Id == actorId {
			return nil, apperror.Validation("you cannot block yourself")
		}
		user.Status = status
	}
	if req.Role != nil {
		role := entity.UserRole(*req.Role)
		if !role.Valid() {
			return nil, apperror.Validation("role must be one of [annotator corrector superuser contributor]")
		}
		user.Role = role
	}
	if req.MonthlyTarget != nil {
		if *req.MonthlyTarget < 0 {
			return nil, apperror.Validation("monthlyTarget must be at least 0")
		}
		user.MonthlyTarget = *req.MonthlyTarget
	}
	if wasBlocked && user.Status == entity.UserStatusActive {
		now := time.Now()
		user.LastActivity = &now
	}

	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return nil, apperror.Internal(err, "update user %s", user.Id)
	}

	s.logger.Info("USERS", "User updated", map[string]interface{}{
		"user_id":  user.Id,
		"actor_id": actorId,
		"status":   user.Status,
		"role":     user.Role,
		"target":   user.MonthlyTarget,
	})
	if !wasBlocked && user.Status == entity.UserStatusBlocked {
		s.eventPublisher.PublishUserBlocked(ctx, user.Id, user.Email, "blocked by a superuser")
	}
	return mapper.UserToResponse(user), nil
}

// LoadSession implements serverutils.SessionLoader.
func (s *userService) LoadSession(ctx context.Context, userID string) (*serverutils.Session, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid user ID format in token")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, apperror.Internal(err, "load session user %s", id)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}
	if user.Status == entity.UserStatusBlocked {
		return nil, apperror.Forbidden("account is blocked")
	}
	return &serverutils.Session{UserID: user.Id.String(), Role: string(user.Role), Email: user.Email}, nil
}
