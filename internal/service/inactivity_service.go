package service

import (
	"context"
	"time"

	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/internal/pkg/mailer"
	"lamdam-be/internal/repository/specification"
	"lamdam-be/internal/repository/unitofwork"
	"lamdam-be/pkg/events/domain"
)

// IInactivityService blocks annotators and correctors who have been idle for
// longer than the configured window.
type IInactivityService interface {
	BlockInactive(ctx context.Context) ([]*entity.User, error)
	Run(ctx context.Context, interval time.Duration)
}

type inactivityService struct {
	uowFactory     unitofwork.RepositoryFactory
	emailService   mailer.IEmailService
	eventPublisher domain.Publisher
	window         time.Duration
	logger         logger.ILogger
	now            func() time.Time
}

func NewInactivityService(
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	eventPublisher domain.Publisher,
	window time.Duration,
	logger logger.ILogger,
) IInactivityService {
	return &inactivityService{
		uowFactory:     uowFactory,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		window:         window,
		logger:         logger,
		now:            time.Now,
	}
}

// BlockInactive returns the users it blocked. A failed mail does not undo the
// block.
func (s *inactivityService) BlockInactive(ctx context.Context) ([]*entity.User, error) {
	cutoff := s.now().Add(-s.window)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	users, err := uow.UserRepository().FindAll(ctx,
		specification.ByRoles{Roles: []string{string(entity.UserRoleAnnotator), string(entity.UserRoleCorrector)}},
		specification.ActiveUsers{},
		specification.InactiveSince{Cutoff: cutoff},
	)
	if err != nil {
		return nil, apperror.Internal(err, "find inactive users")
	}

	days := int(s.window.Hours() / 24)
	blocked := make([]*entity.User, 0, len(users))
	for _, u := range users {
		if err := uow.UserRepository().UpdateStatus(ctx, u.Id, entity.UserStatusBlocked); err != nil {
			s.logger.Error("INACTIVITY", "Failed to block user", map[string]interface{}{"user_id": u.Id, "error": err.Error()})
			continue
		}
		u.Status = entity.UserStatusBlocked
		blocked = append(blocked, u)

		s.logger.Info("INACTIVITY", "User blocked for inactivity", map[string]interface{}{"user_id": u.Id, "email": u.Email, "last_activity": u.LastActivity})
		if err := s.emailService.SendBlockedNotice(u.Email, u.Name, days); err != nil {
			s.logger.Warn("INACTIVITY", "Blocked notice not delivered", map[string]interface{}{"user_id": u.Id, "error": err.Error()})
		}
		s.eventPublisher.PublishUserBlocked(ctx, u.Id, u.Email, "inactivity")
	}
	return blocked, nil
}

func (s *inactivityService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.BlockInactive(ctx); err != nil {
			s.logger.Error("INACTIVITY", "Sweep failed", map[string]interface{}{"error": err.Error()})
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
