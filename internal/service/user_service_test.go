package service

import (
	"context"
	"testing"
	"time"

	"lamdam-be/internal/dto"
	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/pkg/stats"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStats struct {
	series map[uuid.UUID]stats.Series
}

func (s stubStats) UserSeries(ctx context.Context, userId uuid.UUID, date string) (*dto.UserStatsSeriesResponse, error) {
	return nil, nil
}

func (s stubStats) Summaries(ctx context.Context, users []*entity.User, date string) (map[uuid.UUID]stats.Series, error) {
	return s.series, nil
}

func (s stubStats) OrgStats(ctx context.Context, date string) (*dto.OrgStatsResponse, error) {
	return nil, nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestUserUpdateBlockAndUnblock(t *testing.T) {
	db := newMemoryDB()
	events := newRecordingPublisher()
	svc := NewUserService(db, stubStats{}, events, logger.NewNopLogger())
	ctx := context.Background()

	admin := db.addUser("admin", entity.UserRoleSuperuser)
	ann := db.addUser("ann", entity.UserRoleAnnotator)

	out, err := svc.Update(ctx, admin.Id, &dto.UpdateUserRequest{Id: ann.Id, Status: strPtr("blocked"), MonthlyTarget: intPtr(300)})
	require.NoError(t, err)
	assert.Equal(t, "blocked", out.Status)
	assert.Equal(t, 300, out.Meta.MonthlyTarget)
	assert.Equal(t, []uuid.UUID{ann.Id}, events.blocked)

	before := time.Now()
	out, err = svc.Update(ctx, admin.Id, &dto.UpdateUserRequest{Id: ann.Id, Status: strPtr("active")})
	require.NoError(t, err)
	assert.Equal(t, "active", out.Status)
	require.NotNil(t, out.LastActivity)
	assert.False(t, out.LastActivity.Before(before))
	assert.Len(t, events.blocked, 1)
}

func TestUserUpdateValidation(t *testing.T) {
	db := newMemoryDB()
	svc := NewUserService(db, stubStats{}, newRecordingPublisher(), logger.NewNopLogger())
	ctx := context.Background()
	admin := db.addUser("admin", entity.UserRoleSuperuser)

	_, err := svc.Update(ctx, admin.Id, &dto.UpdateUserRequest{Id: admin.Id, Status: strPtr("blocked")})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Update(ctx, admin.Id, &dto.UpdateUserRequest{Id: admin.Id, Role: strPtr("owner")})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Update(ctx, admin.Id, &dto.UpdateUserRequest{Id: admin.Id, MonthlyTarget: intPtr(-1)})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Update(ctx, admin.Id, &dto.UpdateUserRequest{Id: uuid.New(), Role: strPtr("annotator")})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestLoadSession(t *testing.T) {
	db := newMemoryDB()
	svc := NewUserService(db, stubStats{}, newRecordingPublisher(), logger.NewNopLogger())
	ctx := context.Background()
	ann := db.addUser("ann", entity.UserRoleAnnotator)

	session, err := svc.LoadSession(ctx, ann.Id.String())
	require.NoError(t, err)
	assert.Equal(t, "annotator", session.Role)
	assert.Equal(t, ann.Email, session.Email)

	_, err = svc.LoadSession(ctx, "nope")
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	_, err = svc.LoadSession(ctx, uuid.NewString())
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	require.NoError(t, db.NewUnitOfWork(ctx).UserRepository().UpdateStatus(ctx, ann.Id, entity.UserStatusBlocked))
	_, err = svc.LoadSession(ctx, ann.Id.String())
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestUserListAttachesSummaries(t *testing.T) {
	db := newMemoryDB()
	ann := db.addUser("ann", entity.UserRoleAnnotator)
	db.addUser("con", entity.UserRoleContributor)

	series := map[uuid.UUID]stats.Series{
		ann.Id: {DailyTarget: 12, Summary: stats.Summary{TotalRecords: 40}},
	}
	svc := NewUserService(db, stubStats{series: series}, newRecordingPublisher(), logger.NewNopLogger())

	res, err := svc.List(context.Background(), &dto.ListUsersRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Count)
	require.Len(t, res.Entries, 2)
	for _, row := range res.Entries {
		if row.Id == ann.Id {
			assert.Equal(t, 12, row.DailyTarget)
			assert.Equal(t, int64(40), row.Stats.TotalRecords)
		} else {
			assert.Zero(t, row.DailyTarget)
		}
	}
}

func TestPageBounds(t *testing.T) {
	page, per := pageBounds(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, per)

	_, per = pageBounds(3, 1000)
	assert.Equal(t, 100, per)
}
