package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"lamdam-be/internal/config"
	"lamdam-be/internal/dto"
	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/internal/pkg/serverutils"
	"lamdam-be/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOAuthService(db *memoryDB) *oauthService {
	auth := config.AuthConfig{
		JWTSecret:       "test-secret",
		TokenTTL:        time.Hour,
		GoogleClientID:  "client",
		SuperuserEmails: []string{"boss@example.com"},
	}
	return NewOAuthService(db, memory.NewOAuthStateRepository(time.Minute), auth, logger.NewNopLogger()).(*oauthService)
}

func TestLoginURLCarriesSingleUseState(t *testing.T) {
	svc := newTestOAuthService(newMemoryDB())

	_, err := svc.GetLoginURL("github")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	raw, err := svc.GetLoginURL(ProviderGoogle)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Equal(t, "client", u.Query().Get("client_id"))

	assert.True(t, svc.states.Consume(state, ProviderGoogle))
	assert.False(t, svc.states.Consume(state, ProviderGoogle))
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	svc := newTestOAuthService(newMemoryDB())

	_, err := svc.HandleCallback(context.Background(), ProviderGoogle, "forged", "code")
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestUpsertUser(t *testing.T) {
	db := newMemoryDB()
	svc := newTestOAuthService(db)
	ctx := context.Background()

	user, err := svc.upsertUser(ctx, &dto.OAuthUserInfo{Email: " New@Example.com ", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, entity.UserRoleContributor, user.Role)
	assert.Equal(t, entity.UserStatusActive, user.Status)

	again, err := svc.upsertUser(ctx, &dto.OAuthUserInfo{Email: "new@example.com", Name: "Renamed", Picture: "pic"})
	require.NoError(t, err)
	assert.Equal(t, user.Id, again.Id)
	assert.Equal(t, "Renamed", again.Name)
	assert.Equal(t, "pic", again.Image)

	boss, err := svc.upsertUser(ctx, &dto.OAuthUserInfo{Email: "boss@example.com", Name: "Boss"})
	require.NoError(t, err)
	assert.Equal(t, entity.UserRoleSuperuser, boss.Role)

	_, err = svc.upsertUser(ctx, &dto.OAuthUserInfo{Name: "No Mail"})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestUpsertPromotesListedSuperuser(t *testing.T) {
	db := newMemoryDB()
	svc := newTestOAuthService(db)
	existing := db.addUser("boss", entity.UserRoleAnnotator)

	user, err := svc.upsertUser(context.Background(), &dto.OAuthUserInfo{Email: existing.Email})
	require.NoError(t, err)
	assert.Equal(t, entity.UserRoleSuperuser, user.Role)
	assert.Equal(t, entity.UserRoleSuperuser, db.users[existing.Id].Role)
}

func TestIssueTokenRoundTrip(t *testing.T) {
	db := newMemoryDB()
	svc := newTestOAuthService(db)
	user := db.addUser("ann", entity.UserRoleAnnotator)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	userID, role, err := serverutils.ParseToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.Id.String(), userID)
	assert.Equal(t, "annotator", role)

	_, _, err = serverutils.ParseToken(token, "other-secret")
	assert.Error(t, err)
}
