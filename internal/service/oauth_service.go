package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"lamdam-be/internal/config"
	"lamdam-be/internal/dto"
	"lamdam-be/internal/entity"
	"lamdam-be/internal/mapper"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/internal/repository/memory"
	"lamdam-be/internal/repository/specification"
	"lamdam-be/internal/repository/unitofwork"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	ProviderGoogle = "google"

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type IOAuthService interface {
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider, state, code string) (*dto.OAuthCallbackResult, error)
	// IssueToken signs a session token for the user.
	IssueToken(user *entity.User) (string, error)
}

type oauthService struct {
	uowFactory unitofwork.RepositoryFactory
	states     *memory.OAuthStateRepository
	googleConf *oauth2.Config
	auth       config.AuthConfig
	logger     logger.ILogger
	// fetchProfile is replaced in tests.
	fetchProfile func(ctx context.Context, token *oauth2.Token) (*dto.OAuthUserInfo, error)
}

func NewOAuthService(
	uowFactory unitofwork.RepositoryFactory,
	states *memory.OAuthStateRepository,
	auth config.AuthConfig,
	logger logger.ILogger,
) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     auth.GoogleClientID,
		ClientSecret: auth.GoogleClientSecret,
		RedirectURL:  auth.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	s := &oauthService{
		uowFactory: uowFactory,
		states:     states,
		googleConf: conf,
		auth:       auth,
		logger:     logger,
	}
	s.fetchProfile = s.fetchGoogleProfile
	return s
}

func (s *oauthService) GetLoginURL(provider string) (string, error) {
	if provider != ProviderGoogle {
		return "", apperror.Validation("unsupported provider %q", provider)
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", apperror.Internal(err, "generate oauth state")
	}
	state := base64.URLEncoding.EncodeToString(b)
	s.states.Save(state, provider)

	return s.googleConf.AuthCodeURL(state), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider, state, code string) (*dto.OAuthCallbackResult, error) {
	if provider != ProviderGoogle {
		return nil, apperror.Validation("unsupported provider %q", provider)
	}
	if !s.states.Consume(state, provider) {
		return nil, apperror.Unauthorized("invalid or expired oauth state")
	}

	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("OAUTH", "Code exchange failed", map[string]interface{}{"error": err.Error()})
		return nil, apperror.Unauthorized("code exchange failed")
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, apperror.Internal(err, "fetch %s profile", provider)
	}

	user, err := s.upsertUser(ctx, profile)
	if err != nil {
		return nil, err
	}
	if user.Status == entity.UserStatusBlocked {
		return nil, apperror.Forbidden("account is blocked")
	}

	signed, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &dto.OAuthCallbackResult{Token: signed, User: mapper.UserToResponse(user)}, nil
}

func (s *oauthService) fetchGoogleProfile(ctx context.Context, token *oauth2.Token) (*dto.OAuthUserInfo, error) {
	resp, err := s.googleConf.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get user info: unexpected status %d", resp.StatusCode)
	}

	var info dto.OAuthUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

// upsertUser returns the user registered under the profile email, creating it
// on first sign in. Emails listed as superusers are promoted on every sign in.
func (s *oauthService) upsertUser(ctx context.Context, profile *dto.OAuthUserInfo) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return nil, apperror.Unauthorized("identity provider returned no email")
	}
	isSuperuser := slices.Contains(s.auth.SuperuserEmails, email)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, apperror.Internal(err, "load user %s", email)
	}

	if user == nil {
		role := entity.UserRoleContributor
		if isSuperuser {
			role = entity.UserRoleSuperuser
		}
		now := time.Now()
		user = &entity.User{
			Id:           uuid.New(),
			Name:         profile.Name,
			Email:        email,
			Image:        profile.Picture,
			Status:       entity.UserStatusActive,
			Role:         role,
			RegisteredAt: now,
			LastActivity: &now,
		}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			if apperror.Is(err, apperror.KindConflict) {
				// A concurrent callback registered the same email first.
				return s.reload(ctx, email)
			}
			return nil, apperror.Internal(err, "create user %s", email)
		}
		s.logger.Info("OAUTH", "User registered", map[string]interface{}{"user_id": user.Id, "email": email, "role": role})
		return user, nil
	}

	changed := false
	if profile.Name != "" && profile.Name != user.Name {
		user.Name = profile.Name
		changed = true
	}
	if profile.Picture != "" && profile.Picture != user.Image {
		user.Image = profile.Picture
		changed = true
	}
	if isSuperuser && user.Role != entity.UserRoleSuperuser {
		user.Role = entity.UserRoleSuperuser
		changed = true
	}
	if changed {
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return nil, apperror.Internal(err, "update user %s", email)
		}
	}
	return user, nil
}

func (s *oauthService) reload(ctx context.Context, email string) (*entity.User, error) {
	user, err := s.uowFactory.NewUnitOfWork(ctx).UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, apperror.Internal(err, "load user %s", email)
	}
	if user == nil {
		return nil, apperror.Internal(fmt.Errorf("user %s vanished after conflict", email), "load user")
	}
	return user, nil
}

func (s *oauthService) IssueToken(user *entity.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"role":    string(user.Role),
		"exp":     time.Now().Add(s.auth.TokenTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.auth.JWTSecret))
	if err != nil {
		return "", apperror.Internal(err, "sign session token")
	}
	return signed, nil
}
