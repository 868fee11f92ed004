package serverutils

import (
	"context"
	"fmt"
	"strings"

	"lamdam-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalUserID  = "user_id"
	LocalRole    = "role"
	localSession = "session"
)

// Session is the authenticated caller as seen by handlers.
type Session struct {
	UserID string
	Role   string
	Email  string
}

// SessionLoader resolves the current state of the token's subject. It returns
// a Forbidden error for blocked accounts and NotFound for deleted ones.
type SessionLoader interface {
	LoadSession(ctx context.Context, userID string) (*Session, error)
}

// ParseToken validates an HS256 token and returns its user_id and role claims.
func ParseToken(tokenStr, secret string) (string, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", "", apperror.Unauthorized("Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", apperror.Unauthorized("Invalid claims")
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", "", apperror.Unauthorized("Token missing user_id")
	}
	role, _ := claims["role"].(string)
	return userID, role, nil
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

// NewJwtMiddleware authenticates the bearer token and, when a loader is given,
// refreshes the role from storage so role changes and blocks apply at once.
func NewJwtMiddleware(secret string, loader SessionLoader) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := BearerToken(ctx)
		if tokenStr == "" {
			return apperror.Unauthorized("Missing token")
		}

		userID, role, err := ParseToken(tokenStr, secret)
		if err != nil {
			return err
		}

		session := &Session{UserID: userID, Role: role}
		if loader != nil {
			session, err = loader.LoadSession(ctx.UserContext(), userID)
			if err != nil {
				if apperror.Is(err, apperror.KindNotFound) {
					return apperror.Unauthorized("Unknown user")
				}
				return err
			}
		}

		ctx.Locals(LocalUserID, session.UserID)
		ctx.Locals(LocalRole, session.Role)
		ctx.Locals(localSession, session)
		return ctx.Next()
	}
}

// CurrentSession returns the session stored by the jwt middleware.
func CurrentSession(ctx *fiber.Ctx) Session {
	if s, ok := ctx.Locals(localSession).(*Session); ok && s != nil {
		return *s
	}
	userID, _ := ctx.Locals(LocalUserID).(string)
	role, _ := ctx.Locals(LocalRole).(string)
	return Session{UserID: userID, Role: role}
}

// RequireRoles rejects sessions whose role is not listed.
func RequireRoles(roles ...string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		role := CurrentSession(ctx).Role
		for _, r := range roles {
			if r == role {
				return ctx.Next()
			}
		}
		return apperror.Forbidden("Access denied for role %q", role)
	}
}
