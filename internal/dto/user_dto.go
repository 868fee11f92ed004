package dto

import (
	"time"

	"lamdam-be/pkg/stats"

	"github.com/google/uuid"
)

type UserMeta struct {
	MonthlyTarget int `json:"monthlyTarget"`
}

type UserResponse struct {
	Id           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Image        string     `json:"image"`
	Status       string     `json:"status"`
	Role         string     `json:"role"`
	Meta         UserMeta   `json:"meta"`
	RegisteredAt time.Time  `json:"registeredAt"`
	LastActivity *time.Time `json:"lastActivity"`
}

// UserWithStats is a listing row: the user plus the summary of the current
// month.
type UserWithStats struct {
	UserResponse
	DailyTarget int           `json:"dailyTarget"`
	Stats       stats.Summary `json:"stats"`
}

type ListUsersRequest struct {
	Page    int    `query:"page"`
	PerPage int    `query:"perPage"`
	Date    string `query:"date"`
}

type ListUsersResponse struct {
	Entries []*UserWithStats `json:"entries"`
	Count   int64            `json:"count"`
}

// UpdateUserRequest only touches the fields that are present.
type UpdateUserRequest struct {
	Id            uuid.UUID
	Status        *string `json:"status" validate:"omitempty,oneof=active blocked"`
	Role          *string `json:"role" validate:"omitempty,oneof=annotator corrector superuser contributor"`
	MonthlyTarget *int    `json:"monthlyTarget" validate:"omitempty,min=0"`
}

// ActivityMessage is published on the in-process activity topic whenever a
// user does something that counts as activity.
type ActivityMessage struct {
	UserId uuid.UUID `json:"user_id"`
	At     time.Time `json:"at"`
}

// OAuthUserInfo is the profile returned by the identity provider.
type OAuthUserInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type OAuthCallbackResult struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}
