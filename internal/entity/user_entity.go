package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string
type UserStatus string

const (
	UserRoleAnnotator   UserRole = "annotator"
	UserRoleCorrector   UserRole = "corrector"
	UserRoleSuperuser   UserRole = "superuser"
	UserRoleContributor UserRole = "contributor"

	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAnnotator, UserRoleCorrector, UserRoleSuperuser, UserRoleContributor:
		return true
	}
	return false
}

// SeesAllRecords reports whether the role may read records that are neither
// its own nor approved.
func (r UserRole) SeesAllRecords() bool {
	return r == UserRoleCorrector || r == UserRoleSuperuser
}

// CanModerate reports whether the role may approve or reject records.
func (r UserRole) CanModerate() bool {
	return r.SeesAllRecords()
}

// MeasuredOnEdits reports whether productivity for the role is counted from
// the records it last modified rather than the records it created.
func (r UserRole) MeasuredOnEdits() bool {
	return r == UserRoleCorrector
}

func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusBlocked
}

type User struct {
	Id            uuid.UUID
	Name          string
	Email         string
	Image         string
	Status        UserStatus
	Role          UserRole
	MonthlyTarget int
	RegisteredAt  time.Time
	LastActivity  *time.Time
}

// InactiveSince reports whether the user has not been active since cutoff.
// Users that never had any activity are measured from registration.
func (u *User) InactiveSince(cutoff time.Time) bool {
	last := u.RegisteredAt
	if u.LastActivity != nil {
		last = *u.LastActivity
	}
	return !last.After(cutoff)
}
