package specification

import (
	"time"

	"gorm.io/gorm"
)

type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

type ByRoles struct {
	Roles []string
}

func (s ByRoles) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role IN ?", s.Roles)
}

type ActiveUsers struct{}

func (s ActiveUsers) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", "active")
}

// InactiveSince matches users with no activity after Cutoff. Users that never
// had activity are measured from their registration.
type InactiveSince struct {
	Cutoff time.Time
}

func (s InactiveSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("COALESCE(last_activity, registered_at) <= ?", s.Cutoff)
}
