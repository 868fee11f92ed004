package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string     `gorm:"type:varchar(255);not null;default:''"`
	Email         string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	Image         string     `gorm:"type:text"`
	Status        string     `gorm:"type:varchar(20);not null;default:'active';index"`
	Role          string     `gorm:"type:varchar(20);not null;default:'contributor';index"`
	MonthlyTarget int        `gorm:"not null;default:0"`
	RegisteredAt  time.Time  `gorm:"autoCreateTime"`
	LastActivity  *time.Time `gorm:"index"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
