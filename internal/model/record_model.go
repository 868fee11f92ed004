package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Record is the storage row shared by every collection table. There is no
// TableName: rows are always addressed through db.Table(store).
type Record struct {
	Id             string                        `gorm:"type:char(26);primaryKey"`
	Prompt         string                        `gorm:"type:text;not null"`
	Input          string                        `gorm:"type:text;not null;default:''"`
	Response       string                        `gorm:"type:text;not null;default:''"`
	OutputPositive string                        `gorm:"type:text;not null;default:''"`
	OutputNegative string                        `gorm:"type:text;not null;default:''"`
	History        datatypes.JSONSlice[[]string] `gorm:"type:jsonb;not null;default:'[]'"`
	Creator        string                        `gorm:"type:varchar(255);not null;default:''"`
	CreatorId      uuid.UUID                     `gorm:"type:uuid;not null"`
	CreatedAt      time.Time                     `gorm:"not null"`
	LastUpdated    time.Time                     `gorm:"not null"`
	Status         string                        `gorm:"type:varchar(16);not null;default:'pending'"`
	ApprovedBy     *uuid.UUID                    `gorm:"type:uuid"`
	ApprovedAt     *time.Time
	RejectedBy     *uuid.UUID `gorm:"type:uuid"`
	RejectedAt     *time.Time
	RejectReason   string     `gorm:"type:text;not null;default:''"`
	LastModifiedBy *uuid.UUID `gorm:"type:uuid"`
	Hash           string     `gorm:"type:char(64);not null"`
}
