package model

import (
	"time"

	"github.com/google/uuid"
)

type Collection struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"type:varchar(63);uniqueIndex;not null"`
	Description string    `gorm:"type:text;not null;default:''"`
	Creator     string    `gorm:"type:varchar(255);not null;default:''"`
	CreatorId   uuid.UUID `gorm:"type:uuid;index"`
	DataType    string    `gorm:"type:varchar(8);not null;default:'sft'"`
	Count       int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	LastUpdated time.Time `gorm:"autoUpdateTime"`
}

func (Collection) TableName() string {
	return "collections"
}
