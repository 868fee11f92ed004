package entity

import (
	"time"

	"github.com/google/uuid"
)

type DataType string

const (
	DataTypeSFT DataType = "sft"
	DataTypeRM  DataType = "rm"
)

func (d DataType) Valid() bool {
	return d == DataTypeSFT || d == DataTypeRM
}

type Collection struct {
	Id          uuid.UUID
	Name        string
	Description string
	Creator     string
	CreatorId   uuid.UUID
	CreatedAt   time.Time
	LastUpdated time.Time
	Count       int64
	DataType    DataType
}
