package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateCollectionRequest struct {
	Name        string `json:"name" validate:"required,max=40"`
	Description string `json:"description"`
	DataType    string `json:"dataType" validate:"required,oneof=sft rm"`
}

type CollectionMeta struct {
	DataType string `json:"dataType"`
}

type CollectionResponse struct {
	Id          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Creator     string         `json:"creator"`
	CreatorId   uuid.UUID      `json:"creatorId"`
	CreatedAt   time.Time      `json:"createdAt"`
	LastUpdated time.Time      `json:"lastUpdated"`
	Count       int64          `json:"count"`
	Meta        CollectionMeta `json:"meta"`
}

type RecountResponse struct {
	Id       uuid.UUID `json:"id"`
	Previous int64     `json:"previous"`
	Count    int64     `json:"count"`
}
