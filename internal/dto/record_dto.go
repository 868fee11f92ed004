package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"lamdam-be/internal/paging"

	"github.com/google/uuid"
)

// ListRecordsRequest is bound from the query string of GET /api/records.
type ListRecordsRequest struct {
	CollectionId string `query:"collectionId"`
	Keyword      string `query:"q"`
	FromId       string `query:"fromId"`
	ToId         string `query:"toId"`
	Status       string `query:"status"`
	Creators     string `query:"creators"`
	Features     string `query:"features"`
	Sort         string `query:"sort"`
}

type RecordMetaResponse struct {
	ApprovedBy     *uuid.UUID `json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time `json:"approvedAt,omitempty"`
	RejectedBy     *uuid.UUID `json:"rejectedBy,omitempty"`
	RejectedAt     *time.Time `json:"rejectedAt,omitempty"`
	RejectReason   string     `json:"rejectReason,omitempty"`
	LastModifiedBy *uuid.UUID `json:"lastModifiedBy,omitempty"`
}

// RecordResponse carries either response (sft) or the output pair (rm).
type RecordResponse struct {
	Id             string             `json:"id"`
	CollectionId   uuid.UUID          `json:"collectionId"`
	DataType       string             `json:"dataType"`
	Prompt         string             `json:"prompt"`
	Input          string             `json:"input"`
	Response       *string            `json:"response,omitempty"`
	OutputPositive *string            `json:"outputPositive,omitempty"`
	OutputNegative *string            `json:"outputNegative,omitempty"`
	History        [][2]string        `json:"history"`
	Creator        string             `json:"creator"`
	CreatorId      uuid.UUID          `json:"creatorId"`
	CreatedAt      time.Time          `json:"createdAt"`
	LastUpdated    time.Time          `json:"lastUpdated"`
	Status         string             `json:"status"`
	Meta           RecordMetaResponse `json:"meta"`
	Hash           string             `json:"hash"`
}

type ListRecordsResponse = paging.Page[*RecordResponse]

// RecordContentRequest is the editable part of a record.
type RecordContentRequest struct {
	Prompt         string     `json:"prompt" validate:"required"`
	Input          string     `json:"input"`
	Response       string     `json:"response"`
	OutputPositive string     `json:"outputPositive"`
	OutputNegative string     `json:"outputNegative"`
	History        [][]string `json:"history" validate:"dive,len=2"`
}

type CreateRecordRequest struct {
	CollectionId uuid.UUID `json:"collectionId" validate:"required"`
	RecordContentRequest
}

type UpdateRecordRequest struct {
	Id           string
	CollectionId uuid.UUID `json:"collectionId" validate:"required"`
	RecordContentRequest
}

type MoveRecordRequest struct {
	Id                 string
	CollectionId       uuid.UUID `json:"collectionId" validate:"required"`
	TargetCollectionId uuid.UUID `json:"targetCollectionId" validate:"required"`
}

type ChangeStatusRequest struct {
	Id           string
	CollectionId uuid.UUID `json:"collectionId" validate:"required"`
	Status       string    `json:"status" validate:"required,oneof=pending approved rejected"`
	RejectReason string    `json:"rejectReason"`
}

type ExportRecordsRequest struct {
	Ids          []string  `json:"ids"`
	CollectionId uuid.UUID `json:"collection_id" validate:"required"`
}

type ImportRecordsRequest struct {
	Records      []AlpacaRecord `json:"records" validate:"required,min=1,dive"`
	CollectionId uuid.UUID      `json:"collection_id" validate:"required"`
}

type ImportRecordsResponse struct {
	Success  bool  `json:"success"`
	Inserted int64 `json:"inserted"`
	Skipped  int64 `json:"skipped"`
}

// AlpacaRecord is the interchange shape used by export and import.
type AlpacaRecord struct {
	Instruction string       `json:"instruction" validate:"required"`
	Input       string       `json:"input"`
	Output      AlpacaOutput `json:"output"`
	History     [][]string   `json:"history" validate:"dive,len=2"`
}

// AlpacaOutput is a single string for sft records and a [positive, negative]
// pair for rm records.
type AlpacaOutput []string

func (o AlpacaOutput) MarshalJSON() ([]byte, error) {
	if len(o) == 1 {
		return json.Marshal(o[0])
	}
	if o == nil {
		return []byte(`""`), nil
	}
	return json.Marshal([]string(o))
}

func (o *AlpacaOutput) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*o = AlpacaOutput{single}
		return nil
	}

	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("output must be a string or an array of strings")
	}
	*o = AlpacaOutput(pair)
	return nil
}

// RecordEvent is the payload of record_changed and record_moderated events.
type RecordEvent struct {
	Action       string          `json:"action"`
	CollectionId uuid.UUID       `json:"collectionId"`
	RecordId     string          `json:"recordId"`
	Status       string          `json:"status,omitempty"`
	ActorId      uuid.UUID       `json:"actorId"`
	Record       *RecordResponse `json:"record,omitempty"`
}
