package entity

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

type RecordStatus string

const (
	RecordStatusPending  RecordStatus = "pending"
	RecordStatusApproved RecordStatus = "approved"
	RecordStatusRejected RecordStatus = "rejected"
)

func (s RecordStatus) Valid() bool {
	switch s {
	case RecordStatusPending, RecordStatusApproved, RecordStatusRejected:
		return true
	}
	return false
}

// Output is the data-type specific part of a record. It is either an
// SFTOutput or an RMOutput.
type Output interface {
	DataType() DataType
	Texts() []string
}

type SFTOutput struct {
	Response string
}

func (SFTOutput) DataType() DataType { return DataTypeSFT }
func (o SFTOutput) Texts() []string  { return []string{o.Response} }

type RMOutput struct {
	Positive string
	Negative string
}

func (RMOutput) DataType() DataType { return DataTypeRM }
func (o RMOutput) Texts() []string  { return []string{o.Positive, o.Negative} }

// Turn is one [user, assistant] exchange of the conversation history.
type Turn [2]string

type RecordMeta struct {
	ApprovedBy     *uuid.UUID
	ApprovedAt     *time.Time
	RejectedBy     *uuid.UUID
	RejectedAt     *time.Time
	RejectReason   string
	LastModifiedBy *uuid.UUID
}

type Record struct {
	Id          string
	Prompt      string
	Input       string
	Output      Output
	History     []Turn
	Creator     string
	CreatorId   uuid.UUID
	CreatedAt   time.Time
	LastUpdated time.Time
	Status      RecordStatus
	Meta        RecordMeta
	Hash        string
}

func (r *Record) DataType() DataType {
	if r.Output == nil {
		return DataTypeSFT
	}
	return r.Output.DataType()
}

// ComputeHash returns the hex BLAKE2b-256 digest of the normalised content.
// Records that differ only in surrounding or repeated whitespace hash equal.
func (r *Record) ComputeHash() string {
	h, _ := blake2b.New256(nil)
	write := func(s string) {
		h.Write([]byte(normalizeText(s)))
		h.Write([]byte{0})
	}

	h.Write([]byte(r.DataType()))
	h.Write([]byte{0})
	write(r.Prompt)
	write(r.Input)
	if r.Output != nil {
		for _, t := range r.Output.Texts() {
			write(t)
		}
	}
	for _, turn := range r.History {
		write(turn[0])
		write(turn[1])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Approve stamps the moderation metadata for an approval and clears any
// earlier rejection.
func (r *Record) Approve(by uuid.UUID, at time.Time) {
	r.Status = RecordStatusApproved
	r.Meta.ApprovedBy = &by
	r.Meta.ApprovedAt = &at
	r.Meta.RejectedBy = nil
	r.Meta.RejectedAt = nil
	r.Meta.RejectReason = ""
	r.Meta.LastModifiedBy = &by
	r.LastUpdated = at
}

func (r *Record) Reject(by uuid.UUID, at time.Time, reason string) {
	r.Status = RecordStatusRejected
	r.Meta.RejectedBy = &by
	r.Meta.RejectedAt = &at
	r.Meta.RejectReason = reason
	r.Meta.ApprovedBy = nil
	r.Meta.ApprovedAt = nil
	r.Meta.LastModifiedBy = &by
	r.LastUpdated = at
}

// ResetToPending clears moderation after a content edit.
func (r *Record) ResetToPending(by uuid.UUID, at time.Time) {
	r.Status = RecordStatusPending
	r.Meta = RecordMeta{LastModifiedBy: &by}
	r.LastUpdated = at
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
