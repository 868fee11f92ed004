package mapper

import (
	"lamdam-be/internal/dto"
	"lamdam-be/internal/entity"

	"github.com/google/uuid"
)

// RecordToResponse converts a record of the given collection to its API shape
func RecordToResponse(r *entity.Record, collectionId uuid.UUID) *dto.RecordResponse {
	if r == nil {
		return nil
	}

	res := &dto.RecordResponse{
		Id:           r.Id,
		CollectionId: collectionId,
		DataType:     string(r.DataType()),
		Prompt:       r.Prompt,
		Input:        r.Input,
		History:      make([][2]string, 0, len(r.History)),
		Creator:      r.Creator,
		CreatorId:    r.CreatorId,
		CreatedAt:    r.CreatedAt,
		LastUpdated:  r.LastUpdated,
		Status:       string(r.Status),
		Meta: dto.RecordMetaResponse{
			ApprovedBy:     r.Meta.ApprovedBy,
			ApprovedAt:     r.Meta.ApprovedAt,
			RejectedBy:     r.Meta.RejectedBy,
			RejectedAt:     r.Meta.RejectedAt,
			RejectReason:   r.Meta.RejectReason,
			LastModifiedBy: r.Meta.LastModifiedBy,
		},
		Hash: r.Hash,
	}
	for _, turn := range r.History {
		res.History = append(res.History, [2]string(turn))
	}

	switch out := r.Output.(type) {
	case entity.RMOutput:
		pos, neg := out.Positive, out.Negative
		res.OutputPositive = &pos
		res.OutputNegative = &neg
	case entity.SFTOutput:
		resp := out.Response
		res.Response = &resp
	}
	return res
}

// RecordsToResponse converts multiple records
func RecordsToResponse(records []*entity.Record, collectionId uuid.UUID) []*dto.RecordResponse {
	res := make([]*dto.RecordResponse, 0, len(records))
	for _, r := range records {
		res = append(res, RecordToResponse(r, collectionId))
	}
	return res
}

// RecordToAlpaca converts a record to the export interchange shape
func RecordToAlpaca(r *entity.Record) dto.AlpacaRecord {
	history := make([][]string, 0, len(r.History))
	for _, turn := range r.History {
		history = append(history, []string{turn[0], turn[1]})
	}

	var output dto.AlpacaOutput
	if r.Output != nil {
		output = dto.AlpacaOutput(r.Output.Texts())
	}

	return dto.AlpacaRecord{
		Instruction: r.Prompt,
		Input:       r.Input,
		Output:      output,
		History:     history,
	}
}

// HistoryFromPairs converts request history pairs. Pairs are validated to
// have exactly two elements before they get here.
func HistoryFromPairs(pairs [][]string) []entity.Turn {
	history := make([]entity.Turn, 0, len(pairs))
	for _, p := range pairs {
		var turn entity.Turn
		copy(turn[:], p)
		history = append(history, turn)
	}
	return history
}

// CollectionToResponse converts entity to response DTO
func CollectionToResponse(c *entity.Collection) *dto.CollectionResponse {
	if c == nil {
		return nil
	}
	return &dto.CollectionResponse{
		Id:          c.Id,
		Name:        c.Name,
		Description: c.Description,
		Creator:     c.Creator,
		CreatorId:   c.CreatorId,
		CreatedAt:   c.CreatedAt,
		LastUpdated: c.LastUpdated,
		Count:       c.Count,
		Meta:        dto.CollectionMeta{DataType: string(c.DataType)},
	}
}

func CollectionsToResponse(cols []*entity.Collection) []*dto.CollectionResponse {
	res := make([]*dto.CollectionResponse, 0, len(cols))
	for _, c := range cols {
		res = append(res, CollectionToResponse(c))
	}
	return res
}

// UserToResponse converts entity to response DTO
func UserToResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		Id:           u.Id,
		Name:         u.Name,
		Email:        u.Email,
		Image:        u.Image,
		Status:       string(u.Status),
		Role:         string(u.Role),
		Meta:         dto.UserMeta{MonthlyTarget: u.MonthlyTarget},
		RegisteredAt: u.RegisteredAt,
		LastActivity: u.LastActivity,
	}
}
