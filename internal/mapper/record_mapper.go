package mapper

import (
	"lamdam-be/internal/entity"
	"lamdam-be/internal/model"

	"gorm.io/datatypes"
)

// RecordMapper converts between the flat storage row and the record union.
// The data type of the owning collection decides which output columns apply.
type RecordMapper struct{}

func NewRecordMapper() *RecordMapper {
	return &RecordMapper{}
}

func (m *RecordMapper) ToEntity(r *model.Record, dataType entity.DataType) *entity.Record {
	if r == nil {
		return nil
	}

	var output entity.Output
	if dataType == entity.DataTypeRM {
		output = entity.RMOutput{Positive: r.OutputPositive, Negative: r.OutputNegative}
	} else {
		output = entity.SFTOutput{Response: r.Response}
	}

	history := make([]entity.Turn, 0, len(r.History))
	for _, pair := range r.History {
		var turn entity.Turn
		copy(turn[:], pair)
		history = append(history, turn)
	}

	return &entity.Record{
		Id:          r.Id,
		Prompt:      r.Prompt,
		Input:       r.Input,
		Output:      output,
		History:     history,
		Creator:     r.Creator,
		CreatorId:   r.CreatorId,
		CreatedAt:   r.CreatedAt,
		LastUpdated: r.LastUpdated,
		Status:      entity.RecordStatus(r.Status),
		Meta: entity.RecordMeta{
			ApprovedBy:     r.ApprovedBy,
			ApprovedAt:     r.ApprovedAt,
			RejectedBy:     r.RejectedBy,
			RejectedAt:     r.RejectedAt,
			RejectReason:   r.RejectReason,
			LastModifiedBy: r.LastModifiedBy,
		},
		Hash: r.Hash,
	}
}

func (m *RecordMapper) ToModel(r *entity.Record) *model.Record {
	if r == nil {
		return nil
	}

	row := &model.Record{
		Id:             r.Id,
		Prompt:         r.Prompt,
		Input:          r.Input,
		History:        make(datatypes.JSONSlice[[]string], 0, len(r.History)),
		Creator:        r.Creator,
		CreatorId:      r.CreatorId,
		CreatedAt:      r.CreatedAt,
		LastUpdated:    r.LastUpdated,
		Status:         string(r.Status),
		ApprovedBy:     r.Meta.ApprovedBy,
		ApprovedAt:     r.Meta.ApprovedAt,
		RejectedBy:     r.Meta.RejectedBy,
		RejectedAt:     r.Meta.RejectedAt,
		RejectReason:   r.Meta.RejectReason,
		LastModifiedBy: r.Meta.LastModifiedBy,
		Hash:           r.Hash,
	}

	switch out := r.Output.(type) {
	case entity.SFTOutput:
		row.Response = out.Response
	case entity.RMOutput:
		row.OutputPositive = out.Positive
		row.OutputNegative = out.Negative
	}

	for _, turn := range r.History {
		row.History = append(row.History, []string{turn[0], turn[1]})
	}
	return row
}

func (m *RecordMapper) ToEntities(rows []*model.Record, dataType entity.DataType) []*entity.Record {
	entities := make([]*entity.Record, len(rows))
	for i, r := range rows {
		entities[i] = m.ToEntity(r, dataType)
	}
	return entities
}
