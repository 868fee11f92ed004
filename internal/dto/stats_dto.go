package dto

import (
	"lamdam-be/pkg/stats"

	"github.com/google/uuid"
)

type StatsSeriesRequest struct {
	Date string `query:"date"`
}

type UserStatsSeriesResponse struct {
	UserId uuid.UUID `json:"userId"`
	Role   string    `json:"role"`
	stats.Series
}

type CollectionStatusStats struct {
	CollectionId uuid.UUID `json:"collectionId"`
	Name         string    `json:"name"`
	DataType     string    `json:"dataType"`
	Pending      int64     `json:"pending"`
	Approved     int64     `json:"approved"`
	Rejected     int64     `json:"rejected"`
	Total        int64     `json:"total"`
}

type OrgStatsResponse struct {
	Collections []*CollectionStatusStats `json:"collections"`
	Series      stats.Series             `json:"series"`
}
