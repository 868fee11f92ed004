package contract

import (
	"context"
	"time"

	"lamdam-be/pkg/stats"
)

// HourlyQuery selects the records counted for a set of actors. With
// ByEditor the actor is last_modified_by and the time is last_updated,
// otherwise creator_id and created_at.
type HourlyQuery struct {
	Stores   []string
	ActorIDs []string // empty means every actor
	ByEditor bool
	From     time.Time
	To       time.Time
	Timezone string
}

type StoreStatusCount struct {
	Store  string
	Status string
	Count  int64
}

type StatsRepository interface {
	HourlyCounts(ctx context.Context, q HourlyQuery) ([]stats.HourBucket, error)
	StatusCounts(ctx context.Context, stores []string) ([]StoreStatusCount, error)
}
