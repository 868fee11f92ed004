package implementation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lamdam-be/internal/repository/contract"
	"lamdam-be/pkg/stats"

	"gorm.io/gorm"
)

type StatsRepositoryImpl struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) contract.StatsRepository {
	return &StatsRepositoryImpl{db: db}
}

type hourRow struct {
	ActorID string
	Hour    time.Time
	Status  string
	Count   int64
}

// hourlyQuery renders one aggregate per store, bucketed by local hour, glued
// together with UNION ALL. Buckets of the same hour from different stores are
// summed by the caller.
func hourlyQuery(db *gorm.DB, q contract.HourlyQuery) *gorm.DB {
	// every store gets its own statement
	db = db.Session(&gorm.Session{})
	actorCol, timeCol := "creator_id", "created_at"
	if q.ByEditor {
		actorCol, timeCol = "last_modified_by", "last_updated"
	}

	parts := make([]string, 0, len(q.Stores))
	args := make([]interface{}, 0, len(q.Stores))
	for _, store := range q.Stores {
		sub := db.Table(store).
			Select(fmt.Sprintf(
				"%s::text AS actor_id, date_trunc('hour', %s AT TIME ZONE ?) AS hour, status, COUNT(*) AS count",
				actorCol, timeCol), q.Timezone).
			Where(timeCol+" >= ? AND "+timeCol+" < ?", q.From, q.To)
		if len(q.ActorIDs) > 0 {
			sub = sub.Where(actorCol+" IN ?", q.ActorIDs)
		} else {
			sub = sub.Where(actorCol + " IS NOT NULL")
		}
		sub = sub.Group("1, 2, 3")

		parts = append(parts, "(?)")
		args = append(args, sub)
	}
	return db.Raw(strings.Join(parts, " UNION ALL "), args...)
}

func (r *StatsRepositoryImpl) HourlyCounts(ctx context.Context, q contract.HourlyQuery) ([]stats.HourBucket, error) {
	if len(q.Stores) == 0 {
		return nil, nil
	}

	var rows []hourRow
	if err := hourlyQuery(r.db.WithContext(ctx), q).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("hourly counts: %w", err)
	}

	buckets := make([]stats.HourBucket, len(rows))
	for i, row := range rows {
		buckets[i] = stats.HourBucket{
			ActorID: row.ActorID,
			Hour:    row.Hour,
			Status:  row.Status,
			Count:   row.Count,
		}
	}
	return buckets, nil
}

func statusCountQuery(db *gorm.DB, stores []string) *gorm.DB {
	db = db.Session(&gorm.Session{})
	parts := make([]string, 0, len(stores))
	args := make([]interface{}, 0, len(stores))
	for _, store := range stores {
		sub := db.Table(store).
			Select("CAST(? AS text) AS store, status, COUNT(*) AS count", store).
			Group("status")
		parts = append(parts, "(?)")
		args = append(args, sub)
	}
	return db.Raw(strings.Join(parts, " UNION ALL "), args...)
}

func (r *StatsRepositoryImpl) StatusCounts(ctx context.Context, stores []string) ([]contract.StoreStatusCount, error) {
	if len(stores) == 0 {
		return nil, nil
	}

	var rows []contract.StoreStatusCount
	if err := statusCountQuery(r.db.WithContext(ctx), stores).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	return rows, nil
}
