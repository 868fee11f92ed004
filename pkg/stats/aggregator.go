// Package stats folds hourly record counts into the daily productivity series
// shown on the user and organisation dashboards.
package stats

import (
	"math"
	"time"
)

// HourBucket is one row of the hourly aggregation query. Hour holds the local
// wall clock of the bucket start; its location is irrelevant.
type HourBucket struct {
	ActorID string
	Hour    time.Time
	Status  string
	Count   int64
}

type DayStat struct {
	Date       string `json:"date"`
	Pending    int64  `json:"pending"`
	Approved   int64  `json:"approved"`
	Rejected   int64  `json:"rejected"`
	Total      int64  `json:"total"`
	IsAchieved bool   `json:"isAchieved"`
}

type Summary struct {
	DaysAchieved    int   `json:"daysAchieved"`
	DaysNotAchieved int   `json:"daysNotAchieved"`
	TotalRecords    int64 `json:"totalRecords"`
	PendingRecords  int64 `json:"pendingRecords"`
	ApprovedRecords int64 `json:"approvedRecords"`
	RejectedRecords int64 `json:"rejectedRecords"`
}

// Series is a month of daily stats. The summary counters sit next to the
// series in JSON.
type Series struct {
	Period        string    `json:"period"`
	MonthlyTarget int       `json:"monthlyTarget"`
	DailyTarget   int       `json:"dailyTarget"`
	Days          []DayStat `json:"timeSeries"`
	Summary
}

// Aggregator turns hourly buckets into daily series for a reporting month.
type Aggregator struct {
	loc                 *time.Location
	legacyMidnightShift bool
	now                 func() time.Time
}

func NewAggregator(loc *time.Location, legacyMidnightShift bool) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{loc: loc, legacyMidnightShift: legacyMidnightShift, now: time.Now}
}

// WithClock replaces the clock used to decide where the series stops.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

func (a *Aggregator) Location() *time.Location {
	return a.loc
}

func (a *Aggregator) Period(raw string) (Period, error) {
	return ParsePeriod(raw, a.now(), a.loc)
}

// QueryRange is the half-open timestamp window the hourly query must cover.
// With the midnight shift the first hour of the next month still belongs to
// this month's last day.
func (a *Aggregator) QueryRange(p Period) (time.Time, time.Time) {
	from, to := p.Start(), p.End()
	if a.legacyMidnightShift {
		from = from.Add(time.Hour)
		to = to.Add(time.Hour)
	}
	return from, to
}

// DailyTarget spreads a monthly target evenly over the days of the month.
func DailyTarget(monthlyTarget, daysInMonth int) int {
	if daysInMonth <= 0 {
		return 0
	}
	return int(math.Round(float64(monthlyTarget) / float64(daysInMonth)))
}

func (a *Aggregator) bucketDay(h time.Time) string {
	if a.legacyMidnightShift && h.Hour() == 0 {
		h = h.AddDate(0, 0, -1)
	}
	return dateKey(h.Year(), h.Month(), h.Day())
}

// Series builds the daily series of a single actor. Buckets of other actors
// are not filtered out; pass only the actor's buckets.
func (a *Aggregator) Series(buckets []HourBucket, p Period, monthlyTarget int) Series {
	days := p.Days(a.now())
	index := make(map[string]int, len(days))
	out := Series{
		Period:        p.String(),
		MonthlyTarget: monthlyTarget,
		DailyTarget:   DailyTarget(monthlyTarget, p.DaysInMonth()),
		Days:          make([]DayStat, len(days)),
	}
	for i, d := range days {
		index[d] = i
		out.Days[i].Date = d
	}

	for _, b := range buckets {
		i, ok := index[a.bucketDay(b.Hour)]
		if !ok {
			continue
		}
		day := &out.Days[i]
		switch b.Status {
		case "approved":
			day.Approved += b.Count
		case "rejected":
			day.Rejected += b.Count
		default:
			day.Pending += b.Count
		}
		day.Total += b.Count
	}

	for i := range out.Days {
		day := &out.Days[i]
		day.IsAchieved = day.Total >= int64(out.DailyTarget)
		if day.IsAchieved {
			out.Summary.DaysAchieved++
		} else {
			out.Summary.DaysNotAchieved++
		}
		out.Summary.TotalRecords += day.Total
		out.Summary.PendingRecords += day.Pending
		out.Summary.ApprovedRecords += day.Approved
		out.Summary.RejectedRecords += day.Rejected
	}
	return out
}

// SeriesByActor builds one series per entry of targets, keyed by actor id.
// Actors without buckets get an all-zero series.
func (a *Aggregator) SeriesByActor(buckets []HourBucket, p Period, targets map[string]int) map[string]Series {
	grouped := make(map[string][]HourBucket, len(targets))
	for _, b := range buckets {
		grouped[b.ActorID] = append(grouped[b.ActorID], b)
	}

	out := make(map[string]Series, len(targets))
	for actor, target := range targets {
		out[actor] = a.Series(grouped[actor], p, target)
	}
	return out
}
