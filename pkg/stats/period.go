package stats

import (
	"fmt"
	"time"
)

// Period is a calendar month in the reporting timezone.
type Period struct {
	Year     int
	Month    time.Month
	Location *time.Location
}

// ParsePeriod reads "YYYY-MM" or "YYYY-MM-DD"; only the month matters. An
// empty value selects the month containing now.
func ParsePeriod(raw string, now time.Time, loc *time.Location) (Period, error) {
	if raw == "" {
		local := now.In(loc)
		return Period{Year: local.Year(), Month: local.Month(), Location: loc}, nil
	}

	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return Period{Year: t.Year(), Month: t.Month(), Location: loc}, nil
		}
	}
	return Period{}, fmt.Errorf("invalid date %q, expected YYYY-MM or YYYY-MM-DD", raw)
}

// Start is local midnight of the first day of the month.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, p.Location)
}

// End is local midnight of the first day of the following month.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

func (p Period) DaysInMonth() int {
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Days lists the dates of the series: every day from the first of the month
// through the earlier of the month's last day and today.
func (p Period) Days(now time.Time) []string {
	today := now.In(p.Location)
	todayKey := dateKey(today.Year(), today.Month(), today.Day())

	var days []string
	for d := 1; d <= p.DaysInMonth(); d++ {
		key := dateKey(p.Year, p.Month, d)
		if key > todayKey {
			break
		}
		days = append(days, key)
	}
	return days
}

func dateKey(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}
