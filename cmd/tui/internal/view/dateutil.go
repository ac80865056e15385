package view

import (
	"time"

	"github.com/MrJamesThe3rd/tally/internal/sale"
)

// Timeframe is a named date range offered by the pickers.
type Timeframe int

const (
	TimeframeToday Timeframe = iota
	TimeframeThisWeek
	TimeframeLastWeek
	TimeframeThisMonth
	TimeframeLastMonth
	TimeframeAll
	TimeframeCustom
)

var timeframeLabels = [...]string{
	TimeframeToday:     "Today",
	TimeframeThisWeek:  "This Week",
	TimeframeLastWeek:  "Last Week",
	TimeframeThisMonth: "This Month",
	TimeframeLastMonth: "Last Month",
	TimeframeAll:       "All Time",
	TimeframeCustom:    "Custom Range",
}

func (t Timeframe) String() string {
	if t < 0 || int(t) >= len(timeframeLabels) {
		return "Unknown"
	}

	return timeframeLabels[t]
}

// mondayOf returns the Monday of the week containing t.
func mondayOf(t time.Time) time.Time {
	back := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -back)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// dateRange returns the first and last day of tf relative to now.
// Ranges that include today end at now.
func dateRange(tf Timeframe, now time.Time) (time.Time, time.Time) {
	switch tf {
	case TimeframeThisWeek:
		return mondayOf(now), now
	case TimeframeLastWeek:
		start := mondayOf(now).AddDate(0, 0, -7)
		return start, start.AddDate(0, 0, 6)
	case TimeframeThisMonth:
		return firstOfMonth(now), now
	case TimeframeLastMonth:
		first := firstOfMonth(now)
		return first.AddDate(0, -1, 0), first.AddDate(0, 0, -1)
	}

	return now, now
}

// rangeFilter builds a sale filter covering whole UTC days from start to end.
func rangeFilter(start, end time.Time) sale.ListFilter {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)

	return sale.ListFilter{StartDate: &from, EndDate: &to}
}
