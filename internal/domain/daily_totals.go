package domain

import "time"

// DailyTotals maps each metric to the amount consumed on one day.
type DailyTotals map[MetricType]float64

// Get returns the total for metric (0 when nothing was logged).
func (d DailyTotals) Get(metric MetricType) float64 {
	return d[metric]
}

// DayBounds returns the half-open window [start, end) of the calendar day
// containing t in loc. A nil loc means UTC. The end is midnight of the next
// calendar day, so DST days are 23 or 25 hours long.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
	return start, end
}

// AggregateDay sums the consumed totals of every entry logged on day's calendar
// date in loc. Mandatory macros are always present; optional metrics appear once
// any entry of the day carries them.
func AggregateDay(entries []*NutritionEntry, day time.Time, loc *time.Location) DailyTotals {
	start, end := DayBounds(day, loc)
	totals := make(DailyTotals, len(MandatoryMetrics))
	for _, m := range MandatoryMetrics {
		totals[m] = 0
	}
	for _, e := range entries {
		if e == nil || e.LoggedAt.Before(start) || !e.LoggedAt.Before(end) {
			continue
		}
		for m, v := range e.Totals() {
			totals[m] += v
		}
	}
	return totals
}
