package models

import "time"

// MaxDailyAggregates bounds how many days AggregateDaily returns.
const MaxDailyAggregates = 7

const dayKeyLayout = "2006-01-02"

// DayKey returns the calendar date of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dayKeyLayout)
}

// AggregateDaily groups entries by calendar day in loc.
//
// The result holds at most one aggregate per day, ordered by each day's first
// occurrence in entries, and never more than MaxDailyAggregates. Min and Max run
// over Temperature, so Min <= Max and both lie within that day's readings.
func AggregateDaily(entries []ForecastEntry, loc *time.Location) []DailyAggregate {
	index := make(map[string]int)
	var out []DailyAggregate

	for _, e := range entries {
		key := DayKey(e.Timestamp, loc)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, DailyAggregate{
				Date:  key,
				First: e,
				Min:   e.Temperature,
				Max:   e.Temperature,
			})
			continue
		}
		if e.Temperature < out[i].Min {
			out[i].Min = e.Temperature
		}
		if e.Temperature > out[i].Max {
			out[i].Max = e.Temperature
		}
	}

	if len(out) > MaxDailyAggregates {
		out = out[:MaxDailyAggregates]
	}
	return out
}

// NextEntries returns up to n entries from the head of the forecast.
func NextEntries(entries []ForecastEntry, n int) []ForecastEntry {
	if n < 0 {
		n = 0
	}
	if len(entries) < n {
		n = len(entries)
	}
	return entries[:n]
}
