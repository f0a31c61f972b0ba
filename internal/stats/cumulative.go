package stats

import (
	"sort"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/calendar"
	"github.com/joshdurbin/strava-season-stats/internal/units"
)

// CumulativePoint is the running total after one activity
type CumulativePoint struct {
	DayIndex   int     `json:"day_index"`
	DateLabel  string  `json:"date_label"`
	Activities int     `json:"activities"`
	Hours      float64 `json:"hours"`
	Miles      float64 `json:"miles"`
	Elevation  int64   `json:"elevation"`
	Calories   int64   `json:"calories"`
}

// DayIndexFunc positions a local date within its period
type DayIndexFunc func(t time.Time) int

// CumulativeSeries sorts activities chronologically and emits one running
// total per activity. Two activities on the same day yield two points with
// the same DayIndex. Activities without a date are skipped.
func CumulativeSeries(activities []Activity, dayIndex DayIndexFunc) ([]CumulativePoint, error) {
	type dated struct {
		at time.Time
		a  Activity
	}

	rows := make([]dated, 0, len(activities))
	for _, a := range activities {
		t, ok, err := a.LocalStart()
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, dated{at: t, a: a})
		}
	}
	// order by local wall clock, ignoring the recorded offsets
	sort.SliceStable(rows, func(i, j int) bool {
		return wallClock(rows[i].at).Before(wallClock(rows[j].at))
	})

	series := make([]CumulativePoint, 0, len(rows))
	var t totals
	for _, r := range rows {
		t.add(r.a)
		series = append(series, CumulativePoint{
			DayIndex:   dayIndex(r.at),
			DateLabel:  calendar.DateLabel(r.at),
			Activities: t.count,
			Hours:      units.Hours(t.seconds),
			Miles:      units.Miles(t.meters),
			Elevation:  units.Feet(t.elevation),
			Calories:   units.Calories(t.kcal),
		})
	}
	return series, nil
}

// SampleAt returns the last point at or before day. ok is false when the
// series has not started by then.
func SampleAt(series []CumulativePoint, day int) (CumulativePoint, bool) {
	i := sort.Search(len(series), func(i int) bool { return series[i].DayIndex > day })
	if i == 0 {
		return CumulativePoint{}, false
	}
	return series[i-1], true
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
