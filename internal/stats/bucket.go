package stats

import (
	"github.com/joshdurbin/strava-season-stats/internal/calendar"
	"github.com/joshdurbin/strava-season-stats/internal/units"
)

// Bucket is the aggregate of a group of activities
type Bucket struct {
	TotalActivities    int               `json:"total_activities"`
	TotalDays          int               `json:"total_days"`
	TotalDistanceMiles float64           `json:"total_distance_miles"`
	TotalElevationFeet int64             `json:"total_elevation_feet"`
	TotalTimeHours     float64           `json:"total_time_hours"`
	TotalCalories      int64             `json:"total_calories"`
	Activities         []ActivitySummary `json:"activities,omitempty"`
}

// ActivitySummary is the per-activity drill-down row
type ActivitySummary struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Date          string  `json:"date"` // YYYY-MM-DD, empty when unknown
	ElevationFeet int64   `json:"elevation_feet"`
	Hours         float64 `json:"hours"`
	Miles         float64 `json:"miles"`
	Calories      int64   `json:"calories"`
}

// totals accumulates raw units; conversion happens once in bucket()
type totals struct {
	count     int
	meters    float64
	elevation float64
	seconds   int64
	kcal      float64
}

func (t *totals) add(a Activity) {
	t.count++
	t.meters += a.Distance
	t.elevation += a.ElevationGain
	t.seconds += a.MovingTime
	t.kcal += a.Calories
}

func (t totals) bucket(days int) Bucket {
	return Bucket{
		TotalActivities:    t.count,
		TotalDays:          days,
		TotalDistanceMiles: units.Miles(t.meters),
		TotalElevationFeet: units.Feet(t.elevation),
		TotalTimeHours:     units.Hours(t.seconds),
		TotalCalories:      units.Calories(t.kcal),
	}
}

// NewBucket folds activities into a Bucket. Activities without a date are
// counted in the totals but not in TotalDays.
func NewBucket(activities []Activity, includeSummaries bool) (Bucket, error) {
	var t totals
	days := map[string]struct{}{}
	var summaries []ActivitySummary
	if includeSummaries {
		summaries = make([]ActivitySummary, 0, len(activities))
	}

	for _, a := range activities {
		start, ok, err := a.LocalStart()
		if err != nil {
			return Bucket{}, err
		}
		t.add(a)

		date := ""
		if ok {
			date = calendar.DateKey(start)
			days[date] = struct{}{}
		}
		if includeSummaries {
			summaries = append(summaries, ActivitySummary{
				ID:            a.ID,
				Name:          a.Name,
				Date:          date,
				ElevationFeet: units.Feet(a.ElevationGain),
				Hours:         units.ActivityHours(a.MovingTime),
				Miles:         units.Miles(a.Distance),
				Calories:      units.Calories(a.Calories),
			})
		}
	}

	b := t.bucket(len(days))
	b.Activities = summaries
	return b, nil
}

// UniqueDays counts the distinct local calendar dates among activities.
func UniqueDays(activities []Activity) (int, error) {
	days := map[string]struct{}{}
	for _, a := range activities {
		start, ok, err := a.LocalStart()
		if err != nil {
			return 0, err
		}
		if ok {
			days[calendar.DateKey(start)] = struct{}{}
		}
	}
	return len(days), nil
}
