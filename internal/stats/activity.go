// Package stats folds activities into the rollups behind the season report:
// totals by sport, calendar year and winter season, per-location breakdowns
// and cumulative series for period-over-period comparison.
//
// Every function here is a pure function of its inputs. Match lookups are
// prefetched once into a Context and passed explicitly.
package stats

import (
	"fmt"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/calendar"
	"github.com/joshdurbin/strava-season-stats/internal/db"
	"github.com/joshdurbin/strava-season-stats/internal/geo"
)

// Activity is the read-only view of a stored activity. Raw units: meters,
// seconds, kilocalories. Missing values are zero.
type Activity struct {
	ID              int64
	Name            string
	SportType       string
	StartDateLocal  string
	Distance        float64
	ElevationGain   float64
	MovingTime      int64
	Calories        float64
	Start           *geo.Point
	LocationState   string
	LocationCountry string
}

// ActivityFromRow maps a database row onto an Activity.
func ActivityFromRow(row db.Activity) Activity {
	sportType := row.SportType.String
	if sportType == "" {
		// older uploads only carry the legacy type field
		sportType = row.Type.String
	}
	return Activity{
		ID:              row.ID,
		Name:            row.Name,
		SportType:       sportType,
		StartDateLocal:  row.StartDateLocal.String,
		Distance:        row.Distance.Float64,
		ElevationGain:   row.TotalElevationGain.Float64,
		MovingTime:      row.MovingTime.Int64,
		Calories:        row.Calories.Float64,
		Start:           row.StartPoint(),
		LocationState:   row.LocationState.String,
		LocationCountry: row.LocationCountry.String,
	}
}

// LocalStart parses the local start timestamp. ok is false when the
// activity has no date; a malformed date is an error naming the activity.
func (a Activity) LocalStart() (time.Time, bool, error) {
	t, ok, err := calendar.ParseLocal(a.StartDateLocal)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("activity %d: %w", a.ID, err)
	}
	return t, ok, nil
}

func filter(activities []Activity, keep func(Activity) bool) []Activity {
	out := []Activity{}
	for _, a := range activities {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func ofSport(sportType string) func(Activity) bool {
	return func(a Activity) bool { return a.SportType == sportType }
}
