package stats

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/calendar"
)

// YearComparison lines up one sport's calendar years for comparison.
// AvailableYears always contains CurrentYear.
type YearComparison struct {
	Sport          string                    `json:"sport"`
	CurrentYear    int                       `json:"current_year"`
	AvailableYears []int                     `json:"available_years"`
	Stats          map[int]Bucket            `json:"stats"`
	Series         map[int][]CumulativePoint `json:"series"`
}

// SeasonComparison lines up one sport's winter seasons for comparison.
// AvailableSeasons always contains CurrentSeason.
type SeasonComparison struct {
	Sport            string                       `json:"sport"`
	CurrentSeason    string                       `json:"current_season"`
	AvailableSeasons []string                     `json:"available_seasons"`
	Stats            map[string]Bucket            `json:"stats"`
	Series           map[string][]CumulativePoint `json:"series"`
}

// YearComparisons builds a year comparison per sport in bySportYear. Series
// are computed from c.Activities rather than the grouped buckets, which do
// not keep per-activity detail.
func YearComparisons(c Context, bySportYear []SportYears) (map[string]YearComparison, error) {
	current := c.now().Year()
	out := make(map[string]YearComparison, len(bySportYear))

	for _, sy := range bySportYear {
		cmp := YearComparison{
			Sport:          sy.Sport,
			CurrentYear:    current,
			AvailableYears: []int{},
			Stats:          map[int]Bucket{},
			Series:         map[int][]CumulativePoint{},
		}
		for _, y := range sy.Years {
			cmp.AvailableYears = append(cmp.AvailableYears, y.Year)
			cmp.Stats[y.Year] = y.Stats
		}
		if _, ok := cmp.Stats[current]; !ok {
			cmp.AvailableYears = append(cmp.AvailableYears, current)
			cmp.Stats[current] = Bucket{}
		}
		sort.Ints(cmp.AvailableYears)

		forSport := filter(c.Activities, ofSport(sy.Sport))
		for _, year := range cmp.AvailableYears {
			inYear, err := withinPeriod(forSport, func(t time.Time) bool { return t.Year() == year })
			if err != nil {
				return nil, err
			}
			series, err := CumulativeSeries(inYear, calendar.DayOfYear)
			if err != nil {
				return nil, err
			}
			cmp.Series[year] = series
		}

		out[sy.Sport] = cmp
	}
	return out, nil
}

// SeasonComparisons builds a season comparison per winter sport found in
// bySeason, with the same series rules as YearComparisons.
func SeasonComparisons(c Context, bySeason []SeasonStats) (map[string]SeasonComparison, error) {
	current := calendar.CurrentSeason(c.now())
	out := map[string]SeasonComparison{}

	for _, ss := range bySeason {
		for _, sp := range ss.BySport {
			cmp, ok := out[sp.Sport]
			if !ok {
				cmp = SeasonComparison{
					Sport:            sp.Sport,
					CurrentSeason:    current.Label(),
					AvailableSeasons: []string{},
					Stats:            map[string]Bucket{},
					Series:           map[string][]CumulativePoint{},
				}
			}
			cmp.AvailableSeasons = append(cmp.AvailableSeasons, ss.Season)
			cmp.Stats[ss.Season] = sp.Stats
			out[sp.Sport] = cmp
		}
	}

	for sportType, cmp := range out {
		if _, ok := cmp.Stats[cmp.CurrentSeason]; !ok {
			cmp.AvailableSeasons = append(cmp.AvailableSeasons, cmp.CurrentSeason)
			cmp.Stats[cmp.CurrentSeason] = Bucket{}
		}
		sort.Strings(cmp.AvailableSeasons)

		forSport := filter(c.Activities, ofSport(sportType))
		for _, label := range cmp.AvailableSeasons {
			season, err := calendar.ParseSeason(label)
			if err != nil {
				return nil, err
			}
			inSeason, err := withinPeriod(forSport, season.Contains)
			if err != nil {
				return nil, err
			}
			series, err := CumulativeSeries(inSeason, func(t time.Time) int {
				return calendar.DayOfSeason(t, season.StartYear)
			})
			if err != nil {
				return nil, err
			}
			cmp.Series[label] = series
		}
		out[sportType] = cmp
	}
	return out, nil
}

func withinPeriod(activities []Activity, contains func(time.Time) bool) ([]Activity, error) {
	out := []Activity{}
	for _, a := range activities {
		t, ok, err := a.LocalStart()
		if err != nil {
			return nil, err
		}
		if ok && contains(t) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Comparison kinds accepted by Bundle.CompareProgress
const (
	CompareYears   = "years"
	CompareSeasons = "seasons"
)

var (
	// ErrUnknownComparison is returned for a kind other than years or seasons
	ErrUnknownComparison = errors.New("unknown comparison kind")
	// ErrUnknownSport is returned when the sport has no comparison data
	ErrUnknownSport = errors.New("no comparison data for sport")
)

// ProgressSample is one period's running total as of a day index
type ProgressSample struct {
	Period  string          `json:"period"`
	Current bool            `json:"current"`
	Started bool            `json:"started"`
	Point   CumulativePoint `json:"point"`
}

// CompareProgress samples every available period's series at day, so the
// same point in each year or season can be set side by side.
func (b Bundle) CompareProgress(kind, sportType string, day int) ([]ProgressSample, error) {
	out := []ProgressSample{}

	switch kind {
	case CompareYears:
		cmp, ok := b.YearComparisons[sportType]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSport, sportType)
		}
		for _, year := range cmp.AvailableYears {
			point, started := SampleAt(cmp.Series[year], day)
			out = append(out, ProgressSample{
				Period:  strconv.Itoa(year),
				Current: year == cmp.CurrentYear,
				Started: started,
				Point:   point,
			})
		}

	case CompareSeasons:
		cmp, ok := b.SeasonComparisons[sportType]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSport, sportType)
		}
		for _, label := range cmp.AvailableSeasons {
			point, started := SampleAt(cmp.Series[label], day)
			out = append(out, ProgressSample{
				Period:  label,
				Current: label == cmp.CurrentSeason,
				Started: started,
				Point:   point,
			})
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownComparison, kind)
	}

	return out, nil
}
