package stats

import (
	"sort"

	"github.com/joshdurbin/strava-season-stats/internal/calendar"
	"github.com/joshdurbin/strava-season-stats/internal/sport"
)

// SportStats is the bucket for one sport tag
type SportStats struct {
	Sport string `json:"sport"`
	Stats Bucket `json:"stats"`
}

// YearStats is the bucket for one calendar year
type YearStats struct {
	Year  int    `json:"year"`
	Stats Bucket `json:"stats"`
}

// SportYears is one sport's per-year breakdown
type SportYears struct {
	Sport string      `json:"sport"`
	Years []YearStats `json:"years"`
}

// SeasonStats is one winter season with its per-sport breakdown
type SeasonStats struct {
	Season  string       `json:"season"`
	Stats   Bucket       `json:"stats"`
	BySport []SportStats `json:"by_sport"`
}

// partition groups activities by key, returning keys in first-appearance
// order. Activities for which key reports ok=false are left out.
func partition[K comparable](activities []Activity, key func(Activity) (K, bool, error)) ([]K, map[K][]Activity, error) {
	order := []K{}
	groups := map[K][]Activity{}
	for _, a := range activities {
		k, ok, err := key(a)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], a)
	}
	return order, groups, nil
}

func sportKey(a Activity) (string, bool, error) {
	return a.SportType, true, nil
}

func yearKey(a Activity) (int, bool, error) {
	t, ok, err := a.LocalStart()
	if err != nil || !ok {
		return 0, false, err
	}
	return t.Year(), true, nil
}

func seasonKey(a Activity) (string, bool, error) {
	t, ok, err := a.LocalStart()
	if err != nil || !ok {
		return "", false, err
	}
	return calendar.SeasonFor(t).Label(), true, nil
}

// GroupBySport buckets activities per sport tag, most active sport first.
// Sports with equal counts keep the order they first appear in.
func GroupBySport(activities []Activity) ([]SportStats, error) {
	order, groups, err := partition(activities, sportKey)
	if err != nil {
		return nil, err
	}

	out := make([]SportStats, 0, len(order))
	for _, s := range order {
		b, err := NewBucket(groups[s], false)
		if err != nil {
			return nil, err
		}
		out = append(out, SportStats{Sport: s, Stats: b})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Stats.TotalActivities > out[j].Stats.TotalActivities
	})
	return out, nil
}

// GroupByYear buckets activities per local calendar year, ascending.
func GroupByYear(activities []Activity) ([]YearStats, error) {
	order, groups, err := partition(activities, yearKey)
	if err != nil {
		return nil, err
	}
	sort.Ints(order)

	out := make([]YearStats, 0, len(order))
	for _, y := range order {
		b, err := NewBucket(groups[y], false)
		if err != nil {
			return nil, err
		}
		out = append(out, YearStats{Year: y, Stats: b})
	}
	return out, nil
}

// GroupBySportAndYear buckets per sport (alphabetical) then per year (ascending).
func GroupBySportAndYear(activities []Activity) ([]SportYears, error) {
	order, groups, err := partition(activities, sportKey)
	if err != nil {
		return nil, err
	}
	sort.Strings(order)

	out := make([]SportYears, 0, len(order))
	for _, s := range order {
		years, err := GroupByYear(groups[s])
		if err != nil {
			return nil, err
		}
		out = append(out, SportYears{Sport: s, Years: years})
	}
	return out, nil
}

// GroupByWinterSeason buckets winter-sport activities per season, ascending.
// Season labels are zero padded so lexical order is chronological.
func GroupByWinterSeason(activities []Activity) ([]SeasonStats, error) {
	winter := filter(activities, func(a Activity) bool { return sport.IsWinter(a.SportType) })
	order, groups, err := partition(winter, seasonKey)
	if err != nil {
		return nil, err
	}
	sort.Strings(order)

	out := make([]SeasonStats, 0, len(order))
	for _, label := range order {
		b, err := NewBucket(groups[label], false)
		if err != nil {
			return nil, err
		}
		bySport, err := GroupBySport(groups[label])
		if err != nil {
			return nil, err
		}
		out = append(out, SeasonStats{Season: label, Stats: b, BySport: bySport})
	}
	return out, nil
}
