package stats

import (
	"fmt"
	"sort"

	"github.com/joshdurbin/strava-season-stats/internal/geo"
	"github.com/joshdurbin/strava-season-stats/internal/sport"
)

// LocationKind selects a per-location view
type LocationKind string

const (
	// LocationResort groups lift-served resort days by resort
	LocationResort LocationKind = "resort"
	// LocationBackcountry groups backcountry tours by zone or region
	LocationBackcountry LocationKind = "backcountry"
	// LocationPeak groups backcountry tours by matched peak
	LocationPeak LocationKind = "peak"
)

// UnknownRegion names backcountry tours with no match and no location hints
const UnknownRegion = "Unknown"

// Matches holds the prefetched matcher output keyed by activity id
type Matches struct {
	Resorts map[int64]geo.Resort
	Peaks   map[int64]geo.Peak
}

// LocationStats is the bucket for one named location, with drill-down rows
type LocationStats struct {
	Name  string `json:"name"`
	Stats Bucket `json:"stats"`
}

// SeasonLocations is the per-location breakdown of one winter season
type SeasonLocations struct {
	Season    string          `json:"season"`
	Locations []LocationStats `json:"locations"`
}

// locationName returns the group an activity belongs to for kind, or
// ok=false when the activity is not part of that view.
func locationName(a Activity, m Matches, kind LocationKind) (string, bool) {
	switch kind {
	case LocationResort:
		r, ok := m.Resorts[a.ID]
		if !ok || r.IsBackcountry() {
			return "", false
		}
		return r.Name, true

	case LocationBackcountry:
		if !sport.IsBackcountry(a.SportType) {
			return "", false
		}
		if r, ok := m.Resorts[a.ID]; ok {
			if r.IsBackcountry() {
				return r.Name, true
			}
			return fmt.Sprintf("%s area", r.Name), true
		}
		switch {
		case a.LocationState != "":
			return a.LocationState, true
		case a.LocationCountry != "":
			return a.LocationCountry, true
		}
		return UnknownRegion, true

	case LocationPeak:
		p, ok := m.Peaks[a.ID]
		if !ok {
			return "", false
		}
		return p.Name, true
	}
	return "", false
}

// GroupByLocation buckets activities per location for kind. Locations are
// ordered by activity count descending, then by name.
func GroupByLocation(activities []Activity, m Matches, kind LocationKind) ([]LocationStats, error) {
	order, groups, err := partition(activities, func(a Activity) (string, bool, error) {
		name, ok := locationName(a, m, kind)
		return name, ok, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]LocationStats, 0, len(order))
	for _, name := range order {
		b, err := NewBucket(groups[name], true)
		if err != nil {
			return nil, err
		}
		out = append(out, LocationStats{Name: name, Stats: b})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Stats.TotalActivities != out[j].Stats.TotalActivities {
			return out[i].Stats.TotalActivities > out[j].Stats.TotalActivities
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// LocationsBySeason applies GroupByLocation within each winter season.
// Seasons with no activity in the view are omitted.
func LocationsBySeason(activities []Activity, m Matches, kind LocationKind) ([]SeasonLocations, error) {
	winter := filter(activities, func(a Activity) bool { return sport.IsWinter(a.SportType) })
	order, groups, err := partition(winter, seasonKey)
	if err != nil {
		return nil, err
	}
	sort.Strings(order)

	out := []SeasonLocations{}
	for _, label := range order {
		locations, err := GroupByLocation(groups[label], m, kind)
		if err != nil {
			return nil, err
		}
		if len(locations) == 0 {
			continue
		}
		out = append(out, SeasonLocations{Season: label, Locations: locations})
	}
	return out, nil
}
