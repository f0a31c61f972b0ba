// Package geo matches activity start points against known ski resorts and
// backcountry peaks.
//
// The location catalogue is small (tens of entries), so matching is a
// brute-force scan over every candidate. Each candidate carries its own search
// radius; EffectiveRadius is the only place defaults are applied.
package geo

import (
	"github.com/golang/geo/s2"
)

const (
	// EarthRadiusKm is the sphere radius used for great-circle distances
	EarthRadiusKm = 6371.0

	// DefaultResortRadiusKm applies to resorts with no radius set
	DefaultResortRadiusKm = 5.0
	// DefaultPeakRadiusKm applies to peaks with no radius set
	DefaultPeakRadiusKm = 2.0
)

// Point is a latitude/longitude pair in decimal degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm returns the haversine great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// ResortType distinguishes lift-served resorts from backcountry zones that
// are catalogued as resorts
type ResortType string

const (
	ResortTypeResort      ResortType = "resort"
	ResortTypeBackcountry ResortType = "backcountry"
)

// Location is implemented by Resort and Peak only.
type Location interface {
	LocationID() int64
	LocationName() string
	Coordinates() Point

	radiusKm() float64
	defaultRadiusKm() float64
}

// Resort is a ski area (or named backcountry zone) an activity can start at
type Resort struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Point    Point      `json:"point"`
	RadiusKm float64    `json:"radius_km,omitempty"` // 0 means unset
	Type     ResortType `json:"resort_type"`
	State    string     `json:"state,omitempty"`
	Country  string     `json:"country,omitempty"`
}

func (r Resort) LocationID() int64        { return r.ID }
func (r Resort) LocationName() string     { return r.Name }
func (r Resort) Coordinates() Point       { return r.Point }
func (r Resort) radiusKm() float64        { return r.RadiusKm }
func (r Resort) defaultRadiusKm() float64 { return DefaultResortRadiusKm }

// IsBackcountry reports whether the resort is a backcountry zone
func (r Resort) IsBackcountry() bool {
	return r.Type == ResortTypeBackcountry
}

// Peak is a summit a backcountry tour can be attributed to
type Peak struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Point      Point   `json:"point"`
	RadiusKm   float64 `json:"radius_km,omitempty"` // 0 means unset
	ElevationM float64 `json:"elevation_m,omitempty"`
	State      string  `json:"state,omitempty"`
	Country    string  `json:"country,omitempty"`
}

func (p Peak) LocationID() int64        { return p.ID }
func (p Peak) LocationName() string     { return p.Name }
func (p Peak) Coordinates() Point       { return p.Point }
func (p Peak) radiusKm() float64        { return p.RadiusKm }
func (p Peak) defaultRadiusKm() float64 { return DefaultPeakRadiusKm }

// EffectiveRadius returns the search radius for l in kilometers, substituting
// the variant's default when none is set.
func EffectiveRadius(l Location) float64 {
	if r := l.radiusKm(); r > 0 {
		return r
	}
	return l.defaultRadiusKm()
}

// Candidate is a location selected for a point
type Candidate[L Location] struct {
	Location   L
	DistanceKm float64
}

// Nearest returns the closest candidate whose effective radius contains p.
// On an exact distance tie the candidate evaluated first is kept. ok is
// false when no candidate is in range.
func Nearest[L Location](p Point, candidates []L) (Candidate[L], bool) {
	var best Candidate[L]
	found := false

	for _, c := range candidates {
		d := DistanceKm(p, c.Coordinates())
		if d > EffectiveRadius(c) {
			continue
		}
		if !found || d < best.DistanceKm {
			best = Candidate[L]{Location: c, DistanceKm: d}
			found = true
		}
	}

	return best, found
}

// Subject is the part of an activity the matcher needs
type Subject struct {
	ActivityID int64
	Sport      string
	Start      *Point // nil for manual entries without GPS
}

// Match links an activity to a location
type Match struct {
	ActivityID int64   `json:"activity_id"`
	LocationID int64   `json:"location_id"`
	DistanceKm float64 `json:"distance_km"`
}

// MatchAll returns one match per subject whose sport passes include and whose
// start point lies within range of some candidate. Subjects without a start
// point are skipped.
func MatchAll[L Location](subjects []Subject, candidates []L, include func(sport string) bool) []Match {
	matches := []Match{}
	for _, s := range subjects {
		if s.Start == nil || !include(s.Sport) {
			continue
		}
		best, ok := Nearest(*s.Start, candidates)
		if !ok {
			continue
		}
		matches = append(matches, Match{
			ActivityID: s.ActivityID,
			LocationID: best.Location.LocationID(),
			DistanceKm: best.DistanceKm,
		})
	}
	return matches
}
