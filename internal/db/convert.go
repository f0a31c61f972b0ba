package db

import "github.com/joshdurbin/strava-season-stats/internal/geo"

// ToGeo converts a stored resort into the matcher's representation. A NULL
// radius becomes 0 so geo.EffectiveRadius applies the resort default.
func (r Resort) ToGeo() geo.Resort {
	return geo.Resort{
		ID:       r.ID,
		Name:     r.Name,
		Point:    geo.Point{Lat: r.Latitude, Lng: r.Longitude},
		RadiusKm: r.RadiusKm.Float64,
		Type:     geo.ResortType(r.ResortType),
		State:    r.State.String,
		Country:  r.Country.String,
	}
}

// ToGeo converts a stored peak into the matcher's representation.
func (p Peak) ToGeo() geo.Peak {
	return geo.Peak{
		ID:         p.ID,
		Name:       p.Name,
		Point:      geo.Point{Lat: p.Latitude, Lng: p.Longitude},
		RadiusKm:   p.RadiusKm.Float64,
		ElevationM: p.ElevationM.Float64,
		State:      p.State.String,
		Country:    p.Country.String,
	}
}

// StartPoint returns the activity's start coordinates, nil when either is missing.
func (a Activity) StartPoint() *geo.Point {
	if !a.StartLat.Valid || !a.StartLng.Valid {
		return nil
	}
	return &geo.Point{Lat: a.StartLat.Float64, Lng: a.StartLng.Float64}
}
