package db

import (
	"database/sql"
)

type Activity struct {
	ID                 int64
	Name               string
	Distance           sql.NullFloat64
	MovingTime         sql.NullInt64
	ElapsedTime        sql.NullInt64
	TotalElevationGain sql.NullFloat64
	Type               sql.NullString
	SportType          sql.NullString
	StartDate          sql.NullString
	StartDateLocal     sql.NullString
	Timezone           sql.NullString
	StartLat           sql.NullFloat64
	StartLng           sql.NullFloat64
	LocationCity       sql.NullString
	LocationState      sql.NullString
	LocationCountry    sql.NullString
	Calories           sql.NullFloat64
}

type AuthConfig struct {
	ID           int64
	ClientID     string
	ClientSecret string
	AccessToken  sql.NullString
	RefreshToken sql.NullString
	ExpiresAt    sql.NullInt64
}

type Resort struct {
	ID         int64
	Name       string
	Latitude   float64
	Longitude  float64
	RadiusKm   sql.NullFloat64
	ResortType string
	State      sql.NullString
	Country    sql.NullString
}

type Peak struct {
	ID         int64
	Name       string
	Latitude   float64
	Longitude  float64
	RadiusKm   sql.NullFloat64
	ElevationM sql.NullFloat64
	State      sql.NullString
	Country    sql.NullString
}

type ActivityResort struct {
	ActivityID int64
	ResortID   int64
	DistanceKm float64
}

type ActivityPeak struct {
	ActivityID int64
	PeakID     int64
	DistanceKm float64
}
