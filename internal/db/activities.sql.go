package db

import (
	"context"
	"database/sql"
)

const activityColumns = `id, name, distance, moving_time, elapsed_time, total_elevation_gain,
    type, sport_type, start_date, start_date_local, timezone, start_lat, start_lng,
    location_city, location_state, location_country, calories`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanActivity(row rowScanner) (Activity, error) {
	var i Activity
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Distance,
		&i.MovingTime,
		&i.ElapsedTime,
		&i.TotalElevationGain,
		&i.Type,
		&i.SportType,
		&i.StartDate,
		&i.StartDateLocal,
		&i.Timezone,
		&i.StartLat,
		&i.StartLng,
		&i.LocationCity,
		&i.LocationState,
		&i.LocationCountry,
		&i.Calories,
	)
	return i, err
}

func (q *Queries) listActivities(ctx context.Context, query string, args ...interface{}) ([]Activity, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Activity{}
	for rows.Next() {
		i, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countActivities = `-- name: CountActivities :one
SELECT COUNT(*) FROM activities
`

func (q *Queries) CountActivities(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countActivities)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createActivity = `-- name: CreateActivity :exec
INSERT INTO activities (
    id, name, distance, moving_time, elapsed_time, total_elevation_gain,
    type, sport_type, start_date, start_date_local, timezone, start_lat, start_lng,
    location_city, location_state, location_country, calories
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    distance = excluded.distance,
    moving_time = excluded.moving_time,
    elapsed_time = excluded.elapsed_time,
    total_elevation_gain = excluded.total_elevation_gain,
    type = excluded.type,
    sport_type = excluded.sport_type,
    start_date = excluded.start_date,
    start_date_local = excluded.start_date_local,
    timezone = excluded.timezone,
    start_lat = excluded.start_lat,
    start_lng = excluded.start_lng,
    location_city = excluded.location_city,
    location_state = excluded.location_state,
    location_country = excluded.location_country,
    calories = excluded.calories,
    updated_at = CURRENT_TIMESTAMP
`

type CreateActivityParams struct {
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

// CreateActivity inserts an activity or refreshes every column of an
// existing one with the same id.
func (q *Queries) CreateActivity(ctx context.Context, arg CreateActivityParams) error {
	_, err := q.db.ExecContext(ctx, createActivity,
		arg.ID,
		arg.Name,
		arg.Distance,
		arg.MovingTime,
		arg.ElapsedTime,
		arg.TotalElevationGain,
		arg.Type,
		arg.SportType,
		arg.StartDate,
		arg.StartDateLocal,
		arg.Timezone,
		arg.StartLat,
		arg.StartLng,
		arg.LocationCity,
		arg.LocationState,
		arg.LocationCountry,
		arg.Calories,
	)
	return err
}

const getActivity = `-- name: GetActivity :one
SELECT ` + activityColumns + ` FROM activities WHERE id = ?
`

func (q *Queries) GetActivity(ctx context.Context, id int64) (Activity, error) {
	row := q.db.QueryRowContext(ctx, getActivity, id)
	return scanActivity(row)
}

const getLatestActivityDate = `-- name: GetLatestActivityDate :one
SELECT MAX(start_date) FROM activities
`

// GetLatestActivityDate returns the newest UTC start date, invalid when the
// table is empty.
func (q *Queries) GetLatestActivityDate(ctx context.Context) (sql.NullString, error) {
	row := q.db.QueryRowContext(ctx, getLatestActivityDate)
	var latest sql.NullString
	err := row.Scan(&latest)
	return latest, err
}

const getOldestActivityDate = `-- name: GetOldestActivityDate :one
SELECT MIN(start_date) FROM activities
`

func (q *Queries) GetOldestActivityDate(ctx context.Context) (sql.NullString, error) {
	row := q.db.QueryRowContext(ctx, getOldestActivityDate)
	var oldest sql.NullString
	err := row.Scan(&oldest)
	return oldest, err
}

const getRecentActivities = `-- name: GetRecentActivities :many
SELECT ` + activityColumns + ` FROM activities
ORDER BY start_date DESC
LIMIT ?
`

func (q *Queries) GetRecentActivities(ctx context.Context, limit int64) ([]Activity, error) {
	return q.listActivities(ctx, getRecentActivities, limit)
}

const listAllActivities = `-- name: ListAllActivities :many
SELECT ` + activityColumns + ` FROM activities
ORDER BY start_date_local ASC, id ASC
`

// ListAllActivities returns every stored activity, oldest first.
func (q *Queries) ListAllActivities(ctx context.Context) ([]Activity, error) {
	return q.listActivities(ctx, listAllActivities)
}
