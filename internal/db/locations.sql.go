package db

import (
	"context"
	"database/sql"
	"strings"
)

// matchBatchSize caps the number of bound parameters per IN query
const matchBatchSize = 500

const listResorts = `-- name: ListResorts :many
SELECT id, name, latitude, longitude, radius_km, resort_type, state, country
FROM resorts ORDER BY id
`

func (q *Queries) ListResorts(ctx context.Context) ([]Resort, error) {
	rows, err := q.db.QueryContext(ctx, listResorts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Resort{}
	for rows.Next() {
		var i Resort
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Latitude,
			&i.Longitude,
			&i.RadiusKm,
			&i.ResortType,
			&i.State,
			&i.Country,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPeaks = `-- name: ListPeaks :many
SELECT id, name, latitude, longitude, radius_km, elevation_m, state, country
FROM peaks ORDER BY id
`

func (q *Queries) ListPeaks(ctx context.Context) ([]Peak, error) {
	rows, err := q.db.QueryContext(ctx, listPeaks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Peak{}
	for rows.Next() {
		var i Peak
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Latitude,
			&i.Longitude,
			&i.RadiusKm,
			&i.ElevationM,
			&i.State,
			&i.Country,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertResort = `-- name: UpsertResort :one
INSERT INTO resorts (name, latitude, longitude, radius_km, resort_type, state, country)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET
    latitude = excluded.latitude,
    longitude = excluded.longitude,
    radius_km = excluded.radius_km,
    resort_type = excluded.resort_type,
    state = excluded.state,
    country = excluded.country,
    updated_at = CURRENT_TIMESTAMP
RETURNING id
`

type UpsertResortParams struct {
	Name       string
	Latitude   float64
	Longitude  float64
	RadiusKm   sql.NullFloat64
	ResortType string
	State      sql.NullString
	Country    sql.NullString
}

// UpsertResort inserts a resort keyed by name and returns its id.
func (q *Queries) UpsertResort(ctx context.Context, arg UpsertResortParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertResort,
		arg.Name,
		arg.Latitude,
		arg.Longitude,
		arg.RadiusKm,
		arg.ResortType,
		arg.State,
		arg.Country,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const upsertPeak = `-- name: UpsertPeak :one
INSERT INTO peaks (name, latitude, longitude, radius_km, elevation_m, state, country)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET
    latitude = excluded.latitude,
    longitude = excluded.longitude,
    radius_km = excluded.radius_km,
    elevation_m = excluded.elevation_m,
    state = excluded.state,
    country = excluded.country,
    updated_at = CURRENT_TIMESTAMP
RETURNING id
`

type UpsertPeakParams struct {
	Name       string
	Latitude   float64
	Longitude  float64
	RadiusKm   sql.NullFloat64
	ElevationM sql.NullFloat64
	State      sql.NullString
	Country    sql.NullString
}

// UpsertPeak inserts a peak keyed by name and returns its id.
func (q *Queries) UpsertPeak(ctx context.Context, arg UpsertPeakParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertPeak,
		arg.Name,
		arg.Latitude,
		arg.Longitude,
		arg.RadiusKm,
		arg.ElevationM,
		arg.State,
		arg.Country,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const clearResortMatches = `-- name: ClearResortMatches :exec
DELETE FROM activity_resorts
`

func (q *Queries) ClearResortMatches(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, clearResortMatches)
	return err
}

const clearPeakMatches = `-- name: ClearPeakMatches :exec
DELETE FROM activity_peaks
`

func (q *Queries) ClearPeakMatches(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, clearPeakMatches)
	return err
}

const insertResortMatch = `-- name: InsertResortMatch :exec
INSERT INTO activity_resorts (activity_id, resort_id, distance_km) VALUES (?, ?, ?)
`

func (q *Queries) InsertResortMatch(ctx context.Context, arg ActivityResort) error {
	_, err := q.db.ExecContext(ctx, insertResortMatch, arg.ActivityID, arg.ResortID, arg.DistanceKm)
	return err
}

const insertPeakMatch = `-- name: InsertPeakMatch :exec
INSERT INTO activity_peaks (activity_id, peak_id, distance_km) VALUES (?, ?, ?)
`

func (q *Queries) InsertPeakMatch(ctx context.Context, arg ActivityPeak) error {
	_, err := q.db.ExecContext(ctx, insertPeakMatch, arg.ActivityID, arg.PeakID, arg.DistanceKm)
	return err
}

const countResortMatches = `-- name: CountResortMatches :one
SELECT COUNT(*) FROM activity_resorts
`

func (q *Queries) CountResortMatches(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countResortMatches)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countPeakMatches = `-- name: CountPeakMatches :one
SELECT COUNT(*) FROM activity_peaks
`

func (q *Queries) CountPeakMatches(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPeakMatches)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type ResortMatchRow struct {
	ActivityID int64
	DistanceKm float64
	Resort     Resort
}

const getResortMatchesFor = `-- name: GetResortMatchesFor :many
SELECT ar.activity_id, ar.distance_km,
    r.id, r.name, r.latitude, r.longitude, r.radius_km, r.resort_type, r.state, r.country
FROM activity_resorts ar
JOIN resorts r ON r.id = ar.resort_id
WHERE ar.activity_id IN (/*SLICE:ids*/?)
`

// GetResortMatchesFor returns the resort matched to each of the given
// activities, keyed by activity id. Activities without a match are absent.
func (q *Queries) GetResortMatchesFor(ctx context.Context, ids []int64) (map[int64]ResortMatchRow, error) {
	out := make(map[int64]ResortMatchRow, len(ids))
	for start := 0; start < len(ids); start += matchBatchSize {
		end := min(start+matchBatchSize, len(ids))
		query, args := expandSlice(getResortMatchesFor, ids[start:end])
		rows, err := q.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var i ResortMatchRow
			if err := rows.Scan(
				&i.ActivityID,
				&i.DistanceKm,
				&i.Resort.ID,
				&i.Resort.Name,
				&i.Resort.Latitude,
				&i.Resort.Longitude,
				&i.Resort.RadiusKm,
				&i.Resort.ResortType,
				&i.Resort.State,
				&i.Resort.Country,
			); err != nil {
				rows.Close()
				return nil, err
			}
			out[i.ActivityID] = i
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type PeakMatchRow struct {
	ActivityID int64
	DistanceKm float64
	Peak       Peak
}

const getPeakMatchesFor = `-- name: GetPeakMatchesFor :many
SELECT ap.activity_id, ap.distance_km,
    p.id, p.name, p.latitude, p.longitude, p.radius_km, p.elevation_m, p.state, p.country
FROM activity_peaks ap
JOIN peaks p ON p.id = ap.peak_id
WHERE ap.activity_id IN (/*SLICE:ids*/?)
`

// GetPeakMatchesFor returns the peak matched to each of the given activities,
// keyed by activity id. Activities without a match are absent.
func (q *Queries) GetPeakMatchesFor(ctx context.Context, ids []int64) (map[int64]PeakMatchRow, error) {
	out := make(map[int64]PeakMatchRow, len(ids))
	for start := 0; start < len(ids); start += matchBatchSize {
		end := min(start+matchBatchSize, len(ids))
		query, args := expandSlice(getPeakMatchesFor, ids[start:end])
		rows, err := q.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var i PeakMatchRow
			if err := rows.Scan(
				&i.ActivityID,
				&i.DistanceKm,
				&i.Peak.ID,
				&i.Peak.Name,
				&i.Peak.Latitude,
				&i.Peak.Longitude,
				&i.Peak.RadiusKm,
				&i.Peak.ElevationM,
				&i.Peak.State,
				&i.Peak.Country,
			); err != nil {
				rows.Close()
				return nil, err
			}
			out[i.ActivityID] = i
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// expandSlice replaces the sqlc slice marker with one placeholder per id
func expandSlice(query string, ids []int64) (string, []interface{}) {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.Repeat(",?", len(ids))[1:]
	return strings.Replace(query, "/*SLICE:ids*/?", placeholders, 1), args
}
