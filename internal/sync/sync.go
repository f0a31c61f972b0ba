// Package sync copies activities from the Strava API into the local store.
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/db"
	"github.com/joshdurbin/strava-season-stats/internal/logging"
	"github.com/joshdurbin/strava-season-stats/internal/strava"
)

// FetchProgressCallback is called after each page is fetched
type FetchProgressCallback func(result strava.FetchResult)

// SaveProgressCallback is called after each activity is saved
type SaveProgressCallback func(current, total int, activityName string)

// Fetcher lists activities from the remote API
type Fetcher interface {
	FetchAllActivities(ctx context.Context, progress strava.ProgressCallback) ([]strava.Activity, error)
	FetchActivitiesSince(ctx context.Context, since time.Time, progress strava.ProgressCallback) ([]strava.Activity, error)
}

// Store persists activities
type Store interface {
	CreateActivity(ctx context.Context, arg db.CreateActivityParams) error
}

// Service handles syncing activities from Strava to the database
type Service struct {
	store  Store
	client Fetcher
}

// NewService creates a new sync service
func NewService(store Store, client Fetcher) *Service {
	return &Service{
		store:  store,
		client: client,
	}
}

// Sync fetches every activity on the account and upserts it. It returns the
// number of activities saved.
func (s *Service) Sync(ctx context.Context, fetchProgress FetchProgressCallback, saveProgress SaveProgressCallback) (int, error) {
	logging.Info("fetching all activities from Strava")

	activities, err := s.client.FetchAllActivities(ctx, strava.ProgressCallback(fetchProgress))
	if err != nil {
		return 0, fmt.Errorf("fetching activities: %w", err)
	}

	logging.Info("fetched activities", "count", len(activities))
	return s.save(ctx, activities, saveProgress)
}

// SyncDelta fetches only activities started after since
func (s *Service) SyncDelta(ctx context.Context, since time.Time, fetchProgress FetchProgressCallback, saveProgress SaveProgressCallback) (int, error) {
	activities, err := s.client.FetchActivitiesSince(ctx, since, strava.ProgressCallback(fetchProgress))
	if err != nil {
		return 0, fmt.Errorf("fetching activities: %w", err)
	}
	return s.save(ctx, activities, saveProgress)
}

func (s *Service) save(ctx context.Context, activities []strava.Activity, progress SaveProgressCallback) (int, error) {
	for i, activity := range activities {
		if err := s.store.CreateActivity(ctx, ConvertActivityToParams(activity)); err != nil {
			return i, fmt.Errorf("saving activity %d (%s): %w", activity.ID, activity.Name, err)
		}
		if progress != nil {
			progress(i+1, len(activities), activity.Name)
		}
	}
	return len(activities), nil
}

// ConvertActivityToParams converts a Strava activity to database params.
// start_date is normalised to RFC3339 UTC so it sorts lexically; the local
// start is stored exactly as Strava sent it.
func ConvertActivityToParams(a strava.Activity) db.CreateActivityParams {
	params := db.CreateActivityParams{
		ID:                 a.ID,
		Name:               a.Name,
		Distance:           toNullFloat64(a.Distance),
		MovingTime:         toNullInt64(int64(a.MovingTime)),
		ElapsedTime:        toNullInt64(int64(a.ElapsedTime)),
		TotalElevationGain: toNullFloat64(a.TotalElevationGain),
		Type:               toNullString(a.Type),
		SportType:          toNullString(a.SportType),
		StartDate:          toNullTimestamp(a.StartDate),
		StartDateLocal:     toNullString(a.StartDateLocal),
		Timezone:           toNullString(a.Timezone),
		LocationCity:       toNullString(a.LocationCity),
		LocationState:      toNullString(a.LocationState),
		LocationCountry:    toNullString(a.LocationCountry),
		Calories:           toNullFloat64(a.EnergyKcal()),
	}
	if lat, lng, ok := a.StartCoordinates(); ok {
		params.StartLat = sql.NullFloat64{Float64: lat, Valid: true}
		params.StartLng = sql.NullFloat64{Float64: lng, Valid: true}
	}
	return params
}

func toNullFloat64(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v != 0}
}

func toNullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func toNullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func toNullTimestamp(v time.Time) sql.NullString {
	if v.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: v.UTC().Format(time.RFC3339), Valid: true}
}
