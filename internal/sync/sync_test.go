package sync

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/db"
	"github.com/joshdurbin/strava-season-stats/internal/strava"
)

type mockFetcher struct {
	activities []strava.Activity
	err        error
	since      time.Time
}

func (m *mockFetcher) FetchAllActivities(_ context.Context, progress strava.ProgressCallback) ([]strava.Activity, error) {
	if progress != nil {
		progress(strava.FetchResult{Page: 1, Activities: m.activities, TotalFetched: len(m.activities)})
	}
	return m.activities, m.err
}

func (m *mockFetcher) FetchActivitiesSince(ctx context.Context, since time.Time, progress strava.ProgressCallback) ([]strava.Activity, error) {
	m.since = since
	return m.FetchAllActivities(ctx, progress)
}

type mockStore struct {
	saved  []db.CreateActivityParams
	failOn int64
}

func (m *mockStore) CreateActivity(_ context.Context, arg db.CreateActivityParams) error {
	if arg.ID == m.failOn {
		return errors.New("disk full")
	}
	m.saved = append(m.saved, arg)
	return nil
}

func TestConvertActivityToParams(t *testing.T) {
	startDate := time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC)

	activity := strava.Activity{
		ID:                 12345,
		Name:               "Breck Pow Day",
		Distance:           24500.5,
		MovingTime:         14400,
		ElapsedTime:        21600,
		TotalElevationGain: 3200.5,
		Type:               "AlpineSki",
		SportType:          "Snowboard",
		StartDate:          startDate,
		StartDateLocal:     "2024-01-15T09:00:00Z",
		Timezone:           "(GMT-07:00) America/Denver",
		StartLatLng:        []float64{39.4817, -106.0384},
		LocationState:      "Colorado",
		LocationCountry:    "United States",
		Kilojoules:         350.0,
	}

	params := ConvertActivityToParams(activity)

	if params.ID != 12345 {
		t.Errorf("expected ID 12345, got %d", params.ID)
	}
	if !params.Distance.Valid || params.Distance.Float64 != 24500.5 {
		t.Errorf("expected distance 24500.5, got %+v", params.Distance)
	}
	if !params.MovingTime.Valid || params.MovingTime.Int64 != 14400 {
		t.Errorf("expected moving time 14400, got %+v", params.MovingTime)
	}
	if !params.SportType.Valid || params.SportType.String != "Snowboard" {
		t.Errorf("expected sport type Snowboard, got %+v", params.SportType)
	}
	if params.StartDate.String != "2024-01-15T16:00:00Z" {
		t.Errorf("expected RFC3339 UTC start date, got %+v", params.StartDate)
	}
	if params.StartDateLocal.String != "2024-01-15T09:00:00Z" {
		t.Errorf("expected raw local start date, got %+v", params.StartDateLocal)
	}
	if !params.StartLat.Valid || params.StartLat.Float64 != 39.4817 {
		t.Errorf("expected start lat 39.4817, got %+v", params.StartLat)
	}
	if !params.StartLng.Valid || params.StartLng.Float64 != -106.0384 {
		t.Errorf("expected start lng -106.0384, got %+v", params.StartLng)
	}
	if params.LocationCity.Valid {
		t.Errorf("expected empty city to be NULL, got %+v", params.LocationCity)
	}
	if params.LocationState.String != "Colorado" {
		t.Errorf("expected state Colorado, got %+v", params.LocationState)
	}
	if !params.Calories.Valid || params.Calories.Float64 != 350.0 {
		t.Errorf("expected calories 350.0, got %+v", params.Calories)
	}
}

func TestConvertActivityToParams_OffsetStartDate(t *testing.T) {
	denver := time.FixedZone("MST", -7*3600)
	activity := strava.Activity{
		ID:        1,
		StartDate: time.Date(2024, 1, 15, 9, 0, 0, 0, denver),
	}

	params := ConvertActivityToParams(activity)
	if params.StartDate.String != "2024-01-15T16:00:00Z" {
		t.Errorf("expected start date normalised to UTC, got %q", params.StartDate.String)
	}
}

func TestConvertActivityToParams_ZeroValues(t *testing.T) {
	activity := strava.Activity{
		ID:   12345,
		Name: "Manual Entry",
	}

	params := ConvertActivityToParams(activity)

	if params.Name != "Manual Entry" {
		t.Errorf("expected name 'Manual Entry', got '%s'", params.Name)
	}
	if params.Distance.Valid {
		t.Error("expected distance to be invalid for zero value")
	}
	if params.Type.Valid {
		t.Error("expected type to be invalid for empty string")
	}
	if params.StartDate.Valid || params.StartDateLocal.Valid {
		t.Error("expected start dates to be invalid for zero values")
	}
	if params.StartLat.Valid || params.StartLng.Valid {
		t.Error("expected start coordinates to be invalid without start_latlng")
	}
	if params.Calories.Valid {
		t.Error("expected calories to be invalid without energy data")
	}
}

func TestSync(t *testing.T) {
	fetcher := &mockFetcher{activities: []strava.Activity{
		{ID: 1, Name: "Copper Laps", SportType: "Snowboard"},
		{ID: 2, Name: "Skin Track", SportType: "BackcountrySki"},
	}}
	store := &mockStore{}
	service := NewService(store, fetcher)

	var fetchCalls, saveCalls int
	saved, err := service.Sync(context.Background(),
		func(strava.FetchResult) { fetchCalls++ },
		func(current, total int, name string) {
			saveCalls++
			if total != 2 {
				t.Errorf("expected total 2, got %d", total)
			}
		},
	)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if saved != 2 || len(store.saved) != 2 {
		t.Errorf("expected 2 saved, got %d (store has %d)", saved, len(store.saved))
	}
	if fetchCalls != 1 || saveCalls != 2 {
		t.Errorf("callbacks fetch=%d save=%d, want 1 and 2", fetchCalls, saveCalls)
	}
}

func TestSyncDelta(t *testing.T) {
	since := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{activities: []strava.Activity{{ID: 7, Name: "Recent Tour"}}}
	store := &mockStore{}

	saved, err := NewService(store, fetcher).SyncDelta(context.Background(), since, nil, nil)
	if err != nil {
		t.Fatalf("delta sync failed: %v", err)
	}
	if saved != 1 {
		t.Errorf("expected 1 saved, got %d", saved)
	}
	if !fetcher.since.Equal(since) {
		t.Errorf("fetcher called with since=%v, want %v", fetcher.since, since)
	}
}

func TestSyncErrors(t *testing.T) {
	t.Run("fetch error", func(t *testing.T) {
		fetcher := &mockFetcher{err: strava.ErrRateLimited}
		_, err := NewService(&mockStore{}, fetcher).Sync(context.Background(), nil, nil)
		if !errors.Is(err, strava.ErrRateLimited) {
			t.Errorf("expected wrapped ErrRateLimited, got %v", err)
		}
	})

	t.Run("save error reports progress so far", func(t *testing.T) {
		fetcher := &mockFetcher{activities: []strava.Activity{{ID: 1}, {ID: 2}, {ID: 3}}}
		store := &mockStore{failOn: 2}
		saved, err := NewService(store, fetcher).SyncDelta(context.Background(), time.Now(), nil, nil)
		if err == nil {
			t.Fatal("expected save error")
		}
		if saved != 1 {
			t.Errorf("expected 1 saved before failure, got %d", saved)
		}
	})
}

func TestToNullFloat64(t *testing.T) {
	tests := []struct {
		input    float64
		expected sql.NullFloat64
	}{
		{0, sql.NullFloat64{Float64: 0, Valid: false}},
		{123.45, sql.NullFloat64{Float64: 123.45, Valid: true}},
		{-50.5, sql.NullFloat64{Float64: -50.5, Valid: true}},
	}

	for _, tt := range tests {
		result := toNullFloat64(tt.input)
		if result != tt.expected {
			t.Errorf("toNullFloat64(%v) = %+v, want %+v", tt.input, result, tt.expected)
		}
	}
}

func TestToNullTimestamp(t *testing.T) {
	result := toNullTimestamp(time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC))
	if !result.Valid || result.String != "2024-01-15T08:00:00Z" {
		t.Errorf("unexpected timestamp %+v", result)
	}

	if toNullTimestamp(time.Time{}).Valid {
		t.Error("expected invalid timestamp for zero value")
	}
}
