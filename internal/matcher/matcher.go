// Package matcher assigns stored activities to their nearest resort and peak
// and persists the links. Every run recomputes all matches from scratch so
// catalogue edits (new peaks, radius changes) reach past activities.
package matcher

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/db"
	"github.com/joshdurbin/strava-season-stats/internal/geo"
	"github.com/joshdurbin/strava-season-stats/internal/logging"
	"github.com/joshdurbin/strava-season-stats/internal/sport"
)

// Store is the part of the database the matcher reads and rewrites
type Store interface {
	ListAllActivities(ctx context.Context) ([]db.Activity, error)
	ListResorts(ctx context.Context) ([]db.Resort, error)
	ListPeaks(ctx context.Context) ([]db.Peak, error)
	ClearResortMatches(ctx context.Context) error
	ClearPeakMatches(ctx context.Context) error
	InsertResortMatch(ctx context.Context, arg db.ActivityResort) error
	InsertPeakMatch(ctx context.Context, arg db.ActivityPeak) error
}

// Result summarizes a matching pass
type Result struct {
	Activities    int           `json:"activities"`
	Resorts       int           `json:"resorts"`
	Peaks         int           `json:"peaks"`
	ResortMatches int           `json:"resort_matches"`
	PeakMatches   int           `json:"peak_matches"`
	Duration      time.Duration `json:"duration"`
}

// Service runs matching passes against a Store
type Service struct {
	store Store
}

// NewService creates a matcher over store
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Run clears every resort and peak match and inserts a fresh set. Winter
// activities are matched to resorts, backcountry activities to peaks.
func (s *Service) Run(ctx context.Context) (Result, error) {
	log := logging.Logger
	started := time.Now()

	rows, err := s.store.ListAllActivities(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing activities: %w", err)
	}
	resortRows, err := s.store.ListResorts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing resorts: %w", err)
	}
	peakRows, err := s.store.ListPeaks(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing peaks: %w", err)
	}

	subjects := make([]geo.Subject, 0, len(rows))
	for _, a := range rows {
		sportType := a.SportType.String
		if sportType == "" {
			sportType = a.Type.String
		}
		subjects = append(subjects, geo.Subject{ActivityID: a.ID, Sport: sportType, Start: a.StartPoint()})
	}
	resorts := make([]geo.Resort, 0, len(resortRows))
	for _, r := range resortRows {
		resorts = append(resorts, r.ToGeo())
	}
	peaks := make([]geo.Peak, 0, len(peakRows))
	for _, p := range peakRows {
		peaks = append(peaks, p.ToGeo())
	}

	resortMatches := geo.MatchAll(subjects, resorts, sport.IsWinter)
	peakMatches := geo.MatchAll(subjects, peaks, sport.IsBackcountry)

	if err := s.store.ClearResortMatches(ctx); err != nil {
		return Result{}, fmt.Errorf("clearing resort matches: %w", err)
	}
	if err := s.store.ClearPeakMatches(ctx); err != nil {
		return Result{}, fmt.Errorf("clearing peak matches: %w", err)
	}

	for _, m := range resortMatches {
		err := s.store.InsertResortMatch(ctx, db.ActivityResort{
			ActivityID: m.ActivityID,
			ResortID:   m.LocationID,
			DistanceKm: m.DistanceKm,
		})
		if err != nil {
			return Result{}, fmt.Errorf("saving resort match for activity %d: %w", m.ActivityID, err)
		}
	}
	for _, m := range peakMatches {
		err := s.store.InsertPeakMatch(ctx, db.ActivityPeak{
			ActivityID: m.ActivityID,
			PeakID:     m.LocationID,
			DistanceKm: m.DistanceKm,
		})
		if err != nil {
			return Result{}, fmt.Errorf("saving peak match for activity %d: %w", m.ActivityID, err)
		}
	}

	res := Result{
		Activities:    len(rows),
		Resorts:       len(resorts),
		Peaks:         len(peaks),
		ResortMatches: len(resortMatches),
		PeakMatches:   len(peakMatches),
		Duration:      time.Since(started),
	}
	log.Info().
		Int("activities", res.Activities).
		Int("resorts", res.Resorts).
		Int("peaks", res.Peaks).
		Int("resort_matches", res.ResortMatches).
		Int("peak_matches", res.PeakMatches).
		Dur("duration", res.Duration).
		Msg("location matching completed")
	return res, nil
}

// RunInTx runs a matching pass inside one transaction so readers never see
// the cleared state.
func RunInTx(ctx context.Context, sqlDB *sql.DB) (Result, error) {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := NewService(db.New(sqlDB).WithTx(tx)).Run(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("committing matches: %w", err)
	}
	return res, nil
}
