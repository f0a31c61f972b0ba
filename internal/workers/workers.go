// Package workers runs the long-lived background jobs: keeping the Strava
// token fresh and pulling new activities on an interval.
package workers

import (
	"context"
	"database/sql"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/auth"
	"github.com/joshdurbin/strava-season-stats/internal/db"
	"github.com/joshdurbin/strava-season-stats/internal/logging"
)

// refreshWindow is how close to expiry the refresher renews a token
const refreshWindow = 10 * time.Minute

// every runs fn immediately and then on each tick until ctx is done
func every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// TokenRefresher keeps auth tokens up to date
type TokenRefresher struct {
	storage  *auth.Storage
	interval time.Duration
}

// NewTokenRefresher creates a new token refresher worker
func NewTokenRefresher(storage *auth.Storage, interval time.Duration) *TokenRefresher {
	return &TokenRefresher{
		storage:  storage,
		interval: interval,
	}
}

// Run starts the token refresh worker
func (t *TokenRefresher) Run(ctx context.Context) {
	log := logging.Logger
	log.Info().Dur("interval", t.interval).Msg("token refresher started")
	every(ctx, t.interval, t.checkAndRefresh)
	log.Info().Msg("token refresher stopped")
}

func (t *TokenRefresher) checkAndRefresh(ctx context.Context) {
	log := logging.Logger

	tokens, refreshed, err := t.storage.RefreshIfExpiring(ctx, refreshWindow)
	if err != nil {
		log.Error().Err(err).Msg("token refresh check failed")
		return
	}

	expiresAt := time.Unix(tokens.ExpiresAt, 0)
	if refreshed {
		log.Info().Str("new_expires_at", expiresAt.Format(time.RFC3339)).Msg("token refreshed successfully")
		return
	}
	log.Debug().Dur("expires_in", time.Until(expiresAt).Round(time.Second)).Msg("token still valid")
}

// ActivitySyncer periodically syncs activities from Strava
type ActivitySyncer struct {
	pipeline *Pipeline
	storage  *auth.Storage
	interval time.Duration
}

// NewActivitySyncer creates a new activity sync worker
func NewActivitySyncer(pipeline *Pipeline, storage *auth.Storage, interval time.Duration) *ActivitySyncer {
	return &ActivitySyncer{
		pipeline: pipeline,
		storage:  storage,
		interval: interval,
	}
}

// Run starts the activity sync worker
func (a *ActivitySyncer) Run(ctx context.Context) {
	log := logging.Logger
	log.Info().Dur("interval", a.interval).Msg("activity syncer started")
	every(ctx, a.interval, a.syncActivities)
	log.Info().Msg("activity syncer stopped")
}

func (a *ActivitySyncer) syncActivities(ctx context.Context) {
	log := logging.Logger

	accessToken, err := a.storage.GetValidAccessToken(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to get access token for sync")
		return
	}
	if _, err := a.pipeline.Run(ctx, accessToken); err != nil {
		if ctx.Err() != nil {
			log.Info().Msg("activity sync interrupted")
			return
		}
		log.Error().Err(err).Msg("activity sync failed")
	}
}

// StatsQuerier is the part of db.Queries database statistics need
type StatsQuerier interface {
	CountActivities(ctx context.Context) (int64, error)
	GetLatestActivityDate(ctx context.Context) (sql.NullString, error)
	GetOldestActivityDate(ctx context.Context) (sql.NullString, error)
	CountResortMatches(ctx context.Context) (int64, error)
	CountPeakMatches(ctx context.Context) (int64, error)
}

var _ StatsQuerier = (*db.Queries)(nil)

// DatabaseStats is a snapshot of what is stored
type DatabaseStats struct {
	Activities    int64
	Newest        string
	Oldest        string
	ResortMatches int64
	PeakMatches   int64
}

// CollectDatabaseStats reads a DatabaseStats snapshot
func CollectDatabaseStats(ctx context.Context, q StatsQuerier) (DatabaseStats, error) {
	count, err := q.CountActivities(ctx)
	if err != nil {
		return DatabaseStats{}, err
	}
	stats := DatabaseStats{Activities: count, Newest: "unknown", Oldest: "unknown"}
	if count == 0 {
		return stats, nil
	}

	stats.Newest = formatDate(q.GetLatestActivityDate(ctx))
	stats.Oldest = formatDate(q.GetOldestActivityDate(ctx))
	stats.ResortMatches, _ = q.CountResortMatches(ctx)
	stats.PeakMatches, _ = q.CountPeakMatches(ctx)
	return stats, nil
}

// LogDatabaseStats logs current database statistics
func LogDatabaseStats(ctx context.Context, q StatsQuerier) {
	log := logging.Logger

	stats, err := CollectDatabaseStats(ctx, q)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count activities")
		return
	}

	log.Info().
		Int64("total_activities", stats.Activities).
		Str("newest_activity", stats.Newest).
		Str("oldest_activity", stats.Oldest).
		Int64("resort_matches", stats.ResortMatches).
		Int64("peak_matches", stats.PeakMatches).
		Msg("database statistics")
}

func formatDate(v sql.NullString, err error) string {
	if err != nil || !v.Valid || v.String == "" {
		return "unknown"
	}
	return v.String
}
